package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect env variable")

	// Ошибки диалога и корзины
	ErrUserNotFound      = fmt.Errorf("user not found")
	ErrProductNotFound   = fmt.Errorf("product not found")
	ErrInvalidName       = fmt.Errorf("first and last name are required")
	ErrInvalidQuantity   = fmt.Errorf("quantity must be positive")
	ErrNoSelectedProduct = fmt.Errorf("no product selected in session")
	ErrEmptyCart         = fmt.Errorf("cart is empty")

	// Ошибки журнала заказов
	ErrOrderCapacityExceeded = fmt.Errorf("order exceeds line item capacity")
	ErrNoOrderLines          = fmt.Errorf("order has no line items")

	// 400 Bad Request
	ErrStatusBadRequest    = fmt.Errorf("bad request")
	ErrUnknownEventType    = fmt.Errorf("unknown event type")
	ErrMissingFields       = fmt.Errorf("missing required fields")
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
