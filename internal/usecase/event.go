package usecase

import (
	"strconv"
	"strings"
)

// Event — закрытое множество входящих событий диалога.
// Транспортный слой обязан свести любой входящий апдейт к одному из вариантов.
type Event interface {
	isEvent()
}

// StartEvent — команда начала диалога (/start).
type StartEvent struct{}

// TextEvent — свободный текст от пользователя.
type TextEvent struct {
	Content string
}

// SelectEvent — нажатие кнопки меню.
type SelectEvent struct {
	Selection Selection
}

// CancelEvent — завершение диалога. Сбрасывает только сессионный черновик,
// сохранённые данные не трогает.
type CancelEvent struct{}

func (StartEvent) isEvent()  {}
func (TextEvent) isEvent()   {}
func (SelectEvent) isEvent() {}
func (CancelEvent) isEvent() {}

// Selection — закрытое множество пунктов меню.
type Selection interface {
	isSelection()
}

type SelCatalog struct{}
type SelCart struct{}
type SelOrders struct{}
type SelBackToMenu struct{}
type SelCheckout struct{}
type SelClearCart struct{}

type SelProduct struct {
	ProductID int64
}

type SelQuantity struct {
	Quantity int32
}

type SelOrdersPage struct {
	Page int
}

// SelUnknown — явный вариант «проигнорировано»: нераспознанный токен
// не является ошибкой, движок отвечает на него пустым представлением.
type SelUnknown struct {
	Token string
}

func (SelCatalog) isSelection()    {}
func (SelCart) isSelection()       {}
func (SelOrders) isSelection()     {}
func (SelBackToMenu) isSelection() {}
func (SelCheckout) isSelection()   {}
func (SelClearCart) isSelection()  {}
func (SelProduct) isSelection()    {}
func (SelQuantity) isSelection()   {}
func (SelOrdersPage) isSelection() {}
func (SelUnknown) isSelection()    {}

// Токены кнопок. Грамматика общая для парсера и для построения представлений.
const (
	TokenCatalog    = "catalog"
	TokenCart       = "cart"
	TokenOrders     = "orders"
	TokenBackToMenu = "back_to_menu"
	TokenCheckout   = "checkout"
	TokenClearCart  = "clear_cart"

	tokenProductPrefix    = "product_"
	tokenQuantityPrefix   = "qty_"
	tokenOrdersPagePrefix = "orders_page_"
)

// ParseSelection сводит строковый токен кнопки к варианту Selection.
func ParseSelection(token string) Selection {
	switch token {
	case TokenCatalog:
		return SelCatalog{}
	case TokenCart:
		return SelCart{}
	case TokenOrders:
		return SelOrders{}
	case TokenBackToMenu:
		return SelBackToMenu{}
	case TokenCheckout:
		return SelCheckout{}
	case TokenClearCart:
		return SelClearCart{}
	}

	if raw, ok := strings.CutPrefix(token, tokenProductPrefix); ok {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			return SelUnknown{Token: token}
		}
		return SelProduct{ProductID: id}
	}

	if raw, ok := strings.CutPrefix(token, tokenQuantityPrefix); ok {
		qty, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return SelUnknown{Token: token}
		}
		return SelQuantity{Quantity: int32(qty)}
	}

	if raw, ok := strings.CutPrefix(token, tokenOrdersPagePrefix); ok {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			return SelUnknown{Token: token}
		}
		return SelOrdersPage{Page: page}
	}

	return SelUnknown{Token: token}
}

// ProductToken возвращает токен кнопки товара.
func ProductToken(productID int64) string {
	return tokenProductPrefix + strconv.FormatInt(productID, 10)
}

// QuantityToken возвращает токен кнопки количества.
func QuantityToken(qty int32) string {
	return tokenQuantityPrefix + strconv.FormatInt(int64(qty), 10)
}

// OrdersPageToken возвращает токен страницы истории заказов.
func OrdersPageToken(page int) string {
	return tokenOrdersPagePrefix + strconv.Itoa(page)
}
