package domain

import (
	"time"

	"github.com/printlab-tech/shopbot-backend/pkg/e"
)

// MaxOrderLines — фиксированная ёмкость записи журнала заказов.
// Запись имеет ровно четыре слота под позиции, заказ большего размера
// отклоняется целиком.
const MaxOrderLines = 4

// OrderLine — позиция завершённого заказа.
// Цена не сохраняется в журнале: при показе истории позиция
// переоценивается по живому каталогу по совпадению имени.
type OrderLine struct {
	ProductName string
	Quantity    int32
}

// OrderRecord — запись журнала заказов. Журнал append-only:
// записи никогда не обновляются и не удаляются.
type OrderRecord struct {
	ID               int64
	CreatedAt        time.Time
	CustomerFullName string
	Lines            []OrderLine
}

func NewOrderRecord(customerFullName string, lines []OrderLine) *OrderRecord {
	return &OrderRecord{
		CustomerFullName: customerFullName,
		Lines:            lines,
	}
}

// Validate проверяет, что заказ помещается в запись журнала.
func (o *OrderRecord) Validate() error {
	if len(o.Lines) == 0 {
		return e.ErrNoOrderLines
	}
	if len(o.Lines) > MaxOrderLines {
		return e.ErrOrderCapacityExceeded
	}
	return nil
}
