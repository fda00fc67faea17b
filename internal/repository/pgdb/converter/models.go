package converter

import "time"

// UserModel представляет запись таблицы users в PostgreSQL.
type UserModel struct {
	UserID       int64     `db:"user_id"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	RegisteredAt time.Time `db:"registered_at"`
}

// CartItemModel представляет запись таблицы cart_items в PostgreSQL.
type CartItemModel struct {
	UserID    int64     `db:"user_id"`
	ProductID int64     `db:"product_id"`
	Quantity  int32     `db:"quantity"`
	AddedAt   time.Time `db:"added_at"`
}

// OrderModel представляет запись таблицы orders: журнальная строка
// с фиксированными четырьмя слотами под позиции, пустые слоты — NULL.
type OrderModel struct {
	ID               int64     `db:"id"`
	CreatedAt        time.Time `db:"created_at"`
	CustomerFullName string    `db:"customer_full_name"`
	ProductName1     *string   `db:"product_name_1"`
	Quantity1        *int32    `db:"quantity_1"`
	ProductName2     *string   `db:"product_name_2"`
	Quantity2        *int32    `db:"quantity_2"`
	ProductName3     *string   `db:"product_name_3"`
	Quantity3        *int32    `db:"quantity_3"`
	ProductName4     *string   `db:"product_name_4"`
	Quantity4        *int32    `db:"quantity_4"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	UserID      int64      `db:"user_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
