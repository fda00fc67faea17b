package converter

// SessionRedisModel — JSON-представление сессионного черновика в Redis.
type SessionRedisModel struct {
	UserID            int64  `json:"user_id"`
	State             string `json:"state"`
	SelectedProductID int64  `json:"selected_product_id,omitempty"`
	OrdersPage        int    `json:"orders_page,omitempty"`
}
