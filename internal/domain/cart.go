package domain

import "time"

// CartItem — строка корзины. Пара (UserID, ProductID) уникальна,
// повторное добавление того же товара накапливает количество.
type CartItem struct {
	UserID    int64
	ProductID int64
	Quantity  int32
	AddedAt   time.Time
}

func NewCartItem(userID, productID int64, quantity int32) *CartItem {
	return &CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
}

// CartPosition — строка корзины, сведённая с живым каталогом.
type CartPosition struct {
	Product  Product
	Quantity int32
}

// Total возвращает стоимость позиции в копейках.
func (p CartPosition) Total() int64 {
	return p.Product.Price * int64(p.Quantity)
}
