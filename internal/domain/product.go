package domain

// Product описывает позицию каталога.
// ID — порядковый номер строки в файле каталога, присваивается при загрузке
// и стабилен только в пределах одного запуска процесса.
type Product struct {
	ID          int64
	Name        string
	Price       int64 // Цена хранится в копейках
	Description string
}

func NewProduct(id int64, name string, price int64, description string) *Product {
	return &Product{
		ID:          id,
		Name:        name,
		Price:       price,
		Description: description,
	}
}
