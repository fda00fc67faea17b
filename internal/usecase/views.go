package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/printlab-tech/shopbot-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Фиксированное меню выбора количества.
var quantityChoices = []int32{1, 2, 3, 5, 10}

// formatKopecks печатает цену в рублях с двумя знаками после запятой.
func formatKopecks(kopecks int64) string {
	return decimal.NewFromInt(kopecks).Div(decimal.NewFromInt(100)).StringFixed(2) + " ₽"
}

func viewNamePrompt() *View {
	return NewView(
		"👋 Привет! Я бот для заказа 3D печати!\n" +
			"Для начала расскажи немного о себе:\n" +
			"Введи своё Имя и Фамилию (например: Иван Иванов)",
	)
}

func viewInvalidName() *View {
	return NewView("❌ Пожалуйста, введите Имя и Фамилию через пробел (например: Иван Иванов)")
}

func viewMainMenu(firstName string) *View {
	return NewView(
		fmt.Sprintf("👋 %s, добро пожаловать в магазин 3D печати!\nВыберите действие:", firstName),
		NewAction("📦 Каталог товаров", TokenCatalog),
		NewAction("🛒 Корзина", TokenCart),
		NewAction("📋 Мои заказы", TokenOrders),
	)
}

func viewWelcome(firstName string) *View {
	view := viewMainMenu(firstName)
	view.Text = fmt.Sprintf(
		"✅ Отлично, %s! Регистрация завершена!\n"+
			"Теперь ты можешь заказывать товары для 3D печати 🎨\n\n%s",
		firstName, view.Text,
	)
	return view
}

func viewCatalogEmpty() *View {
	return NewView("😔 Каталог товаров пуст", NewAction("🔙 Назад", TokenBackToMenu))
}

func viewCatalog(products []domain.Product) *View {
	var b strings.Builder
	b.WriteString("🛍️ Каталог товаров:\n\n")

	actions := make([]Action, 0, len(products)+1)
	for _, product := range products {
		fmt.Fprintf(&b, "• %s — %s\n  %s\n\n", product.Name, formatKopecks(product.Price), product.Description)
		actions = append(actions, NewAction(
			fmt.Sprintf("%s — %s", product.Name, formatKopecks(product.Price)),
			ProductToken(product.ID),
		))
	}
	actions = append(actions, NewAction("🔙 Назад", TokenBackToMenu))

	return NewView(b.String(), actions...)
}

func viewProductNotFound() *View {
	return NewView("❌ Товар не найден", NewAction("🔙 Назад", TokenCatalog))
}

func viewProductDetail(product *domain.Product) *View {
	text := fmt.Sprintf(
		"🎯 %s\n\n📝 %s\n💰 Цена: %s за шт.\n\nВыберите количество:",
		product.Name, product.Description, formatKopecks(product.Price),
	)

	actions := make([]Action, 0, len(quantityChoices)+1)
	for _, qty := range quantityChoices {
		actions = append(actions, NewAction(fmt.Sprintf("%d", qty), QuantityToken(qty)))
	}
	actions = append(actions, NewAction("🔙 Назад", TokenCatalog))

	return NewView(text, actions...)
}

func viewNoSelectedProduct() *View {
	return NewView(
		"❌ Ошибка: товар не выбран",
		NewAction("📦 Каталог товаров", TokenCatalog),
		NewAction("🔙 В меню", TokenBackToMenu),
	)
}

func viewAddedToCart(product *domain.Product, qty int32) *View {
	return NewView(
		fmt.Sprintf("✅ %s x%d добавлен в корзину!\n\nЧто хотите сделать дальше?", product.Name, qty),
		NewAction("📦 Продолжить покупки", TokenCatalog),
		NewAction("🛒 Перейти в корзину", TokenCart),
		NewAction("🔙 В меню", TokenBackToMenu),
	)
}

func viewCartEmpty() *View {
	return NewView("🛒 Ваша корзина пуста", NewAction("🔙 Назад", TokenBackToMenu))
}

func viewCart(positions []domain.CartPosition) *View {
	var (
		b     strings.Builder
		total int64
	)
	b.WriteString("🛒 Ваша корзина:\n\n")
	for _, pos := range positions {
		total += pos.Total()
		fmt.Fprintf(&b, "• %s x%d = %s\n", pos.Product.Name, pos.Quantity, formatKopecks(pos.Total()))
	}
	fmt.Fprintf(&b, "\n💵 Итого: %s", formatKopecks(total))

	return NewView(
		b.String(),
		NewAction("✅ Оформить заказ", TokenCheckout),
		NewAction("🗑️ Очистить корзину", TokenClearCart),
		NewAction("🔙 Назад", TokenBackToMenu),
	)
}

func viewCheckoutEmptyCart() *View {
	return NewView("❌ Корзина пуста", NewAction("🔙 Назад", TokenBackToMenu))
}

func viewOrderTooLarge() *View {
	return NewView(
		fmt.Sprintf(
			"❌ В один заказ помещается не более %d разных товаров.\nУберите лишние позиции из корзины и попробуйте снова.",
			domain.MaxOrderLines,
		),
		NewAction("🛒 Перейти в корзину", TokenCart),
		NewAction("🔙 В меню", TokenBackToMenu),
	)
}

func viewOrderConfirmed(positions []domain.CartPosition) *View {
	var (
		b     strings.Builder
		total int64
	)
	b.WriteString("✅ Заказ оформлен!\n\nВаш заказ:\n")
	for _, pos := range positions {
		total += pos.Total()
		fmt.Fprintf(&b, "• %s x%d = %s\n", pos.Product.Name, pos.Quantity, formatKopecks(pos.Total()))
	}
	fmt.Fprintf(&b, "\n💵 Общая сумма: %s\n\n📋 Заказ записан в журнал. Спасибо!", formatKopecks(total))

	return NewView(
		b.String(),
		NewAction("📋 Посмотреть заказы", TokenOrders),
		NewAction("🔙 В меню", TokenBackToMenu),
	)
}

func viewCheckoutFailed() *View {
	return NewView(
		"❌ Ошибка при оформлении заказа\n\nПопробуйте позже или обратитесь к администратору.",
		NewAction("🔙 Назад", TokenBackToMenu),
	)
}

func viewCartCleared() *View {
	return NewView("🗑️ Корзина очищена!", NewAction("🔙 В меню", TokenBackToMenu))
}

func viewOrdersEmpty() *View {
	return NewView(
		"📋 История заказов\n\n"+
			"У вас еще нет завершенных заказов.\n"+
			"Сделайте свой первый заказ в разделе 📦 Каталог товаров!",
		NewAction("📦 Перейти в каталог", TokenCatalog),
		NewAction("🔙 В меню", TokenBackToMenu),
	)
}

// viewOrders строит страницу истории заказов. Позиции переоцениваются по
// живому каталогу по совпадению имени; исчезнувший из каталога товар
// показывается без цены и не входит в сумму.
func viewOrders(orders []*domain.OrderRecord, page, totalPages, pageSize int, byName map[string]domain.Product) *View {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 История заказов\n\nВсего заказов: %d\n\n", len(orders))

	start := page * pageSize
	end := start + pageSize
	if end > len(orders) {
		end = len(orders)
	}

	for i, order := range orders[start:end] {
		fmt.Fprintf(&b, "Заказ #%d — %s\n", start+i+1, order.CreatedAt.Format(time.DateTime))

		var total int64
		for _, line := range order.Lines {
			if product, ok := byName[line.ProductName]; ok {
				lineTotal := product.Price * int64(line.Quantity)
				total += lineTotal
				fmt.Fprintf(&b, "  • %s x%d = %s\n", line.ProductName, line.Quantity, formatKopecks(lineTotal))
			} else {
				fmt.Fprintf(&b, "  • %s x%d\n", line.ProductName, line.Quantity)
			}
		}
		fmt.Fprintf(&b, "  Итого: %s\n\n", formatKopecks(total))
	}

	actions := make([]Action, 0, 5)
	if page > 0 {
		actions = append(actions, NewAction("⬅️ Назад", OrdersPageToken(page-1)))
	}
	// Токен current_page намеренно не входит в грамматику: нажатие на
	// индикатор страницы игнорируется движком.
	actions = append(actions, NewAction(fmt.Sprintf("%d/%d", page+1, totalPages), "current_page"))
	if page < totalPages-1 {
		actions = append(actions, NewAction("Вперед ➡️", OrdersPageToken(page+1)))
	}
	actions = append(actions,
		NewAction("📦 Новый заказ", TokenCatalog),
		NewAction("🔙 В меню", TokenBackToMenu),
	)

	return NewView(b.String(), actions...)
}

func viewCancelled() *View {
	return NewView("Операция отменена")
}

func viewUserNotFound() *View {
	return NewView("❌ Ошибка: пользователь не найден")
}
