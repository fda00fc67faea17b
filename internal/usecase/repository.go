package usecase

import (
	"context"

	"github.com/printlab-tech/shopbot-backend/internal/domain"
)

type UserRepository interface {
	// Get возвращает профиль или e.ErrUserNotFound.
	Get(ctx context.Context, userID int64) (*domain.UserProfile, error)
	// Upsert безусловно перезаписывает имя и фамилию, registered_at сохраняется
	// от первой регистрации. Выполняется в транзакции из контекста.
	Upsert(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error)
}

type CartRepository interface {
	// AddItem вставляет строку корзины или накапливает количество
	// существующей строки (user_id, product_id).
	AddItem(ctx context.Context, item *domain.CartItem) error
	ListItems(ctx context.Context, userID int64) ([]domain.CartItem, error)
	Clear(ctx context.Context, userID int64) error
}

type OrderRepository interface {
	// Append добавляет запись в журнал заказов одной атомарной вставкой.
	// Заказ длиннее domain.MaxOrderLines отклоняется целиком
	// с e.ErrOrderCapacityExceeded, журнал не меняется.
	Append(ctx context.Context, order *domain.OrderRecord) (*domain.OrderRecord, error)
	// FindByCustomer возвращает заказы в порядке добавления (старые первыми).
	// Ключ поиска — полное имя, а не идентификатор пользователя: два тёзки
	// увидят общую историю.
	FindByCustomer(ctx context.Context, fullName string) ([]*domain.OrderRecord, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}

type SessionRepository interface {
	// Get возвращает сессионный черновик или (nil, nil), если его нет.
	Get(ctx context.Context, userID int64) (*SessionState, error)
	Put(ctx context.Context, session *SessionState) error
	Delete(ctx context.Context, userID int64) error
}

// ProductCatalog — читающий коллаборатор: каталог загружается один раз
// при старте процесса, идентификаторы позиционные.
type ProductCatalog interface {
	ListAll() []domain.Product
	// GetByID возвращает товар или e.ErrProductNotFound.
	GetByID(id int64) (*domain.Product, error)
}
