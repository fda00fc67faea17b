package converter

import (
	"github.com/printlab-tech/shopbot-backend/internal/domain"
	"github.com/printlab-tech/shopbot-backend/internal/usecase"
)

// UserConverter преобразует профили пользователей между domain и моделью PostgreSQL.
type UserConverter interface {
	ToModel(entity *domain.UserProfile) *UserModel
	ToEntity(model *UserModel) *domain.UserProfile
}

// CartItemConverter преобразует строки корзины между domain и моделью PostgreSQL.
type CartItemConverter interface {
	ToEntity(model *CartItemModel) *domain.CartItem
	ToArrEntity(models []CartItemModel) []domain.CartItem
}

// OrderConverter укладывает позиции заказа в слоты журнальной строки и обратно.
type OrderConverter interface {
	ToModel(entity *domain.OrderRecord) *OrderModel
	ToEntity(model *OrderModel) *domain.OrderRecord
	ToArrEntity(models []*OrderModel) []*domain.OrderRecord
}

// OutboxEventConverter преобразует события outbox между usecase и моделью PostgreSQL.
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}

type userConverter struct{}

func NewUserConverter() UserConverter {
	return userConverter{}
}

func (userConverter) ToModel(entity *domain.UserProfile) *UserModel {
	return &UserModel{
		UserID:       entity.UserID,
		FirstName:    entity.FirstName,
		LastName:     entity.LastName,
		RegisteredAt: entity.RegisteredAt,
	}
}

func (userConverter) ToEntity(model *UserModel) *domain.UserProfile {
	return &domain.UserProfile{
		UserID:       model.UserID,
		FirstName:    model.FirstName,
		LastName:     model.LastName,
		RegisteredAt: model.RegisteredAt,
	}
}

type cartItemConverter struct{}

func NewCartItemConverter() CartItemConverter {
	return cartItemConverter{}
}

func (cartItemConverter) ToEntity(model *CartItemModel) *domain.CartItem {
	return &domain.CartItem{
		UserID:    model.UserID,
		ProductID: model.ProductID,
		Quantity:  model.Quantity,
		AddedAt:   model.AddedAt,
	}
}

func (c cartItemConverter) ToArrEntity(models []CartItemModel) []domain.CartItem {
	result := make([]domain.CartItem, 0, len(models))
	for i := range models {
		result = append(result, *c.ToEntity(&models[i]))
	}

	return result
}

type orderConverter struct{}

func NewOrderConverter() OrderConverter {
	return orderConverter{}
}

func (orderConverter) ToModel(entity *domain.OrderRecord) *OrderModel {
	model := &OrderModel{
		ID:               entity.ID,
		CreatedAt:        entity.CreatedAt,
		CustomerFullName: entity.CustomerFullName,
	}

	names := [domain.MaxOrderLines]**string{
		&model.ProductName1, &model.ProductName2, &model.ProductName3, &model.ProductName4,
	}
	quantities := [domain.MaxOrderLines]**int32{
		&model.Quantity1, &model.Quantity2, &model.Quantity3, &model.Quantity4,
	}

	for i, line := range entity.Lines {
		if i >= domain.MaxOrderLines {
			break
		}
		name := line.ProductName
		qty := line.Quantity
		*names[i] = &name
		*quantities[i] = &qty
	}

	return model
}

func (orderConverter) ToEntity(model *OrderModel) *domain.OrderRecord {
	names := [domain.MaxOrderLines]*string{
		model.ProductName1, model.ProductName2, model.ProductName3, model.ProductName4,
	}
	quantities := [domain.MaxOrderLines]*int32{
		model.Quantity1, model.Quantity2, model.Quantity3, model.Quantity4,
	}

	lines := make([]domain.OrderLine, 0, domain.MaxOrderLines)
	for i := 0; i < domain.MaxOrderLines; i++ {
		if names[i] == nil || quantities[i] == nil {
			continue
		}
		lines = append(lines, domain.OrderLine{
			ProductName: *names[i],
			Quantity:    *quantities[i],
		})
	}

	return &domain.OrderRecord{
		ID:               model.ID,
		CreatedAt:        model.CreatedAt,
		CustomerFullName: model.CustomerFullName,
		Lines:            lines,
	}
}

func (c orderConverter) ToArrEntity(models []*OrderModel) []*domain.OrderRecord {
	result := make([]*domain.OrderRecord, 0, len(models))
	for _, model := range models {
		result = append(result, c.ToEntity(model))
	}

	return result
}

type outboxEventConverter struct{}

func NewOutboxEventConverter() OutboxEventConverter {
	return outboxEventConverter{}
}

func (outboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		UserID:      entity.UserID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (outboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		UserID:      model.UserID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c outboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	result := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		result = append(result, c.ToEntity(model))
	}

	return result
}
