package converter

import (
	"github.com/printlab-tech/shopbot-backend/internal/usecase"
)

type SessionConverter interface {
	ToRedisModel(entity *usecase.SessionState) *SessionRedisModel
	ToUseCase(model *SessionRedisModel) *usecase.SessionState
}

type sessionConverterImpl struct{}

func NewSessionConverter() SessionConverter {
	return &sessionConverterImpl{}
}

func (c *sessionConverterImpl) ToRedisModel(entity *usecase.SessionState) *SessionRedisModel {
	if entity == nil {
		return nil
	}

	return &SessionRedisModel{
		UserID:            entity.UserID,
		State:             string(entity.State),
		SelectedProductID: entity.SelectedProductID,
		OrdersPage:        entity.OrdersPage,
	}
}

func (c *sessionConverterImpl) ToUseCase(model *SessionRedisModel) *usecase.SessionState {
	if model == nil {
		return nil
	}

	return &usecase.SessionState{
		UserID:            model.UserID,
		State:             usecase.ConversationState(model.State),
		SelectedProductID: model.SelectedProductID,
		OrdersPage:        model.OrdersPage,
	}
}
