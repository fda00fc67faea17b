package usecase

import "context"

type ConversationUC interface {
	Handle(ctx context.Context, userID int64, event Event) (*View, error)
}
