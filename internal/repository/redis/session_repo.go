package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jimlawless/whereami"
	"github.com/printlab-tech/shopbot-backend/internal/cfg"
	"github.com/printlab-tech/shopbot-backend/internal/repository/redis/converter"
	"github.com/printlab-tech/shopbot-backend/internal/usecase"
	"github.com/printlab-tech/shopbot-backend/pkg/clients"
	"github.com/printlab-tech/shopbot-backend/pkg/e"
	"github.com/printlab-tech/shopbot-backend/pkg/logger"
	r "github.com/redis/go-redis/v9"
)

// SessionRepo хранит сессионные черновики диалогов в Redis.
// Пропавший черновик не ошибка: движок начинает диалог заново.
type SessionRepo struct {
	client *clients.RedisClient
	conv   converter.SessionConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewSessionRepo(client *clients.RedisClient, conv converter.SessionConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *SessionRepo {
	return &SessionRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// Get возвращает черновик пользователя или (nil, nil), если его нет.
// Повреждённый черновик удаляется и трактуется как отсутствующий.
func (s *SessionRepo) Get(ctx context.Context, userID int64) (*usecase.SessionState, error) {
	key := s.sessionKey(userID)

	data, err := s.client.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, nil
		}

		s.logger.Warnf("Redis GET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.SessionRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		s.logger.Warnf("Session unmarshal failed, dropping key %s: %v", key, e.Wrap(whereami.WhereAmI(), err))
		if err := s.client.Client.Del(context.Background(), key).Err(); err != nil {
			s.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, nil
	}

	if model.UserID != userID {
		s.logger.Warnf("Session user mismatch: key_id: %d, model_id: %d", userID, model.UserID)
		if err := s.client.Client.Del(context.Background(), key).Err(); err != nil {
			s.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, nil
	}

	return s.conv.ToUseCase(&model), nil
}

// Put сохраняет черновик с TTL из конфигурации, продлевая его при каждом шаге диалога.
func (s *SessionRepo) Put(ctx context.Context, session *usecase.SessionState) error {
	model := s.conv.ToRedisModel(session)

	data, err := json.Marshal(model)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	key := s.sessionKey(session.UserID)
	if err := s.client.Client.Set(ctx, key, data, s.cfg.SessionTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Delete удаляет черновик пользователя. Отсутствие ключа не считается ошибкой.
func (s *SessionRepo) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Client.Del(ctx, s.sessionKey(userID)).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// sessionKey возвращает Redis-ключ черновика одного пользователя.
func (s *SessionRepo) sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}
