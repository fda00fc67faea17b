package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/printlab-tech/shopbot-backend/internal/cfg"
	"github.com/printlab-tech/shopbot-backend/internal/repository/redis/converter"
	"github.com/printlab-tech/shopbot-backend/internal/usecase"
	"github.com/printlab-tech/shopbot-backend/pkg/clients"
	"github.com/printlab-tech/shopbot-backend/pkg/logger"
	r "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessionRepo(t *testing.T) (*SessionRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := &clients.RedisClient{
		Client: r.NewClient(&r.Options{Addr: mr.Addr()}),
	}

	repo := NewSessionRepo(
		client,
		converter.NewSessionConverter(),
		&cfg.RedisCfg{SessionTTL: time.Hour},
		logger.NewSlogLogger(),
	)

	return repo, mr
}

func TestSessionRepo_GetMissingReturnsNil(t *testing.T) {
	repo, _ := newTestSessionRepo(t)

	session, err := repo.Get(context.Background(), 100500)
	require.NoError(t, err)
	require.Nil(t, session)
}

func TestSessionRepo_PutGetRoundTrip(t *testing.T) {
	repo, mr := newTestSessionRepo(t)
	ctx := context.Background()

	in := &usecase.SessionState{
		UserID:            7,
		State:             usecase.StateMainMenu,
		SelectedProductID: 3,
		OrdersPage:        2,
	}
	require.NoError(t, repo.Put(ctx, in))

	out, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, in, out)

	// TTL выставлен, черновик не живёт вечно.
	ttl := mr.TTL("session:7")
	require.Equal(t, time.Hour, ttl)
}

func TestSessionRepo_Delete(t *testing.T) {
	repo, _ := newTestSessionRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, &usecase.SessionState{UserID: 7, State: usecase.StateAwaitingName}))
	require.NoError(t, repo.Delete(ctx, 7))

	session, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	require.Nil(t, session)

	// Повторное удаление отсутствующего ключа не ошибка.
	require.NoError(t, repo.Delete(ctx, 7))
}

func TestSessionRepo_CorruptedDraftDropped(t *testing.T) {
	repo, mr := newTestSessionRepo(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("session:9", "{not json"))

	session, err := repo.Get(ctx, 9)
	require.NoError(t, err)
	require.Nil(t, session)
	require.False(t, mr.Exists("session:9"))
}

func TestSessionRepo_UserMismatchDropped(t *testing.T) {
	repo, mr := newTestSessionRepo(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("session:9", `{"user_id":8,"state":"main_menu"}`))

	session, err := repo.Get(ctx, 9)
	require.NoError(t, err)
	require.Nil(t, session)
	require.False(t, mr.Exists("session:9"))
}
