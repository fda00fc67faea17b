package pgdb

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/printlab-tech/shopbot-backend/internal/domain"
	"github.com/printlab-tech/shopbot-backend/internal/repository/pgdb/converter"
	"github.com/printlab-tech/shopbot-backend/pkg/e"
	"github.com/printlab-tech/shopbot-backend/pkg/tr"
)

// UserRepo реализует реестр покупателей поверх PostgreSQL.
type UserRepo struct {
	pool *pgxpool.Pool
	conv converter.UserConverter
}

func NewUserRepo(pool *pgxpool.Pool, conv converter.UserConverter) *UserRepo {
	return &UserRepo{
		pool: pool,
		conv: conv,
	}
}

// Get возвращает профиль по идентификатору пользователя чат-платформы.
func (u *UserRepo) Get(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, first_name, last_name, registered_at
		FROM users
		WHERE user_id = $1
	`

	var model converter.UserModel
	err := u.pool.QueryRow(ctx, query, userID).
		Scan(&model.UserID, &model.FirstName, &model.LastName, &model.RegisteredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, e.ErrUserNotFound
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return u.conv.ToEntity(&model), nil
}

// Upsert перезаписывает имя и фамилию, последняя запись побеждает.
// registered_at сохраняется от первой регистрации.
func (u *UserRepo) Upsert(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO users (user_id, first_name, last_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name
		RETURNING user_id, first_name, last_name, registered_at;
	`

	var model converter.UserModel
	if err := tx.QueryRow(ctx, query, profile.UserID, profile.FirstName, profile.LastName).
		Scan(&model.UserID, &model.FirstName, &model.LastName, &model.RegisteredAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return u.conv.ToEntity(&model), nil
}
