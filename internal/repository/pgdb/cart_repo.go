package pgdb

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/printlab-tech/shopbot-backend/internal/domain"
	"github.com/printlab-tech/shopbot-backend/internal/repository/pgdb/converter"
	"github.com/printlab-tech/shopbot-backend/pkg/e"
	"github.com/printlab-tech/shopbot-backend/pkg/tr"
)

// CartRepo реализует корзину поверх PostgreSQL. Строки разных пользователей
// изолированы ключом user_id, пара (user_id, product_id) уникальна.
type CartRepo struct {
	pool *pgxpool.Pool
	conv converter.CartItemConverter
}

func NewCartRepo(pool *pgxpool.Pool, conv converter.CartItemConverter) *CartRepo {
	return &CartRepo{
		pool: pool,
		conv: conv,
	}
}

// AddItem вставляет строку корзины либо накапливает количество существующей.
// Неположительное количество отклоняется до обращения к базе.
func (c *CartRepo) AddItem(ctx context.Context, item *domain.CartItem) error {
	if item.Quantity < 1 {
		return e.ErrInvalidQuantity
	}

	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity;
	`

	if _, err := tx.Exec(ctx, query, item.UserID, item.ProductID, item.Quantity); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// ListItems возвращает строки корзины пользователя в порядке добавления.
func (c *CartRepo) ListItems(ctx context.Context, userID int64) ([]domain.CartItem, error) {
	query := `
		SELECT user_id, product_id, quantity, added_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY added_at, product_id
	`

	rows, err := c.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	models := make([]converter.CartItemModel, 0)
	for rows.Next() {
		var model converter.CartItemModel
		if err := rows.Scan(&model.UserID, &model.ProductID, &model.Quantity, &model.AddedAt); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		models = append(models, model)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return c.conv.ToArrEntity(models), nil
}

// Clear атомарно удаляет все строки корзины пользователя.
func (c *CartRepo) Clear(ctx context.Context, userID int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
