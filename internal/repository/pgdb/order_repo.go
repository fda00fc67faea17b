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

// OrderRepo реализует append-only журнал заказов поверх PostgreSQL.
// Запись — строка с фиксированными четырьмя слотами под позиции;
// операций обновления и удаления у журнала нет.
type OrderRepo struct {
	pool *pgxpool.Pool
	conv converter.OrderConverter
}

func NewOrderRepo(pool *pgxpool.Pool, conv converter.OrderConverter) *OrderRepo {
	return &OrderRepo{
		pool: pool,
		conv: conv,
	}
}

// Append добавляет запись одной вставкой. Заказ, не помещающийся в слоты,
// отклоняется целиком до обращения к базе — журнал остаётся без изменений.
func (o *OrderRepo) Append(ctx context.Context, order *domain.OrderRecord) (*domain.OrderRecord, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := o.conv.ToModel(order)
	query := `
		INSERT INTO orders (
			customer_full_name,
			product_name_1, quantity_1,
			product_name_2, quantity_2,
			product_name_3, quantity_3,
			product_name_4, quantity_4
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at;
	`

	if err := tx.QueryRow(ctx, query,
		model.CustomerFullName,
		model.ProductName1, model.Quantity1,
		model.ProductName2, model.Quantity2,
		model.ProductName3, model.Quantity3,
		model.ProductName4, model.Quantity4,
	).Scan(&model.ID, &model.CreatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(model), nil
}

// FindByCustomer возвращает заказы в порядке добавления (старые первыми).
// Ключ — полное имя покупателя, а не userID: тёзки делят историю заказов.
func (o *OrderRepo) FindByCustomer(ctx context.Context, fullName string) ([]*domain.OrderRecord, error) {
	query := `
		SELECT
			id, created_at, customer_full_name,
			product_name_1, quantity_1,
			product_name_2, quantity_2,
			product_name_3, quantity_3,
			product_name_4, quantity_4
		FROM orders
		WHERE customer_full_name = $1
		ORDER BY id
	`

	rows, err := o.pool.Query(ctx, query, fullName)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	models := make([]*converter.OrderModel, 0)
	for rows.Next() {
		var model converter.OrderModel
		if err := rows.Scan(
			&model.ID, &model.CreatedAt, &model.CustomerFullName,
			&model.ProductName1, &model.Quantity1,
			&model.ProductName2, &model.Quantity2,
			&model.ProductName3, &model.Quantity3,
			&model.ProductName4, &model.Quantity4,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		models = append(models, &model)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToArrEntity(models), nil
}
