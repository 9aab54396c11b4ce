package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-checkout/internal/domain/cart"
	"github.com/xenking/kart-checkout/internal/domain/order"
)

const insertOrderSQL = `INSERT INTO orders
	(id, user_id, user_email, user_tier, items, raw_total, final_total, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING final_total, created_at`

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Save inserts a processed order for c. Items are stored as JSONB and the
// returned FinalTotal is the value read back from the row.
func (r *OrderRepository) Save(ctx context.Context, c *cart.Cart, finalTotal decimal.Decimal) (*order.Order, error) {
	itemsJSON, err := json.Marshal(c.Items)
	if err != nil {
		return nil, errors.Wrap(err, "marshal order items")
	}

	o := &order.Order{
		ID:         uuid.New().String(),
		Cart:       c,
		FinalTotal: finalTotal,
		Status:     order.StatusProcessed,
	}

	var createdAt time.Time
	err = r.pool.QueryRow(ctx, insertOrderSQL,
		o.ID, c.Owner.ID, c.Owner.Email, string(c.Owner.Tier), itemsJSON,
		c.Total(), finalTotal, string(o.Status),
	).Scan(&o.FinalTotal, &createdAt)
	if err != nil {
		return nil, errors.Wrapf(err, "insert order %q", o.ID)
	}
	o.CreatedAt = createdAt

	return o, nil
}
