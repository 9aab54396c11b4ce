// Package memory implements order storage in process memory, used when no
// database is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-checkout/internal/domain/cart"
	"github.com/xenking/kart-checkout/internal/domain/order"
)

// ErrNotFound is returned by Get for unknown order IDs.
var ErrNotFound = errors.New("order not found")

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository keeps orders in a map and issues sequential IDs such as
// ORD-000001.
type OrderRepository struct {
	mu     sync.Mutex
	seq    int
	orders map[string]*order.Order
	now    func() time.Time
}

// NewOrderRepository returns an empty OrderRepository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*order.Order),
		now:    time.Now,
	}
}

func (r *OrderRepository) Save(ctx context.Context, c *cart.Cart, finalTotal decimal.Decimal) (*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	o := &order.Order{
		ID:         fmt.Sprintf("ORD-%06d", r.seq),
		Cart:       c,
		FinalTotal: finalTotal,
		Status:     order.StatusProcessed,
		CreatedAt:  r.now().UTC(),
	}
	r.orders[o.ID] = o

	return o, nil
}

// Get returns the order stored under id.
func (r *OrderRepository) Get(id string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%q", id)
	}
	return o, nil
}
