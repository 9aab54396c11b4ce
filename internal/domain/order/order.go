package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/kart-checkout/internal/domain/cart"
)

// Status is the lifecycle state of an order.
type Status string

const (
	// StatusPending marks an order that has been recorded but not processed.
	StatusPending Status = "pending"
	// StatusProcessed marks a paid and persisted order.
	StatusProcessed Status = "processed"
	// StatusCancelled marks an order that will not be fulfilled.
	StatusCancelled Status = "cancelled"
)

// Order is a persisted checkout. Orders are only created by a Repository.
type Order struct {
	ID         string
	Cart       *cart.Cart
	FinalTotal decimal.Decimal
	Status     Status
	CreatedAt  time.Time
}

// Repository persists paid carts as orders. Implementations assign the order
// ID, status and creation time.
type Repository interface {
	Save(ctx context.Context, c *cart.Cart, finalTotal decimal.Decimal) (*Order, error)
}
