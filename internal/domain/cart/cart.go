package cart

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNegativePrice is returned when an item is priced below zero.
	ErrNegativePrice = errors.New("item price must not be negative")
	// ErrUnknownTier is returned by ParseTier for unrecognised tier names.
	ErrUnknownTier = errors.New("unknown customer tier")
)

// Tier is the loyalty level of a customer.
type Tier string

const (
	// TierStandard customers pay the cart total.
	TierStandard Tier = "standard"
	// TierPremium customers receive the loyalty discount.
	TierPremium Tier = "premium"
)

// ParseTier maps a case-insensitive tier name to a Tier.
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierStandard, "":
		return TierStandard, nil
	case TierPremium:
		return TierPremium, nil
	default:
		return "", errors.Wrapf(ErrUnknownTier, "%q", s)
	}
}

// User is the customer owning a cart.
type User struct {
	ID    int64
	Name  string
	Email string
	Tier  Tier
}

// Item is a single priced line in a cart.
type Item struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// NewItem validates the price and returns an Item.
func NewItem(name string, price decimal.Decimal) (Item, error) {
	if price.IsNegative() {
		return Item{}, errors.Wrapf(ErrNegativePrice, "item %q", name)
	}
	return Item{Name: name, Price: price}, nil
}

// Cart holds the items a user is about to buy.
type Cart struct {
	Owner User
	Items []Item
}

// New returns a cart owning a private copy of items.
func New(owner User, items ...Item) *Cart {
	return &Cart{
		Owner: owner,
		Items: append([]Item(nil), items...),
	}
}

// Total returns the sum of item prices, zero for an empty cart.
func (c *Cart) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.Price)
	}
	return sum
}
