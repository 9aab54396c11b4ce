// Package carttest provides builders for cart fixtures in tests.
package carttest

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-checkout/internal/domain/cart"
)

// UserBuilder builds cart.User values starting from a standard customer.
type UserBuilder struct {
	u cart.User
}

// NewUser returns a builder with default values.
func NewUser() *UserBuilder {
	return &UserBuilder{u: cart.User{
		ID:    1,
		Name:  "Test Customer",
		Email: "customer@example.com",
		Tier:  cart.TierStandard,
	}}
}

func (b *UserBuilder) WithID(id int64) *UserBuilder {
	b.u.ID = id
	return b
}

func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.u.Name = name
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.u.Email = email
	return b
}

// Premium switches the user to the premium tier.
func (b *UserBuilder) Premium() *UserBuilder {
	b.u.Tier = cart.TierPremium
	return b
}

func (b *UserBuilder) Build() cart.User {
	return b.u
}

// CartBuilder builds carts owned by a default user unless overridden.
type CartBuilder struct {
	owner cart.User
	items []cart.Item
}

// NewCart returns a builder for an empty cart owned by NewUser().Build().
func NewCart() *CartBuilder {
	return &CartBuilder{owner: NewUser().Build()}
}

func (b *CartBuilder) For(owner cart.User) *CartBuilder {
	b.owner = owner
	return b
}

// WithItem appends an item priced from a decimal string such as "19.99".
func (b *CartBuilder) WithItem(name, price string) *CartBuilder {
	b.items = append(b.items, cart.Item{Name: name, Price: decimal.RequireFromString(price)})
	return b
}

func (b *CartBuilder) Build() *cart.Cart {
	return cart.New(b.owner, b.items...)
}
