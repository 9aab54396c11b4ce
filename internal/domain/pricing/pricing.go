// Package pricing computes what a customer pays for a cart.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-checkout/internal/domain/cart"
)

// premiumRate is the share of the amount a premium customer pays.
var premiumRate = decimal.RequireFromString("0.90")

// Payable applies the loyalty discount for the user's tier. Premium customers
// pay 90% of amount; everyone else pays amount unchanged. No rounding is
// applied.
func Payable(u cart.User, amount decimal.Decimal) decimal.Decimal {
	if u.Tier == cart.TierPremium {
		return amount.Mul(premiumRate)
	}
	return amount
}
