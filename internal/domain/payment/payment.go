// Package payment defines the contract for charging a payment instrument.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Result is the outcome reported by a Gateway for a single charge.
type Result struct {
	Success       bool
	TransactionID string
	// Error is the provider's decline reason when Success is false.
	Error string
}

// Declined returns a non-successful Result carrying reason.
func Declined(reason string) *Result {
	return &Result{Error: reason}
}

// Gateway charges an amount to a payment instrument.
//
// A non-nil error means the charge outcome is unknown or the provider could
// not be reached; callers treat it the same as a decline.
type Gateway interface {
	Charge(ctx context.Context, amount decimal.Decimal, instrument string) (*Result, error)
}
