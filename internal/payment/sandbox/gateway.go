// Package sandbox provides a payment gateway for local development that never
// moves money.
package sandbox

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-checkout/internal/domain/payment"
)

// DeclinePrefix marks instruments the sandbox always declines.
const DeclinePrefix = "tok_decline"

var _ payment.Gateway = Gateway{}

// Gateway approves every charge except instruments starting with
// DeclinePrefix.
type Gateway struct{}

func (Gateway) Charge(ctx context.Context, amount decimal.Decimal, instrument string) (*payment.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.HasPrefix(instrument, DeclinePrefix) {
		return payment.Declined("card declined"), nil
	}
	return &payment.Result{
		Success:       true,
		TransactionID: "sbx_" + uuid.New().String(),
	}, nil
}
