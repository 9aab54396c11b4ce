package blocklist

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xenking/kart-checkout/internal/domain/payment"
)

// DeclineReason is reported for screened-out instruments.
const DeclineReason = "instrument blocked"

type screenedGateway struct {
	next payment.Gateway
	list *Blocklist
}

// Screen wraps next so that blocked instruments are declined without being
// sent to the provider.
func Screen(next payment.Gateway, list *Blocklist) payment.Gateway {
	return &screenedGateway{next: next, list: list}
}

func (g *screenedGateway) Charge(ctx context.Context, amount decimal.Decimal, instrument string) (*payment.Result, error) {
	if g.list.Contains(instrument) {
		return payment.Declined(DeclineReason), nil
	}
	return g.next.Charge(ctx, amount, instrument)
}
