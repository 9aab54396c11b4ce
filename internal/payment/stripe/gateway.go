// Package stripe charges payment instruments through Stripe PaymentIntents.
package stripe

import (
	"context"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"

	"github.com/xenking/kart-checkout/internal/domain/payment"
)

var _ payment.Gateway = (*Gateway)(nil)

// Config holds Stripe connection settings.
type Config struct {
	Key      string
	Currency string
	// URL overrides the Stripe API base URL, e.g. for stripe-mock.
	URL string
}

// Currencies whose smallest unit is not a hundredth. Charge amounts are sent in
// cents, so these are rejected.
var (
	zeroDecimalCurrencies = []string{
		"bif", "clp", "djf", "gnf", "jpy", "kmf", "krw", "mga",
		"pyg", "rwf", "ugx", "vnd", "vuv", "xaf", "xof", "xpf",
	}
	threeDecimalCurrencies = []string{"bhd", "jod", "kwd", "omr", "tnd"}
)

// ValidateCurrency reports whether code is a two-decimal ISO currency code the
// gateway can charge in. An empty code selects USD.
func ValidateCurrency(code string) error {
	if code == "" {
		return nil
	}
	if len(code) != 3 || strings.ToLower(code) != code {
		return errors.Errorf("currency %q: expected lowercase ISO 4217 code", code)
	}
	if slices.Contains(zeroDecimalCurrencies, code) || slices.Contains(threeDecimalCurrencies, code) {
		return errors.Errorf("currency %q: only two-decimal currencies are supported", code)
	}
	return nil
}

// Gateway creates and confirms a PaymentIntent per charge, using the
// instrument as the payment method ID.
type Gateway struct {
	api      *client.API
	currency string
}

// New returns a Gateway for cfg. Network retries are left to the caller.
func New(cfg Config) *Gateway {
	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if cfg.URL != "" {
		backendCfg.URL = stripe.String(cfg.URL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)

	api := &client.API{}
	api.Init(cfg.Key, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})

	currency := cfg.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	return &Gateway{api: api, currency: currency}
}

// Charge confirms a PaymentIntent for amount in the gateway currency. Card
// errors are reported as declines; any other Stripe failure is returned.
func (g *Gateway) Charge(ctx context.Context, amount decimal.Decimal, instrument string) (*payment.Result, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(minorUnits(amount)),
		Currency:      stripe.String(g.currency),
		PaymentMethod: stripe.String(instrument),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return payment.Declined(stripeErr.Msg), nil
		}
		return nil, errors.Wrap(err, "create payment intent")
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return &payment.Result{
			TransactionID: pi.ID,
			Error:         "payment intent " + string(pi.Status),
		}, nil
	}

	return &payment.Result{Success: true, TransactionID: pi.ID}, nil
}

// minorUnits converts a decimal amount to cents, rounding half away from zero.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
