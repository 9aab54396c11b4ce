package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-checkout/internal/domain/notify"
	"github.com/xenking/kart-checkout/internal/domain/order"
	"github.com/xenking/kart-checkout/internal/domain/payment"
	notifysender "github.com/xenking/kart-checkout/internal/notify"
	"github.com/xenking/kart-checkout/internal/payment/blocklist"
	"github.com/xenking/kart-checkout/internal/payment/sandbox"
	"github.com/xenking/kart-checkout/internal/payment/stripe"
	"github.com/xenking/kart-checkout/internal/storage/memory"
	"github.com/xenking/kart-checkout/internal/storage/postgres"
	"github.com/xenking/kart-checkout/pkg/health"
)

// newOrderStore opens PostgreSQL when configured and falls back to memory.
// The returned close func must be called on shutdown.
func newOrderStore(ctx context.Context, databaseURL string, h *health.Health) (order.Repository, func(), error) {
	if databaseURL == "" {
		zctx.From(ctx).Warn("No database configured, orders are kept in memory")
		return memory.NewOrderRepository(), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	h.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	return postgres.NewOrderRepository(pool), pool.Close, nil
}

// newGateway builds the configured payment gateway, screened by the
// instrument blocklist when files are given.
func newGateway(ctx context.Context, cfg PaymentConfig) (payment.Gateway, error) {
	var gateway payment.Gateway
	switch cfg.Provider {
	case ProviderStripe:
		gateway = stripe.New(stripe.Config{
			Key:      cfg.StripeKey,
			Currency: cfg.Currency,
			URL:      cfg.StripeURL,
		})
	case ProviderSandbox:
		gateway = sandbox.Gateway{}
	default:
		return nil, errors.Errorf("unknown payment provider %q", cfg.Provider)
	}

	if len(cfg.BlocklistFiles) == 0 {
		return gateway, nil
	}
	list, err := blocklist.Load(ctx, blocklist.Options{}, cfg.BlocklistFiles...)
	if err != nil {
		return nil, errors.Wrap(err, "load instrument blocklist")
	}
	return blocklist.Screen(gateway, list), nil
}

// newNotifier builds an SMTP notifier, or a logging one when no relay is set.
func newNotifier(ctx context.Context, cfg SMTPConfig) (notify.Notifier, error) {
	if cfg.Host == "" {
		zctx.From(ctx).Info("No SMTP relay configured, confirmations are logged only")
		return notifysender.LogSender{}, nil
	}

	sender, err := notifysender.NewSMTPSender(notifysender.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create smtp sender")
	}
	zctx.From(ctx).Info("SMTP notifier configured", zap.String("host", cfg.Host))
	return notifysender.WithFailureLogging(sender), nil
}
