// Package checkout charges a cart, records the order and confirms it to the
// customer.
package checkout

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/kart-checkout/internal/domain/cart"
	"github.com/xenking/kart-checkout/internal/domain/notify"
	"github.com/xenking/kart-checkout/internal/domain/order"
	"github.com/xenking/kart-checkout/internal/domain/payment"
	"github.com/xenking/kart-checkout/internal/domain/pricing"
)

// Subject is the subject line of order confirmation emails.
const Subject = "Order confirmed"

const instrumentationName = "github.com/xenking/kart-checkout/internal/domain/checkout"

// Outcome values recorded on the checkout.orders counter.
const (
	outcomeDeclined  = "declined"
	outcomeFailed    = "failed"
	outcomeProcessed = "processed"
)

// Option configures a Service.
type Option func(*options)

type options struct {
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// WithMeterProvider sets the meter provider used for checkout counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider used for checkout spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// Service coordinates payment, persistence and notification for a checkout.
// It holds no per-call state and is safe for concurrent use.
type Service struct {
	payments payment.Gateway
	orders   order.Repository
	notifier notify.Notifier

	tracer         trace.Tracer
	orderCount     metric.Int64Counter
	notifyFailures metric.Int64Counter
}

// NewService creates a checkout Service with the given collaborators.
func NewService(
	payments payment.Gateway,
	orders order.Repository,
	notifier notify.Notifier,
	opts ...Option,
) (*Service, error) {
	o := options{
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.meterProvider.Meter(instrumentationName)
	orderCount, err := meter.Int64Counter("checkout.orders",
		metric.WithDescription("Checkout attempts by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders counter")
	}
	notifyFailures, err := meter.Int64Counter("checkout.notifications.failed",
		metric.WithDescription("Order confirmations that could not be delivered"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create notification counter")
	}

	return &Service{
		payments:       payments,
		orders:         orders,
		notifier:       notifier,
		tracer:         o.tracerProvider.Tracer(instrumentationName),
		orderCount:     orderCount,
		notifyFailures: notifyFailures,
	}, nil
}

// ProcessOrder charges the discounted cart total to instrument, saves the
// order and sends a confirmation email.
//
// A declined or failed charge yields (nil, nil); nothing is saved or sent.
// A repository error after a successful charge is returned wrapped, without
// retry or refund. Confirmation delivery is best-effort and never affects the
// result.
func (s *Service) ProcessOrder(ctx context.Context, c *cart.Cart, instrument string) (*order.Order, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.ProcessOrder",
		trace.WithAttributes(attribute.Int64("checkout.user_id", c.Owner.ID)),
	)
	defer span.End()

	payable := pricing.Payable(c.Owner, c.Total())
	span.SetAttributes(attribute.String("checkout.payable", payable.String()))

	lg := zctx.From(ctx).With(
		zap.Int64("user_id", c.Owner.ID),
		zap.Stringer("payable", payable),
	)

	res, err := s.payments.Charge(ctx, payable, instrument)
	if err != nil || res == nil || !res.Success {
		s.record(ctx, span, outcomeDeclined)
		lg.Info("Payment declined", declineFields(res, err)...)
		return nil, nil
	}
	span.SetAttributes(attribute.String("checkout.transaction_id", res.TransactionID))

	o, err := s.orders.Save(ctx, c, payable)
	if err != nil {
		s.record(ctx, span, outcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "save order")
		return nil, errors.Wrapf(err, "save order (transaction %s)", res.TransactionID)
	}
	if o == nil {
		s.record(ctx, span, outcomeFailed)
		span.SetStatus(codes.Error, "save order")
		return nil, errors.Errorf("save order (transaction %s): repository returned no order", res.TransactionID)
	}
	span.SetAttributes(attribute.String("checkout.order_id", o.ID))

	if !s.confirm(ctx, c.Owner.Email, o.ID, payable) {
		s.notifyFailures.Add(ctx, 1)
	}

	s.record(ctx, span, outcomeProcessed)
	return o, nil
}

// confirm sends the order confirmation. Errors, rejections and panics from
// the notifier stop here.
func (s *Service) confirm(ctx context.Context, recipient, orderID string, payable decimal.Decimal) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			sent = false
		}
	}()

	ok, err := s.notifier.Send(ctx, recipient, Subject, ConfirmationBody(orderID, payable))
	return err == nil && ok
}

func (s *Service) record(ctx context.Context, span trace.Span, outcome string) {
	span.SetAttributes(attribute.String("checkout.outcome", outcome))
	s.orderCount.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// ConfirmationBody renders the confirmation email body for an order.
func ConfirmationBody(orderID string, payable decimal.Decimal) string {
	return fmt.Sprintf("Your order %s has been processed. Amount charged: %s.", orderID, payable.String())
}

func declineFields(res *payment.Result, err error) []zap.Field {
	switch {
	case err != nil:
		return []zap.Field{zap.Error(err)}
	case res == nil:
		return []zap.Field{zap.String("reason", "empty gateway result")}
	default:
		return []zap.Field{zap.String("reason", res.Error)}
	}
}
