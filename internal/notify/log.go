package notify

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	domain "github.com/xenking/kart-checkout/internal/domain/notify"
)

var _ domain.Notifier = LogSender{}

// LogSender writes notifications to the context logger instead of sending
// them. It is used when no mail relay is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, recipient, subject, body string) (bool, error) {
	zctx.From(ctx).Info("Notification",
		zap.String("recipient", recipient),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return true, nil
}

type loggedNotifier struct {
	next domain.Notifier
}

// WithFailureLogging wraps next and logs failed or rejected deliveries at
// warn level. The outcome is passed through unchanged.
func WithFailureLogging(next domain.Notifier) domain.Notifier {
	return loggedNotifier{next: next}
}

func (n loggedNotifier) Send(ctx context.Context, recipient, subject, body string) (bool, error) {
	ok, err := n.next.Send(ctx, recipient, subject, body)
	switch {
	case err != nil:
		zctx.From(ctx).Warn("Notification failed",
			zap.String("recipient", recipient),
			zap.Error(err),
		)
	case !ok:
		zctx.From(ctx).Warn("Notification rejected", zap.String("recipient", recipient))
	}
	return ok, err
}
