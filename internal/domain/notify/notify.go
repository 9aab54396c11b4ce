// Package notify defines the contract for messaging customers.
package notify

import "context"

// Notifier delivers a message to a customer's email address. It reports
// whether the message was accepted for delivery.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) (bool, error)
}
