// Package notify delivers customer-facing messages for scheduling events,
// such as "your technician is en route". Delivery never blocks scheduling
// logic; callers fire notifications from goroutines or ignore the error.
package notify

import "context"

// Message is one outbound notification.
type Message struct {
	Subject   string
	PlainText string
	HTML      string
}

// Notifier sends a message to a recipient address (email today; the contract
// is address-shaped so an SMS sender can slot in behind it).
type Notifier interface {
	Notify(ctx context.Context, recipient string, msg Message) error
}
