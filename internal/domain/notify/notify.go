// Package notify implements post-commit order notification fan-out. Dispatch
// is best-effort and fully decoupled from order creation: failures are logged
// and recorded, never propagated.
package notify

import (
	"context"
	"time"
)

// RecipientType classifies who a notification was addressed to.
type RecipientType string

const (
	RecipientCustomer         RecipientType = "customer"
	RecipientManager          RecipientType = "manager"
	RecipientDepartmentWorker RecipientType = "department_worker"
)

// LogEntry is one delivery receipt. Entries are append-only and never
// updated after insertion.
type LogEntry struct {
	ID             string
	OrderID        string
	RecipientType  RecipientType
	RecipientEmail string
	Success        bool
	Error          string
	SentAt         time.Time
}

// LogRepository appends delivery receipts.
type LogRepository interface {
	Append(ctx context.Context, entry LogEntry) error
	ListByOrder(ctx context.Context, orderID string) ([]LogEntry, error)
}

// Sender is the single outbound-message capability the dispatcher needs.
// Whether it is SMTP, an HTTP email API, or a queue producer is irrelevant
// here.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
