package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradegate/orderdesk/internal/domain/notify"
)

const (
	appendNotificationSQL = `INSERT INTO notification_logs
		(id, order_id, recipient_type, recipient_email, success, error, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	listNotificationsByOrderSQL = `SELECT id, order_id, recipient_type, recipient_email,
		success, error, sent_at
		FROM notification_logs WHERE order_id = $1 ORDER BY sent_at, id`
)

var _ notify.LogRepository = (*NotificationLogRepository)(nil)

// NotificationLogRepository implements notify.LogRepository backed by
// PostgreSQL. Rows are delivery receipts: inserted once, never updated.
type NotificationLogRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationLogRepository returns a NotificationLogRepository that uses
// the given pool.
func NewNotificationLogRepository(pool *pgxpool.Pool) *NotificationLogRepository {
	return &NotificationLogRepository{pool: pool}
}

// Append inserts one delivery receipt.
func (r *NotificationLogRepository) Append(ctx context.Context, e notify.LogEntry) error {
	_, err := r.pool.Exec(ctx, appendNotificationSQL,
		e.ID, e.OrderID, string(e.RecipientType), e.RecipientEmail, e.Success, e.Error, e.SentAt,
	)
	if err != nil {
		return fmt.Errorf("appending notification log: %w", err)
	}
	return nil
}

// ListByOrder returns an order's delivery receipts in send order.
func (r *NotificationLogRepository) ListByOrder(ctx context.Context, orderID string) ([]notify.LogEntry, error) {
	rows, err := r.pool.Query(ctx, listNotificationsByOrderSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing notification logs: %w", err)
	}
	return pgx.CollectRows(rows, scanNotificationLog)
}

func scanNotificationLog(row pgx.CollectableRow) (notify.LogEntry, error) {
	var (
		e  notify.LogEntry
		rt string
	)
	err := row.Scan(&e.ID, &e.OrderID, &rt, &e.RecipientEmail, &e.Success, &e.Error, &e.SentAt)
	e.RecipientType = notify.RecipientType(rt)
	return e, err
}
