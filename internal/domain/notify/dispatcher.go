package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradegate/orderdesk/internal/domain/department"
	"github.com/tradegate/orderdesk/internal/domain/order"
	"github.com/tradegate/orderdesk/internal/domain/user"
)

// OrderReader reloads the order aggregate for rendering.
type OrderReader interface {
	GetByID(ctx context.Context, id string) (*order.Order, error)
}

// Dispatcher sends order notifications to the creator, their manager, and the
// shipping department's workers. Recipients are processed sequentially: the
// sends share one connection scope, and notification volume is low relative
// to order volume.
type Dispatcher struct {
	orders      OrderReader
	users       user.Repository
	departments department.Repository
	sender      Sender
	log         LogRepository
	lg          *zap.Logger
	now         func() time.Time
}

// NewDispatcher creates a Dispatcher over the given stores and sender.
func NewDispatcher(
	orders OrderReader,
	users user.Repository,
	departments department.Repository,
	sender Sender,
	log LogRepository,
	lg *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		orders:      orders,
		users:       users,
		departments: departments,
		sender:      sender,
		log:         log,
		lg:          lg,
		now:         time.Now,
	}
}

// Async returns a callback suitable for order.Service: it runs DispatchOrder
// on a detached goroutine with a fresh context, so the request scope that
// created the order can be torn down immediately.
func (d *Dispatcher) Async(timeout time.Duration) func(orderID string) {
	return func(orderID string) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			d.DispatchOrder(ctx, orderID)
		}()
	}
}

// DispatchOrder sends the three notification rounds for an order. It never
// returns an error: a failure to even load the order is logged and swallowed,
// and per-recipient failures are recorded in the delivery log without
// stopping the remaining sends.
func (d *Dispatcher) DispatchOrder(ctx context.Context, orderID string) {
	lg := d.lg.With(zap.String("order_id", orderID))

	o, err := d.orders.GetByID(ctx, orderID)
	if err != nil {
		lg.Error("notification dispatch aborted: order reload failed", zap.Error(err))
		return
	}
	creator, err := d.users.GetByID(ctx, o.UserID)
	if err != nil {
		lg.Error("notification dispatch aborted: creator lookup failed", zap.Error(err))
		return
	}

	deptName := o.DepartmentID
	if o.DepartmentID != "" {
		if dept, err := d.departments.GetByID(ctx, o.DepartmentID); err == nil {
			deptName = dept.Name
		} else {
			lg.Warn("department lookup failed, using raw id in messages", zap.Error(err))
		}
	}

	subject := fmt.Sprintf("Order %s placed", o.Number)
	body := renderOrderBody(o, creator.Name, deptName)

	d.send(ctx, lg, o.ID, RecipientCustomer, creator.Email, subject, body)

	if creator.ManagerID != "" {
		manager, err := d.users.GetByID(ctx, creator.ManagerID)
		if err != nil {
			lg.Warn("manager lookup failed, skipping manager notification", zap.Error(err))
		} else {
			d.send(ctx, lg, o.ID, RecipientManager, manager.Email, subject, body)
		}
	}

	workers, err := d.users.ListDepartmentWorkers(ctx, o.DepartmentID)
	if err != nil {
		lg.Warn("department worker lookup failed, skipping worker notifications", zap.Error(err))
		return
	}
	if len(workers) == 0 {
		lg.Warn("no confirmed workers for shipping department",
			zap.String("department_id", o.DepartmentID))
		return
	}
	for _, w := range workers {
		d.send(ctx, lg, o.ID, RecipientDepartmentWorker, w.Email, subject, body)
	}
}

// send performs one delivery attempt and appends its receipt. Failures are
// logged and recorded but never propagated, so one bad address cannot stop
// the remaining recipients.
func (d *Dispatcher) send(ctx context.Context, lg *zap.Logger, orderID string, rt RecipientType, to, subject, body string) {
	sendErr := d.sender.Send(ctx, to, subject, body)

	entry := LogEntry{
		ID:             uuid.New().String(),
		OrderID:        orderID,
		RecipientType:  rt,
		RecipientEmail: to,
		Success:        sendErr == nil,
		SentAt:         d.now().UTC(),
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
		lg.Warn("notification send failed",
			zap.String("recipient_type", string(rt)),
			zap.String("recipient", to),
			zap.Error(sendErr),
		)
	}

	if err := d.log.Append(ctx, entry); err != nil {
		lg.Error("notification log append failed",
			zap.String("recipient", to),
			zap.Error(err),
		)
	}
}

func renderOrderBody(o *order.Order, creatorName, deptName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s was placed by %s.\n\n", o.Number, creatorName)
	if deptName != "" {
		fmt.Fprintf(&b, "Shipping department: %s\n\n", deptName)
	}
	for _, item := range o.Items {
		fmt.Fprintf(&b, "  %s  %s  x%d  @ %s = %s\n",
			item.ProductCode, item.ProductName, item.Quantity,
			item.PriceWithDiscount.StringFixed(2), item.LineTotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s (before discounts: %s)\n",
		o.TotalPriceWithDiscount.StringFixed(2), o.TotalPrice.StringFixed(2))
	fmt.Fprintf(&b, "Items: %d, weight: %s, volume: %s\n",
		o.TotalQuantity, o.TotalWeight.String(), o.TotalVolume.String())
	return b.String()
}
