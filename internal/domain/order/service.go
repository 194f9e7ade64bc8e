package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradegate/orderdesk/internal/domain/cart"
	"github.com/tradegate/orderdesk/internal/domain/inventory"
	"github.com/tradegate/orderdesk/internal/domain/user"
)

// Sentinel errors for order creation preconditions.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrNoShippingDepartment = errors.New("shipping department cannot be resolved")
)

// numberAttempts bounds the insert-retry loop for order numbering. Collisions
// only happen under concurrent creation within the same instant, so one retry
// is almost always enough.
const numberAttempts = 3

// CreateRequest holds the caller-supplied input for creating an order from
// the cart. DepartmentID optionally overrides the shipping department.
type CreateRequest struct {
	DepartmentID string
}

// Allocator deducts stock for a shipping department, best-effort.
type Allocator interface {
	Reserve(ctx context.Context, departmentID string, lines []inventory.Line)
}

// Service builds durable orders out of carts.
type Service struct {
	users     user.Repository
	carts     cart.Repository
	orders    Repository
	allocator Allocator
	// notify is invoked with the new order's ID after the transaction
	// commits. The wiring layer hands it off to a detached goroutine; order
	// creation never waits on it.
	notify func(orderID string)
	now    func() time.Time
}

// NewService creates an order Service. notify may be nil when no
// post-creation dispatch is wired.
func NewService(
	users user.Repository,
	carts cart.Repository,
	orders Repository,
	allocator Allocator,
	notify func(orderID string),
) *Service {
	return &Service{
		users:     users,
		carts:     carts,
		orders:    orders,
		allocator: allocator,
		notify:    notify,
		now:       time.Now,
	}
}

// CreateFromCart issues an order from the user's cart.
//
// Cart line snapshots were priced when the lines were added or updated, so
// they are copied verbatim. Order persistence and cart clearing happen in one
// transaction; inventory deduction is best-effort and never blocks the order.
// The returned order is final before notifications are even scheduled.
func (s *Service) CreateFromCart(ctx context.Context, userID string, req CreateRequest) (*Order, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}

	c, err := s.carts.GetOrCreateByUser(ctx, u.ID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	departmentID := resolveDepartment(u, req)
	if departmentID == "" {
		return nil, ErrNoShippingDepartment
	}

	o := s.buildOrder(u.ID, departmentID, c.Items)

	lines := make([]inventory.Line, len(c.Items))
	for i, item := range c.Items {
		lines[i] = inventory.Line{
			ProductID: item.ProductID,
			Quantity:  decimal.NewFromInt(int64(item.Quantity)),
		}
	}
	s.allocator.Reserve(ctx, departmentID, inventory.Aggregate(lines))

	if err := s.persistNumbered(ctx, o, c.ID); err != nil {
		return nil, err
	}

	if s.notify != nil {
		s.notify(o.ID)
	}
	return o, nil
}

// persistNumbered assigns the next free order number and persists the order
// atomically with the cart clear. The scan-then-insert is racy under
// concurrent creation, so a unique-violation on the number re-reads the
// sequence and retries.
func (s *Service) persistNumbered(ctx context.Context, o *Order, cartID string) error {
	year := o.CreatedAt.Year()
	for attempt := 0; attempt < numberAttempts; attempt++ {
		seq, err := s.orders.MaxSequence(ctx, year)
		if err != nil {
			return errors.Wrap(err, "read order sequence")
		}
		o.Number = FormatNumber(year, seq+1)

		err = s.orders.CreateAndClearCart(ctx, o, cartID)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNumberTaken) {
			continue
		}
		return errors.Wrap(err, "create order")
	}
	return errors.Wrap(ErrNumberTaken, "create order")
}

func (s *Service) buildOrder(userID, departmentID string, items []cart.CartItem) *Order {
	o := &Order{
		ID:                     uuid.New().String(),
		UserID:                 userID,
		DepartmentID:           departmentID,
		Status:                 StatusCreated,
		Items:                  make([]OrderItem, len(items)),
		TotalWeight:            decimal.Zero,
		TotalVolume:            decimal.Zero,
		TotalPrice:             decimal.Zero,
		TotalPriceWithDiscount: decimal.Zero,
		CreatedAt:              s.now().UTC(),
	}

	for i, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		lineTotal := item.PriceWithDiscount.Mul(qty).Round(2)

		o.Items[i] = OrderItem{
			ID:                uuid.New().String(),
			ProductID:         item.ProductID,
			ProductCode:       item.ProductCode,
			ProductName:       item.ProductName,
			Quantity:          item.Quantity,
			Price:             item.Price,
			DiscountPercent:   item.DiscountPercent,
			PriceWithDiscount: item.PriceWithDiscount,
			Weight:            item.Weight,
			Volume:            item.Volume,
			LineTotal:         lineTotal,
		}

		o.TotalQuantity += item.Quantity
		o.TotalWeight = o.TotalWeight.Add(item.Weight.Mul(qty))
		o.TotalVolume = o.TotalVolume.Add(item.Volume.Mul(qty))
		o.TotalPrice = o.TotalPrice.Add(item.Price.Mul(qty))
		o.TotalPriceWithDiscount = o.TotalPriceWithDiscount.Add(lineTotal)
	}
	return o
}

// resolveDepartment picks the shipping department: explicit request override,
// then the user's shop, then the user's default branch.
func resolveDepartment(u *user.User, req CreateRequest) string {
	switch {
	case req.DepartmentID != "":
		return req.DepartmentID
	case u.ShopID != "":
		return u.ShopID
	default:
		return u.DefaultBranchID
	}
}
