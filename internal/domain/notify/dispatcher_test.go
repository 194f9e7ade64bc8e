package notify

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tradegate/orderdesk/internal/domain/department"
	"github.com/tradegate/orderdesk/internal/domain/order"
	"github.com/tradegate/orderdesk/internal/domain/user"
)

// --- Mock implementations ---

type mockOrderReader struct {
	byID map[string]*order.Order
}

func (m *mockOrderReader) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	return o, nil
}

type mockUserRepo struct {
	byID    map[string]*user.User
	workers map[string][]user.User
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) ListDepartmentWorkers(_ context.Context, deptID string) ([]user.User, error) {
	return m.workers[deptID], nil
}

type mockDeptRepo struct {
	byID map[string]*department.Department
}

func (m *mockDeptRepo) GetByID(_ context.Context, id string) (*department.Department, error) {
	d, ok := m.byID[id]
	if !ok {
		return nil, department.ErrNotFound
	}
	return d, nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type mockSender struct {
	sent    []sentMail
	failFor map[string]error
}

func (m *mockSender) Send(_ context.Context, to, subject, body string) error {
	if err, ok := m.failFor[to]; ok {
		return err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type mockLogRepo struct {
	entries   []LogEntry
	appendErr error
}

func (m *mockLogRepo) Append(_ context.Context, e LogEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockLogRepo) ListByOrder(_ context.Context, _ string) ([]LogEntry, error) {
	return m.entries, nil
}

// --- Helpers ---

func testOrder() *order.Order {
	return &order.Order{
		ID:           "o1",
		Number:       "ORD-2026-000007",
		UserID:       "u1",
		DepartmentID: "d1",
		Items: []order.OrderItem{{
			ProductCode:       "SKU-1",
			ProductName:       "Widget",
			Quantity:          2,
			PriceWithDiscount: decimal.RequireFromString("80"),
			LineTotal:         decimal.RequireFromString("160"),
		}},
		TotalQuantity:          2,
		TotalWeight:            decimal.RequireFromString("4"),
		TotalVolume:            decimal.RequireFromString("1"),
		TotalPrice:             decimal.RequireFromString("200"),
		TotalPriceWithDiscount: decimal.RequireFromString("160"),
	}
}

type dispatchFixture struct {
	orders *mockOrderReader
	users  *mockUserRepo
	depts  *mockDeptRepo
	sender *mockSender
	log    *mockLogRepo
	d      *Dispatcher
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	f := &dispatchFixture{
		orders: &mockOrderReader{byID: map[string]*order.Order{"o1": testOrder()}},
		users: &mockUserRepo{
			byID: map[string]*user.User{
				"u1": {ID: "u1", Email: "buyer@example.com", Name: "Buyer", ManagerID: "m1"},
				"m1": {ID: "m1", Email: "boss@example.com", Name: "Boss"},
			},
			workers: map[string][]user.User{
				"d1": {
					{ID: "w1", Email: "w1@example.com", Confirmed: true},
					{ID: "w2", Email: "w2@example.com", Confirmed: true},
				},
			},
		},
		depts:  &mockDeptRepo{byID: map[string]*department.Department{"d1": {ID: "d1", Name: "Main warehouse"}}},
		sender: &mockSender{failFor: map[string]error{}},
		log:    &mockLogRepo{},
	}
	f.d = NewDispatcher(f.orders, f.users, f.depts, f.sender, f.log, zaptest.NewLogger(t))
	return f
}

// --- Tests ---

func TestDispatchOrder_AllRecipients(t *testing.T) {
	f := newDispatchFixture(t)

	f.d.DispatchOrder(context.Background(), "o1")

	require.Len(t, f.sender.sent, 4)
	assert.Equal(t, "buyer@example.com", f.sender.sent[0].to)
	assert.Equal(t, "boss@example.com", f.sender.sent[1].to)
	assert.Equal(t, "w1@example.com", f.sender.sent[2].to)
	assert.Equal(t, "w2@example.com", f.sender.sent[3].to)

	assert.Equal(t, "Order ORD-2026-000007 placed", f.sender.sent[0].subject)
	assert.Contains(t, f.sender.sent[0].body, "SKU-1")
	assert.Contains(t, f.sender.sent[0].body, "Main warehouse")

	require.Len(t, f.log.entries, 4)
	assert.Equal(t, RecipientCustomer, f.log.entries[0].RecipientType)
	assert.Equal(t, RecipientManager, f.log.entries[1].RecipientType)
	assert.Equal(t, RecipientDepartmentWorker, f.log.entries[2].RecipientType)
	for _, e := range f.log.entries {
		assert.True(t, e.Success)
		assert.Equal(t, "o1", e.OrderID)
	}
}

func TestDispatchOrder_NoManagerIsSkip(t *testing.T) {
	f := newDispatchFixture(t)
	f.users.byID["u1"].ManagerID = ""

	f.d.DispatchOrder(context.Background(), "o1")

	require.Len(t, f.sender.sent, 3)
	for _, e := range f.log.entries {
		assert.NotEqual(t, RecipientManager, e.RecipientType)
	}
}

func TestDispatchOrder_NoWorkersIsWarningNotError(t *testing.T) {
	f := newDispatchFixture(t)
	f.users.workers = map[string][]user.User{}

	f.d.DispatchOrder(context.Background(), "o1")

	require.Len(t, f.sender.sent, 2)
}

func TestDispatchOrder_OneFailureDoesNotStopOthers(t *testing.T) {
	f := newDispatchFixture(t)
	f.sender.failFor["boss@example.com"] = errors.New("mailbox full")

	f.d.DispatchOrder(context.Background(), "o1")

	// Customer and both workers still delivered.
	require.Len(t, f.sender.sent, 3)

	// Every attempt, including the failed one, gets a receipt.
	require.Len(t, f.log.entries, 4)
	failed := f.log.entries[1]
	assert.Equal(t, RecipientManager, failed.RecipientType)
	assert.False(t, failed.Success)
	assert.Contains(t, failed.Error, "mailbox full")
}

func TestDispatchOrder_OrderReloadFailureSwallowed(t *testing.T) {
	f := newDispatchFixture(t)

	// Must not panic; nothing sent, nothing logged to the receipt table.
	f.d.DispatchOrder(context.Background(), "missing")
	assert.Empty(t, f.sender.sent)
	assert.Empty(t, f.log.entries)
}

func TestDispatchOrder_LogAppendFailureSwallowed(t *testing.T) {
	f := newDispatchFixture(t)
	f.log.appendErr = errors.New("insert failed")

	f.d.DispatchOrder(context.Background(), "o1")
	require.Len(t, f.sender.sent, 4)
}
