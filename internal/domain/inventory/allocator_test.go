package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockInventoryRepo struct {
	buckets map[string][]Snapshot // keyed by department|product
	listErr error

	updates map[string]decimal.Decimal
	touched map[string]time.Time
}

func newMockInventoryRepo() *mockInventoryRepo {
	return &mockInventoryRepo{
		buckets: map[string][]Snapshot{},
		updates: map[string]decimal.Decimal{},
		touched: map[string]time.Time{},
	}
}

func (m *mockInventoryRepo) add(dept, product, id, qty string, capturedAt time.Time) {
	key := dept + "|" + product
	m.buckets[key] = append(m.buckets[key], Snapshot{
		ID:           id,
		DepartmentID: dept,
		ProductID:    product,
		Quantity:     decimal.RequireFromString(qty),
		CapturedAt:   capturedAt,
	})
}

func (m *mockInventoryRepo) ListBuckets(_ context.Context, dept, product string) ([]Snapshot, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.buckets[dept+"|"+product], nil
}

func (m *mockInventoryRepo) UpdateBucket(_ context.Context, id string, qty decimal.Decimal, at time.Time) error {
	m.updates[id] = qty
	m.touched[id] = at
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAggregate(t *testing.T) {
	got := Aggregate([]Line{
		{ProductID: "p1", Quantity: dec("2")},
		{ProductID: "p2", Quantity: dec("1")},
		{ProductID: "p1", Quantity: dec("3")},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ProductID)
	assert.True(t, dec("5").Equal(got[0].Quantity))
	assert.True(t, dec("1").Equal(got[1].Quantity))
}

func TestReserve_NoStockIsNotAnError(t *testing.T) {
	repo := newMockInventoryRepo()
	a := NewAllocator(repo, zaptest.NewLogger(t))

	a.Reserve(context.Background(), "d1", []Line{{ProductID: "p1", Quantity: dec("100")}})
	assert.Empty(t, repo.updates)
}

func TestReserve_ZeroAvailableSkipped(t *testing.T) {
	repo := newMockInventoryRepo()
	repo.add("d1", "p1", "b1", "0", time.Now())
	a := NewAllocator(repo, zaptest.NewLogger(t))

	a.Reserve(context.Background(), "d1", []Line{{ProductID: "p1", Quantity: dec("4")}})
	assert.Empty(t, repo.updates)
}

func TestReserve_PartialDrainAcrossBuckets(t *testing.T) {
	repo := newMockInventoryRepo()
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.add("d1", "p1", "b-old", "5", older)
	repo.add("d1", "p1", "b-new", "3", older.Add(time.Hour))
	a := NewAllocator(repo, zaptest.NewLogger(t))

	a.Reserve(context.Background(), "d1", []Line{{ProductID: "p1", Quantity: dec("6")}})

	require.Len(t, repo.updates, 2)
	assert.True(t, repo.updates["b-old"].IsZero(), "older bucket drained first")
	assert.True(t, dec("2").Equal(repo.updates["b-new"]))
	assert.False(t, repo.touched["b-old"].IsZero())
	assert.False(t, repo.touched["b-new"].IsZero())
}

func TestReserve_RequestExceedsStock(t *testing.T) {
	repo := newMockInventoryRepo()
	repo.add("d1", "p1", "b1", "4", time.Now())
	a := NewAllocator(repo, zaptest.NewLogger(t))

	a.Reserve(context.Background(), "d1", []Line{{ProductID: "p1", Quantity: dec("10")}})

	require.Len(t, repo.updates, 1)
	assert.True(t, repo.updates["b1"].IsZero())
}

func TestReserve_UntouchedBucketsKeepTimestamps(t *testing.T) {
	repo := newMockInventoryRepo()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.add("d1", "p1", "b1", "5", base)
	repo.add("d1", "p1", "b2", "5", base.Add(time.Hour))
	a := NewAllocator(repo, zaptest.NewLogger(t))

	a.Reserve(context.Background(), "d1", []Line{{ProductID: "p1", Quantity: dec("5")}})

	require.Len(t, repo.updates, 1)
	assert.Contains(t, repo.updates, "b1")
	assert.NotContains(t, repo.touched, "b2")
}

func TestReserve_LookupFailureSwallowed(t *testing.T) {
	repo := newMockInventoryRepo()
	repo.listErr = errors.New("db down")
	a := NewAllocator(repo, zaptest.NewLogger(t))

	// Must not panic or propagate.
	a.Reserve(context.Background(), "d1", []Line{{ProductID: "p1", Quantity: dec("1")}})
	assert.Empty(t, repo.updates)
}
