package discount

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradegate/orderdesk/internal/domain/user"
)

// --- Mock implementations ---

type mockUserRepo struct {
	byID map[string]*user.User
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) ListDepartmentWorkers(_ context.Context, _ string) ([]user.User, error) {
	return nil, nil
}

type mockConfigRepo struct {
	specials map[string][]GroupPercent
	profiles map[string]*Profile
	rows     map[string][]GroupPercent
	legacy   map[string][]GroupPercent
}

func (m *mockConfigRepo) SpecialDiscounts(_ context.Context, userID string) ([]GroupPercent, error) {
	return m.specials[userID], nil
}

func (m *mockConfigRepo) GetProfile(_ context.Context, profileID string) (*Profile, error) {
	p, ok := m.profiles[profileID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (m *mockConfigRepo) ProfileDiscounts(_ context.Context, profileID string) ([]GroupPercent, error) {
	return m.rows[profileID], nil
}

func (m *mockConfigRepo) LegacyCodeDiscounts(_ context.Context, code string) ([]GroupPercent, error) {
	return m.legacy[code], nil
}

// --- Tests ---

func TestResolveSnapshot_UserNotFound(t *testing.T) {
	r := NewResolver(&mockUserRepo{byID: map[string]*user.User{}}, &mockConfigRepo{})

	_, err := r.ResolveSnapshot(context.Background(), "missing")
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestResolveSnapshot_NoProfileNoSpecials(t *testing.T) {
	users := &mockUserRepo{byID: map[string]*user.User{
		"u1": {ID: "u1"},
	}}
	r := NewResolver(users, &mockConfigRepo{})

	snap, err := r.ResolveSnapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, snap.Percent("g1").IsZero())
}

func TestResolveSnapshot_SpecialWinsOverProfile(t *testing.T) {
	users := &mockUserRepo{byID: map[string]*user.User{
		"u1": {ID: "u1", DiscountProfileID: "prof"},
	}}
	cfg := &mockConfigRepo{
		specials: map[string][]GroupPercent{
			"u1": {{GroupID: "g1", Percent: dec("25")}},
		},
		rows: map[string][]GroupPercent{
			"prof": {
				{GroupID: "g1", Percent: dec("10")},
				{GroupID: "g2", Percent: dec("10")},
			},
		},
	}
	r := NewResolver(users, cfg)

	snap, err := r.ResolveSnapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, dec("25").Equal(snap.Percent("g1")))
	assert.True(t, dec("10").Equal(snap.Percent("g2")))
	assert.True(t, snap.Percent("g3").IsZero())
}

func TestResolveSnapshot_DuplicateSpecialsLastWriteWins(t *testing.T) {
	users := &mockUserRepo{byID: map[string]*user.User{"u1": {ID: "u1"}}}
	cfg := &mockConfigRepo{
		specials: map[string][]GroupPercent{
			"u1": {
				{GroupID: "g1", Percent: dec("5")},
				{GroupID: "g1", Percent: dec("7")},
			},
		},
	}
	r := NewResolver(users, cfg)

	snap, err := r.ResolveSnapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, dec("7").Equal(snap.Percent("g1")))
}

func TestResolveSnapshot_PercentsNormalized(t *testing.T) {
	users := &mockUserRepo{byID: map[string]*user.User{"u1": {ID: "u1"}}}
	cfg := &mockConfigRepo{
		specials: map[string][]GroupPercent{
			"u1": {
				{GroupID: "g1", Percent: dec("140")},
				{GroupID: "g2", Percent: dec("-4")},
			},
		},
	}
	r := NewResolver(users, cfg)

	snap, err := r.ResolveSnapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, dec("100").Equal(snap.Percent("g1")))
	assert.True(t, snap.Percent("g2").IsZero())
}

func TestResolveSnapshot_LegacyFallback(t *testing.T) {
	users := &mockUserRepo{byID: map[string]*user.User{
		"u1": {ID: "u1", DiscountProfileID: "prof"},
	}}
	cfg := &mockConfigRepo{
		profiles: map[string]*Profile{
			"prof": {ID: "prof", Code: "WHOLESALE"},
		},
		legacy: map[string][]GroupPercent{
			"WHOLESALE": {{GroupID: "g1", Percent: dec("12")}},
		},
	}
	r := NewResolver(users, cfg)

	snap, err := r.ResolveSnapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, dec("12").Equal(snap.Percent("g1")))
}

func TestResolveSnapshot_LegacySkippedWhenProfileHasRows(t *testing.T) {
	users := &mockUserRepo{byID: map[string]*user.User{
		"u1": {ID: "u1", DiscountProfileID: "prof"},
	}}
	cfg := &mockConfigRepo{
		profiles: map[string]*Profile{
			"prof": {ID: "prof", Code: "WHOLESALE"},
		},
		rows: map[string][]GroupPercent{
			"prof": {{GroupID: "g1", Percent: dec("10")}},
		},
		legacy: map[string][]GroupPercent{
			"WHOLESALE": {{GroupID: "g1", Percent: dec("99")}},
		},
	}
	r := NewResolver(users, cfg)

	snap, err := r.ResolveSnapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(snap.Percent("g1")))
}

func TestResolveSnapshot_DanglingProfileTolerated(t *testing.T) {
	users := &mockUserRepo{byID: map[string]*user.User{
		"u1": {ID: "u1", DiscountProfileID: "gone"},
	}}
	r := NewResolver(users, &mockConfigRepo{})

	snap, err := r.ResolveSnapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, snap.Percent("g1").IsZero())
}
