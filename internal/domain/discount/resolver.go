package discount

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/tradegate/orderdesk/internal/domain/user"
)

// GroupPercent is one stored discount row: a percent for a product group.
type GroupPercent struct {
	GroupID string
	Percent decimal.Decimal
}

// Profile is a named, shared set of default discounts assignable to many
// users. Code identifies profiles migrated from the superseded code-keyed
// schema.
type Profile struct {
	ID   string
	Code string
	Name string
}

// ErrProfileNotFound is returned by ConfigRepository when a profile row is
// missing. The resolver treats it as an empty profile, not a failure.
var ErrProfileNotFound = errors.New("discount profile not found")

// ConfigRepository reads the persisted discount configuration.
type ConfigRepository interface {
	// SpecialDiscounts returns the user's per-group overrides in write order,
	// oldest first, so that later duplicates win during resolution.
	SpecialDiscounts(ctx context.Context, userID string) ([]GroupPercent, error)
	GetProfile(ctx context.Context, profileID string) (*Profile, error)
	ProfileDiscounts(ctx context.Context, profileID string) ([]GroupPercent, error)
	// LegacyCodeDiscounts reads the superseded code-keyed discount table.
	LegacyCodeDiscounts(ctx context.Context, code string) ([]GroupPercent, error)
}

// Resolver builds discount snapshots for users. It reads through to storage
// on every call; snapshots are never cached across operations.
type Resolver struct {
	users  user.Repository
	config ConfigRepository
}

// NewResolver creates a Resolver over the given stores.
func NewResolver(users user.Repository, config ConfigRepository) *Resolver {
	return &Resolver{users: users, config: config}
}

// ResolveSnapshot computes the effective discount state for a user.
// It returns user.ErrNotFound when the user does not exist. A user without
// an assigned profile resolves to all-zero profile defaults.
func (r *Resolver) ResolveSnapshot(ctx context.Context, userID string) (*Snapshot, error) {
	u, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}

	snap := &Snapshot{
		UserID:    u.ID,
		ProfileID: u.DiscountProfileID,
		Profile:   map[string]decimal.Decimal{},
		Special:   map[string]decimal.Decimal{},
	}

	specials, err := r.config.SpecialDiscounts(ctx, u.ID)
	if err != nil {
		return nil, errors.Wrap(err, "load special discounts")
	}
	// Rows arrive oldest first; the newest duplicate per group wins.
	for _, row := range specials {
		snap.Special[row.GroupID] = NormalizePercent(row.Percent)
	}

	if u.DiscountProfileID == "" {
		return snap, nil
	}

	rows, err := r.config.ProfileDiscounts(ctx, u.DiscountProfileID)
	if err != nil {
		return nil, errors.Wrap(err, "load profile discounts")
	}
	for _, row := range rows {
		snap.Profile[row.GroupID] = NormalizePercent(row.Percent)
	}

	// Migration shim: profiles carried over from the old schema have no
	// explicit group rows, only a code pointing at the legacy table.
	if len(rows) == 0 {
		if err := r.loadLegacy(ctx, u.DiscountProfileID, snap); err != nil {
			return nil, err
		}
	}

	return snap, nil
}

func (r *Resolver) loadLegacy(ctx context.Context, profileID string, snap *Snapshot) error {
	profile, err := r.config.GetProfile(ctx, profileID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil
		}
		return errors.Wrap(err, "get profile")
	}
	if profile.Code == "" {
		return nil
	}

	rows, err := r.config.LegacyCodeDiscounts(ctx, profile.Code)
	if err != nil {
		return errors.Wrap(err, "load legacy discounts")
	}
	for _, row := range rows {
		snap.Profile[row.GroupID] = NormalizePercent(row.Percent)
	}
	return nil
}
