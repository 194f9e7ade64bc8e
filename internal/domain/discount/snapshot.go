package discount

import "github.com/shopspring/decimal"

// Snapshot is the effective discount state of one user at one moment:
// profile defaults and special overrides, both keyed by product group.
// It is computed fresh for every pricing-sensitive operation and never
// persisted.
type Snapshot struct {
	UserID    string
	ProfileID string

	// Profile maps product group ID to the profile's default percent.
	Profile map[string]decimal.Decimal
	// Special maps product group ID to the user's override percent.
	Special map[string]decimal.Decimal
}

// Percent resolves the effective discount percent for a product group.
// A special override wins over the profile default; absence of both is zero.
func (s *Snapshot) Percent(groupID string) decimal.Decimal {
	if p, ok := s.Special[groupID]; ok {
		return p
	}
	if p, ok := s.Profile[groupID]; ok {
		return p
	}
	return decimal.Zero
}
