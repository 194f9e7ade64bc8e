package order

import "fmt"

// Human-readable order numbers look like ORD-2026-000042: a per-year sequence
// zero-padded to six digits.

// FormatNumber renders the order number for a year and sequence.
func FormatNumber(year, sequence int) string {
	return fmt.Sprintf("ORD-%d-%06d", year, sequence)
}

// NumberPrefix returns the number prefix shared by all orders of a year,
// usable in storage scans.
func NumberPrefix(year int) string {
	return fmt.Sprintf("ORD-%d-", year)
}
