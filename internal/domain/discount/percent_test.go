package discount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNormalizePercent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"zero", "0", "0"},
		{"plain", "15", "15"},
		{"upper bound", "100", "100"},
		{"negative clamps to zero", "-3", "0"},
		{"above hundred clamps", "150", "100"},
		{"rounds half away from zero", "12.345", "12.35"},
		{"rounds down", "12.344", "12.34"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePercent(dec(tt.in))
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestNormalizePercent_Idempotent(t *testing.T) {
	for _, in := range []string{"-50", "0", "33.333", "99.995", "100", "240"} {
		once := NormalizePercent(dec(in))
		twice := NormalizePercent(once)
		assert.True(t, once.Equal(twice), "input %s: %s != %s", in, once, twice)
	}
}

func TestApplyPercent(t *testing.T) {
	tests := []struct {
		name    string
		price   string
		percent string
		want    string
	}{
		{"no discount", "100", "0", "100"},
		{"plain", "100", "20", "80"},
		{"rounds to cents", "99.99", "33.33", "66.66"},
		{"full discount", "100", "100", "0"},
		{"over hundred clamps to free", "49.90", "140", "0"},
		{"negative percent ignored", "10", "-5", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyPercent(dec(tt.price), dec(tt.percent))
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestApplyPercent_NeverNegative(t *testing.T) {
	for _, pct := range []string{"100", "101", "999"} {
		got := ApplyPercent(dec("12.50"), dec(pct))
		assert.False(t, got.IsNegative())
		assert.True(t, got.IsZero())
	}
}
