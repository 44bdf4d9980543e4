package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVendorKey(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "strips authorization code suffix",
			raw:      "ACME CORP *4821",
			expected: "ACME CORP",
		},
		{
			name:     "same key across differing auth codes",
			raw:      "ACME CORP *9053",
			expected: "ACME CORP",
		},
		{
			name:     "strips hash style auth code",
			raw:      "Blue Bottle #A93F",
			expected: "BLUE BOTTLE",
		},
		{
			name:     "strips long digit runs",
			raw:      "UBER TRIP 1234567",
			expected: "UBER TRIP",
		},
		{
			name:     "keeps short digit groups",
			raw:      "7-Eleven 42",
			expected: "7-ELEVEN 42",
		},
		{
			name:     "collapses whitespace and uppercases",
			raw:      "  acme   corp  ",
			expected: "ACME CORP",
		},
		{
			name:     "empty input",
			raw:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, VendorKey(tt.raw))
		})
	}
}

func TestVendorKey_Idempotent(t *testing.T) {
	inputs := []string{
		"ACME CORP *4821",
		"Stripe Payments 99887766",
		"  Mixed   Case Vendor #X1 ",
		"PLAIN VENDOR",
	}
	for _, raw := range inputs {
		once := VendorKey(raw)
		assert.Equal(t, once, VendorKey(once), "VendorKey must be idempotent for %q", raw)
	}
}

func TestFallbackVendorName(t *testing.T) {
	assert.Equal(t, "ACME CORP", FallbackVendorName("ACME CORP *4821"))
	assert.Equal(t, "Blue Bottle Coffee", FallbackVendorName("  Blue Bottle   Coffee  "))

	long := "A Very Long Vendor Name That Keeps Going And Going Past Forty"
	got := FallbackVendorName(long)
	assert.Len(t, []rune(got), 40)
	assert.Equal(t, long[:40], got)
}

func TestFallbackVendorName_PreservesCase(t *testing.T) {
	// Unlike the lookup key, the fallback display name keeps the raw casing.
	assert.Equal(t, "Acme Corp", FallbackVendorName("Acme Corp *4821"))
}
