package ingest

import (
	"regexp"
	"strings"
)

// fallbackNameLen bounds the deterministic fallback vendor name when the
// normalization provider is unavailable.
const fallbackNameLen = 40

var (
	// Trailing authorization-code suffixes like "*4821" or "#A93F".
	authCodeRe = regexp.MustCompile(`[*#]\s*\w+\s*$`)
	// Long digit runs (card fragments, reference numbers).
	digitRunRe = regexp.MustCompile(`\d{5,}`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// VendorKey derives the deterministic lookup key for a raw vendor string:
// strip authorization-code suffixes, strip long digit runs, collapse
// whitespace, uppercase. Pure and idempotent: VendorKey(VendorKey(x)) ==
// VendorKey(x) for all x.
func VendorKey(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = authCodeRe.ReplaceAllString(s, "")
	s = digitRunRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	return s
}

// FallbackVendorName produces the deterministic substitute clean name used
// when the normalization provider fails: the raw string with its
// authorization-code suffix removed, whitespace collapsed, truncated.
func FallbackVendorName(raw string) string {
	s := strings.TrimSpace(raw)
	s = authCodeRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	if r := []rune(s); len(r) > fallbackNameLen {
		s = string(r[:fallbackNameLen])
	}
	return s
}
