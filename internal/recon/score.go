package recon

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/agext/levenshtein"
	"github.com/shopspring/decimal"

	"clearbooks/internal/config"
)

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// Scorer computes the confidence that a ledger transaction and an external
// invoice represent the same real-world payment. The score is a weighted
// combination of amount exactness, date proximity and text similarity, each
// in [0,1]. Weights and tolerances come from configuration.
type Scorer struct {
	amountWeight       float64
	dateWeight         float64
	textWeight         float64
	dateToleranceDays  int
	amountTolerancePct float64
}

// NewScorer creates a Scorer from reconciliation config.
func NewScorer(cfg config.ReconConfig) *Scorer {
	s := &Scorer{
		amountWeight:       cfg.AmountWeight,
		dateWeight:         cfg.DateWeight,
		textWeight:         cfg.TextWeight,
		dateToleranceDays:  cfg.DateToleranceDays,
		amountTolerancePct: cfg.AmountTolerancePct,
	}
	if s.dateToleranceDays <= 0 {
		s.dateToleranceDays = 5
	}
	if s.amountTolerancePct <= 0 {
		s.amountTolerancePct = 0.01
	}
	return s
}

// Confidence scores one (transaction, invoice) candidate. Transaction amounts
// are signed in the ledger; comparison uses magnitudes.
func (s *Scorer) Confidence(txnAmount, invoiceAmount decimal.Decimal, txnDate, invoiceDate time.Time, txnText, invoiceText string) float64 {
	a := s.amountScore(txnAmount.Abs(), invoiceAmount.Abs())
	d := s.dateScore(DateDeltaDays(txnDate, invoiceDate))
	t := s.textScore(txnText, invoiceText)
	return s.amountWeight*a + s.dateWeight*d + s.textWeight*t
}

// WithinDateTolerance reports whether a candidate pair's dates are close
// enough to be considered at all.
func (s *Scorer) WithinDateTolerance(txnDate, invoiceDate time.Time) bool {
	return DateDeltaDays(txnDate, invoiceDate) <= s.dateToleranceDays
}

// WithinAmountTolerance reports whether the amounts are exactly equal or
// within the configured relative tolerance (fee/rounding differences).
func (s *Scorer) WithinAmountTolerance(txnAmount, invoiceAmount decimal.Decimal) bool {
	return s.relativeAmountDelta(txnAmount.Abs(), invoiceAmount.Abs()) <= s.amountTolerancePct
}

// DateDeltaDays is the whole-day distance between two dates.
func DateDeltaDays(a, b time.Time) int {
	delta := a.Sub(b)
	if delta < 0 {
		delta = -delta
	}
	return int(delta.Hours() / 24)
}

// amountScore is 1.0 for an exact match and decays with the relative delta.
// The decay is gentler than the admission tolerance so that a pair admitted
// with a small fee difference still scores competitively and can surface as
// a match carrying an amount_mismatch discrepancy.
func (s *Scorer) amountScore(txnAbs, invoiceAbs decimal.Decimal) float64 {
	if txnAbs.Equal(invoiceAbs) {
		return 1.0
	}
	rel := s.relativeAmountDelta(txnAbs, invoiceAbs)
	score := 1.0 - 0.5*(rel/s.amountTolerancePct)
	return clamp01(score)
}

// relativeAmountDelta is |txn - invoice| / max(invoice, txn). Dividing by the
// larger magnitude keeps the ratio defined when the invoice amount is zero.
func (s *Scorer) relativeAmountDelta(txnAbs, invoiceAbs decimal.Decimal) float64 {
	base := invoiceAbs
	if txnAbs.GreaterThan(base) {
		base = txnAbs
	}
	if base.IsZero() {
		return 0
	}
	delta := txnAbs.Sub(invoiceAbs).Abs()
	rel, _ := delta.Div(base).Float64()
	return rel
}

// dateScore is 1.0 at zero days and decays linearly to 0 at the tolerance
// boundary.
func (s *Scorer) dateScore(deltaDays int) float64 {
	return clamp01(1.0 - float64(deltaDays)/float64(s.dateToleranceDays))
}

// textScore compares vendor/description text in [0,1]. It takes the better
// of an edit-distance similarity over the whole strings and a token overlap
// coefficient, so "Acme Corp" against "ACME CORP PAYMENT" scores as a full
// containment rather than being penalized for the extra token.
func (s *Scorer) textScore(a, b string) float64 {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	edit := levenshtein.Similarity(na, nb, nil)
	overlap := tokenOverlap(na, nb)
	return math.Max(edit, overlap)
}

// tokenOverlap is the overlap coefficient |A ∩ B| / min(|A|, |B|) over
// whitespace tokens.
func tokenOverlap(a, b string) float64 {
	ta := strings.Fields(a)
	tb := strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}
	shared := 0
	seen := make(map[string]bool, len(tb))
	for _, t := range tb {
		if set[t] && !seen[t] {
			shared++
			seen[t] = true
		}
	}
	smaller := len(set)
	if n := countDistinct(tb); n < smaller {
		smaller = n
	}
	return float64(shared) / float64(smaller)
}

func countDistinct(tokens []string) int {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return len(set)
}

func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
