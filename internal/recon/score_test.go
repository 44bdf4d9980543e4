package recon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"clearbooks/internal/config"
)

func testReconConfig() config.ReconConfig {
	return config.ReconConfig{
		AutoConfirmThreshold: 0.95,
		ReviewThreshold:      0.60,
		DateToleranceDays:    5,
		AmountTolerancePct:   0.01,
		AmountWeight:         0.5,
		DateWeight:           0.2,
		TextWeight:           0.3,
	}
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestScorer_ExactMatchScoresOne(t *testing.T) {
	s := NewScorer(testReconConfig())

	score := s.Confidence(amt("-500.00"), amt("500.00"), day(10), day(10), "Acme Corp", "Acme Corp")
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScorer_AutoConfirmableWithOneDayDelta(t *testing.T) {
	s := NewScorer(testReconConfig())

	// Same amount, one day apart, invoice vendor fully contained in the
	// transaction text: 0.5 + 0.2*0.8 + 0.3*1.0 = 0.96.
	score := s.Confidence(
		amt("-500.00"), amt("500.00"),
		day(11), day(10),
		"Acme Corp monthly service", "ACME CORP",
	)
	assert.GreaterOrEqual(t, score, 0.95)
}

func TestScorer_DateScoreMonotone(t *testing.T) {
	s := NewScorer(testReconConfig())

	prev := 2.0
	for days := 0; days <= 5; days++ {
		score := s.Confidence(
			amt("100.00"), amt("100.00"),
			day(10+days), day(10),
			"Acme Corp", "Acme Corp",
		)
		assert.Less(t, score, prev, "score must strictly decrease as the date delta grows (delta=%d)", days)
		prev = score
	}
}

func TestScorer_AmountScoreMonotone(t *testing.T) {
	s := NewScorer(testReconConfig())

	txnAmounts := []string{"100.00", "100.20", "100.50", "100.90"}
	prev := 2.0
	for _, a := range txnAmounts {
		score := s.Confidence(
			amt(a), amt("100.00"),
			day(10), day(10),
			"Acme Corp", "Acme Corp",
		)
		assert.Less(t, score, prev, "score must strictly decrease as the amount delta grows (txn=%s)", a)
		prev = score
	}
}

func TestScorer_SignedAmountsCompareByMagnitude(t *testing.T) {
	s := NewScorer(testReconConfig())

	// Ledger outflows are negative; invoice amounts are positive.
	withSign := s.Confidence(amt("-250.00"), amt("250.00"), day(10), day(10), "Acme", "Acme")
	withoutSign := s.Confidence(amt("250.00"), amt("250.00"), day(10), day(10), "Acme", "Acme")
	assert.Equal(t, withoutSign, withSign)
}

func TestScorer_TextScore(t *testing.T) {
	s := NewScorer(testReconConfig())

	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical after normalization", "ACME-CORP", "acme corp", 1.0, 1.0},
		{"full token containment", "Acme Corp payment ref 441", "ACME CORP", 1.0, 1.0},
		{"near miss typo", "Acme Corpp", "Acme Corp", 0.8, 1.0},
		{"unrelated", "Globex Industries", "Initech LLC", 0.0, 0.5},
		{"empty side", "", "Acme Corp", 0.0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.textScore(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestScorer_Tolerances(t *testing.T) {
	s := NewScorer(testReconConfig())

	assert.True(t, s.WithinDateTolerance(day(10), day(15)))
	assert.False(t, s.WithinDateTolerance(day(10), day(16)))

	// 1% relative tolerance against the larger magnitude.
	assert.True(t, s.WithinAmountTolerance(amt("-100.00"), amt("100.00")))
	assert.True(t, s.WithinAmountTolerance(amt("99.50"), amt("100.00")))
	assert.False(t, s.WithinAmountTolerance(amt("95.00"), amt("100.00")))
}

func TestScorer_ZeroAmountsAreEqual(t *testing.T) {
	s := NewScorer(testReconConfig())

	assert.True(t, s.WithinAmountTolerance(amt("0"), amt("0")))
	score := s.Confidence(amt("0"), amt("0"), day(10), day(10), "Acme", "Acme")
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestDateDeltaDays(t *testing.T) {
	assert.Equal(t, 0, DateDeltaDays(day(10), day(10)))
	assert.Equal(t, 3, DateDeltaDays(day(10), day(13)))
	assert.Equal(t, 3, DateDeltaDays(day(13), day(10)))
}
