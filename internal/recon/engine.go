package recon

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"clearbooks/internal/config"
	"clearbooks/internal/domain"
)

// Input is everything the engine needs for one run: the windowed ledger and
// invoice sets plus the already-persisted matches and open discrepancies for
// the same window. VendorNames maps vendor ids to canonical names for the
// text-similarity term.
type Input struct {
	Transactions      []domain.Transaction
	VendorNames       map[uuid.UUID]string
	Invoices          []domain.ExternalInvoice
	ExistingMatches   []domain.Match
	OpenDiscrepancies []domain.Discrepancy
}

// Output holds the rows a run wants persisted. Existing matches and open
// discrepancies are never modified; re-running over an unchanged window
// produces an empty Output.
type Output struct {
	Matches       []domain.Match
	Discrepancies []domain.Discrepancy
}

// Engine generates, scores and thresholds candidate matches between ledger
// transactions and external invoices. A run is a pure in-memory computation:
// no external calls, no shared mutable state, safe to re-run frequently.
type Engine struct {
	scorer               *Scorer
	autoConfirmThreshold float64
	reviewThreshold      float64
}

// NewEngine creates an Engine from reconciliation config.
func NewEngine(cfg config.ReconConfig) *Engine {
	return &Engine{
		scorer:               NewScorer(cfg),
		autoConfirmThreshold: cfg.AutoConfirmThreshold,
		reviewThreshold:      cfg.ReviewThreshold,
	}
}

// Scorer exposes the engine's scorer, mainly for tests.
func (e *Engine) Scorer() *Scorer { return e.scorer }

type candidate struct {
	txn         *domain.Transaction
	score       float64
	dateDelta   int
	amountDelta decimal.Decimal
}

// scoreEpsilon absorbs float noise when comparing candidate scores for ties.
const scoreEpsilon = 1e-9

// Run executes one reconciliation pass for an organization.
//
// Candidate pairs are admitted per invoice when the transaction date falls
// within the date tolerance and the amounts are within the amount tolerance.
// The best candidate above the review threshold becomes a match: confirmed
// at or above the auto-confirm threshold, pending otherwise. Equal-score ties
// fall back to the smaller date delta, then the smaller amount delta; a tie
// that survives all three comparisons is surfaced as a matching_ambiguity
// discrepancy instead of being silently picked. Invoices and transactions
// that end the pass unmatched produce single-sided discrepancies.
//
// Idempotence: pairs with an existing match in any state are never
// re-proposed, sides claimed by a pending or confirmed match are not
// considered, and a discrepancy is not re-emitted while an identical one is
// still open.
func (e *Engine) Run(orgID uuid.UUID, in Input) Output {
	var out Output

	pairSeen := make(map[string]bool, len(in.ExistingMatches))
	takenTxn := make(map[uuid.UUID]bool)
	takenInv := make(map[uuid.UUID]bool)
	for _, m := range in.ExistingMatches {
		pairSeen[pairKey(m.TransactionID, m.InvoiceID)] = true
		if m.State == domain.MatchPending || m.State == domain.MatchConfirmed {
			takenTxn[m.TransactionID] = true
			takenInv[m.InvoiceID] = true
		}
	}

	openDisc := make(map[string]bool, len(in.OpenDiscrepancies))
	for _, d := range in.OpenDiscrepancies {
		openDisc[discKey(d.Kind, d.TransactionID, d.InvoiceID)] = true
	}

	// Deterministic iteration order so re-runs and tests see the same pass.
	invoices := make([]domain.ExternalInvoice, len(in.Invoices))
	copy(invoices, in.Invoices)
	sort.Slice(invoices, func(i, j int) bool {
		if !invoices[i].IssuedOn.Equal(invoices[j].IssuedOn) {
			return invoices[i].IssuedOn.Before(invoices[j].IssuedOn)
		}
		return invoices[i].ExternalID < invoices[j].ExternalID
	})

	for i := range invoices {
		inv := &invoices[i]
		if takenInv[inv.ID] {
			continue
		}

		cands := e.collectCandidates(in, inv, takenTxn, pairSeen)
		if len(cands) == 0 || cands[0].score < e.reviewThreshold {
			e.emitInvoiceUnmatched(orgID, inv, openDisc, &out)
			continue
		}

		winners := breakTies(cands)
		if len(winners) > 1 {
			e.emitAmbiguity(orgID, inv, winners, openDisc, &out)
			continue
		}

		best := winners[0]
		state := domain.MatchPending
		if best.score >= e.autoConfirmThreshold {
			state = domain.MatchConfirmed
		}
		out.Matches = append(out.Matches, domain.Match{
			ID:             uuid.New(),
			OrganizationID: orgID,
			TransactionID:  best.txn.ID,
			InvoiceID:      inv.ID,
			Confidence:     best.score,
			State:          state,
			Version:        1,
		})
		takenTxn[best.txn.ID] = true
		takenInv[inv.ID] = true
		pairSeen[pairKey(best.txn.ID, inv.ID)] = true

		// Amounts admitted under tolerance but not exactly equal carry an
		// amount_mismatch alongside the match so the fee/rounding delta is
		// visible to reviewers.
		if !best.amountDelta.IsZero() {
			e.emitAmountMismatch(orgID, best, inv, openDisc, &out)
		}
	}

	for i := range in.Transactions {
		txn := &in.Transactions[i]
		if takenTxn[txn.ID] {
			continue
		}
		e.emitTransactionUnmatched(orgID, txn, openDisc, &out)
	}

	return out
}

func (e *Engine) collectCandidates(in Input, inv *domain.ExternalInvoice, takenTxn map[uuid.UUID]bool, pairSeen map[string]bool) []candidate {
	var cands []candidate
	for i := range in.Transactions {
		txn := &in.Transactions[i]
		if takenTxn[txn.ID] || pairSeen[pairKey(txn.ID, inv.ID)] {
			continue
		}
		if !e.scorer.WithinDateTolerance(txn.Date, inv.IssuedOn) {
			continue
		}
		if !e.scorer.WithinAmountTolerance(txn.Amount, inv.Amount) {
			continue
		}
		txnText := strings.TrimSpace(in.VendorNames[txn.VendorID] + " " + txn.Description)
		score := e.scorer.Confidence(txn.Amount, inv.Amount, txn.Date, inv.IssuedOn, txnText, inv.VendorName)
		cands = append(cands, candidate{
			txn:         txn,
			score:       score,
			dateDelta:   DateDeltaDays(txn.Date, inv.IssuedOn),
			amountDelta: txn.Amount.Abs().Sub(inv.Amount.Abs()),
		})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		if cands[i].dateDelta != cands[j].dateDelta {
			return cands[i].dateDelta < cands[j].dateDelta
		}
		cmp := cands[i].amountDelta.Abs().Cmp(cands[j].amountDelta.Abs())
		if cmp != 0 {
			return cmp < 0
		}
		return cands[i].txn.ID.String() < cands[j].txn.ID.String()
	})
	return cands
}

// breakTies returns every candidate still tied with the best one after the
// score, date-delta and amount-delta comparisons. A single survivor is the
// winner; multiple survivors are an unresolved ambiguity.
func breakTies(cands []candidate) []candidate {
	best := cands[0]
	winners := []candidate{best}
	for _, c := range cands[1:] {
		if best.score-c.score > scoreEpsilon {
			break
		}
		if c.dateDelta != best.dateDelta {
			break
		}
		if c.amountDelta.Abs().Cmp(best.amountDelta.Abs()) != 0 {
			break
		}
		winners = append(winners, c)
	}
	return winners
}

func (e *Engine) emitInvoiceUnmatched(orgID uuid.UUID, inv *domain.ExternalInvoice, openDisc map[string]bool, out *Output) {
	key := discKey(domain.DiscrepancyInvoiceWithoutTransaction, nil, &inv.ID)
	if openDisc[key] {
		return
	}
	openDisc[key] = true
	out.Discrepancies = append(out.Discrepancies, domain.Discrepancy{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Kind:           domain.DiscrepancyInvoiceWithoutTransaction,
		InvoiceID:      &inv.ID,
		Detail:         fmt.Sprintf("invoice %s (%s, %s) has no transaction within tolerance", inv.ExternalID, inv.VendorName, inv.Amount.StringFixed(2)),
		State:          domain.DiscrepancyOpen,
		Version:        1,
	})
}

func (e *Engine) emitTransactionUnmatched(orgID uuid.UUID, txn *domain.Transaction, openDisc map[string]bool, out *Output) {
	key := discKey(domain.DiscrepancyTransactionWithoutInvoice, &txn.ID, nil)
	if openDisc[key] {
		return
	}
	openDisc[key] = true
	out.Discrepancies = append(out.Discrepancies, domain.Discrepancy{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Kind:           domain.DiscrepancyTransactionWithoutInvoice,
		TransactionID:  &txn.ID,
		Detail:         fmt.Sprintf("transaction of %s on %s has no invoice within tolerance", txn.Amount.StringFixed(2), txn.Date.Format("2006-01-02")),
		State:          domain.DiscrepancyOpen,
		Version:        1,
	})
}

func (e *Engine) emitAmbiguity(orgID uuid.UUID, inv *domain.ExternalInvoice, winners []candidate, openDisc map[string]bool, out *Output) {
	key := discKey(domain.DiscrepancyMatchingAmbiguity, nil, &inv.ID)
	if openDisc[key] {
		return
	}
	openDisc[key] = true
	ids := make([]string, len(winners))
	for i, w := range winners {
		ids[i] = w.txn.ID.String()
	}
	out.Discrepancies = append(out.Discrepancies, domain.Discrepancy{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Kind:           domain.DiscrepancyMatchingAmbiguity,
		InvoiceID:      &inv.ID,
		Detail:         fmt.Sprintf("invoice %s has %d equally plausible transactions: %s", inv.ExternalID, len(winners), strings.Join(ids, ", ")),
		State:          domain.DiscrepancyOpen,
		Version:        1,
	})
}

func (e *Engine) emitAmountMismatch(orgID uuid.UUID, best candidate, inv *domain.ExternalInvoice, openDisc map[string]bool, out *Output) {
	key := discKey(domain.DiscrepancyAmountMismatch, &best.txn.ID, &inv.ID)
	if openDisc[key] {
		return
	}
	openDisc[key] = true
	out.Discrepancies = append(out.Discrepancies, domain.Discrepancy{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Kind:           domain.DiscrepancyAmountMismatch,
		TransactionID:  &best.txn.ID,
		InvoiceID:      &inv.ID,
		AmountDelta:    decimal.NewNullDecimal(best.amountDelta),
		Detail:         fmt.Sprintf("matched amounts differ by %s (transaction %s vs invoice %s)", best.amountDelta.Abs().StringFixed(2), best.txn.Amount.Abs().StringFixed(2), inv.Amount.StringFixed(2)),
		State:          domain.DiscrepancyOpen,
		Version:        1,
	})
}

func pairKey(txnID, invID uuid.UUID) string {
	return txnID.String() + ":" + invID.String()
}

func discKey(kind domain.DiscrepancyKind, txnID, invID *uuid.UUID) string {
	t, i := "", ""
	if txnID != nil {
		t = txnID.String()
	}
	if invID != nil {
		i = invID.String()
	}
	return string(kind) + ":" + t + ":" + i
}
