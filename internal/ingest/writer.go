package ingest

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"clearbooks/internal/domain"
	"clearbooks/internal/port"
)

// WriteResult summarizes one ledger-write pass over a document's rows.
type WriteResult struct {
	Created int
	Skips   map[domain.SkipReason]int
}

// SkipCount sums all skip reasons.
func (w WriteResult) SkipCount() int {
	n := 0
	for _, c := range w.Skips {
		n += c
	}
	return n
}

// LedgerWriter materializes canonical vendors, categories and transactions
// from resolved rows. Per-row persistence failures are counted and skipped,
// never fatal; rows already inserted stay inserted.
type LedgerWriter struct {
	vendorRepo     port.VendorRepository
	categoryRepo   port.CategoryRepository
	txnRepo        port.TransactionRepository
	departmentRepo port.DepartmentRepository
	metricRepo     port.MonthlyMetricRepository
}

// NewLedgerWriter creates a LedgerWriter.
func NewLedgerWriter(
	vendorRepo port.VendorRepository,
	categoryRepo port.CategoryRepository,
	txnRepo port.TransactionRepository,
	departmentRepo port.DepartmentRepository,
	metricRepo port.MonthlyMetricRepository,
) *LedgerWriter {
	return &LedgerWriter{
		vendorRepo:     vendorRepo,
		categoryRepo:   categoryRepo,
		txnRepo:        txnRepo,
		departmentRepo: departmentRepo,
		metricRepo:     metricRepo,
	}
}

// WriteTransactions inserts one Transaction per resolved row. The batch cache
// must already be populated by the resolve stage; a missing cache entry is
// defensively skipped with reason no_vendor_cache.
func (w *LedgerWriter) WriteTransactions(ctx context.Context, doc *domain.Document, rows []TransactionRow, batch *BatchContext) WriteResult {
	result := WriteResult{Skips: make(map[domain.SkipReason]int)}

	for _, row := range rows {
		vres, ok := batch.Vendor(VendorKey(row.RawVendor))
		if !ok {
			result.Skips[domain.SkipNoVendorCache]++
			continue
		}
		cres, ok := batch.Category(CategoryKey(vres.CleanName, row.Description))
		if !ok {
			result.Skips[domain.SkipNoVendorCache]++
			continue
		}

		vendor, err := w.vendorRepo.FindOrCreate(ctx, doc.OrganizationID, vres.CleanName, vres.IsRecurring)
		if err != nil {
			log.Printf("ingest.LedgerWriter: find-or-create vendor %q failed for doc %s: %v", vres.CleanName, doc.ID, err)
			result.Skips[domain.SkipNoDBRecord]++
			continue
		}
		category, err := w.categoryRepo.FindOrCreate(ctx, doc.OrganizationID, cres.Name)
		if err != nil {
			log.Printf("ingest.LedgerWriter: find-or-create category %q failed for doc %s: %v", cres.Name, doc.ID, err)
			result.Skips[domain.SkipNoDBRecord]++
			continue
		}

		txn := &domain.Transaction{
			ID:             uuid.New(),
			OrganizationID: doc.OrganizationID,
			DocumentID:     doc.ID,
			Date:           row.Date,
			Amount:         row.Amount,
			VendorID:       vendor.ID,
			CategoryID:     category.ID,
			Description:    row.Description,
			IsRecurring:    vendor.IsRecurring,
		}
		if err := w.txnRepo.Create(ctx, txn); err != nil {
			log.Printf("ingest.LedgerWriter: transaction insert failed for doc %s: %v", doc.ID, err)
			result.Skips[domain.SkipNoDBRecord]++
			continue
		}
		result.Created++
	}

	return result
}

// WriteSummaries upserts one monthly metric per summary row, resolving the
// department dimension through the same find-or-create pattern as vendors.
func (w *LedgerWriter) WriteSummaries(ctx context.Context, doc *domain.Document, rows []SummaryRow) WriteResult {
	result := WriteResult{Skips: make(map[domain.SkipReason]int)}

	for _, row := range rows {
		dept, err := w.departmentRepo.FindOrCreate(ctx, doc.OrganizationID, row.Department)
		if err != nil {
			log.Printf("ingest.LedgerWriter: find-or-create department %q failed for doc %s: %v", row.Department, doc.ID, err)
			result.Skips[domain.SkipNoDBRecord]++
			continue
		}
		metric := &domain.MonthlyMetric{
			ID:             uuid.New(),
			OrganizationID: doc.OrganizationID,
			DocumentID:     doc.ID,
			Month:          time.Date(row.Month.Year(), row.Month.Month(), 1, 0, 0, 0, 0, time.UTC),
			DepartmentID:   dept.ID,
			Expenses:       row.Expenses,
			Revenue:        row.Revenue,
		}
		if err := w.metricRepo.Upsert(ctx, metric); err != nil {
			log.Printf("ingest.LedgerWriter: monthly metric upsert failed for doc %s: %v", doc.ID, err)
			result.Skips[domain.SkipNoDBRecord]++
			continue
		}
		result.Created++
	}

	return result
}
