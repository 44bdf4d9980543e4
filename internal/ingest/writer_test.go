package ingest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clearbooks/internal/domain"
	. "clearbooks/internal/ingest"
	"clearbooks/mocks"
)

func testDoc() *domain.Document {
	return &domain.Document{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
	}
}

func TestLedgerWriter_WriteTransactions(t *testing.T) {
	vendorRepo := new(mocks.MockVendorRepo)
	categoryRepo := new(mocks.MockCategoryRepo)
	txnRepo := new(mocks.MockTransactionRepo)

	doc := testDoc()
	rows := []TransactionRow{
		txnRow("ACME CORP *4821", "Coffee", "-45.90"),
		txnRow("Globex Inc", "Hosting", "-300.00"),
	}

	batch := NewBatchContext()
	batch.PutVendor(VendorKey("ACME CORP *4821"), VendorResolution{CleanName: "Acme Corp"})
	batch.PutVendor(VendorKey("Globex Inc"), VendorResolution{CleanName: "Globex", IsRecurring: true})
	batch.PutCategory(CategoryKey("Acme Corp", "Coffee"), CategoryResolution{Name: "Food & Beverage"})
	batch.PutCategory(CategoryKey("Globex", "Hosting"), CategoryResolution{Name: "Software & Infrastructure"})

	acme := &domain.Vendor{ID: uuid.New(), CleanName: "Acme Corp"}
	globex := &domain.Vendor{ID: uuid.New(), CleanName: "Globex", IsRecurring: true}
	foodCat := &domain.Category{ID: uuid.New(), Name: "Food & Beverage"}
	infraCat := &domain.Category{ID: uuid.New(), Name: "Software & Infrastructure"}

	vendorRepo.On("FindOrCreate", mock.Anything, doc.OrganizationID, "Acme Corp", false).Return(acme, nil)
	vendorRepo.On("FindOrCreate", mock.Anything, doc.OrganizationID, "Globex", true).Return(globex, nil)
	categoryRepo.On("FindOrCreate", mock.Anything, doc.OrganizationID, "Food & Beverage").Return(foodCat, nil)
	categoryRepo.On("FindOrCreate", mock.Anything, doc.OrganizationID, "Software & Infrastructure").Return(infraCat, nil)

	var inserted []*domain.Transaction
	txnRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Transaction")).
		Run(func(args mock.Arguments) {
			inserted = append(inserted, args.Get(1).(*domain.Transaction))
		}).Return(nil)

	w := NewLedgerWriter(vendorRepo, categoryRepo, txnRepo, nil, nil)
	result := w.WriteTransactions(context.Background(), doc, rows, batch)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.SkipCount())
	require.Len(t, inserted, 2)

	// Sign convention is preserved through the write.
	assert.True(t, inserted[0].Amount.Equal(decimal.RequireFromString("-45.90")))
	assert.Equal(t, acme.ID, inserted[0].VendorID)
	assert.Equal(t, foodCat.ID, inserted[0].CategoryID)
	assert.False(t, inserted[0].IsRecurring)
	assert.True(t, inserted[1].IsRecurring)
	assert.Equal(t, doc.ID, inserted[1].DocumentID)
}

func TestLedgerWriter_SkipsOnMissingCache(t *testing.T) {
	vendorRepo := new(mocks.MockVendorRepo)
	categoryRepo := new(mocks.MockCategoryRepo)
	txnRepo := new(mocks.MockTransactionRepo)

	doc := testDoc()
	rows := []TransactionRow{txnRow("UNRESOLVED VENDOR", "Something", "-10.00")}

	w := NewLedgerWriter(vendorRepo, categoryRepo, txnRepo, nil, nil)
	result := w.WriteTransactions(context.Background(), doc, rows, NewBatchContext())

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Skips[domain.SkipNoVendorCache])
	txnRepo.AssertNotCalled(t, "Create")
}

func TestLedgerWriter_AllRowsFailPersistence(t *testing.T) {
	vendorRepo := new(mocks.MockVendorRepo)
	categoryRepo := new(mocks.MockCategoryRepo)
	txnRepo := new(mocks.MockTransactionRepo)

	doc := testDoc()
	rows := []TransactionRow{
		txnRow("Acme", "row one", "-1.00"),
		txnRow("Acme", "row two", "-2.00"),
	}

	batch := NewBatchContext()
	batch.PutVendor(VendorKey("Acme"), VendorResolution{CleanName: "Acme"})
	batch.PutCategory(CategoryKey("Acme", "row one"), CategoryResolution{Name: "General"})
	batch.PutCategory(CategoryKey("Acme", "row two"), CategoryResolution{Name: "General"})

	vendorRepo.On("FindOrCreate", mock.Anything, doc.OrganizationID, "Acme", false).
		Return(nil, errors.New("connection refused"))

	w := NewLedgerWriter(vendorRepo, categoryRepo, txnRepo, nil, nil)
	result := w.WriteTransactions(context.Background(), doc, rows, batch)

	// Every row is counted and skipped; nothing reaches the ledger.
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 2, result.Skips[domain.SkipNoDBRecord])
	txnRepo.AssertNotCalled(t, "Create")
}

func TestLedgerWriter_PartialInsertFailure(t *testing.T) {
	vendorRepo := new(mocks.MockVendorRepo)
	categoryRepo := new(mocks.MockCategoryRepo)
	txnRepo := new(mocks.MockTransactionRepo)

	doc := testDoc()
	rows := []TransactionRow{
		txnRow("Acme", "first", "-1.00"),
		txnRow("Acme", "second", "-2.00"),
	}

	batch := NewBatchContext()
	batch.PutVendor(VendorKey("Acme"), VendorResolution{CleanName: "Acme"})
	batch.PutCategory(CategoryKey("Acme", "first"), CategoryResolution{Name: "General"})
	batch.PutCategory(CategoryKey("Acme", "second"), CategoryResolution{Name: "General"})

	vendor := &domain.Vendor{ID: uuid.New(), CleanName: "Acme"}
	category := &domain.Category{ID: uuid.New(), Name: "General"}
	vendorRepo.On("FindOrCreate", mock.Anything, doc.OrganizationID, "Acme", false).Return(vendor, nil)
	categoryRepo.On("FindOrCreate", mock.Anything, doc.OrganizationID, "General").Return(category, nil)

	txnRepo.On("Create", mock.Anything, mock.MatchedBy(func(txn *domain.Transaction) bool {
		return txn.Description == "first"
	})).Return(nil).Once()
	txnRepo.On("Create", mock.Anything, mock.MatchedBy(func(txn *domain.Transaction) bool {
		return txn.Description == "second"
	})).Return(errors.New("unique violation")).Once()

	w := NewLedgerWriter(vendorRepo, categoryRepo, txnRepo, nil, nil)
	result := w.WriteTransactions(context.Background(), doc, rows, batch)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skips[domain.SkipNoDBRecord])
}

func TestLedgerWriter_WriteSummaries(t *testing.T) {
	departmentRepo := new(mocks.MockDepartmentRepo)
	metricRepo := new(mocks.MockMetricRepo)

	doc := testDoc()
	rows := []SummaryRow{
		{
			Month:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Department: "Engineering",
			Expenses:   decimal.RequireFromString("42000.00"),
			Revenue:    decimal.Zero,
		},
	}

	dept := &domain.Department{ID: uuid.New(), Name: "Engineering"}
	departmentRepo.On("FindOrCreate", mock.Anything, doc.OrganizationID, "Engineering").Return(dept, nil)

	var upserted *domain.MonthlyMetric
	metricRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.MonthlyMetric")).
		Run(func(args mock.Arguments) {
			upserted = args.Get(1).(*domain.MonthlyMetric)
		}).Return(nil)

	w := NewLedgerWriter(nil, nil, nil, departmentRepo, metricRepo)
	result := w.WriteSummaries(context.Background(), doc, rows)

	assert.Equal(t, 1, result.Created)
	require.NotNil(t, upserted)
	assert.Equal(t, dept.ID, upserted.DepartmentID)
	assert.Equal(t, 1, upserted.Month.Day())
	assert.True(t, upserted.Expenses.Equal(decimal.RequireFromString("42000.00")))
}
