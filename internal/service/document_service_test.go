package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clearbooks/internal/config"
	"clearbooks/internal/domain"
	"clearbooks/internal/ingest"
	"clearbooks/internal/port"
	. "clearbooks/internal/service"
	"clearbooks/mocks"
)

func testS3Config() config.S3Config {
	return config.S3Config{
		Bucket:        "clearbooks-test",
		MaxFileSizeMB: 10,
	}
}

func uploadInput(orgID uuid.UUID) UploadDocumentInput {
	return UploadDocumentInput{
		OrganizationID: orgID,
		UploadedBy:     uuid.New(),
		FileName:       "statement.csv",
		ContentType:    "text/csv",
		DeclaredType:   domain.DocTypeBankStatement,
		Size:           256,
		Body:           strings.NewReader("Date,Amount,Vendor\n"),
	}
}

func TestDocumentService_Upload(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	storage := new(mocks.MockObjectStorage)
	svc := NewDocumentService(docRepo, nil, storage, nil, nil, testS3Config())

	orgID := uuid.New()
	input := uploadInput(orgID)

	docRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Document")).Return(nil)
	storage.On("Upload", mock.Anything, "clearbooks-test", mock.AnythingOfType("string"), "text/csv", input.Body).Return(nil)
	docRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(d *domain.Document) bool {
		return d.Status == domain.DocStatusQueued
	})).Return(nil)

	doc, err := svc.Upload(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, domain.DocStatusQueued, doc.Status)
	assert.Equal(t, orgID, doc.OrganizationID)
	assert.Contains(t, doc.S3Key, doc.ID.String())
	assert.Contains(t, doc.S3Key, "statement.csv")
	docRepo.AssertExpectations(t)
	storage.AssertExpectations(t)
}

func TestDocumentService_Upload_RejectsUnsupportedContentType(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	storage := new(mocks.MockObjectStorage)
	svc := NewDocumentService(docRepo, nil, storage, nil, nil, testS3Config())

	input := uploadInput(uuid.New())
	input.ContentType = "application/zip"

	_, err := svc.Upload(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	docRepo.AssertNotCalled(t, "Create")
}

func TestDocumentService_Upload_RejectsOversizedFile(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	storage := new(mocks.MockObjectStorage)
	svc := NewDocumentService(docRepo, nil, storage, nil, nil, testS3Config())

	input := uploadInput(uuid.New())
	input.Size = 11 * 1024 * 1024

	_, err := svc.Upload(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	docRepo.AssertNotCalled(t, "Create")
}

func TestDocumentService_Upload_StorageFailureMarksError(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	storage := new(mocks.MockObjectStorage)
	svc := NewDocumentService(docRepo, nil, storage, nil, nil, testS3Config())

	input := uploadInput(uuid.New())

	docRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Document")).Return(nil)
	storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("no route to host"))
	docRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(d *domain.Document) bool {
		return d.Status == domain.DocStatusError
	})).Return(nil)

	_, err := svc.Upload(context.Background(), input)
	assert.Error(t, err)
	docRepo.AssertExpectations(t)
}

func claimedDoc(orgID uuid.UUID) *domain.Document {
	return &domain.Document{
		ID:             uuid.New(),
		OrganizationID: orgID,
		FileName:       "statement.csv",
		ContentType:    "text/csv",
		S3Bucket:       "clearbooks-test",
		S3Key:          "key",
		Status:         domain.DocStatusProcessing,
	}
}

// passNormalizer and passClassifier keep the resolve stage deterministic
// without touching a provider.
type passNormalizer struct{}

func (passNormalizer) NormalizeVendor(ctx context.Context, rawName string) (*port.VendorResult, error) {
	return &port.VendorResult{CleanName: rawName}, nil
}

type passClassifier struct{}

func (passClassifier) Classify(ctx context.Context, vendor, description string, amount decimal.Decimal) (string, error) {
	return "General", nil
}

func TestDocumentService_ProcessDocument_Success(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	storage := new(mocks.MockObjectStorage)
	vendorRepo := new(mocks.MockVendorRepo)
	categoryRepo := new(mocks.MockCategoryRepo)
	txnRepo := new(mocks.MockTransactionRepo)

	resolver := ingest.NewResolver(passNormalizer{}, passClassifier{}, 2, time.Second)
	writer := ingest.NewLedgerWriter(vendorRepo, categoryRepo, txnRepo, nil, nil)
	svc := NewDocumentService(docRepo, txnRepo, storage, resolver, writer, testS3Config())

	doc := claimedDoc(uuid.New())
	csvData := []byte("Date,Amount,Vendor\n2026-03-01,-45.90,Acme Corp\n2026-03-02,-12.00,Globex\n")

	storage.On("Download", mock.Anything, doc.S3Bucket, doc.S3Key).Return(csvData, nil)
	vendorRepo.On("FindOrCreate", mock.Anything, doc.OrganizationID, mock.AnythingOfType("string"), false).
		Return(&domain.Vendor{ID: uuid.New()}, nil)
	categoryRepo.On("FindOrCreate", mock.Anything, doc.OrganizationID, "General").
		Return(&domain.Category{ID: uuid.New()}, nil)
	txnRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil)
	docRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(d *domain.Document) bool {
		return d.Status == domain.DocStatusProcessed
	})).Return(nil)

	svc.ProcessDocument(context.Background(), doc, 3)

	assert.Equal(t, domain.DocStatusProcessed, doc.Status)
	assert.Equal(t, 2, doc.RowCount)
	assert.Equal(t, 0, doc.SkipCount)
	assert.InDelta(t, 1.0, doc.ExtractionConfidence, 1e-9)
	assert.NotNil(t, doc.ProcessedAt)
	docRepo.AssertExpectations(t)
}

func TestDocumentService_ProcessDocument_TransientFailureRequeues(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	storage := new(mocks.MockObjectStorage)
	svc := NewDocumentService(docRepo, nil, storage, nil, nil, testS3Config())

	doc := claimedDoc(uuid.New())
	doc.ProcessAttempts = 1

	storage.On("Download", mock.Anything, doc.S3Bucket, doc.S3Key).Return(nil, errors.New("timeout"))
	docRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(d *domain.Document) bool {
		return d.Status == domain.DocStatusQueued
	})).Return(nil)

	svc.ProcessDocument(context.Background(), doc, 3)

	assert.Equal(t, domain.DocStatusQueued, doc.Status)
	assert.NotEmpty(t, doc.ProcessingError)
}

func TestDocumentService_ProcessDocument_RetryBudgetSpent(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	storage := new(mocks.MockObjectStorage)
	svc := NewDocumentService(docRepo, nil, storage, nil, nil, testS3Config())

	doc := claimedDoc(uuid.New())
	doc.ProcessAttempts = 3

	storage.On("Download", mock.Anything, doc.S3Bucket, doc.S3Key).Return(nil, errors.New("timeout"))
	docRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(d *domain.Document) bool {
		return d.Status == domain.DocStatusError
	})).Return(nil)

	svc.ProcessDocument(context.Background(), doc, 3)

	assert.Equal(t, domain.DocStatusError, doc.Status)
}

func TestDocumentService_ProcessDocument_NoUsableRowsIsTerminal(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	storage := new(mocks.MockObjectStorage)
	resolver := ingest.NewResolver(passNormalizer{}, passClassifier{}, 2, time.Second)
	writer := ingest.NewLedgerWriter(nil, nil, nil, nil, nil)
	svc := NewDocumentService(docRepo, nil, storage, resolver, writer, testS3Config())

	doc := claimedDoc(uuid.New())
	// A header with no parsable data rows.
	storage.On("Download", mock.Anything, doc.S3Bucket, doc.S3Key).
		Return([]byte("Date,Amount,Vendor\nnot-a-date,oops,Acme\n"), nil)
	docRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(d *domain.Document) bool {
		return d.Status == domain.DocStatusError
	})).Return(nil)

	svc.ProcessDocument(context.Background(), doc, 3)

	assert.Equal(t, domain.DocStatusError, doc.Status)
	assert.Equal(t, domain.ErrNoParsableRows.Error(), doc.ProcessingError)
}

func TestDocumentService_ProcessDocument_FreeTextIsTerminal(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	storage := new(mocks.MockObjectStorage)
	svc := NewDocumentService(docRepo, nil, storage, nil, nil, testS3Config())

	doc := claimedDoc(uuid.New())
	doc.ContentType = "text/plain"
	doc.FileName = "note.txt"

	storage.On("Download", mock.Anything, doc.S3Bucket, doc.S3Key).
		Return([]byte("just a memo about expenses"), nil)
	docRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(d *domain.Document) bool {
		return d.Status == domain.DocStatusError
	})).Return(nil)

	svc.ProcessDocument(context.Background(), doc, 3)

	assert.Equal(t, domain.DocStatusError, doc.Status)
}

func TestExtractionConfidence(t *testing.T) {
	// Full yield, no fallbacks.
	assert.InDelta(t, 1.0, ExtractionConfidence(10, 10, ingest.ResolveStats{VendorCalls: 4, CategoryCalls: 4}), 1e-9)

	// Half the resolutions fell back: confidence discounted by a quarter.
	stats := ingest.ResolveStats{VendorCalls: 2, VendorFallbacks: 1, CategoryCalls: 2, CategoryFallbacks: 1}
	assert.InDelta(t, 0.75, ExtractionConfidence(10, 10, stats), 1e-9)

	// Partial yield compounds with the fallback discount.
	assert.InDelta(t, 0.375, ExtractionConfidence(5, 10, stats), 1e-9)

	assert.Zero(t, ExtractionConfidence(0, 0, ingest.ResolveStats{}))
}
