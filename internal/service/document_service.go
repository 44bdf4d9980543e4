package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"clearbooks/internal/config"
	"clearbooks/internal/domain"
	"clearbooks/internal/ingest"
	"clearbooks/internal/port"
)

// UploadDocumentInput is the DTO for document intake.
type UploadDocumentInput struct {
	OrganizationID uuid.UUID
	UploadedBy     uuid.UUID
	FileName       string
	ContentType    string
	DeclaredType   domain.DocumentType
	Size           int64
	Body           io.Reader
}

// DocumentService defines the document intake and processing contract.
type DocumentService interface {
	Upload(ctx context.Context, input UploadDocumentInput) (*domain.Document, error)
	GetDocument(ctx context.Context, orgID, docID uuid.UUID) (*domain.Document, error)
	ListDocuments(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Document, int, error)
	// ProcessDocument runs the full ingestion pipeline for one claimed
	// document: download, detect, resolve, write, finalize status.
	ProcessDocument(ctx context.Context, doc *domain.Document, maxRetries int)
}

type documentService struct {
	docRepo  port.DocumentRepository
	txnRepo  port.TransactionRepository
	storage  port.ObjectStorage
	resolver *ingest.Resolver
	writer   *ingest.LedgerWriter
	s3Cfg    config.S3Config
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(
	docRepo port.DocumentRepository,
	txnRepo port.TransactionRepository,
	storage port.ObjectStorage,
	resolver *ingest.Resolver,
	writer *ingest.LedgerWriter,
	s3Cfg config.S3Config,
) DocumentService {
	return &documentService{
		docRepo:  docRepo,
		txnRepo:  txnRepo,
		storage:  storage,
		resolver: resolver,
		writer:   writer,
		s3Cfg:    s3Cfg,
	}
}

func (s *documentService) Upload(ctx context.Context, input UploadDocumentInput) (*domain.Document, error) {
	if !domain.AllowedDocumentTypes[input.DeclaredType] {
		return nil, domain.ErrUnsupportedFileType
	}
	if _, ok := domain.AllowedContentTypes[input.ContentType]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}
	maxBytes := s.s3Cfg.MaxFileSizeMB * 1024 * 1024
	if input.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	doc := &domain.Document{
		ID:             uuid.New(),
		OrganizationID: input.OrganizationID,
		FileName:       input.FileName,
		ContentType:    input.ContentType,
		DeclaredType:   input.DeclaredType,
		S3Bucket:       s.s3Cfg.Bucket,
		Status:         domain.DocStatusUploaded,
		UploadedBy:     input.UploadedBy,
	}
	doc.S3Key = fmt.Sprintf("%s/documents/%s/%s", input.OrganizationID, doc.ID, input.FileName)

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("documentService.Upload: %w", err)
	}

	if err := s.storage.Upload(ctx, doc.S3Bucket, doc.S3Key, input.ContentType, input.Body); err != nil {
		doc.Status = domain.DocStatusError
		doc.ProcessingError = "upload to object storage failed"
		if uerr := s.docRepo.UpdateStatus(ctx, doc); uerr != nil {
			log.Printf("documentService.Upload: marking failed upload %s: %v", doc.ID, uerr)
		}
		return nil, fmt.Errorf("documentService.Upload: %w", err)
	}

	doc.Status = domain.DocStatusQueued
	if err := s.docRepo.UpdateStatus(ctx, doc); err != nil {
		return nil, fmt.Errorf("documentService.Upload: %w", err)
	}
	return doc, nil
}

func (s *documentService) GetDocument(ctx context.Context, orgID, docID uuid.UUID) (*domain.Document, error) {
	return s.docRepo.GetByID(ctx, orgID, docID)
}

func (s *documentService) ListDocuments(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Document, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.docRepo.ListByOrganization(ctx, orgID, offset, limit)
}

// ProcessDocument never returns an error: every outcome lands in the
// document's status. A parse failure or zero usable rows is terminal; an
// infrastructure failure requeues the document until maxRetries is spent.
func (s *documentService) ProcessDocument(ctx context.Context, doc *domain.Document, maxRetries int) {
	data, err := s.storage.Download(ctx, doc.S3Bucket, doc.S3Key)
	if err != nil {
		log.Printf("documentService.ProcessDocument: download failed for %s: %v", doc.ID, err)
		s.finishTransient(ctx, doc, maxRetries, fmt.Sprintf("object storage download failed: %v", err))
		return
	}

	parsed, err := ingest.Detect(data, doc.ContentType, doc.FileName)
	if err != nil {
		s.finishError(ctx, doc, err.Error())
		return
	}

	switch parsed.Kind {
	case ingest.KindTransactions:
		s.processTransactions(ctx, doc, parsed)
	case ingest.KindSummary:
		s.processSummaries(ctx, doc, parsed)
	default:
		s.finishError(ctx, doc, domain.ErrNoParsableRows.Error())
	}
}

func (s *documentService) processTransactions(ctx context.Context, doc *domain.Document, parsed *ingest.Parsed) {
	if len(parsed.Transactions) == 0 {
		doc.RowCount = parsed.TotalRows
		doc.SkipCount = parsed.SkippedRows
		s.finishError(ctx, doc, domain.ErrNoParsableRows.Error())
		return
	}

	batch := ingest.NewBatchContext()
	stats := s.resolver.Resolve(ctx, batch, parsed.Transactions)

	result := s.writer.WriteTransactions(ctx, doc, parsed.Transactions, batch)

	doc.RowCount = parsed.TotalRows
	doc.SkipCount = parsed.SkippedRows + result.SkipCount()

	if result.Created == 0 {
		s.finishError(ctx, doc, domain.ErrNoParsableRows.Error())
		return
	}

	doc.ExtractionConfidence = extractionConfidence(result.Created, parsed.TotalRows, stats)
	doc.Summary = fmt.Sprintf(
		"%d rows parsed, %d transactions created, %d skipped (%d vendor fallbacks, %d category fallbacks)",
		parsed.TotalRows, result.Created, doc.SkipCount, stats.VendorFallbacks, stats.CategoryFallbacks)
	s.finishProcessed(ctx, doc)
}

func (s *documentService) processSummaries(ctx context.Context, doc *domain.Document, parsed *ingest.Parsed) {
	if len(parsed.Summaries) == 0 {
		doc.RowCount = parsed.TotalRows
		doc.SkipCount = parsed.SkippedRows
		s.finishError(ctx, doc, domain.ErrNoParsableRows.Error())
		return
	}

	result := s.writer.WriteSummaries(ctx, doc, parsed.Summaries)

	doc.RowCount = parsed.TotalRows
	doc.SkipCount = parsed.SkippedRows + result.SkipCount()

	if result.Created == 0 {
		s.finishError(ctx, doc, domain.ErrNoParsableRows.Error())
		return
	}

	doc.ExtractionConfidence = float64(result.Created) / float64(parsed.TotalRows)
	doc.Summary = fmt.Sprintf("%d rows parsed, %d monthly metrics written, %d skipped",
		parsed.TotalRows, result.Created, doc.SkipCount)
	s.finishProcessed(ctx, doc)
}

// extractionConfidence blends row yield with provider reliability: the
// created/parsed ratio discounted by the share of resolutions that needed a
// deterministic fallback.
func extractionConfidence(created, totalRows int, stats ingest.ResolveStats) float64 {
	if totalRows == 0 {
		return 0
	}
	yield := float64(created) / float64(totalRows)
	calls := stats.VendorCalls + stats.CategoryCalls
	if calls == 0 {
		return yield
	}
	fallbackRatio := float64(stats.VendorFallbacks+stats.CategoryFallbacks) / float64(calls)
	return yield * (1 - 0.5*fallbackRatio)
}

func (s *documentService) finishProcessed(ctx context.Context, doc *domain.Document) {
	now := time.Now().UTC()
	doc.Status = domain.DocStatusProcessed
	doc.ProcessingError = ""
	doc.ProcessedAt = &now
	if err := s.docRepo.UpdateStatus(ctx, doc); err != nil {
		log.Printf("documentService: finalizing processed %s: %v", doc.ID, err)
	}
}

func (s *documentService) finishError(ctx context.Context, doc *domain.Document, msg string) {
	now := time.Now().UTC()
	doc.Status = domain.DocStatusError
	doc.ProcessingError = msg
	doc.ProcessedAt = &now
	if err := s.docRepo.UpdateStatus(ctx, doc); err != nil {
		log.Printf("documentService: finalizing error %s: %v", doc.ID, err)
	}
}

// finishTransient requeues the document unless its retry budget is spent.
func (s *documentService) finishTransient(ctx context.Context, doc *domain.Document, maxRetries int, msg string) {
	if doc.ProcessAttempts >= maxRetries {
		s.finishError(ctx, doc, msg)
		return
	}
	doc.Status = domain.DocStatusQueued
	doc.ProcessingError = msg
	if err := s.docRepo.UpdateStatus(ctx, doc); err != nil {
		log.Printf("documentService: requeueing %s: %v", doc.ID, err)
	}
}
