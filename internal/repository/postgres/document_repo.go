package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"clearbooks/internal/domain"
	"clearbooks/internal/port"
)

type documentRepo struct {
	db *sqlx.DB
}

// NewDocumentRepo creates a new PostgreSQL-backed DocumentRepository.
func NewDocumentRepo(db *sqlx.DB) port.DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	query := `INSERT INTO documents (
		id, organization_id, file_name, content_type, declared_type,
		s3_bucket, s3_key, status, processing_error,
		extraction_confidence, summary, row_count, skip_count,
		process_attempts, uploaded_by, processed_at, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9,
		$10, $11, $12, $13,
		$14, $15, $16, $17, $18
	)`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.OrganizationID, doc.FileName, doc.ContentType, doc.DeclaredType,
		doc.S3Bucket, doc.S3Key, doc.Status, doc.ProcessingError,
		doc.ExtractionConfidence, doc.Summary, doc.RowCount, doc.SkipCount,
		doc.ProcessAttempts, doc.UploadedBy, doc.ProcessedAt, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("documentRepo.Create: %w", err)
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, orgID, docID uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.GetContext(ctx, &doc,
		"SELECT * FROM documents WHERE id = $1 AND organization_id = $2", docID, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("documentRepo.GetByID: %w", err)
	}
	return &doc, nil
}

func (r *documentRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Document, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM documents WHERE organization_id = $1", orgID)
	if err != nil {
		return nil, 0, fmt.Errorf("documentRepo.ListByOrganization count: %w", err)
	}

	var docs []domain.Document
	err = r.db.SelectContext(ctx, &docs,
		`SELECT * FROM documents WHERE organization_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		orgID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("documentRepo.ListByOrganization: %w", err)
	}
	return docs, total, nil
}

func (r *documentRepo) UpdateStatus(ctx context.Context, doc *domain.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET
			status = $1, processing_error = $2, extraction_confidence = $3,
			summary = $4, row_count = $5, skip_count = $6,
			process_attempts = $7, processed_at = $8, updated_at = $9
		 WHERE id = $10 AND organization_id = $11`,
		doc.Status, doc.ProcessingError, doc.ExtractionConfidence,
		doc.Summary, doc.RowCount, doc.SkipCount,
		doc.ProcessAttempts, doc.ProcessedAt, doc.UpdatedAt,
		doc.ID, doc.OrganizationID)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateStatus: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateStatus rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ClaimQueued flips up to limit queued documents to processing inside one
// statement. SKIP LOCKED keeps concurrent workers from claiming the same row.
func (r *documentRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.SelectContext(ctx, &docs,
		`UPDATE documents SET status = $1, updated_at = $2
		 WHERE id IN (
			SELECT id FROM documents WHERE status = $3
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT $4
		 )
		 RETURNING *`,
		domain.DocStatusProcessing, time.Now().UTC(), domain.DocStatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("documentRepo.ClaimQueued: %w", err)
	}
	return docs, nil
}
