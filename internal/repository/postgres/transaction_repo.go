package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"clearbooks/internal/domain"
	"clearbooks/internal/port"
)

type transactionRepo struct {
	db *sqlx.DB
}

// NewTransactionRepo creates a new PostgreSQL-backed TransactionRepository.
func NewTransactionRepo(db *sqlx.DB) port.TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, txn *domain.Transaction) error {
	txn.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (
			id, organization_id, document_id, txn_date, amount,
			vendor_id, category_id, description, is_recurring, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		txn.ID, txn.OrganizationID, txn.DocumentID, txn.Date, txn.Amount,
		txn.VendorID, txn.CategoryID, txn.Description, txn.IsRecurring, txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("transactionRepo.Create: %w", err)
	}
	return nil
}

func (r *transactionRepo) ListByWindow(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	err := r.db.SelectContext(ctx, &txns,
		`SELECT * FROM transactions
		 WHERE organization_id = $1 AND txn_date >= $2 AND txn_date <= $3
		 ORDER BY txn_date, created_at`,
		orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("transactionRepo.ListByWindow: %w", err)
	}
	return txns, nil
}

func (r *transactionRepo) ListByDocument(ctx context.Context, orgID, docID uuid.UUID) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	err := r.db.SelectContext(ctx, &txns,
		`SELECT * FROM transactions
		 WHERE organization_id = $1 AND document_id = $2
		 ORDER BY txn_date, created_at`,
		orgID, docID)
	if err != nil {
		return nil, fmt.Errorf("transactionRepo.ListByDocument: %w", err)
	}
	return txns, nil
}
