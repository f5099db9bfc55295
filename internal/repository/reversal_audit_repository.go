package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mjgskyblade/echopay-sub000/internal/models"
)

// ReversalAuditRepository is the insert-only audit trail for executed
// reversals. There is no update or delete path by design of the table.
type ReversalAuditRepository struct {
	db *sqlx.DB
}

func NewReversalAuditRepository(db *sqlx.DB) *ReversalAuditRepository {
	return &ReversalAuditRepository{db: db}
}

func (r *ReversalAuditRepository) Insert(ctx context.Context, record *models.ReversalAuditRecord) error {
	query := `
		INSERT INTO reversal_audit (
			reversal_id, transaction_id, case_id, amount, new_token_batch_id,
			reason, reversal_type, executed_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ReversalID, record.TransactionID, record.CaseID, record.Amount,
		record.NewTokenBatchID, record.Reason, record.ReversalType,
		record.ExecutedBy, record.CreatedAt)
	return err
}

func (r *ReversalAuditRepository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.ReversalAuditRecord, error) {
	var records []models.ReversalAuditRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT * FROM reversal_audit WHERE case_id = $1 ORDER BY created_at ASC
	`, caseID)
	return records, err
}

func (r *ReversalAuditRepository) CountByTransaction(ctx context.Context, transactionID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM reversal_audit WHERE transaction_id = $1
	`, transactionID)
	return count, err
}
