package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mjgskyblade/echopay-sub000/internal/models"
	"github.com/mjgskyblade/echopay-sub000/internal/pkg/apperror"
)

// uniqueViolation is the postgres error code raised by the partial unique
// index guarding one active case per transaction.
const uniqueViolation = "23505"

type FraudCaseRepository struct {
	db *sqlx.DB
}

func NewFraudCaseRepository(db *sqlx.DB) *FraudCaseRepository {
	return &FraudCaseRepository{db: db}
}

func (r *FraudCaseRepository) Create(ctx context.Context, c *models.FraudCase) error {
	query := `
		INSERT INTO fraud_cases (
			case_id, transaction_id, reporter_id, case_type, priority, status,
			evidence, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.CaseID, c.TransactionID, c.ReporterID, c.CaseType, c.Priority, c.Status,
		c.Evidence, c.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return apperror.ErrDuplicateActiveCase
	}
	return err
}

func (r *FraudCaseRepository) GetByID(ctx context.Context, caseID uuid.UUID) (*models.FraudCase, error) {
	var c models.FraudCase
	err := r.db.GetContext(ctx, &c, `SELECT * FROM fraud_cases WHERE case_id = $1`, caseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrCaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindActiveByTransaction returns the open or investigating case for a
// transaction, or nil when none exists.
func (r *FraudCaseRepository) FindActiveByTransaction(ctx context.Context, transactionID uuid.UUID) (*models.FraudCase, error) {
	var c models.FraudCase
	err := r.db.GetContext(ctx, &c, `
		SELECT * FROM fraud_cases
		WHERE transaction_id = $1 AND status IN ('open', 'investigating')
	`, transactionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByReporter pages through a reporter's cases, newest first.
// A non-positive limit returns everything.
func (r *FraudCaseRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.FraudCase, error) {
	var cases []models.FraudCase
	query := `SELECT * FROM fraud_cases WHERE reporter_id = $1 ORDER BY created_at DESC`
	args := []any{reporterID}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}
	err := r.db.SelectContext(ctx, &cases, query, args...)
	return cases, err
}

// ListActive pages through open and investigating cases, oldest first.
// A non-positive limit returns everything.
func (r *FraudCaseRepository) ListActive(ctx context.Context, limit, offset int) ([]models.FraudCase, error) {
	var cases []models.FraudCase
	query := `
		SELECT * FROM fraud_cases
		WHERE status IN ('open', 'investigating')
		ORDER BY created_at ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}
	err := r.db.SelectContext(ctx, &cases, query, args...)
	return cases, err
}

// TransitionStatus performs a compare-and-transition: the row is updated only
// if it still holds the expected status, so a concurrent writer loses cleanly
// instead of corrupting state.
func (r *FraudCaseRepository) TransitionStatus(ctx context.Context, caseID uuid.UUID, from, to models.CaseStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE fraud_cases SET status = $3 WHERE case_id = $1 AND status = $2
	`, caseID, from, to)
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, res, caseID)
}

// ResolveCase atomically moves an investigating case to resolved, writing the
// resolution, reasoning and resolvedAt in the same statement.
func (r *FraudCaseRepository) ResolveCase(ctx context.Context, caseID uuid.UUID, resolution models.CaseResolution, reasoning *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE fraud_cases
		SET status = 'resolved', resolution = $2, resolution_reasoning = $3,
		    resolved_at = $4
		WHERE case_id = $1 AND status = 'investigating'
	`, caseID, resolution, reasoning, time.Now().UTC())
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, res, caseID)
}

// UpdateEvidence persists a merged evidence bag for an active case.
func (r *FraudCaseRepository) UpdateEvidence(ctx context.Context, caseID uuid.UUID, evidence models.CaseEvidence) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE fraud_cases SET evidence = $2
		WHERE case_id = $1 AND status IN ('open', 'investigating')
	`, caseID, evidence)
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, res, caseID)
}

// Assign sets the arbitrator only if the case is still investigating and
// unassigned; exactly one of two racing assigners wins.
func (r *FraudCaseRepository) Assign(ctx context.Context, caseID, arbitratorID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE fraud_cases SET assigned_arbitrator_id = $2, assigned_at = $3
		WHERE case_id = $1 AND status = 'investigating' AND assigned_arbitrator_id IS NULL
	`, caseID, arbitratorID, time.Now().UTC())
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		existing, err := r.GetByID(ctx, caseID)
		if err != nil {
			return err
		}
		if existing.IsAssigned() {
			return apperror.ErrAlreadyAssigned
		}
		return apperror.ErrInvalidCaseState
	}
	return nil
}

// MarkEscalated stamps escalatedAt exactly once per overdue case.
func (r *FraudCaseRepository) MarkEscalated(ctx context.Context, caseID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE fraud_cases SET escalated_at = $2
		WHERE case_id = $1 AND status = 'investigating' AND escalated_at IS NULL
	`, caseID, time.Now().UTC())
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, res, caseID)
}

// Delete removes a case. Used only to roll back intake when the token freeze
// fails; a case must never survive without its tokens frozen.
func (r *FraudCaseRepository) Delete(ctx context.Context, caseID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM fraud_cases WHERE case_id = $1`, caseID)
	return err
}

// FindForAutomatedResolution returns investigating high/critical cases old
// enough for the automated reversal loop.
func (r *FraudCaseRepository) FindForAutomatedResolution(ctx context.Context, createdBefore time.Time) ([]models.FraudCase, error) {
	var cases []models.FraudCase
	err := r.db.SelectContext(ctx, &cases, `
		SELECT * FROM fraud_cases
		WHERE status = 'investigating'
		  AND created_at < $1
		  AND priority IN ('high', 'critical')
		ORDER BY created_at ASC
	`, createdBefore)
	return cases, err
}

// FindNeedingEscalation returns investigating cases past the SLA that have
// not been escalated yet.
func (r *FraudCaseRepository) FindNeedingEscalation(ctx context.Context, createdBefore time.Time) ([]models.FraudCase, error) {
	var cases []models.FraudCase
	err := r.db.SelectContext(ctx, &cases, `
		SELECT * FROM fraud_cases
		WHERE status = 'investigating'
		  AND created_at < $1
		  AND escalated_at IS NULL
		ORDER BY created_at ASC
	`, createdBefore)
	return cases, err
}

// FindUnassigned lists investigating cases awaiting an arbitrator, highest
// priority first and oldest first within a priority band. The priority
// ordering lives in models.PriorityRank so there is a single ranking source.
func (r *FraudCaseRepository) FindUnassigned(ctx context.Context) ([]models.FraudCase, error) {
	var cases []models.FraudCase
	err := r.db.SelectContext(ctx, &cases, `
		SELECT * FROM fraud_cases
		WHERE status = 'investigating' AND assigned_arbitrator_id IS NULL
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(cases, func(i, j int) bool {
		return models.PriorityRank(cases[i].Priority) > models.PriorityRank(cases[j].Priority)
	})
	return cases, nil
}

// ListByArbitrator returns the investigating cases assigned to an arbitrator.
func (r *FraudCaseRepository) ListByArbitrator(ctx context.Context, arbitratorID uuid.UUID) ([]models.FraudCase, error) {
	var cases []models.FraudCase
	err := r.db.SelectContext(ctx, &cases, `
		SELECT * FROM fraud_cases
		WHERE status = 'investigating' AND assigned_arbitrator_id = $1
		ORDER BY created_at ASC
	`, arbitratorID)
	return cases, err
}

// CountActiveByPriority returns active case counts grouped by priority.
func (r *FraudCaseRepository) CountActiveByPriority(ctx context.Context) (map[models.CasePriority]int, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT priority, COUNT(*) FROM fraud_cases
		WHERE status IN ('open', 'investigating')
		GROUP BY priority
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.CasePriority]int)
	for rows.Next() {
		var priority models.CasePriority
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		counts[priority] = count
	}
	return counts, rows.Err()
}

// CountActiveByArbitrator returns investigating case counts per arbitrator,
// used to drive assignment fairness.
func (r *FraudCaseRepository) CountActiveByArbitrator(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT assigned_arbitrator_id, COUNT(*) FROM fraud_cases
		WHERE status = 'investigating' AND assigned_arbitrator_id IS NOT NULL
		GROUP BY assigned_arbitrator_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var arbitratorID uuid.UUID
		var count int
		if err := rows.Scan(&arbitratorID, &count); err != nil {
			return nil, err
		}
		counts[arbitratorID] = count
	}
	return counts, rows.Err()
}

// checkAffected distinguishes a missing case from a lost compare-and-set.
func (r *FraudCaseRepository) checkAffected(ctx context.Context, res sql.Result, caseID uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, caseID); err != nil {
			return err
		}
		return apperror.ErrIllegalTransition
	}
	return nil
}
