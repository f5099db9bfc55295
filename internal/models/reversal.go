package models

import (
	"time"

	"github.com/google/uuid"
)

// ReversalType identifies what triggered a reversal.
type ReversalType string

const (
	ReversalTypeAutomatedFraud    ReversalType = "automated_fraud"
	ReversalTypeManualArbitration ReversalType = "manual_arbitration"
	ReversalTypeUserRequested     ReversalType = "user_requested"
)

// ReversalStatus is the state of a tracked reversal attempt.
type ReversalStatus string

const (
	ReversalInProgress ReversalStatus = "in_progress"
	ReversalCompleted  ReversalStatus = "completed"
	ReversalFailed     ReversalStatus = "failed"
)

// SystemActor marks reversals executed without a human arbitrator.
const SystemActor = "system"

// ReversalRequest describes a reversal to execute.
type ReversalRequest struct {
	TransactionID uuid.UUID    `json:"transactionId"`
	CaseID        uuid.UUID    `json:"caseId"`
	Reason        string       `json:"reason"`
	ReversalType  ReversalType `json:"reversalType"`
	// Actor is "system" or the arbitrator id for manual reversals.
	Actor string `json:"actor"`
}

// ReversalResult is returned by a completed reversal execution.
type ReversalResult struct {
	ReversalID      uuid.UUID `json:"reversalId"`
	TransactionID   uuid.UUID `json:"transactionId"`
	CaseID          uuid.UUID `json:"caseId"`
	ReversedAmount  float64   `json:"reversedAmount"`
	NewTokenBatchID uuid.UUID `json:"newTokenBatchId"`
	Timestamp       time.Time `json:"timestamp"`
}

// ReversalAuditRecord is the immutable trail written for every executed
// reversal. Rows are insert-only.
type ReversalAuditRecord struct {
	ReversalID      uuid.UUID    `db:"reversal_id" json:"reversalId"`
	TransactionID   uuid.UUID    `db:"transaction_id" json:"transactionId"`
	CaseID          uuid.UUID    `db:"case_id" json:"caseId"`
	Amount          float64      `db:"amount" json:"amount"`
	NewTokenBatchID uuid.UUID    `db:"new_token_batch_id" json:"newTokenBatchId"`
	Reason          string       `db:"reason" json:"reason"`
	ReversalType    ReversalType `db:"reversal_type" json:"reversalType"`
	ExecutedBy      string       `db:"executed_by" json:"executedBy"`
	CreatedAt       time.Time    `db:"created_at" json:"createdAt"`
}

// ReversalRecord tracks one reversal attempt's timing. Owned by the time
// tracker, correlated to cases only by CaseID.
type ReversalRecord struct {
	CaseID        uuid.UUID      `json:"caseId"`
	StartTime     time.Time      `json:"startTime"`
	EndTime       *time.Time     `json:"endTime,omitempty"`
	Duration      time.Duration  `json:"duration"`
	Status        ReversalStatus `json:"status"`
	FailureReason string         `json:"failureReason,omitempty"`
}

// ReversalStatistics summarizes completed and failed reversal attempts.
type ReversalStatistics struct {
	TotalReversals      int           `json:"totalReversals"`
	SuccessfulReversals int           `json:"successfulReversals"`
	FailedReversals     int           `json:"failedReversals"`
	WithinSLA           int           `json:"withinSla"`
	SuccessRate         float64       `json:"successRate"`
	SLAComplianceRate   float64       `json:"slaComplianceRate"`
	MeanDuration        time.Duration `json:"meanDuration"`
}
