package dto

import (
	"github.com/google/uuid"
)

// ReportEvidence carries the reporter's attachments at intake.
type ReportEvidence struct {
	Screenshots    []string `json:"screenshots"`
	AdditionalInfo string   `json:"additionalInfo"`
}

// FraudReportRequest is the intake payload for a new fraud case.
type FraudReportRequest struct {
	TransactionID uuid.UUID       `json:"transactionId" binding:"required"`
	ReporterID    uuid.UUID       `json:"reporterId" binding:"required"`
	CaseType      string          `json:"caseType" binding:"required"`
	Description   string          `json:"description" binding:"required"`
	Evidence      *ReportEvidence `json:"evidence,omitempty"`
}

// UpdateCaseStatusRequest is the operator status-transition payload.
type UpdateCaseStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AddEvidenceRequest merges operator-supplied keys into the case's evidence
// bag.
type AddEvidenceRequest struct {
	Evidence map[string]any `json:"evidence" binding:"required"`
}

// ReversalRequest triggers a user-requested reversal through the HTTP
// surface. RequestedBy becomes the audit record's actor.
type ReversalRequest struct {
	TransactionID uuid.UUID `json:"transactionId" binding:"required"`
	CaseID        uuid.UUID `json:"caseId" binding:"required"`
	Reason        string    `json:"reason" binding:"required"`
	ReversalType  string    `json:"reversalType" binding:"required"`
	RequestedBy   uuid.UUID `json:"requestedBy" binding:"required"`
}

// ArbitrationAssignmentRequest assigns a case to a human arbitrator.
type ArbitrationAssignmentRequest struct {
	CaseID       uuid.UUID `json:"caseId" binding:"required"`
	ArbitratorID uuid.UUID `json:"arbitratorId" binding:"required"`
	Notes        string    `json:"notes,omitempty"`
}

// ArbitrationDecisionRequest carries an arbitrator's verdict.
type ArbitrationDecisionRequest struct {
	CaseID             uuid.UUID      `json:"caseId" binding:"required"`
	ArbitratorID       uuid.UUID      `json:"arbitratorId" binding:"required"`
	Decision           string         `json:"decision" binding:"required"`
	Reasoning          string         `json:"reasoning" binding:"required"`
	AdditionalEvidence map[string]any `json:"additionalEvidence,omitempty"`
}
