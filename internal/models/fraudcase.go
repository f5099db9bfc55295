package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CaseStatus is the lifecycle state of a fraud case.
type CaseStatus string

const (
	StatusOpen          CaseStatus = "open"
	StatusInvestigating CaseStatus = "investigating"
	StatusResolved      CaseStatus = "resolved"
	StatusClosed        CaseStatus = "closed"
)

// CaseType classifies what kind of fraud was reported.
type CaseType string

const (
	CaseTypeUnauthorizedTransaction CaseType = "unauthorized_transaction"
	CaseTypeAccountTakeover         CaseType = "account_takeover"
	CaseTypePhishing                CaseType = "phishing"
	CaseTypeSocialEngineering       CaseType = "social_engineering"
	CaseTypeTechnicalFraud          CaseType = "technical_fraud"
)

// CasePriority drives resolution estimates and automated-loop eligibility.
type CasePriority string

const (
	PriorityLow      CasePriority = "low"
	PriorityMedium   CasePriority = "medium"
	PriorityHigh     CasePriority = "high"
	PriorityCritical CasePriority = "critical"
)

// CaseResolution is the terminal outcome of an investigation.
type CaseResolution string

const (
	ResolutionFraudConfirmed       CaseResolution = "fraud_confirmed"
	ResolutionFraudDenied          CaseResolution = "fraud_denied"
	ResolutionInsufficientEvidence CaseResolution = "insufficient_evidence"
)

// ParseCaseStatus validates a raw status value.
func ParseCaseStatus(v string) (CaseStatus, error) {
	switch CaseStatus(v) {
	case StatusOpen, StatusInvestigating, StatusResolved, StatusClosed:
		return CaseStatus(v), nil
	}
	return "", fmt.Errorf("invalid case status: %q", v)
}

// ParseCaseType validates a raw case type value.
func ParseCaseType(v string) (CaseType, error) {
	switch CaseType(v) {
	case CaseTypeUnauthorizedTransaction, CaseTypeAccountTakeover, CaseTypePhishing,
		CaseTypeSocialEngineering, CaseTypeTechnicalFraud:
		return CaseType(v), nil
	}
	return "", fmt.Errorf("invalid case type: %q", v)
}

// ParseCaseResolution validates a raw resolution value.
func ParseCaseResolution(v string) (CaseResolution, error) {
	switch CaseResolution(v) {
	case ResolutionFraudConfirmed, ResolutionFraudDenied, ResolutionInsufficientEvidence:
		return CaseResolution(v), nil
	}
	return "", fmt.Errorf("invalid resolution: %q", v)
}

// PriorityRank orders priorities for queue sorting (higher value first).
func PriorityRank(p CasePriority) int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// FraudCase is the aggregate root of the dispute-resolution core.
// Status changes must go through TransitionTo/Resolve so the transition table
// is enforced no matter which component acts on the case.
type FraudCase struct {
	CaseID               uuid.UUID       `db:"case_id" json:"caseId"`
	TransactionID        uuid.UUID       `db:"transaction_id" json:"transactionId"`
	ReporterID           uuid.UUID       `db:"reporter_id" json:"reporterId"`
	CaseType             CaseType        `db:"case_type" json:"caseType"`
	Priority             CasePriority    `db:"priority" json:"priority"`
	Status               CaseStatus      `db:"status" json:"status"`
	Resolution           *CaseResolution `db:"resolution" json:"resolution,omitempty"`
	ResolutionReasoning  *string         `db:"resolution_reasoning" json:"resolutionReasoning,omitempty"`
	Evidence             CaseEvidence    `db:"evidence" json:"evidence"`
	AssignedArbitratorID *uuid.UUID      `db:"assigned_arbitrator_id" json:"assignedArbitratorId,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"createdAt"`
	ResolvedAt           *time.Time      `db:"resolved_at" json:"resolvedAt,omitempty"`
	AssignedAt           *time.Time      `db:"assigned_at" json:"assignedAt,omitempty"`
	EscalatedAt          *time.Time      `db:"escalated_at" json:"escalatedAt,omitempty"`
}

// NewFraudCase builds an open case with a fresh identity.
func NewFraudCase(transactionID, reporterID uuid.UUID, caseType CaseType, priority CasePriority) *FraudCase {
	return &FraudCase{
		CaseID:        uuid.New(),
		TransactionID: transactionID,
		ReporterID:    reporterID,
		CaseType:      caseType,
		Priority:      priority,
		Status:        StatusOpen,
		CreatedAt:     time.Now().UTC(),
	}
}

// CanTransitionTo reports whether the status change is legal.
// Same-state "transitions" are rejected; closed is terminal.
func (c *FraudCase) CanTransitionTo(newStatus CaseStatus) bool {
	if c.Status == newStatus {
		return false
	}

	switch c.Status {
	case StatusOpen:
		return newStatus == StatusInvestigating || newStatus == StatusClosed
	case StatusInvestigating:
		return newStatus == StatusResolved || newStatus == StatusClosed
	case StatusResolved:
		return newStatus == StatusClosed
	default:
		return false
	}
}

// TransitionTo applies a legal status change, stamping resolvedAt on entry
// into resolved.
func (c *FraudCase) TransitionTo(newStatus CaseStatus) error {
	if !c.CanTransitionTo(newStatus) {
		return fmt.Errorf("invalid state transition from %s to %s", c.Status, newStatus)
	}

	c.Status = newStatus

	if newStatus == StatusResolved && c.ResolvedAt == nil {
		now := time.Now().UTC()
		c.ResolvedAt = &now
	}
	return nil
}

// Resolve sets the resolution and moves the case to resolved.
// Only investigating cases may be resolved.
func (c *FraudCase) Resolve(resolution CaseResolution) error {
	if c.Status != StatusInvestigating {
		return fmt.Errorf("can only resolve cases under investigation, case is %s", c.Status)
	}

	c.Resolution = &resolution
	return c.TransitionTo(StatusResolved)
}

// AssignToArbitrator records the assignment. Cases may only be assigned while
// investigating and only once.
func (c *FraudCase) AssignToArbitrator(arbitratorID uuid.UUID) error {
	if c.Status != StatusInvestigating {
		return fmt.Errorf("can only assign cases under investigation, case is %s", c.Status)
	}
	if c.IsAssigned() {
		return fmt.Errorf("case %s is already assigned", c.CaseID)
	}

	now := time.Now().UTC()
	c.AssignedArbitratorID = &arbitratorID
	c.AssignedAt = &now
	return nil
}

// Escalate flags a deadline breach without changing status.
func (c *FraudCase) Escalate() error {
	if c.Status != StatusInvestigating {
		return fmt.Errorf("can only escalate cases under investigation, case is %s", c.Status)
	}

	now := time.Now().UTC()
	c.EscalatedAt = &now
	return nil
}

func (c *FraudCase) IsActive() bool {
	return c.Status == StatusOpen || c.Status == StatusInvestigating
}

func (c *FraudCase) IsResolved() bool {
	return c.Status == StatusResolved || c.Status == StatusClosed
}

func (c *FraudCase) IsAssigned() bool {
	return c.AssignedArbitratorID != nil
}

// IsOverdue reports whether the case has been investigating past the SLA.
func (c *FraudCase) IsOverdue(sla time.Duration) bool {
	return c.Status == StatusInvestigating && time.Since(c.CreatedAt) > sla
}

// TimeRemaining returns the time left before the SLA deadline, floored at zero.
func (c *FraudCase) TimeRemaining(sla time.Duration) time.Duration {
	if c.Status != StatusInvestigating {
		return 0
	}

	remaining := sla - time.Since(c.CreatedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TimeRemainingLabel renders the arbitrator-facing deadline string.
func (c *FraudCase) TimeRemainingLabel(sla time.Duration) string {
	hours := int(c.TimeRemaining(sla).Hours())
	if hours > 0 {
		return fmt.Sprintf("%d hours remaining", hours)
	}
	return "OVERDUE"
}

func (c *FraudCase) String() string {
	return fmt.Sprintf("FraudCase{caseId=%s, transactionId=%s, status=%s, caseType=%s, priority=%s}",
		c.CaseID, c.TransactionID, c.Status, c.CaseType, c.Priority)
}
