package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/mjgskyblade/echopay-sub000/internal/clients"
	"github.com/mjgskyblade/echopay-sub000/internal/models"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// FraudReportResponse acknowledges a submitted report.
type FraudReportResponse struct {
	CaseID                   uuid.UUID `json:"caseId"`
	Status                   string    `json:"status"`
	EstimatedResolutionHours int       `json:"estimatedResolutionHours"`
	Message                  string    `json:"message"`
}

// ArbitrationCaseSummary is the queue/list row for arbitrators.
type ArbitrationCaseSummary struct {
	CaseID        uuid.UUID  `json:"caseId"`
	TransactionID uuid.UUID  `json:"transactionId"`
	CaseType      string     `json:"caseType"`
	Priority      string     `json:"priority"`
	CreatedAt     time.Time  `json:"createdAt"`
	AssignedAt    *time.Time `json:"assignedAt,omitempty"`
	TimeRemaining string     `json:"timeRemaining"`
}

// ArbitrationCaseView is the full composite presented to an arbitrator:
// the case, the ledger transaction context, behavior deviation and the
// oracle's current confidence. Built read-only, no state mutation.
type ArbitrationCaseView struct {
	CaseID               uuid.UUID                   `json:"caseId"`
	TransactionID        uuid.UUID                   `json:"transactionId"`
	ReporterID           uuid.UUID                   `json:"reporterId"`
	CaseType             string                      `json:"caseType"`
	Priority             string                      `json:"priority"`
	Status               string                      `json:"status"`
	CreatedAt            time.Time                   `json:"createdAt"`
	AssignedArbitratorID *uuid.UUID                  `json:"assignedArbitratorId,omitempty"`
	AssignedAt           *time.Time                  `json:"assignedAt,omitempty"`
	TimeRemaining        string                      `json:"timeRemaining"`
	Evidence             models.CaseEvidence         `json:"evidence"`
	TransactionContext   *clients.TransactionDetails `json:"transactionContext,omitempty"`
	BehaviorAnalysis     map[string]any              `json:"userBehaviorAnalysis,omitempty"`
	FraudRiskScore       *float64                    `json:"fraudRiskScore,omitempty"`
}

// ArbitrationStatistics summarizes the arbitration workload.
type ArbitrationStatistics struct {
	TotalActiveCases   int            `json:"totalActiveCases"`
	AssignedCases      int            `json:"assignedCases"`
	UnassignedCases    int            `json:"unassignedCases"`
	OverdueCases       int            `json:"overdueCases"`
	CasesByPriority    map[string]int `json:"casesByPriority"`
	ArbitratorWorkload map[string]int `json:"arbitratorWorkload"`
}
