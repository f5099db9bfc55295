package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mjgskyblade/echopay-sub000/internal/clients"
	"github.com/mjgskyblade/echopay-sub000/internal/models"
)

// CaseStore is the durable fraud-case repository. It is the single source of
// truth for case status; every status change goes through its
// compare-and-transition methods.
type CaseStore interface {
	Create(ctx context.Context, c *models.FraudCase) error
	GetByID(ctx context.Context, caseID uuid.UUID) (*models.FraudCase, error)
	FindActiveByTransaction(ctx context.Context, transactionID uuid.UUID) (*models.FraudCase, error)
	ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.FraudCase, error)
	ListActive(ctx context.Context, limit, offset int) ([]models.FraudCase, error)
	TransitionStatus(ctx context.Context, caseID uuid.UUID, from, to models.CaseStatus) error
	ResolveCase(ctx context.Context, caseID uuid.UUID, resolution models.CaseResolution, reasoning *string) error
	UpdateEvidence(ctx context.Context, caseID uuid.UUID, evidence models.CaseEvidence) error
	Assign(ctx context.Context, caseID, arbitratorID uuid.UUID) error
	MarkEscalated(ctx context.Context, caseID uuid.UUID) error
	Delete(ctx context.Context, caseID uuid.UUID) error
	FindForAutomatedResolution(ctx context.Context, createdBefore time.Time) ([]models.FraudCase, error)
	FindNeedingEscalation(ctx context.Context, createdBefore time.Time) ([]models.FraudCase, error)
	FindUnassigned(ctx context.Context) ([]models.FraudCase, error)
	ListByArbitrator(ctx context.Context, arbitratorID uuid.UUID) ([]models.FraudCase, error)
	CountActiveByPriority(ctx context.Context) (map[models.CasePriority]int, error)
	CountActiveByArbitrator(ctx context.Context) (map[uuid.UUID]int, error)
}

// AuditStore is the immutable reversal audit trail.
type AuditStore interface {
	Insert(ctx context.Context, record *models.ReversalAuditRecord) error
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.ReversalAuditRecord, error)
	CountByTransaction(ctx context.Context, transactionID uuid.UUID) (int, error)
}

// Ledger is the transaction/token collaborator owning balances and token
// state.
type Ledger interface {
	IsEligibleForFraudReport(ctx context.Context, transactionID uuid.UUID) (bool, error)
	IsEligibleForReversal(ctx context.Context, transactionID uuid.UUID) (bool, error)
	GetTransactionAmount(ctx context.Context, transactionID uuid.UUID) (float64, error)
	GetTransactionDetails(ctx context.Context, transactionID uuid.UUID) (*clients.TransactionDetails, error)
	GetRelatedTransactions(ctx context.Context, transactionID uuid.UUID) (map[string]any, error)
	FreezeTokens(ctx context.Context, transactionID, caseID uuid.UUID) error
	UnfreezeTokens(ctx context.Context, transactionID, caseID uuid.UUID) error
	InvalidateTokens(ctx context.Context, transactionID uuid.UUID) error
	ReissueTokens(ctx context.Context, walletID uuid.UUID, amount float64, caseID uuid.UUID) (uuid.UUID, error)
	MarkReversed(ctx context.Context, transactionID, caseID uuid.UUID) error
}

// Scorer is the fraud-confidence oracle.
type Scorer interface {
	GetFraudConfidence(ctx context.Context, caseID uuid.UUID) (float64, error)
}

// BehaviorAnalytics provides user behavior patterns and deviation analysis.
type BehaviorAnalytics interface {
	GetTypicalPatterns(ctx context.Context, userID uuid.UUID) (map[string]any, error)
	AnalyzeDeviation(ctx context.Context, userID, transactionID uuid.UUID) (map[string]any, error)
	GetRecentActivity(ctx context.Context, userID uuid.UUID, days int) (map[string]any, error)
}

// SystemLogs provides log excerpts around case creation.
type SystemLogs interface {
	GetAuthenticationLogs(ctx context.Context, transactionID uuid.UUID, from, to time.Time) (map[string]any, error)
	GetAPIAccessLogs(ctx context.Context, transactionID uuid.UUID, from, to time.Time) (map[string]any, error)
	GetErrorLogs(ctx context.Context, transactionID uuid.UUID, from, to time.Time) (map[string]any, error)
}

// Notifier is the fire-and-forget messaging channel.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any)
	NotifyOversight(ctx context.Context, kind string, payload map[string]any)
}

// EventPublisher streams case events to connected operator dashboards.
// Implementations must never block case processing.
type EventPublisher interface {
	Publish(event string, data any)
}
