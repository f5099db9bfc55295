package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mjgskyblade/echopay-sub000/internal/dto"
	"github.com/mjgskyblade/echopay-sub000/internal/models"
	"github.com/mjgskyblade/echopay-sub000/internal/pkg/apperror"
)

type arbitrationFixture struct {
	cases    *mockCaseStore
	audit    *mockAuditStore
	ledger   *mockLedger
	scorer   *mockScorer
	behavior *mockBehavior
	notifier *mockNotifier
	events   *mockEvents
	tracker  *ReversalTracker
	svc      *ArbitrationService
}

func newArbitrationFixture() *arbitrationFixture {
	f := &arbitrationFixture{
		cases:    new(mockCaseStore),
		audit:    new(mockAuditStore),
		ledger:   new(mockLedger),
		scorer:   new(mockScorer),
		behavior: new(mockBehavior),
		notifier: new(mockNotifier),
		events:   new(mockEvents),
		tracker:  NewReversalTracker(time.Hour),
	}
	reversal := NewReversalService(f.cases, f.audit, f.ledger, f.scorer, f.tracker, f.notifier, f.events, ReversalPolicy{
		AutoThreshold: 0.8,
		MinAge:        time.Hour,
	})
	f.svc = NewArbitrationService(f.cases, f.ledger, f.scorer, f.behavior,
		reversal, f.tracker, f.notifier, f.events, 72*time.Hour)
	return f
}

func assignedCase(arbitratorID uuid.UUID) *models.FraudCase {
	c := investigatingCase()
	now := time.Now().UTC()
	c.AssignedArbitratorID = &arbitratorID
	c.AssignedAt = &now
	return c
}

func TestAssignCase_Success(t *testing.T) {
	f := newArbitrationFixture()
	ctx := context.Background()
	arbitratorID := uuid.New()
	fraudCase := assignedCase(arbitratorID)

	f.cases.On("Assign", ctx, fraudCase.CaseID, arbitratorID).Return(nil)
	f.cases.On("GetByID", ctx, fraudCase.CaseID).Return(fraudCase, nil)
	f.notifier.On("Notify", ctx, arbitratorID, "arbitration_assignment", mock.Anything).Return()
	f.notifier.On("Notify", ctx, fraudCase.ReporterID, "case_status_update", mock.Anything).Return()
	f.events.On("Publish", "case.assigned", mock.Anything).Return()

	result, err := f.svc.AssignCase(ctx, fraudCase.CaseID, arbitratorID)
	assert.NoError(t, err)
	assert.Equal(t, &arbitratorID, result.AssignedArbitratorID)
	f.notifier.AssertExpectations(t)
}

func TestAssignCase_AlreadyAssigned(t *testing.T) {
	f := newArbitrationFixture()
	ctx := context.Background()
	caseID := uuid.New()

	f.cases.On("Assign", ctx, caseID, mock.Anything).Return(apperror.ErrAlreadyAssigned)

	_, err := f.svc.AssignCase(ctx, caseID, uuid.New())
	assert.True(t, apperror.IsConflict(err))
}

func TestProcessDecision_FraudDeniedReleasesTokens(t *testing.T) {
	f := newArbitrationFixture()
	ctx := context.Background()
	arbitratorID := uuid.New()
	fraudCase := assignedCase(arbitratorID)

	f.cases.On("GetByID", ctx, fraudCase.CaseID).Return(fraudCase, nil)
	f.ledger.On("UnfreezeTokens", ctx, fraudCase.TransactionID, fraudCase.CaseID).Return(nil)
	f.cases.On("ResolveCase", ctx, fraudCase.CaseID, models.ResolutionFraudDenied, mock.Anything).Return(nil)
	f.notifier.On("Notify", ctx, fraudCase.ReporterID, "arbitration_decision", mock.Anything).Return()
	f.events.On("Publish", "case.resolved", mock.Anything).Return()

	result, err := f.svc.ProcessDecision(ctx, dto.ArbitrationDecisionRequest{
		CaseID:       fraudCase.CaseID,
		ArbitratorID: arbitratorID,
		Decision:     "fraud_denied",
		Reasoning:    "transaction matches account holder's travel pattern",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.ResolutionFraudDenied, *result.Resolution)
	f.ledger.AssertNotCalled(t, "InvalidateTokens", mock.Anything, mock.Anything)
	f.ledger.AssertCalled(t, "UnfreezeTokens", ctx, fraudCase.TransactionID, fraudCase.CaseID)
}

func TestProcessDecision_FraudConfirmedReversesFirst(t *testing.T) {
	f := newArbitrationFixture()
	ctx := context.Background()
	arbitratorID := uuid.New()
	fraudCase := assignedCase(arbitratorID)
	details := transactionDetails(fraudCase.TransactionID, 1200.0)

	f.cases.On("GetByID", ctx, fraudCase.CaseID).Return(fraudCase, nil)
	f.ledger.On("IsEligibleForReversal", ctx, fraudCase.TransactionID).Return(true, nil)
	f.audit.On("CountByTransaction", ctx, fraudCase.TransactionID).Return(0, nil)
	f.ledger.On("GetTransactionDetails", ctx, fraudCase.TransactionID).Return(details, nil)
	f.ledger.On("InvalidateTokens", ctx, fraudCase.TransactionID).Return(nil)
	f.ledger.On("ReissueTokens", ctx, details.FromWallet, 1200.0, fraudCase.CaseID).Return(uuid.New(), nil)
	f.ledger.On("MarkReversed", ctx, fraudCase.TransactionID, fraudCase.CaseID).Return(nil)
	f.audit.On("Insert", ctx, mock.Anything).Return(nil)
	f.cases.On("ResolveCase", ctx, fraudCase.CaseID, models.ResolutionFraudConfirmed, mock.Anything).Return(nil)
	f.notifier.On("Notify", ctx, fraudCase.ReporterID, "arbitration_decision", mock.Anything).Return()
	f.events.On("Publish", mock.Anything, mock.Anything).Return()

	result, err := f.svc.ProcessDecision(ctx, dto.ArbitrationDecisionRequest{
		CaseID:       fraudCase.CaseID,
		ArbitratorID: arbitratorID,
		Decision:     "fraud_confirmed",
		Reasoning:    "device fingerprint does not match any known device",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusResolved, result.Status)

	record, ok := f.tracker.Record(fraudCase.CaseID)
	assert.True(t, ok)
	assert.Equal(t, models.ReversalCompleted, record.Status)
	f.ledger.AssertNotCalled(t, "UnfreezeTokens", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessDecision_WrongArbitrator(t *testing.T) {
	f := newArbitrationFixture()
	ctx := context.Background()
	fraudCase := assignedCase(uuid.New())

	f.cases.On("GetByID", ctx, fraudCase.CaseID).Return(fraudCase, nil)

	_, err := f.svc.ProcessDecision(ctx, dto.ArbitrationDecisionRequest{
		CaseID:       fraudCase.CaseID,
		ArbitratorID: uuid.New(),
		Decision:     "fraud_denied",
		Reasoning:    "not my case",
	})
	assert.True(t, apperror.IsConflict(err))
	f.cases.AssertNotCalled(t, "ResolveCase", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessDecision_UnknownDecision(t *testing.T) {
	f := newArbitrationFixture()

	_, err := f.svc.ProcessDecision(context.Background(), dto.ArbitrationDecisionRequest{
		CaseID:       uuid.New(),
		ArbitratorID: uuid.New(),
		Decision:     "maybe",
		Reasoning:    "unsure",
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestProcessDecision_NotInvestigating(t *testing.T) {
	f := newArbitrationFixture()
	ctx := context.Background()
	arbitratorID := uuid.New()
	fraudCase := assignedCase(arbitratorID)
	fraudCase.Status = models.StatusResolved

	f.cases.On("GetByID", ctx, fraudCase.CaseID).Return(fraudCase, nil)

	_, err := f.svc.ProcessDecision(ctx, dto.ArbitrationDecisionRequest{
		CaseID:       fraudCase.CaseID,
		ArbitratorID: arbitratorID,
		Decision:     "fraud_denied",
		Reasoning:    "already done",
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidCaseState)
}

func TestCheckOverdueCases_EscalatesAndAlerts(t *testing.T) {
	f := newArbitrationFixture()
	ctx := context.Background()
	fraudCase := investigatingCase()
	fraudCase.CreatedAt = time.Now().UTC().Add(-73 * time.Hour)

	f.cases.On("FindNeedingEscalation", ctx, mock.Anything).Return([]models.FraudCase{*fraudCase}, nil)
	f.cases.On("MarkEscalated", ctx, fraudCase.CaseID).Return(nil)
	f.notifier.On("NotifyOversight", ctx, "escalation_alert", mock.Anything).Return()
	f.notifier.On("Notify", ctx, fraudCase.ReporterID, "case_status_update", mock.Anything).Return()
	f.events.On("Publish", "case.escalated", mock.Anything).Return()

	f.svc.CheckOverdueCases(ctx)

	f.cases.AssertCalled(t, "MarkEscalated", ctx, fraudCase.CaseID)
	f.notifier.AssertCalled(t, "NotifyOversight", ctx, "escalation_alert", mock.Anything)
}

func TestCheckOverdueCases_SkipsLostRace(t *testing.T) {
	f := newArbitrationFixture()
	ctx := context.Background()
	fraudCase := investigatingCase()

	f.cases.On("FindNeedingEscalation", ctx, mock.Anything).Return([]models.FraudCase{*fraudCase}, nil)
	f.cases.On("MarkEscalated", ctx, fraudCase.CaseID).Return(apperror.ErrIllegalTransition)

	f.svc.CheckOverdueCases(ctx)

	f.notifier.AssertNotCalled(t, "NotifyOversight", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatistics_Workload(t *testing.T) {
	f := newArbitrationFixture()
	ctx := context.Background()
	arbitratorID := uuid.New()

	assigned := *assignedCase(arbitratorID)
	unassigned := *investigatingCase()
	overdue := *investigatingCase()
	overdue.CreatedAt = time.Now().UTC().Add(-80 * time.Hour)

	f.cases.On("ListActive", ctx, 0, 0).Return([]models.FraudCase{assigned, unassigned, overdue}, nil)
	f.cases.On("CountActiveByPriority", ctx).Return(map[models.CasePriority]int{
		models.PriorityHigh: 3,
	}, nil)
	f.cases.On("CountActiveByArbitrator", ctx).Return(map[uuid.UUID]int{
		arbitratorID: 1,
	}, nil)

	stats, err := f.svc.Statistics(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 3, stats.TotalActiveCases)
	assert.Equal(t, 1, stats.AssignedCases)
	assert.Equal(t, 2, stats.UnassignedCases)
	assert.Equal(t, 1, stats.OverdueCases)
	assert.Equal(t, 3, stats.CasesByPriority["high"])
	assert.Equal(t, 1, stats.ArbitratorWorkload[arbitratorID.String()])
}
