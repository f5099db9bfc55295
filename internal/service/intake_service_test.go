package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mjgskyblade/echopay-sub000/internal/dto"
	"github.com/mjgskyblade/echopay-sub000/internal/models"
	"github.com/mjgskyblade/echopay-sub000/internal/pkg/apperror"
)

type intakeFixture struct {
	cases    *mockCaseStore
	ledger   *mockLedger
	behavior *mockBehavior
	logs     *mockSystemLogs
	notifier *mockNotifier
	events   *mockEvents
	svc      *IntakeService
}

func newIntakeFixture() *intakeFixture {
	f := &intakeFixture{
		cases:    new(mockCaseStore),
		ledger:   new(mockLedger),
		behavior: new(mockBehavior),
		logs:     new(mockSystemLogs),
		notifier: new(mockNotifier),
		events:   new(mockEvents),
	}
	evidence := NewEvidenceService(f.cases, f.ledger, f.behavior, f.logs)
	f.svc = NewIntakeService(f.cases, f.ledger, evidence, f.notifier, f.events, IntakePolicy{
		CriticalAmountThreshold: 10000,
		HighAmountThreshold:     1000,
	})
	return f
}

// allowBackgroundCollection tolerates the async evidence pass started after a
// successful submission; its calls are not the subject of these tests.
func (f *intakeFixture) allowBackgroundCollection() {
	unavailable := errors.New("collaborator unavailable")
	f.ledger.On("GetTransactionDetails", mock.Anything, mock.Anything).Return(nil, unavailable).Maybe()
	f.ledger.On("GetRelatedTransactions", mock.Anything, mock.Anything).Return(nil, unavailable).Maybe()
	f.behavior.On("GetTypicalPatterns", mock.Anything, mock.Anything).Return(nil, unavailable).Maybe()
	f.behavior.On("AnalyzeDeviation", mock.Anything, mock.Anything, mock.Anything).Return(nil, unavailable).Maybe()
	f.behavior.On("GetRecentActivity", mock.Anything, mock.Anything, mock.Anything).Return(nil, unavailable).Maybe()
	f.logs.On("GetAuthenticationLogs", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, unavailable).Maybe()
	f.logs.On("GetAPIAccessLogs", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, unavailable).Maybe()
	f.logs.On("GetErrorLogs", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, unavailable).Maybe()
	f.cases.On("GetByID", mock.Anything, mock.Anything).Return(nil, apperror.ErrCaseNotFound).Maybe()
	f.cases.On("UpdateEvidence", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
}

func validReport() dto.FraudReportRequest {
	return dto.FraudReportRequest{
		TransactionID: uuid.New(),
		ReporterID:    uuid.New(),
		CaseType:      "unauthorized_transaction",
		Description:   "I did not make this payment",
	}
}

func TestSubmitFraudReport_HighAmountIsCritical(t *testing.T) {
	f := newIntakeFixture()
	ctx := context.Background()
	req := validReport()

	f.ledger.On("IsEligibleForFraudReport", ctx, req.TransactionID).Return(true, nil)
	f.cases.On("FindActiveByTransaction", ctx, req.TransactionID).Return(nil, nil)
	f.ledger.On("GetTransactionAmount", ctx, req.TransactionID).Return(15000.0, nil)
	var created *models.FraudCase
	f.cases.On("Create", ctx, mock.AnythingOfType("*models.FraudCase")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*models.FraudCase)
	}).Return(nil)
	f.ledger.On("FreezeTokens", ctx, req.TransactionID, mock.Anything).Return(nil)
	f.cases.On("TransitionStatus", ctx, mock.Anything, models.StatusOpen, models.StatusInvestigating).Return(nil)
	f.notifier.On("Notify", ctx, req.ReporterID, "fraud_report_confirmation", mock.Anything).Return()
	f.events.On("Publish", "case.created", mock.Anything).Return()
	f.allowBackgroundCollection()

	resp, err := f.svc.SubmitFraudReport(ctx, req)
	assert.NoError(t, err)
	assert.Equal(t, string(models.StatusInvestigating), resp.Status)
	assert.Equal(t, 24, resp.EstimatedResolutionHours)

	assert.NotNil(t, created)
	assert.Equal(t, models.PriorityCritical, created.Priority)
	assert.NotNil(t, created.Evidence.UserReport)
	assert.Equal(t, req.Description, created.Evidence.UserReport.Description)
	f.cases.AssertExpectations(t)
	f.ledger.AssertExpectations(t)
}

func TestSubmitFraudReport_TypeDrivenPriority(t *testing.T) {
	f := newIntakeFixture()
	assert.Equal(t, models.PriorityHigh, f.svc.determinePriority(50, models.CaseTypeAccountTakeover))
	assert.Equal(t, models.PriorityHigh, f.svc.determinePriority(50, models.CaseTypeTechnicalFraud))
	assert.Equal(t, models.PriorityMedium, f.svc.determinePriority(50, models.CaseTypePhishing))
	assert.Equal(t, models.PriorityHigh, f.svc.determinePriority(1500, models.CaseTypePhishing))
	assert.Equal(t, models.PriorityCritical, f.svc.determinePriority(10001, models.CaseTypePhishing))
}

func TestSubmitFraudReport_UnknownCaseType(t *testing.T) {
	f := newIntakeFixture()
	req := validReport()
	req.CaseType = "chargeback"

	_, err := f.svc.SubmitFraudReport(context.Background(), req)
	assert.True(t, apperror.IsValidation(err))
}

func TestSubmitFraudReport_DescriptionTooLong(t *testing.T) {
	f := newIntakeFixture()
	req := validReport()
	req.Description = strings.Repeat("a", 2001)

	_, err := f.svc.SubmitFraudReport(context.Background(), req)
	assert.True(t, apperror.IsValidation(err))

	// The limit is 2000 characters, not bytes, so the same count of
	// multibyte characters is rejected too.
	req.Description = strings.Repeat("д", 2001)
	_, err = f.svc.SubmitFraudReport(context.Background(), req)
	assert.True(t, apperror.IsValidation(err))
}

func TestSubmitFraudReport_MultibyteDescriptionWithinLimit(t *testing.T) {
	f := newIntakeFixture()
	ctx := context.Background()
	req := validReport()
	// 1500 Cyrillic characters is 3000 bytes but well under the limit.
	req.Description = strings.Repeat("д", 1500)

	f.ledger.On("IsEligibleForFraudReport", ctx, req.TransactionID).Return(true, nil)
	f.cases.On("FindActiveByTransaction", ctx, req.TransactionID).Return(nil, nil)
	f.ledger.On("GetTransactionAmount", ctx, req.TransactionID).Return(500.0, nil)
	f.cases.On("Create", ctx, mock.AnythingOfType("*models.FraudCase")).Return(nil)
	f.ledger.On("FreezeTokens", ctx, req.TransactionID, mock.Anything).Return(nil)
	f.cases.On("TransitionStatus", ctx, mock.Anything, models.StatusOpen, models.StatusInvestigating).Return(nil)
	f.notifier.On("Notify", ctx, req.ReporterID, "fraud_report_confirmation", mock.Anything).Return()
	f.events.On("Publish", "case.created", mock.Anything).Return()
	f.allowBackgroundCollection()

	resp, err := f.svc.SubmitFraudReport(ctx, req)
	assert.NoError(t, err)
	assert.Equal(t, string(models.StatusInvestigating), resp.Status)
}

func TestSubmitFraudReport_IneligibleTransaction(t *testing.T) {
	f := newIntakeFixture()
	ctx := context.Background()
	req := validReport()

	f.ledger.On("IsEligibleForFraudReport", ctx, req.TransactionID).Return(false, nil)

	_, err := f.svc.SubmitFraudReport(ctx, req)
	assert.ErrorIs(t, err, apperror.ErrInvalidReport)
	f.cases.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitFraudReport_DuplicateActiveCase(t *testing.T) {
	f := newIntakeFixture()
	ctx := context.Background()
	req := validReport()
	existing := models.NewFraudCase(req.TransactionID, req.ReporterID, models.CaseTypePhishing, models.PriorityMedium)

	f.ledger.On("IsEligibleForFraudReport", ctx, req.TransactionID).Return(true, nil)
	f.cases.On("FindActiveByTransaction", ctx, req.TransactionID).Return(existing, nil)

	_, err := f.svc.SubmitFraudReport(ctx, req)
	assert.ErrorIs(t, err, apperror.ErrDuplicateActiveCase)
	f.cases.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitFraudReport_FreezeFailureRollsBack(t *testing.T) {
	f := newIntakeFixture()
	ctx := context.Background()
	req := validReport()

	f.ledger.On("IsEligibleForFraudReport", ctx, req.TransactionID).Return(true, nil)
	f.cases.On("FindActiveByTransaction", ctx, req.TransactionID).Return(nil, nil)
	f.ledger.On("GetTransactionAmount", ctx, req.TransactionID).Return(500.0, nil)
	f.cases.On("Create", ctx, mock.AnythingOfType("*models.FraudCase")).Return(nil)
	f.ledger.On("FreezeTokens", ctx, req.TransactionID, mock.Anything).Return(errors.New("token service down"))
	f.cases.On("Delete", ctx, mock.Anything).Return(nil)

	_, err := f.svc.SubmitFraudReport(ctx, req)
	assert.Error(t, err)
	f.cases.AssertCalled(t, "Delete", ctx, mock.Anything)
	f.cases.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateCaseStatus_RejectsDirectResolve(t *testing.T) {
	f := newIntakeFixture()

	_, err := f.svc.UpdateCaseStatus(context.Background(), uuid.New(), "resolved")
	assert.True(t, apperror.IsValidation(err))
}

func TestUpdateCaseStatus_IllegalTransition(t *testing.T) {
	f := newIntakeFixture()
	ctx := context.Background()
	fraudCase := models.NewFraudCase(uuid.New(), uuid.New(), models.CaseTypePhishing, models.PriorityMedium)
	fraudCase.Status = models.StatusClosed

	f.cases.On("GetByID", ctx, fraudCase.CaseID).Return(fraudCase, nil)

	_, err := f.svc.UpdateCaseStatus(ctx, fraudCase.CaseID, "investigating")
	assert.ErrorIs(t, err, apperror.ErrIllegalTransition)
}

func TestAddEvidence_InactiveCase(t *testing.T) {
	f := newIntakeFixture()
	ctx := context.Background()
	fraudCase := models.NewFraudCase(uuid.New(), uuid.New(), models.CaseTypePhishing, models.PriorityMedium)
	fraudCase.Status = models.StatusResolved

	f.cases.On("GetByID", ctx, fraudCase.CaseID).Return(fraudCase, nil)

	_, err := f.svc.AddEvidence(ctx, fraudCase.CaseID, map[string]any{"note": "late"})
	assert.ErrorIs(t, err, apperror.ErrCaseInactive)
	f.cases.AssertNotCalled(t, "UpdateEvidence", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddEvidence_MergesAdditionalKeys(t *testing.T) {
	f := newIntakeFixture()
	ctx := context.Background()
	fraudCase := models.NewFraudCase(uuid.New(), uuid.New(), models.CaseTypePhishing, models.PriorityMedium)
	fraudCase.Status = models.StatusInvestigating
	fraudCase.Evidence.Additional = map[string]any{"existing": "value"}

	f.cases.On("GetByID", ctx, fraudCase.CaseID).Return(fraudCase, nil)
	f.cases.On("UpdateEvidence", ctx, fraudCase.CaseID, mock.Anything).Return(nil)
	f.events.On("Publish", "case.evidence_added", mock.Anything).Return()

	updated, err := f.svc.AddEvidence(ctx, fraudCase.CaseID, map[string]any{"note": "new"})
	assert.NoError(t, err)
	assert.Equal(t, "value", updated.Evidence.Additional["existing"])
	assert.Equal(t, "new", updated.Evidence.Additional["note"])
}
