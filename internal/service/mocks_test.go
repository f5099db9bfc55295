package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/mjgskyblade/echopay-sub000/internal/clients"
	"github.com/mjgskyblade/echopay-sub000/internal/logger"
	"github.com/mjgskyblade/echopay-sub000/internal/models"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

type mockCaseStore struct {
	mock.Mock
}

func (m *mockCaseStore) Create(ctx context.Context, c *models.FraudCase) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCaseStore) GetByID(ctx context.Context, caseID uuid.UUID) (*models.FraudCase, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FraudCase), args.Error(1)
}

func (m *mockCaseStore) FindActiveByTransaction(ctx context.Context, transactionID uuid.UUID) (*models.FraudCase, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FraudCase), args.Error(1)
}

func (m *mockCaseStore) ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.FraudCase, error) {
	args := m.Called(ctx, reporterID, limit, offset)
	return args.Get(0).([]models.FraudCase), args.Error(1)
}

func (m *mockCaseStore) ListActive(ctx context.Context, limit, offset int) ([]models.FraudCase, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.FraudCase), args.Error(1)
}

func (m *mockCaseStore) TransitionStatus(ctx context.Context, caseID uuid.UUID, from, to models.CaseStatus) error {
	args := m.Called(ctx, caseID, from, to)
	return args.Error(0)
}

func (m *mockCaseStore) ResolveCase(ctx context.Context, caseID uuid.UUID, resolution models.CaseResolution, reasoning *string) error {
	args := m.Called(ctx, caseID, resolution, reasoning)
	return args.Error(0)
}

func (m *mockCaseStore) UpdateEvidence(ctx context.Context, caseID uuid.UUID, evidence models.CaseEvidence) error {
	args := m.Called(ctx, caseID, evidence)
	return args.Error(0)
}

func (m *mockCaseStore) Assign(ctx context.Context, caseID, arbitratorID uuid.UUID) error {
	args := m.Called(ctx, caseID, arbitratorID)
	return args.Error(0)
}

func (m *mockCaseStore) MarkEscalated(ctx context.Context, caseID uuid.UUID) error {
	args := m.Called(ctx, caseID)
	return args.Error(0)
}

func (m *mockCaseStore) Delete(ctx context.Context, caseID uuid.UUID) error {
	args := m.Called(ctx, caseID)
	return args.Error(0)
}

func (m *mockCaseStore) FindForAutomatedResolution(ctx context.Context, createdBefore time.Time) ([]models.FraudCase, error) {
	args := m.Called(ctx, createdBefore)
	return args.Get(0).([]models.FraudCase), args.Error(1)
}

func (m *mockCaseStore) FindNeedingEscalation(ctx context.Context, createdBefore time.Time) ([]models.FraudCase, error) {
	args := m.Called(ctx, createdBefore)
	return args.Get(0).([]models.FraudCase), args.Error(1)
}

func (m *mockCaseStore) FindUnassigned(ctx context.Context) ([]models.FraudCase, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.FraudCase), args.Error(1)
}

func (m *mockCaseStore) ListByArbitrator(ctx context.Context, arbitratorID uuid.UUID) ([]models.FraudCase, error) {
	args := m.Called(ctx, arbitratorID)
	return args.Get(0).([]models.FraudCase), args.Error(1)
}

func (m *mockCaseStore) CountActiveByPriority(ctx context.Context) (map[models.CasePriority]int, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[models.CasePriority]int), args.Error(1)
}

func (m *mockCaseStore) CountActiveByArbitrator(ctx context.Context) (map[uuid.UUID]int, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

type mockAuditStore struct {
	mock.Mock
}

func (m *mockAuditStore) Insert(ctx context.Context, record *models.ReversalAuditRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockAuditStore) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.ReversalAuditRecord, error) {
	args := m.Called(ctx, caseID)
	return args.Get(0).([]models.ReversalAuditRecord), args.Error(1)
}

func (m *mockAuditStore) CountByTransaction(ctx context.Context, transactionID uuid.UUID) (int, error) {
	args := m.Called(ctx, transactionID)
	return args.Int(0), args.Error(1)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) IsEligibleForFraudReport(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, transactionID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedger) IsEligibleForReversal(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, transactionID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedger) GetTransactionAmount(ctx context.Context, transactionID uuid.UUID) (float64, error) {
	args := m.Called(ctx, transactionID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockLedger) GetTransactionDetails(ctx context.Context, transactionID uuid.UUID) (*clients.TransactionDetails, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.TransactionDetails), args.Error(1)
}

func (m *mockLedger) GetRelatedTransactions(ctx context.Context, transactionID uuid.UUID) (map[string]any, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *mockLedger) FreezeTokens(ctx context.Context, transactionID, caseID uuid.UUID) error {
	args := m.Called(ctx, transactionID, caseID)
	return args.Error(0)
}

func (m *mockLedger) UnfreezeTokens(ctx context.Context, transactionID, caseID uuid.UUID) error {
	args := m.Called(ctx, transactionID, caseID)
	return args.Error(0)
}

func (m *mockLedger) InvalidateTokens(ctx context.Context, transactionID uuid.UUID) error {
	args := m.Called(ctx, transactionID)
	return args.Error(0)
}

func (m *mockLedger) ReissueTokens(ctx context.Context, walletID uuid.UUID, amount float64, caseID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, walletID, amount, caseID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockLedger) MarkReversed(ctx context.Context, transactionID, caseID uuid.UUID) error {
	args := m.Called(ctx, transactionID, caseID)
	return args.Error(0)
}

type mockScorer struct {
	mock.Mock
}

func (m *mockScorer) GetFraudConfidence(ctx context.Context, caseID uuid.UUID) (float64, error) {
	args := m.Called(ctx, caseID)
	return args.Get(0).(float64), args.Error(1)
}

type mockBehavior struct {
	mock.Mock
}

func (m *mockBehavior) GetTypicalPatterns(ctx context.Context, userID uuid.UUID) (map[string]any, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *mockBehavior) AnalyzeDeviation(ctx context.Context, userID, transactionID uuid.UUID) (map[string]any, error) {
	args := m.Called(ctx, userID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *mockBehavior) GetRecentActivity(ctx context.Context, userID uuid.UUID, days int) (map[string]any, error) {
	args := m.Called(ctx, userID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

type mockSystemLogs struct {
	mock.Mock
}

func (m *mockSystemLogs) GetAuthenticationLogs(ctx context.Context, transactionID uuid.UUID, from, to time.Time) (map[string]any, error) {
	args := m.Called(ctx, transactionID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *mockSystemLogs) GetAPIAccessLogs(ctx context.Context, transactionID uuid.UUID, from, to time.Time) (map[string]any, error) {
	args := m.Called(ctx, transactionID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *mockSystemLogs) GetErrorLogs(ctx context.Context, transactionID uuid.UUID, from, to time.Time) (map[string]any, error) {
	args := m.Called(ctx, transactionID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any) {
	m.Called(ctx, userID, kind, payload)
}

func (m *mockNotifier) NotifyOversight(ctx context.Context, kind string, payload map[string]any) {
	m.Called(ctx, kind, payload)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) Publish(event string, data any) {
	m.Called(event, data)
}
