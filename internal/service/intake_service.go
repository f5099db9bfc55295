package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mjgskyblade/echopay-sub000/internal/clients"
	"github.com/mjgskyblade/echopay-sub000/internal/dto"
	"github.com/mjgskyblade/echopay-sub000/internal/goroutine"
	"github.com/mjgskyblade/echopay-sub000/internal/logger"
	"github.com/mjgskyblade/echopay-sub000/internal/models"
	"github.com/mjgskyblade/echopay-sub000/internal/pkg/apperror"
)

// maxDescriptionLength is counted in characters, not bytes.
const maxDescriptionLength = 2000

// IntakePolicy carries the amount thresholds driving the priority heuristic.
type IntakePolicy struct {
	CriticalAmountThreshold float64
	HighAmountThreshold     float64
}

// IntakeService owns fraud report submission and general case access.
type IntakeService struct {
	cases    CaseStore
	ledger   Ledger
	evidence *EvidenceService
	notifier Notifier
	events   EventPublisher
	policy   IntakePolicy
}

func NewIntakeService(cases CaseStore, ledger Ledger, evidence *EvidenceService,
	notifier Notifier, events EventPublisher, policy IntakePolicy) *IntakeService {
	return &IntakeService{
		cases:    cases,
		ledger:   ledger,
		evidence: evidence,
		notifier: notifier,
		events:   events,
		policy:   policy,
	}
}

// SubmitFraudReport validates a report, opens a case, freezes the disputed
// tokens and moves the case into investigation. The token freeze is
// synchronous: if it fails the case row is rolled back, so no case ever exists
// without its tokens frozen. Evidence collection runs in the background.
func (s *IntakeService) SubmitFraudReport(ctx context.Context, req dto.FraudReportRequest) (*dto.FraudReportResponse, error) {
	caseType, err := models.ParseCaseType(req.CaseType)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "unknown case type")
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "description is required")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, apperror.New(apperror.ErrCodeValidation, "description exceeds maximum length")
	}

	eligible, err := s.ledger.IsEligibleForFraudReport(ctx, req.TransactionID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "could not validate transaction")
	}
	if !eligible {
		return nil, apperror.ErrInvalidReport
	}

	if existing, err := s.cases.FindActiveByTransaction(ctx, req.TransactionID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperror.ErrDuplicateActiveCase
	}

	// Amount is advisory for priority; a fetch failure degrades the heuristic
	// to type-only instead of blocking intake.
	amount, err := s.ledger.GetTransactionAmount(ctx, req.TransactionID)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"transaction_id": req.TransactionID,
			"error":          err.Error(),
		}).Warn("amount lookup failed, using type-based priority")
		amount = 0
	}

	priority := s.determinePriority(amount, caseType)
	fraudCase := models.NewFraudCase(req.TransactionID, req.ReporterID, caseType, priority)
	fraudCase.Evidence = models.CaseEvidence{
		UserReport: buildUserReport(description, req.Evidence),
	}

	if err := s.cases.Create(ctx, fraudCase); err != nil {
		return nil, err
	}

	if err := s.ledger.FreezeTokens(ctx, req.TransactionID, fraudCase.CaseID); err != nil {
		if delErr := s.cases.Delete(ctx, fraudCase.CaseID); delErr != nil {
			logger.Log.WithFields(logrus.Fields{
				"case_id": fraudCase.CaseID,
				"error":   delErr.Error(),
			}).Error("rollback after freeze failure did not complete")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "could not freeze disputed tokens")
	}

	if err := s.cases.TransitionStatus(ctx, fraudCase.CaseID, models.StatusOpen, models.StatusInvestigating); err != nil {
		return nil, err
	}
	fraudCase.Status = models.StatusInvestigating

	goroutine.SafeGo(func() {
		collectCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.evidence.Collect(collectCtx, fraudCase)
	})

	s.notifier.Notify(ctx, req.ReporterID, clients.NotifyFraudReportConfirmation, map[string]any{
		"caseId":        fraudCase.CaseID,
		"transactionId": req.TransactionID,
		"priority":      priority,
	})
	s.events.Publish("case.created", fraudCase)

	logger.Log.WithFields(logrus.Fields{
		"case_id":        fraudCase.CaseID,
		"transaction_id": req.TransactionID,
		"priority":       priority,
	}).Info("fraud case opened")

	return &dto.FraudReportResponse{
		CaseID:                   fraudCase.CaseID,
		Status:                   string(fraudCase.Status),
		EstimatedResolutionHours: estimateResolutionHours(priority),
		Message:                  "Fraud report received. Disputed tokens are frozen pending investigation.",
	}, nil
}

func (s *IntakeService) GetCase(ctx context.Context, caseID uuid.UUID) (*models.FraudCase, error) {
	return s.cases.GetByID(ctx, caseID)
}

func (s *IntakeService) ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.FraudCase, error) {
	return s.cases.ListByReporter(ctx, reporterID, limit, offset)
}

func (s *IntakeService) ListActive(ctx context.Context, limit, offset int) ([]models.FraudCase, error) {
	return s.cases.ListActive(ctx, limit, offset)
}

// UpdateCaseStatus applies an operator-driven status transition. Transitions
// into resolved are rejected here: a resolution must come from an arbitration
// decision or the automated loop so the resolution fields are always set.
func (s *IntakeService) UpdateCaseStatus(ctx context.Context, caseID uuid.UUID, rawStatus string) (*models.FraudCase, error) {
	newStatus, err := models.ParseCaseStatus(rawStatus)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "unknown case status")
	}
	if newStatus == models.StatusResolved {
		return nil, apperror.New(apperror.ErrCodeValidation,
			"cases are resolved through a decision, not a status update")
	}

	fraudCase, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !fraudCase.CanTransitionTo(newStatus) {
		return nil, apperror.ErrIllegalTransition
	}

	if err := s.cases.TransitionStatus(ctx, caseID, fraudCase.Status, newStatus); err != nil {
		return nil, err
	}
	fraudCase.Status = newStatus

	s.notifier.Notify(ctx, fraudCase.ReporterID, clients.NotifyCaseStatusUpdate, map[string]any{
		"caseId": caseID,
		"status": newStatus,
	})
	s.events.Publish("case.status_changed", fraudCase)
	return fraudCase, nil
}

// AddEvidence merges operator-supplied keys into an active case's evidence.
// The merge is additive: existing sections survive unless overwritten by name.
func (s *IntakeService) AddEvidence(ctx context.Context, caseID uuid.UUID, extra map[string]any) (*models.FraudCase, error) {
	fraudCase, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !fraudCase.IsActive() {
		return nil, apperror.ErrCaseInactive
	}

	fraudCase.Evidence.Merge(models.CaseEvidence{Additional: extra})
	if err := s.cases.UpdateEvidence(ctx, caseID, fraudCase.Evidence); err != nil {
		return nil, err
	}

	s.events.Publish("case.evidence_added", fraudCase)
	return fraudCase, nil
}

// determinePriority ranks the case by amount at risk first, then by case type.
func (s *IntakeService) determinePriority(amount float64, caseType models.CaseType) models.CasePriority {
	if amount > s.policy.CriticalAmountThreshold {
		return models.PriorityCritical
	}
	if amount > s.policy.HighAmountThreshold {
		return models.PriorityHigh
	}
	if caseType == models.CaseTypeAccountTakeover || caseType == models.CaseTypeTechnicalFraud {
		return models.PriorityHigh
	}
	return models.PriorityMedium
}

func estimateResolutionHours(priority models.CasePriority) int {
	switch priority {
	case models.PriorityCritical:
		return 24
	case models.PriorityHigh:
		return 48
	default:
		return 72
	}
}

func buildUserReport(description string, ev *dto.ReportEvidence) *models.UserReportEvidence {
	report := &models.UserReportEvidence{
		Description: description,
		ReportedAt:  time.Now().UTC(),
	}
	if ev != nil {
		report.Screenshots = ev.Screenshots
		report.AdditionalInfo = ev.AdditionalInfo
	}
	return report
}
