package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mjgskyblade/echopay-sub000/internal/clients"
	"github.com/mjgskyblade/echopay-sub000/internal/dto"
	"github.com/mjgskyblade/echopay-sub000/internal/logger"
	"github.com/mjgskyblade/echopay-sub000/internal/models"
	"github.com/mjgskyblade/echopay-sub000/internal/pkg/apperror"
)

// ArbitrationService owns human review: assignment, the composite case view,
// decision processing and the escalation sweep.
type ArbitrationService struct {
	cases    CaseStore
	ledger   Ledger
	scorer   Scorer
	behavior BehaviorAnalytics
	reversal *ReversalService
	tracker  *ReversalTracker
	notifier Notifier
	events   EventPublisher
	sla      time.Duration
}

func NewArbitrationService(cases CaseStore, ledger Ledger, scorer Scorer, behavior BehaviorAnalytics,
	reversal *ReversalService, tracker *ReversalTracker, notifier Notifier, events EventPublisher,
	sla time.Duration) *ArbitrationService {
	return &ArbitrationService{
		cases:    cases,
		ledger:   ledger,
		scorer:   scorer,
		behavior: behavior,
		reversal: reversal,
		tracker:  tracker,
		notifier: notifier,
		events:   events,
		sla:      sla,
	}
}

// AssignCase hands an investigating, unassigned case to an arbitrator.
// The store's compare-and-set makes exactly one of two racing assigners win.
func (s *ArbitrationService) AssignCase(ctx context.Context, caseID, arbitratorID uuid.UUID) (*models.FraudCase, error) {
	if err := s.cases.Assign(ctx, caseID, arbitratorID); err != nil {
		return nil, err
	}

	fraudCase, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, arbitratorID, clients.NotifyArbitrationAssignment, map[string]any{
		"caseId":   caseID,
		"priority": fraudCase.Priority,
		"deadline": fraudCase.TimeRemainingLabel(s.sla),
	})
	s.notifier.Notify(ctx, fraudCase.ReporterID, clients.NotifyCaseStatusUpdate, map[string]any{
		"caseId":  caseID,
		"message": "Your case has been assigned to an arbitrator.",
	})
	s.events.Publish("case.assigned", fraudCase)

	logger.Log.WithFields(logrus.Fields{
		"case_id":       caseID,
		"arbitrator_id": arbitratorID,
	}).Info("case assigned to arbitrator")
	return fraudCase, nil
}

// GetCaseForArbitration builds the composite review view: the case and its
// evidence plus live transaction context, behavior deviation and the current
// fraud confidence. Collaborator failures degrade the view rather than fail
// it; this is a pure read with no state change.
func (s *ArbitrationService) GetCaseForArbitration(ctx context.Context, caseID uuid.UUID) (*dto.ArbitrationCaseView, error) {
	fraudCase, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	view := &dto.ArbitrationCaseView{
		CaseID:               fraudCase.CaseID,
		TransactionID:        fraudCase.TransactionID,
		ReporterID:           fraudCase.ReporterID,
		CaseType:             string(fraudCase.CaseType),
		Priority:             string(fraudCase.Priority),
		Status:               string(fraudCase.Status),
		CreatedAt:            fraudCase.CreatedAt,
		AssignedArbitratorID: fraudCase.AssignedArbitratorID,
		AssignedAt:           fraudCase.AssignedAt,
		TimeRemaining:        fraudCase.TimeRemainingLabel(s.sla),
		Evidence:             fraudCase.Evidence,
	}

	if details, err := s.ledger.GetTransactionDetails(ctx, fraudCase.TransactionID); err == nil {
		view.TransactionContext = details
	} else {
		logger.Log.WithField("case_id", caseID).WithError(err).Warn("transaction context unavailable for review")
	}
	if deviation, err := s.behavior.AnalyzeDeviation(ctx, fraudCase.ReporterID, fraudCase.TransactionID); err == nil {
		view.BehaviorAnalysis = deviation
	}
	if confidence, err := s.scorer.GetFraudConfidence(ctx, caseID); err == nil {
		view.FraudRiskScore = &confidence
	}
	return view, nil
}

// ProcessDecision applies an arbitrator's verdict. A fraud_confirmed decision
// executes the reversal before the case is resolved, since the executor only
// acts on active cases; denial and insufficient-evidence decisions release the
// frozen tokens instead.
func (s *ArbitrationService) ProcessDecision(ctx context.Context, req dto.ArbitrationDecisionRequest) (*models.FraudCase, error) {
	resolution, err := models.ParseCaseResolution(req.Decision)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "unknown decision")
	}

	fraudCase, err := s.cases.GetByID(ctx, req.CaseID)
	if err != nil {
		return nil, err
	}
	if fraudCase.Status != models.StatusInvestigating {
		return nil, apperror.ErrInvalidCaseState
	}
	if !fraudCase.IsAssigned() || *fraudCase.AssignedArbitratorID != req.ArbitratorID {
		return nil, apperror.New(apperror.ErrCodeConflict, "case is not assigned to this arbitrator")
	}

	if len(req.AdditionalEvidence) > 0 {
		fraudCase.Evidence.Merge(models.CaseEvidence{
			Arbitrator: &models.ArbitratorEvidence{
				Notes:      req.AdditionalEvidence,
				RecordedAt: time.Now().UTC(),
			},
		})
		if err := s.cases.UpdateEvidence(ctx, req.CaseID, fraudCase.Evidence); err != nil {
			return nil, err
		}
	}

	reasoning := req.Reasoning
	switch resolution {
	case models.ResolutionFraudConfirmed:
		if err := s.executeDecisionReversal(ctx, fraudCase, req); err != nil {
			return nil, err
		}
	default:
		if err := s.ledger.UnfreezeTokens(ctx, fraudCase.TransactionID, fraudCase.CaseID); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "could not release frozen tokens")
		}
	}

	if err := s.cases.ResolveCase(ctx, req.CaseID, resolution, &reasoning); err != nil {
		return nil, err
	}
	fraudCase.Resolution = &resolution
	fraudCase.ResolutionReasoning = &reasoning
	fraudCase.Status = models.StatusResolved

	s.notifier.Notify(ctx, fraudCase.ReporterID, clients.NotifyArbitrationDecision, map[string]any{
		"caseId":     req.CaseID,
		"resolution": resolution,
		"reasoning":  reasoning,
	})
	s.events.Publish("case.resolved", map[string]any{
		"caseId":     req.CaseID,
		"resolution": resolution,
		"automated":  false,
	})

	logger.Log.WithFields(logrus.Fields{
		"case_id":       req.CaseID,
		"arbitrator_id": req.ArbitratorID,
		"resolution":    resolution,
	}).Info("arbitration decision processed")
	return fraudCase, nil
}

func (s *ArbitrationService) executeDecisionReversal(ctx context.Context, fraudCase *models.FraudCase, req dto.ArbitrationDecisionRequest) error {
	if err := s.tracker.StartReversal(fraudCase.CaseID); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeConflict, "reversal already in progress for this case")
	}

	_, err := s.reversal.ExecuteReversal(ctx, models.ReversalRequest{
		TransactionID: fraudCase.TransactionID,
		CaseID:        fraudCase.CaseID,
		Reason:        fmt.Sprintf("arbitration decision: %s", req.Reasoning),
		ReversalType:  models.ReversalTypeManualArbitration,
		Actor:         req.ArbitratorID.String(),
	})
	if err != nil {
		s.tracker.FailReversal(fraudCase.CaseID, err.Error())
		return err
	}
	s.tracker.CompleteReversal(fraudCase.CaseID)
	return nil
}

// ListCasesForArbitrator returns an arbitrator's open workload.
func (s *ArbitrationService) ListCasesForArbitrator(ctx context.Context, arbitratorID uuid.UUID) ([]dto.ArbitrationCaseSummary, error) {
	cases, err := s.cases.ListByArbitrator(ctx, arbitratorID)
	if err != nil {
		return nil, err
	}
	return s.summarize(cases), nil
}

// ListUnassigned returns the queue of cases waiting for an arbitrator,
// highest priority first.
func (s *ArbitrationService) ListUnassigned(ctx context.Context) ([]dto.ArbitrationCaseSummary, error) {
	cases, err := s.cases.FindUnassigned(ctx)
	if err != nil {
		return nil, err
	}
	return s.summarize(cases), nil
}

// CheckOverdueCases escalates investigating cases past the arbitration
// deadline. Escalation stamps escalatedAt once and alerts oversight; the case
// keeps its status so a late decision still lands normally.
func (s *ArbitrationService) CheckOverdueCases(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.sla)
	overdue, err := s.cases.FindNeedingEscalation(ctx, cutoff)
	if err != nil {
		logger.Log.WithError(err).Error("escalation sweep could not list overdue cases")
		return
	}

	for i := range overdue {
		fraudCase := &overdue[i]
		if err := s.cases.MarkEscalated(ctx, fraudCase.CaseID); err != nil {
			// A concurrent sweep or a resolution won the race; nothing to do.
			logger.Log.WithField("case_id", fraudCase.CaseID).WithError(err).Debug("escalation skipped")
			continue
		}

		s.notifier.NotifyOversight(ctx, clients.NotifyEscalationAlert, map[string]any{
			"caseId":    fraudCase.CaseID,
			"priority":  fraudCase.Priority,
			"createdAt": fraudCase.CreatedAt,
			"overdueBy": time.Since(fraudCase.CreatedAt.Add(s.sla)).String(),
		})
		s.notifier.Notify(ctx, fraudCase.ReporterID, clients.NotifyCaseStatusUpdate, map[string]any{
			"caseId":  fraudCase.CaseID,
			"message": "Your case is taking longer than expected and has been escalated.",
		})
		s.events.Publish("case.escalated", fraudCase)

		logger.Log.WithFields(logrus.Fields{
			"case_id":  fraudCase.CaseID,
			"priority": fraudCase.Priority,
		}).Warn("case escalated past arbitration deadline")
	}
}

// Statistics summarizes the arbitration workload.
func (s *ArbitrationService) Statistics(ctx context.Context) (*dto.ArbitrationStatistics, error) {
	active, err := s.cases.ListActive(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.cases.CountActiveByPriority(ctx)
	if err != nil {
		return nil, err
	}
	byArbitrator, err := s.cases.CountActiveByArbitrator(ctx)
	if err != nil {
		return nil, err
	}

	stats := &dto.ArbitrationStatistics{
		TotalActiveCases:   len(active),
		CasesByPriority:    make(map[string]int, len(byPriority)),
		ArbitratorWorkload: make(map[string]int, len(byArbitrator)),
	}
	for i := range active {
		if active[i].IsAssigned() {
			stats.AssignedCases++
		} else if active[i].Status == models.StatusInvestigating {
			stats.UnassignedCases++
		}
		if active[i].IsOverdue(s.sla) {
			stats.OverdueCases++
		}
	}
	for priority, count := range byPriority {
		stats.CasesByPriority[string(priority)] = count
	}
	for arbitratorID, count := range byArbitrator {
		stats.ArbitratorWorkload[arbitratorID.String()] = count
	}
	return stats, nil
}

func (s *ArbitrationService) summarize(cases []models.FraudCase) []dto.ArbitrationCaseSummary {
	summaries := make([]dto.ArbitrationCaseSummary, 0, len(cases))
	for i := range cases {
		c := &cases[i]
		summaries = append(summaries, dto.ArbitrationCaseSummary{
			CaseID:        c.CaseID,
			TransactionID: c.TransactionID,
			CaseType:      string(c.CaseType),
			Priority:      string(c.Priority),
			CreatedAt:     c.CreatedAt,
			AssignedAt:    c.AssignedAt,
			TimeRemaining: c.TimeRemainingLabel(s.sla),
		})
	}
	return summaries
}
