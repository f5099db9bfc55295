package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mjgskyblade/echopay-sub000/internal/clients"
	"github.com/mjgskyblade/echopay-sub000/internal/logger"
	"github.com/mjgskyblade/echopay-sub000/internal/models"
	"github.com/mjgskyblade/echopay-sub000/internal/pkg/apperror"
)

// ReversalPolicy carries the automated-loop tuning knobs.
type ReversalPolicy struct {
	// AutoThreshold is the fraud confidence required for an automated reversal.
	AutoThreshold float64
	// MinAge keeps freshly opened cases out of the automated loop so evidence
	// collection and early human review get a chance first.
	MinAge time.Duration
}

// ReversalService executes token reversals and runs the automated fraud loop.
// Every executed reversal leaves an immutable audit record; every attempt is
// timed by the tracker.
type ReversalService struct {
	cases    CaseStore
	audit    AuditStore
	ledger   Ledger
	scorer   Scorer
	tracker  *ReversalTracker
	notifier Notifier
	events   EventPublisher
	policy   ReversalPolicy
}

func NewReversalService(cases CaseStore, audit AuditStore, ledger Ledger, scorer Scorer,
	tracker *ReversalTracker, notifier Notifier, events EventPublisher, policy ReversalPolicy) *ReversalService {
	return &ReversalService{
		cases:    cases,
		audit:    audit,
		ledger:   ledger,
		scorer:   scorer,
		tracker:  tracker,
		notifier: notifier,
		events:   events,
		policy:   policy,
	}
}

// ExecuteReversal runs the full reversal sequence: invalidate the fraudulent
// tokens, reissue clean tokens to the victim's wallet, mark the transaction
// reversed and write the audit record. Order matters: invalidation precedes
// reissuance so value is never duplicated mid-failure.
func (s *ReversalService) ExecuteReversal(ctx context.Context, req models.ReversalRequest) (*models.ReversalResult, error) {
	eligible, err := s.ledger.IsEligibleForReversal(ctx, req.TransactionID)
	if err != nil {
		return nil, apperror.NewReversalFailed(err, "could not validate reversal eligibility")
	}
	if !eligible {
		return nil, apperror.New(apperror.ErrCodeReversalFailed, "transaction is not eligible for reversal")
	}

	fraudCase, err := s.cases.GetByID(ctx, req.CaseID)
	if err != nil {
		return nil, err
	}
	if !fraudCase.IsActive() {
		return nil, apperror.ErrCaseInactive
	}

	// The audit trail is the authoritative record of executed reversals; a
	// transaction with one is never reversed again.
	prior, err := s.audit.CountByTransaction(ctx, req.TransactionID)
	if err != nil {
		return nil, apperror.NewReversalFailed(err, "could not check reversal history")
	}
	if prior > 0 {
		return nil, apperror.New(apperror.ErrCodeReversalFailed, "transaction has already been reversed")
	}

	details, err := s.ledger.GetTransactionDetails(ctx, req.TransactionID)
	if err != nil {
		return nil, apperror.NewReversalFailed(err, "could not load transaction details")
	}

	if err := s.ledger.InvalidateTokens(ctx, req.TransactionID); err != nil {
		return nil, apperror.NewReversalFailed(err, "token invalidation failed")
	}

	batchID, err := s.ledger.ReissueTokens(ctx, details.FromWallet, details.Amount, req.CaseID)
	if err != nil {
		return nil, apperror.NewReversalFailed(err, "token reissuance failed")
	}

	if err := s.ledger.MarkReversed(ctx, req.TransactionID, req.CaseID); err != nil {
		return nil, apperror.NewReversalFailed(err, "could not mark transaction reversed")
	}

	record := &models.ReversalAuditRecord{
		ReversalID:      uuid.New(),
		TransactionID:   req.TransactionID,
		CaseID:          req.CaseID,
		Amount:          details.Amount,
		NewTokenBatchID: batchID,
		Reason:          req.Reason,
		ReversalType:    req.ReversalType,
		ExecutedBy:      req.Actor,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.audit.Insert(ctx, record); err != nil {
		// The ledger already reversed; losing the audit row is the worse
		// failure, so it is surfaced rather than swallowed.
		return nil, apperror.NewReversalFailed(err, "could not write reversal audit record")
	}

	result := &models.ReversalResult{
		ReversalID:      record.ReversalID,
		TransactionID:   req.TransactionID,
		CaseID:          req.CaseID,
		ReversedAmount:  details.Amount,
		NewTokenBatchID: batchID,
		Timestamp:       record.CreatedAt,
	}

	logger.Log.WithFields(logrus.Fields{
		"case_id":        req.CaseID,
		"transaction_id": req.TransactionID,
		"reversal_id":    record.ReversalID,
		"amount":         details.Amount,
		"type":           req.ReversalType,
	}).Info("reversal executed")

	s.events.Publish("reversal.executed", result)
	return result, nil
}

// ProcessAutomatedReversals runs one iteration of the automated fraud loop.
// High-confidence cases are reversed and resolved as fraud_confirmed; failed
// executions escalate to oversight while the case stays under investigation.
func (s *ReversalService) ProcessAutomatedReversals(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.policy.MinAge)
	candidates, err := s.cases.FindForAutomatedResolution(ctx, cutoff)
	if err != nil {
		logger.Log.WithError(err).Error("automated reversal loop could not list candidates")
		return
	}

	for i := range candidates {
		s.processCandidate(ctx, &candidates[i])
	}
}

func (s *ReversalService) processCandidate(ctx context.Context, fraudCase *models.FraudCase) {
	confidence, err := s.scorer.GetFraudConfidence(ctx, fraudCase.CaseID)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"case_id": fraudCase.CaseID,
			"error":   err.Error(),
		}).Warn("fraud confidence unavailable, skipping case")
		return
	}

	if confidence < s.policy.AutoThreshold {
		logger.Log.WithFields(logrus.Fields{
			"case_id":    fraudCase.CaseID,
			"confidence": confidence,
		}).Debug("confidence below automated threshold, left for arbitration")
		return
	}

	if err := s.tracker.StartReversal(fraudCase.CaseID); err != nil {
		logger.Log.WithField("case_id", fraudCase.CaseID).Warn("reversal already in flight, skipping")
		return
	}

	reason := fmt.Sprintf("automated reversal - fraud confidence %.2f", confidence)
	_, err = s.ExecuteReversal(ctx, models.ReversalRequest{
		TransactionID: fraudCase.TransactionID,
		CaseID:        fraudCase.CaseID,
		Reason:        reason,
		ReversalType:  models.ReversalTypeAutomatedFraud,
		Actor:         models.SystemActor,
	})
	if err != nil {
		s.tracker.FailReversal(fraudCase.CaseID, err.Error())
		logger.Log.WithFields(logrus.Fields{
			"case_id": fraudCase.CaseID,
			"error":   err.Error(),
		}).Error("automated reversal failed, escalating for manual review")
		s.notifier.NotifyOversight(ctx, clients.NotifyEscalationAlert, map[string]any{
			"caseId": fraudCase.CaseID,
			"reason": "automated reversal failure",
			"error":  err.Error(),
		})
		return
	}

	if err := s.cases.ResolveCase(ctx, fraudCase.CaseID, models.ResolutionFraudConfirmed, &reason); err != nil {
		// The reversal itself is done and audited, so it still counts as
		// completed; only the case resolution is outstanding.
		logger.Log.WithFields(logrus.Fields{
			"case_id": fraudCase.CaseID,
			"error":   err.Error(),
		}).Error("could not resolve case after automated reversal")
		s.tracker.CompleteReversal(fraudCase.CaseID)
		return
	}
	s.tracker.CompleteReversal(fraudCase.CaseID)

	s.notifier.Notify(ctx, fraudCase.ReporterID, clients.NotifyReversalCompletion, map[string]any{
		"caseId":        fraudCase.CaseID,
		"transactionId": fraudCase.TransactionID,
		"resolution":    models.ResolutionFraudConfirmed,
	})
	s.events.Publish("case.resolved", map[string]any{
		"caseId":     fraudCase.CaseID,
		"resolution": models.ResolutionFraudConfirmed,
		"automated":  true,
	})
}

// RequestReversal executes a caller-initiated reversal with timing tracked.
// The case stays under investigation; closing it out remains an arbitration
// or operator action.
func (s *ReversalService) RequestReversal(ctx context.Context, req models.ReversalRequest) (*models.ReversalResult, error) {
	if err := s.tracker.StartReversal(req.CaseID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeConflict, "reversal already in progress for this case")
	}

	result, err := s.ExecuteReversal(ctx, req)
	if err != nil {
		s.tracker.FailReversal(req.CaseID, err.Error())
		return nil, err
	}
	s.tracker.CompleteReversal(req.CaseID)
	return result, nil
}

// Statistics reports the reversal timing figures.
func (s *ReversalService) Statistics() models.ReversalStatistics {
	return s.tracker.Statistics()
}

// AuditTrail lists the immutable reversal records for a case.
func (s *ReversalService) AuditTrail(ctx context.Context, caseID uuid.UUID) ([]models.ReversalAuditRecord, error) {
	return s.audit.ListByCase(ctx, caseID)
}
