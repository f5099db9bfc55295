package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mjgskyblade/echopay-sub000/internal/clients"
	"github.com/mjgskyblade/echopay-sub000/internal/logger"
	"github.com/mjgskyblade/echopay-sub000/internal/models"
)

// logWindow bounds system log excerpts around case creation.
const logWindow = time.Hour

// recentActivityDays is how far back behavior activity is gathered.
const recentActivityDays = 7

// Related transactions this close to the disputed one count as rapid
// succession, a pattern typical of automated fraud.
const rapidSuccessionWindow = 5 * time.Minute

// Transactions between these UTC hours are flagged as unusual timing.
const (
	quietHoursStart = 23
	quietHoursEnd   = 6
)

// EvidenceService gathers context from the ledger, behavior and system log
// collaborators after a case opens. Collection is strictly best-effort: a
// failing source is recorded inside its own section and never fails the case.
type EvidenceService struct {
	cases    CaseStore
	ledger   Ledger
	behavior BehaviorAnalytics
	logs     SystemLogs
}

func NewEvidenceService(cases CaseStore, ledger Ledger, behavior BehaviorAnalytics, logs SystemLogs) *EvidenceService {
	return &EvidenceService{
		cases:    cases,
		ledger:   ledger,
		behavior: behavior,
		logs:     logs,
	}
}

// Collect gathers every evidence source for the case and merges the result
// into the stored evidence bag. Sections produced here overwrite earlier
// versions of themselves; everything else in the bag survives.
func (s *EvidenceService) Collect(ctx context.Context, fraudCase *models.FraudCase) {
	collected := models.CaseEvidence{
		TransactionContext: s.collectTransactionContext(ctx, fraudCase),
		Behavior:           s.collectBehavior(ctx, fraudCase),
		SystemLogs:         s.collectSystemLogs(ctx, fraudCase),
		Device:             s.collectDevice(ctx, fraudCase),
	}
	now := time.Now().UTC()
	collected.CollectedAt = &now

	// Re-read before merging so evidence added while collection ran is kept.
	current, err := s.cases.GetByID(ctx, fraudCase.CaseID)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"case_id": fraudCase.CaseID,
			"error":   err.Error(),
		}).Warn("evidence collection could not reload case")
		return
	}

	current.Evidence.Merge(collected)
	if err := s.cases.UpdateEvidence(ctx, fraudCase.CaseID, current.Evidence); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"case_id": fraudCase.CaseID,
			"error":   err.Error(),
		}).Warn("evidence collection could not persist")
		return
	}

	logger.Log.WithField("case_id", fraudCase.CaseID).Info("evidence collection completed")
}

func (s *EvidenceService) collectTransactionContext(ctx context.Context, fraudCase *models.FraudCase) *models.TransactionContextEvidence {
	section := &models.TransactionContextEvidence{}

	details, err := s.ledger.GetTransactionDetails(ctx, fraudCase.TransactionID)
	if err != nil {
		section.Err = err.Error()
		return section
	}
	section.Details = map[string]any{
		"amount":     details.Amount,
		"currency":   details.Currency,
		"fromWallet": details.FromWallet,
		"toWallet":   details.ToWallet,
		"timestamp":  details.Timestamp,
	}
	section.FraudScore = details.FraudScore
	section.TimingAnomalies = analyzeTiming(details)

	related, err := s.ledger.GetRelatedTransactions(ctx, fraudCase.TransactionID)
	if err != nil {
		section.Err = err.Error()
	} else {
		section.RelatedTransactions = related
	}
	return section
}

// analyzeTiming derives timing anomalies from the transaction details:
// whether it happened during quiet hours, how many related transactions fell
// within the rapid-succession window, and how long the ledger took to process
// it when that figure is available.
func analyzeTiming(details *clients.TransactionDetails) map[string]any {
	hour := details.Timestamp.UTC().Hour()

	rapid := 0
	for _, rel := range details.RelatedTransactions {
		raw, ok := rel["timestamp"].(string)
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			continue
		}
		gap := details.Timestamp.Sub(ts)
		if gap < 0 {
			gap = -gap
		}
		if gap <= rapidSuccessionWindow {
			rapid++
		}
	}

	anomalies := map[string]any{
		"unusualTime":     hour >= quietHoursStart || hour < quietHoursEnd,
		"rapidSuccession": rapid,
	}
	if details.ProcessingTimeMs != nil {
		anomalies["processingTimeMs"] = *details.ProcessingTimeMs
	}
	return anomalies
}

func (s *EvidenceService) collectBehavior(ctx context.Context, fraudCase *models.FraudCase) *models.BehaviorEvidence {
	section := &models.BehaviorEvidence{}

	if patterns, err := s.behavior.GetTypicalPatterns(ctx, fraudCase.ReporterID); err != nil {
		section.Err = err.Error()
	} else {
		section.TypicalPatterns = patterns
	}
	if deviation, err := s.behavior.AnalyzeDeviation(ctx, fraudCase.ReporterID, fraudCase.TransactionID); err != nil {
		section.Err = err.Error()
	} else {
		section.Deviation = deviation
	}
	if activity, err := s.behavior.GetRecentActivity(ctx, fraudCase.ReporterID, recentActivityDays); err != nil {
		section.Err = err.Error()
	} else {
		section.RecentActivity = activity
	}
	return section
}

func (s *EvidenceService) collectSystemLogs(ctx context.Context, fraudCase *models.FraudCase) *models.SystemLogEvidence {
	section := &models.SystemLogEvidence{}
	from := fraudCase.CreatedAt.Add(-logWindow)
	to := fraudCase.CreatedAt.Add(logWindow)

	if auth, err := s.logs.GetAuthenticationLogs(ctx, fraudCase.TransactionID, from, to); err != nil {
		section.Err = err.Error()
	} else {
		section.AuthenticationLogs = auth
	}
	if api, err := s.logs.GetAPIAccessLogs(ctx, fraudCase.TransactionID, from, to); err != nil {
		section.Err = err.Error()
	} else {
		section.APIAccessLogs = api
	}
	if errs, err := s.logs.GetErrorLogs(ctx, fraudCase.TransactionID, from, to); err != nil {
		section.Err = err.Error()
	} else {
		section.ErrorLogs = errs
	}
	return section
}

func (s *EvidenceService) collectDevice(ctx context.Context, fraudCase *models.FraudCase) *models.DeviceEvidence {
	section := &models.DeviceEvidence{}

	details, err := s.ledger.GetTransactionDetails(ctx, fraudCase.TransactionID)
	if err != nil {
		section.Err = err.Error()
		return section
	}
	section.Fingerprint = details.DeviceInfo
	section.Location = details.LocationInfo
	return section
}
