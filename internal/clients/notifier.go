package clients

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mjgskyblade/echopay-sub000/internal/logger"
)

// Notification kinds sent by the dispute core.
const (
	NotifyFraudReportConfirmation = "fraud_report_confirmation"
	NotifyCaseStatusUpdate        = "case_status_update"
	NotifyReversalCompletion      = "reversal_completion"
	NotifyArbitrationAssignment   = "arbitration_assignment"
	NotifyArbitrationDecision     = "arbitration_decision"
	NotifyEscalationAlert         = "escalation_alert"
)

// Notifier delivers user and oversight notifications through the messaging
// collaborator. Delivery is best-effort: failures are logged, never
// propagated, because signaling must not affect case correctness.
type Notifier struct {
	httpClient
}

func NewNotifier(baseURL string, timeout time.Duration) *Notifier {
	return &Notifier{newHTTPClient(baseURL, timeout)}
}

// Notify sends a notification and swallows any error after logging it.
func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any) {
	body := map[string]any{
		"userId":  userID,
		"kind":    kind,
		"payload": payload,
	}
	if err := n.doJSON(ctx, http.MethodPost, "/api/v1/notifications", body, nil); err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"user_id": userID,
				"kind":    kind,
				"error":   err.Error(),
			}).Warn("notification delivery failed")
		}
	}
}

// NotifyOversight alerts the management/oversight channel about an SLA
// breach. Same best-effort contract as Notify.
func (n *Notifier) NotifyOversight(ctx context.Context, kind string, payload map[string]any) {
	body := map[string]any{
		"channel": "fraud-oversight",
		"kind":    kind,
		"payload": payload,
	}
	if err := n.doJSON(ctx, http.MethodPost, "/api/v1/notifications/channel", body, nil); err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"kind":  kind,
				"error": err.Error(),
			}).Warn("oversight notification delivery failed")
		}
	}
}
