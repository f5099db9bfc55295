package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// UserReportEvidence is the reporter's narrative filed at intake.
type UserReportEvidence struct {
	Description    string    `json:"description"`
	Screenshots    []string  `json:"screenshots,omitempty"`
	AdditionalInfo string    `json:"additionalInfo,omitempty"`
	ReportedAt     time.Time `json:"reportedAt"`
}

// TransactionContextEvidence is gathered from the ledger collaborator.
type TransactionContextEvidence struct {
	Details             map[string]any `json:"details,omitempty"`
	RelatedTransactions map[string]any `json:"relatedTransactions,omitempty"`
	FraudScore          *float64       `json:"fraudScore,omitempty"`
	TimingAnomalies     map[string]any `json:"timingAnomalies,omitempty"`
	Err                 string         `json:"error,omitempty"`
}

// BehaviorEvidence captures deviation from the reporter's typical patterns.
type BehaviorEvidence struct {
	TypicalPatterns map[string]any `json:"typicalPatterns,omitempty"`
	Deviation       map[string]any `json:"deviation,omitempty"`
	RecentActivity  map[string]any `json:"recentActivity,omitempty"`
	Err             string         `json:"error,omitempty"`
}

// SystemLogEvidence holds log excerpts bounded around case creation.
type SystemLogEvidence struct {
	AuthenticationLogs map[string]any `json:"authenticationLogs,omitempty"`
	APIAccessLogs      map[string]any `json:"apiAccessLogs,omitempty"`
	ErrorLogs          map[string]any `json:"errorLogs,omitempty"`
	Err                string         `json:"error,omitempty"`
}

// DeviceEvidence holds device fingerprint and location context.
type DeviceEvidence struct {
	Fingerprint map[string]any `json:"fingerprint,omitempty"`
	Location    map[string]any `json:"location,omitempty"`
	Session     map[string]any `json:"session,omitempty"`
	Err         string         `json:"error,omitempty"`
}

// ArbitratorEvidence is attached by a human arbitrator with a decision.
type ArbitratorEvidence struct {
	Notes      map[string]any `json:"notes,omitempty"`
	RecordedAt time.Time      `json:"recordedAt"`
}

// CaseEvidence is the case's evidence bag: one typed section per source plus
// an open additive map for operator-supplied keys. Sections merge later-wins;
// prior sections are never dropped by a merge.
type CaseEvidence struct {
	UserReport         *UserReportEvidence         `json:"userReport,omitempty"`
	TransactionContext *TransactionContextEvidence `json:"transactionContext,omitempty"`
	Behavior           *BehaviorEvidence           `json:"behaviorAnalysis,omitempty"`
	SystemLogs         *SystemLogEvidence          `json:"systemLogs,omitempty"`
	Device             *DeviceEvidence             `json:"deviceInfo,omitempty"`
	Arbitrator         *ArbitratorEvidence         `json:"arbitratorEvidence,omitempty"`
	CollectedAt        *time.Time                  `json:"evidenceCollectedAt,omitempty"`
	Additional         map[string]any              `json:"additional,omitempty"`
}

// Merge applies other on top of the receiver. Sections set in other replace
// the corresponding section; additional keys are merged with later keys
// winning. Nothing already present is lost unless overwritten by name.
func (e *CaseEvidence) Merge(other CaseEvidence) {
	if other.UserReport != nil {
		e.UserReport = other.UserReport
	}
	if other.TransactionContext != nil {
		e.TransactionContext = other.TransactionContext
	}
	if other.Behavior != nil {
		e.Behavior = other.Behavior
	}
	if other.SystemLogs != nil {
		e.SystemLogs = other.SystemLogs
	}
	if other.Device != nil {
		e.Device = other.Device
	}
	if other.Arbitrator != nil {
		e.Arbitrator = other.Arbitrator
	}
	if other.CollectedAt != nil {
		e.CollectedAt = other.CollectedAt
	}
	if len(other.Additional) > 0 {
		if e.Additional == nil {
			e.Additional = make(map[string]any, len(other.Additional))
		}
		for k, v := range other.Additional {
			e.Additional[k] = v
		}
	}
}

// IsEmpty reports whether no evidence has been recorded yet.
func (e CaseEvidence) IsEmpty() bool {
	return e.UserReport == nil && e.TransactionContext == nil && e.Behavior == nil &&
		e.SystemLogs == nil && e.Device == nil && e.Arbitrator == nil &&
		e.CollectedAt == nil && len(e.Additional) == 0
}

// Value serializes the evidence bag to JSONB.
func (e CaseEvidence) Value() (driver.Value, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("evidence: marshal: %w", err)
	}
	return raw, nil
}

// Scan deserializes the evidence bag from JSONB.
func (e *CaseEvidence) Scan(src interface{}) error {
	if src == nil {
		*e = CaseEvidence{}
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("evidence: unsupported scan type %T", src)
	}

	return json.Unmarshal(raw, e)
}
