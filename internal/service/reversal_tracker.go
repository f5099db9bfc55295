package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mjgskyblade/echopay-sub000/internal/models"
)

// ReversalTracker records the timing of every reversal attempt against the
// 1-hour commitment. It owns its state independently of the case store; the
// two are correlated only by case id, so a timing bug can never corrupt case
// state.
type ReversalTracker struct {
	mu      sync.Mutex
	sla     time.Duration
	active  map[uuid.UUID]models.ReversalRecord
	history map[uuid.UUID]models.ReversalRecord
	now     func() time.Time
}

func NewReversalTracker(sla time.Duration) *ReversalTracker {
	return &ReversalTracker{
		sla:     sla,
		active:  make(map[uuid.UUID]models.ReversalRecord),
		history: make(map[uuid.UUID]models.ReversalRecord),
		now:     time.Now,
	}
}

// StartReversal opens a tracking record. At most one active record per case;
// a second start is a caller logic error and is rejected.
func (t *ReversalTracker) StartReversal(caseID uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.active[caseID]; exists {
		return fmt.Errorf("reversal already in progress for case %s", caseID)
	}

	t.active[caseID] = models.ReversalRecord{
		CaseID:    caseID,
		StartTime: t.now().UTC(),
		Status:    models.ReversalInProgress,
	}
	return nil
}

// CompleteReversal moves the active record to history as completed.
func (t *ReversalTracker) CompleteReversal(caseID uuid.UUID) {
	t.finish(caseID, models.ReversalCompleted, "")
}

// FailReversal moves the active record to history as failed.
func (t *ReversalTracker) FailReversal(caseID uuid.UUID, reason string) {
	t.finish(caseID, models.ReversalFailed, reason)
}

func (t *ReversalTracker) finish(caseID uuid.UUID, status models.ReversalStatus, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.active[caseID]
	if !ok {
		return
	}
	delete(t.active, caseID)

	end := t.now().UTC()
	record.EndTime = &end
	record.Duration = end.Sub(record.StartTime)
	record.Status = status
	record.FailureReason = reason
	t.history[caseID] = record
}

// Record returns the historical record for a case, if any.
func (t *ReversalTracker) Record(caseID uuid.UUID) (models.ReversalRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.history[caseID]
	return record, ok
}

// ActiveCount reports how many reversals are currently in flight.
func (t *ReversalTracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// WasWithinSLA reports whether a case's reversal completed inside the SLA.
func (t *ReversalTracker) WasWithinSLA(caseID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.history[caseID]
	return ok && record.Status == models.ReversalCompleted && record.Duration <= t.sla
}

// Statistics derives the operational signal for the 1-hour reversal
// commitment from the historical set.
func (t *ReversalTracker) Statistics() models.ReversalStatistics {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := models.ReversalStatistics{}
	var totalDuration time.Duration

	for _, record := range t.history {
		stats.TotalReversals++
		switch record.Status {
		case models.ReversalCompleted:
			stats.SuccessfulReversals++
			totalDuration += record.Duration
			if record.Duration <= t.sla {
				stats.WithinSLA++
			}
		case models.ReversalFailed:
			stats.FailedReversals++
		}
	}

	if stats.TotalReversals > 0 {
		stats.SuccessRate = float64(stats.SuccessfulReversals) / float64(stats.TotalReversals)
	}
	if stats.SuccessfulReversals > 0 {
		stats.SLAComplianceRate = float64(stats.WithinSLA) / float64(stats.SuccessfulReversals)
		stats.MeanDuration = totalDuration / time.Duration(stats.SuccessfulReversals)
	}
	return stats
}
