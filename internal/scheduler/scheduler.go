package scheduler

import (
	"context"
	"time"

	"github.com/mjgskyblade/echopay-sub000/internal/goroutine"
	"github.com/mjgskyblade/echopay-sub000/internal/logger"
	"github.com/mjgskyblade/echopay-sub000/internal/service"
)

// Scheduler drives the two background loops: the automated reversal pass and
// the escalation sweep. Both run until the root context is cancelled.
type Scheduler struct {
	reversal    *service.ReversalService
	arbitration *service.ArbitrationService

	reversalInterval   time.Duration
	escalationInterval time.Duration
}

func New(reversal *service.ReversalService, arbitration *service.ArbitrationService,
	reversalInterval, escalationInterval time.Duration) *Scheduler {
	return &Scheduler{
		reversal:           reversal,
		arbitration:        arbitration,
		reversalInterval:   reversalInterval,
		escalationInterval: escalationInterval,
	}
}

// Start launches both loops in panic-safe goroutines.
func (s *Scheduler) Start(ctx context.Context) {
	goroutine.SafeGoWithContext(ctx, s.runAutomatedReversals)
	goroutine.SafeGoWithContext(ctx, s.runEscalationSweep)

	logger.Log.WithField("reversal_interval", s.reversalInterval.String()).
		WithField("escalation_interval", s.escalationInterval.String()).
		Info("background loops started")
}

func (s *Scheduler) runAutomatedReversals(ctx context.Context) {
	ticker := time.NewTicker(s.reversalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("automated reversal loop stopped")
			return
		case <-ticker.C:
			s.reversal.ProcessAutomatedReversals(ctx)
		}
	}
}

func (s *Scheduler) runEscalationSweep(ctx context.Context) {
	ticker := time.NewTicker(s.escalationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("escalation sweep stopped")
			return
		case <-ticker.C:
			s.arbitration.CheckOverdueCases(ctx)
		}
	}
}
