package application

import (
	"context"
	"fmt"
	"time"

	"crowdfund/domain/entities"
	"crowdfund/domain/interfaces"
	"crowdfund/domain/services"

	log "github.com/sirupsen/logrus"
)

// ResolutionWorker resolves campaigns whose funding window has closed: it
// applies the failure unlock when the goal minimum was never met, and the
// stale-funds failsafe when a campaign sat unresolved past the grace period.
// Settlement itself stays caller-initiated; the worker only forces failures.
type ResolutionWorker struct {
	uowFactory UnitOfWorkFactory
	transport  interfaces.Transport
	clock      interfaces.Clock
	interval   time.Duration
}

// NewResolutionWorker creates a new resolution worker
func NewResolutionWorker(uowFactory UnitOfWorkFactory, transport interfaces.Transport, clock interfaces.Clock, interval time.Duration) *ResolutionWorker {
	return &ResolutionWorker{
		uowFactory: uowFactory,
		transport:  transport,
		clock:      clock,
		interval:   interval,
	}
}

// Start begins the resolution worker and returns a stop function
func (w *ResolutionWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Info("Resolution worker started")

		for {
			if err := w.ProcessUnresolved(ctx); err != nil {
				log.Errorf("Error processing unresolved campaigns: %v", err)
			}

			select {
			case <-ctx.Done():
				log.Info("Resolution worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Resolution worker shutting down (stop requested)...")
				return
			case <-time.After(w.interval):
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// ProcessUnresolved scans funding campaigns past their end time and releases
// every one whose failure unlock is currently callable, each in its own
// transaction
func (w *ResolutionWorker) ProcessUnresolved(ctx context.Context) error {
	now := w.clock.Now()

	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	candidates, err := uow.CampaignRepository().GetUnresolvedPastEnd(ctx, now)
	if err != nil {
		uow.Rollback()
		return fmt.Errorf("failed to list unresolved campaigns: %w", err)
	}
	uow.Rollback() // Close the read transaction

	if len(candidates) == 0 {
		return nil
	}

	var released, skipped, failed int
	for _, campaign := range candidates {
		if !campaign.CanReleaseFailed(now) {
			// Goal met, grace not yet elapsed: settlement is still the
			// recipient's to claim.
			skipped++
			continue
		}
		if err := w.releaseCampaign(ctx, campaign); err != nil {
			log.Errorf("Error releasing campaign %d: %v", campaign.ID, err)
			failed++
		} else {
			released++
		}
	}

	log.WithFields(log.Fields{
		"candidates": len(candidates),
		"released":   released,
		"skipped":    skipped,
		"failed":     failed,
	}).Info("Completed campaign resolution pass")

	return nil
}

// releaseCampaign applies the failure unlock to a single campaign
func (w *ResolutionWorker) releaseCampaign(ctx context.Context, campaign *entities.Campaign) error {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settlementService := services.NewSettlementService(
		uow.CampaignRepository(),
		uow.LedgerEntryRepository(),
		w.transport,
		uow.EventBus(),
		w.clock,
	)

	if _, err := settlementService.ReleaseFailed(ctx, campaign.ID); err != nil {
		return fmt.Errorf("failed to release campaign: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
