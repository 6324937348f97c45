package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"crowdfund/application"
	"crowdfund/config"
	"crowdfund/database"
	"crowdfund/domain/events"
	"crowdfund/domain/services"
	"crowdfund/infrastructure"
	"crowdfund/infrastructure/observability"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting crowdfund service...")

	// Load configuration
	cfg := config.Get()

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize NATS
	log.Println("Connecting to NATS...")
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	subjectMapper := infrastructure.NewEventSubjectMapper()
	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, subjectMapper)
	if err := eventPublisher.EnsureDomainEventStream(); err != nil {
		return fmt.Errorf("failed to ensure domain event stream: %w", err)
	}

	// Initialize unit of work factory
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)
	registerMetricsHandlers(uowFactory)

	// Initialize treasury transport
	transport := infrastructure.NewTreasuryTransport(natsClient, cfg.TreasurySubjectPrefix, cfg.TreasuryTimeout)

	// Expose campaign operations over NATS request/reply
	clock := services.NewSystemClock()
	app := application.NewCampaignApp(uowFactory, transport, clock)
	commandSubscriber := infrastructure.NewCommandSubscriber(natsClient, app)
	if err := commandSubscriber.Start(ctx); err != nil {
		return fmt.Errorf("failed to start command subscriber: %w", err)
	}

	// Start the resolution worker that fails expired campaigns
	worker := application.NewResolutionWorker(uowFactory, transport, clock, cfg.ResolutionInterval)
	stopWorker := worker.Start(ctx)

	// Wait for context cancellation
	log.Printf("Service is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down service...")

	stopWorker()
	commandSubscriber.Stop()

	if err := natsClient.Close(); err != nil {
		log.Printf("Error closing NATS connection: %v", err)
	}

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.Printf("Error shutting down metrics: %v", err)
	}

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}

// registerMetricsHandlers records campaign activity counters off the domain
// events published through the unit of work
func registerMetricsHandlers(uowFactory *infrastructure.UnitOfWorkFactory) {
	uowFactory.RegisterLocalHandler(events.EventTypeContributionAccepted, func(ctx context.Context, e events.Event) error {
		if m := observability.GetMetrics(); m != nil {
			m.RecordContribution()
		}
		return nil
	})
	uowFactory.RegisterLocalHandler(events.EventTypeSettled, func(ctx context.Context, e events.Event) error {
		if m := observability.GetMetrics(); m != nil {
			m.RecordCampaignResolved(observability.OutcomeFunded)
		}
		return nil
	})
	uowFactory.RegisterLocalHandler(events.EventTypeFailed, func(ctx context.Context, e events.Event) error {
		if m := observability.GetMetrics(); m != nil {
			m.RecordCampaignResolved(observability.OutcomeFailed)
		}
		return nil
	})
	uowFactory.RegisterLocalHandler(events.EventTypeWithdrawn, func(ctx context.Context, e events.Event) error {
		m := observability.GetMetrics()
		if m == nil {
			return nil
		}
		if withdrawn, ok := e.(events.WithdrawnEvent); ok && withdrawn.Refund {
			m.RecordWithdrawal(observability.WithdrawalTypeRefund)
		} else {
			m.RecordWithdrawal(observability.WithdrawalTypeYield)
		}
		return nil
	})
	uowFactory.RegisterLocalHandler(events.EventTypeYieldDeposited, func(ctx context.Context, e events.Event) error {
		if m := observability.GetMetrics(); m != nil {
			m.RecordYieldDeposit()
		}
		return nil
	})
}
