package application

import (
	"context"
	"fmt"

	"crowdfund/domain/entities"
	"crowdfund/domain/interfaces"
	"crowdfund/domain/services"
)

// CampaignApp is the transactional entry point for campaign operations.
// Each call runs inside its own unit of work; staged events reach NATS only
// after the transaction commits.
type CampaignApp struct {
	uowFactory UnitOfWorkFactory
	transport  interfaces.Transport
	clock      interfaces.Clock
}

// NewCampaignApp creates a new campaign application facade
func NewCampaignApp(uowFactory UnitOfWorkFactory, transport interfaces.Transport, clock interfaces.Clock) *CampaignApp {
	return &CampaignApp{
		uowFactory: uowFactory,
		transport:  transport,
		clock:      clock,
	}
}

// CreateCampaign validates parameters and creates a new funding-state campaign
func (a *CampaignApp) CreateCampaign(ctx context.Context, params entities.CampaignParams) (*entities.Campaign, error) {
	var campaign *entities.Campaign
	err := a.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		svc := services.NewCampaignService(
			uow.CampaignRepository(),
			uow.AccountRepository(),
			uow.EventBus(),
			a.clock,
		)
		var err error
		campaign, err = svc.CreateCampaign(ctx, params)
		return err
	})
	return campaign, err
}

// GetCampaign retrieves a campaign by ID
func (a *CampaignApp) GetCampaign(ctx context.Context, campaignID int64) (*entities.Campaign, error) {
	var campaign *entities.Campaign
	err := a.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		svc := services.NewCampaignService(
			uow.CampaignRepository(),
			uow.AccountRepository(),
			uow.EventBus(),
			a.clock,
		)
		var err error
		campaign, err = svc.GetCampaign(ctx, campaignID)
		return err
	})
	return campaign, err
}

// HasContribution reports whether the address ever contributed to the campaign
func (a *CampaignApp) HasContribution(ctx context.Context, campaignID int64, address string) (bool, error) {
	var has bool
	err := a.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		svc := services.NewCampaignService(
			uow.CampaignRepository(),
			uow.AccountRepository(),
			uow.EventBus(),
			a.clock,
		)
		var err error
		has, err = svc.HasContribution(ctx, campaignID, address)
		return err
	})
	return has, err
}

// Contribute admits a contribution and returns the updated account
func (a *CampaignApp) Contribute(ctx context.Context, campaignID int64, address string, amount int64) (*entities.CampaignAccount, error) {
	var account *entities.CampaignAccount
	err := a.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		svc := a.contributionService(uow)
		var err error
		account, err = svc.Contribute(ctx, campaignID, address, amount)
		return err
	})
	return account, err
}

// ContributionRange computes the legal single-contribution window for address
func (a *CampaignApp) ContributionRange(ctx context.Context, campaignID int64, address string) (int64, int64, error) {
	var min, max int64
	err := a.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		svc := a.contributionService(uow)
		var err error
		min, max, err = svc.ContributionRange(ctx, campaignID, address)
		return err
	})
	return min, max, err
}

// Settle resolves a campaign as funded and pays out the pool
func (a *CampaignApp) Settle(ctx context.Context, campaignID int64) (*entities.Campaign, error) {
	var campaign *entities.Campaign
	err := a.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		svc := a.settlementService(uow)
		var err error
		campaign, err = svc.Settle(ctx, campaignID)
		return err
	})
	return campaign, err
}

// ReleaseFailed resolves a campaign as failed, unlocking refunds
func (a *CampaignApp) ReleaseFailed(ctx context.Context, campaignID int64) (*entities.Campaign, error) {
	var campaign *entities.Campaign
	err := a.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		svc := a.settlementService(uow)
		var err error
		campaign, err = svc.ReleaseFailed(ctx, campaignID)
		return err
	})
	return campaign, err
}

// DepositYield receives post-settlement surplus into a funded campaign
func (a *CampaignApp) DepositYield(ctx context.Context, campaignID int64, from string, amount int64) error {
	return a.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		return a.yieldService(uow).DepositYield(ctx, campaignID, from, amount)
	})
}

// YieldBalance returns the address's accrued-but-unwithdrawn yield claim
func (a *CampaignApp) YieldBalance(ctx context.Context, campaignID int64, address string) (int64, error) {
	var balance int64
	err := a.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		var err error
		balance, err = a.yieldService(uow).YieldBalance(ctx, campaignID, address)
		return err
	})
	return balance, err
}

// Withdraw pays out the address's refund or yield claim
func (a *CampaignApp) Withdraw(ctx context.Context, campaignID int64, address string) (int64, error) {
	var paid int64
	err := a.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		var err error
		paid, err = a.yieldService(uow).Withdraw(ctx, campaignID, address)
		return err
	})
	return paid, err
}

// Transfer moves shares between accounts with withdrawal-credit rescaling
func (a *CampaignApp) Transfer(ctx context.Context, campaignID int64, from, to string, amount int64) error {
	return a.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		svc := services.NewTransferService(
			uow.CampaignRepository(),
			uow.AccountRepository(),
			uow.LedgerEntryRepository(),
			uow.EventBus(),
		)
		return svc.Transfer(ctx, campaignID, from, to, amount)
	})
}

func (a *CampaignApp) contributionService(uow UnitOfWork) interfaces.ContributionService {
	return services.NewContributionService(
		uow.CampaignRepository(),
		uow.AccountRepository(),
		uow.LedgerEntryRepository(),
		a.transport,
		uow.EventBus(),
		a.clock,
	)
}

func (a *CampaignApp) settlementService(uow UnitOfWork) interfaces.SettlementService {
	return services.NewSettlementService(
		uow.CampaignRepository(),
		uow.LedgerEntryRepository(),
		a.transport,
		uow.EventBus(),
		a.clock,
	)
}

func (a *CampaignApp) yieldService(uow UnitOfWork) interfaces.YieldService {
	return services.NewYieldService(
		uow.CampaignRepository(),
		uow.AccountRepository(),
		uow.LedgerEntryRepository(),
		a.transport,
		uow.EventBus(),
	)
}

// withUnitOfWork runs fn inside a transaction, committing on success
func (a *CampaignApp) withUnitOfWork(ctx context.Context, fn func(uow UnitOfWork) error) error {
	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
