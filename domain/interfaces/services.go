package interfaces

import (
	"context"

	"crowdfund/domain/entities"
)

// CampaignService defines the interface for campaign lifecycle operations
type CampaignService interface {
	// CreateCampaign validates parameters and creates a funding-state campaign.
	// This is the one-shot initialization entry point the deployer calls.
	CreateCampaign(ctx context.Context, params entities.CampaignParams) (*entities.Campaign, error)

	// GetCampaign retrieves a campaign by ID
	GetCampaign(ctx context.Context, id int64) (*entities.Campaign, error)

	// HasContribution reports whether the address has a recorded non-zero
	// contribution to the campaign. Stable read for the badge registry.
	HasContribution(ctx context.Context, campaignID int64, address string) (bool, error)
}

// ContributionService defines the interface for contribution operations
type ContributionService interface {
	// Contribute admits a contribution of amount from address, crediting the
	// net amount the transport actually delivered
	Contribute(ctx context.Context, campaignID int64, address string, amount int64) (*entities.CampaignAccount, error)

	// ContributionRange computes the legal next single contribution window
	// for the address, (0, 0) when contribution is disallowed
	ContributionRange(ctx context.Context, campaignID int64, address string) (min, max int64, err error)
}

// SettlementService defines the interface for campaign resolution
type SettlementService interface {
	// Settle moves the pool (minus the upfront fee) to the recipient and
	// transitions the campaign to funded, one-shot
	Settle(ctx context.Context, campaignID int64) (*entities.Campaign, error)

	// ReleaseFailed transitions the campaign to failed, one-shot; funds stay
	// held for per-account withdrawal
	ReleaseFailed(ctx context.Context, campaignID int64) (*entities.Campaign, error)
}

// YieldService defines the interface for post-settlement yield accounting
type YieldService interface {
	// DepositYield receives post-settlement surplus into the campaign
	DepositYield(ctx context.Context, campaignID int64, from string, amount int64) error

	// YieldBalance returns the address's accrued-but-unwithdrawn yield claim
	YieldBalance(ctx context.Context, campaignID int64, address string) (int64, error)

	// Withdraw pays out the address's refund (failed campaign) or yield claim
	// (funded campaign) and returns the amount moved to the address
	Withdraw(ctx context.Context, campaignID int64, address string) (int64, error)
}

// TransferService defines the interface for share transfers
type TransferService interface {
	// Transfer moves amount shares between accounts, rescaling withdrawal
	// credit so yield claims stay proportional
	Transfer(ctx context.Context, campaignID int64, from, to string, amount int64) error
}
