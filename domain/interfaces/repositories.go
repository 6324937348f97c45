package interfaces

import (
	"context"
	"time"

	"crowdfund/domain/entities"
	"crowdfund/domain/events"
)

// CampaignRepository defines the interface for campaign data access
type CampaignRepository interface {
	// Create persists a new campaign and assigns its ID
	Create(ctx context.Context, campaign *entities.Campaign) error

	// GetByID retrieves a campaign by ID, nil if absent
	GetByID(ctx context.Context, id int64) (*entities.Campaign, error)

	// GetByIDForUpdate retrieves a campaign and locks its row for the
	// duration of the enclosing transaction, serializing mutations
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Campaign, error)

	// Update persists the campaign's mutable fields (state, processed, totals)
	Update(ctx context.Context, campaign *entities.Campaign) error

	// GetUnresolvedPastEnd returns funding-state campaigns whose window
	// closed at or before now
	GetUnresolvedPastEnd(ctx context.Context, now time.Time) ([]*entities.Campaign, error)
}

// AccountRepository defines the interface for campaign account data access
type AccountRepository interface {
	// GetByAddress retrieves an account within a campaign, nil if absent
	GetByAddress(ctx context.Context, campaignID int64, address string) (*entities.CampaignAccount, error)

	// GetOrCreate retrieves an account or creates it with zero balances
	GetOrCreate(ctx context.Context, campaignID int64, address string) (*entities.CampaignAccount, error)

	// Update persists the account's balances
	Update(ctx context.Context, account *entities.CampaignAccount) error

	// ListByCampaign returns all accounts of a campaign
	ListByCampaign(ctx context.Context, campaignID int64) ([]*entities.CampaignAccount, error)

	// SumShareBalances returns the sum of all share balances of a campaign
	SumShareBalances(ctx context.Context, campaignID int64) (int64, error)
}

// LedgerEntryRepository defines the interface for the movement audit trail
type LedgerEntryRepository interface {
	// Record creates a new ledger entry
	Record(ctx context.Context, entry *entities.LedgerEntry) error

	// GetByCampaign returns the most recent entries of a campaign
	GetByCampaign(ctx context.Context, campaignID int64, limit int) ([]*entities.LedgerEntry, error)

	// GetByAccount returns the most recent entries of one account
	GetByAccount(ctx context.Context, campaignID int64, address string, limit int) ([]*entities.LedgerEntry, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	// Publish publishes an event
	Publish(event events.Event) error
}

// TransactionalEventPublisher extends EventPublisher with transactional semantics
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all pending events, called after a successful commit
	Flush(ctx context.Context) error

	// Discard drops all pending events, called on rollback
	Discard()
}

// Clock supplies the current time; injected so window and grace boundaries
// are testable
type Clock interface {
	Now() time.Time
}

// Transport moves value between external holders and the campaign pool. The
// treasury side may deduct its own transfer fee, so TransferIn reports the
// amount actually received.
type Transport interface {
	// TransferIn pulls amount from the holder into the pool and returns the
	// net amount received
	TransferIn(ctx context.Context, denom entities.Denomination, from string, amount int64) (int64, error)

	// TransferOut pushes amount from the pool to the holder
	TransferOut(ctx context.Context, denom entities.Denomination, to string, amount int64) error
}
