package testhelpers

import (
	"context"
	"time"

	"crowdfund/domain/entities"
	"crowdfund/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockCampaignRepository is a mock implementation of CampaignRepository
type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) Create(ctx context.Context, campaign *entities.Campaign) error {
	args := m.Called(ctx, campaign)
	return args.Error(0)
}

func (m *MockCampaignRepository) GetByID(ctx context.Context, id int64) (*entities.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) Update(ctx context.Context, campaign *entities.Campaign) error {
	args := m.Called(ctx, campaign)
	return args.Error(0)
}

func (m *MockCampaignRepository) GetUnresolvedPastEnd(ctx context.Context, now time.Time) ([]*entities.Campaign, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Campaign), args.Error(1)
}

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByAddress(ctx context.Context, campaignID int64, address string) (*entities.CampaignAccount, error) {
	args := m.Called(ctx, campaignID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CampaignAccount), args.Error(1)
}

func (m *MockAccountRepository) GetOrCreate(ctx context.Context, campaignID int64, address string) (*entities.CampaignAccount, error) {
	args := m.Called(ctx, campaignID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CampaignAccount), args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, account *entities.CampaignAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) ListByCampaign(ctx context.Context, campaignID int64) ([]*entities.CampaignAccount, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.CampaignAccount), args.Error(1)
}

func (m *MockAccountRepository) SumShareBalances(ctx context.Context, campaignID int64) (int64, error) {
	args := m.Called(ctx, campaignID)
	return args.Get(0).(int64), args.Error(1)
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) GetByCampaign(ctx context.Context, campaignID int64, limit int) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, campaignID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) GetByAccount(ctx context.Context, campaignID int64, address string, limit int) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, campaignID, address, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockTransport is a mock implementation of Transport
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) TransferIn(ctx context.Context, denom entities.Denomination, from string, amount int64) (int64, error) {
	args := m.Called(ctx, denom, from, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransport) TransferOut(ctx context.Context, denom entities.Denomination, to string, amount int64) error {
	args := m.Called(ctx, denom, to, amount)
	return args.Error(0)
}
