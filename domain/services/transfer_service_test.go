package services

import (
	"context"
	"testing"

	"crowdfund/domain/entities"
	"crowdfund/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTransferService_Transfer_RescalesWithdrawn(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockAccountRepo := new(testhelpers.MockAccountRepository)
	mockLedgerRepo := new(testhelpers.MockLedgerEntryRepository)
	mockPublisher := new(testhelpers.MockEventPublisher)

	campaign := fundedCampaign()
	service := NewTransferService(mockCampaignRepo, mockAccountRepo, mockLedgerRepo, mockPublisher)

	sender := &entities.CampaignAccount{
		CampaignID:   1,
		Address:      "alice",
		ShareBalance: 100,
		Withdrawn:    10,
	}
	receiver := &entities.CampaignAccount{
		CampaignID: 1,
		Address:    "bob",
	}

	mockCampaignRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(campaign, nil)
	mockAccountRepo.On("GetByAddress", ctx, int64(1), "alice").Return(sender, nil)
	mockAccountRepo.On("GetOrCreate", ctx, int64(1), "bob").Return(receiver, nil)
	mockAccountRepo.On("Update", ctx, mock.MatchedBy(func(a *entities.CampaignAccount) bool {
		return a.Address == "alice" && a.ShareBalance == 50 && a.Withdrawn == 5
	})).Return(nil)
	mockAccountRepo.On("Update", ctx, mock.MatchedBy(func(a *entities.CampaignAccount) bool {
		return a.Address == "bob" && a.ShareBalance == 50 && a.Withdrawn == 5
	})).Return(nil)
	mockLedgerRepo.On("Record", ctx, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.EntryType == entities.EntryTypeTransferOut && e.Amount == 50
	})).Return(nil)
	mockLedgerRepo.On("Record", ctx, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.EntryType == entities.EntryTypeTransferIn && e.Amount == 50
	})).Return(nil)
	mockPublisher.On("Publish", mock.AnythingOfType("events.ShareTransferEvent")).Return(nil)

	err := service.Transfer(ctx, 1, "alice", "bob", 50)

	require.NoError(t, err)
	mockAccountRepo.AssertExpectations(t)
	mockLedgerRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestTransferService_Transfer_SelfTransferIsNoop(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockAccountRepo := new(testhelpers.MockAccountRepository)
	mockLedgerRepo := new(testhelpers.MockLedgerEntryRepository)
	mockPublisher := new(testhelpers.MockEventPublisher)

	service := NewTransferService(mockCampaignRepo, mockAccountRepo, mockLedgerRepo, mockPublisher)

	err := service.Transfer(ctx, 1, "alice", "alice", 50)

	require.NoError(t, err)
	mockCampaignRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
}

func TestTransferService_Transfer_InsufficientBalance(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockAccountRepo := new(testhelpers.MockAccountRepository)
	mockLedgerRepo := new(testhelpers.MockLedgerEntryRepository)
	mockPublisher := new(testhelpers.MockEventPublisher)

	campaign := fundedCampaign()
	service := NewTransferService(mockCampaignRepo, mockAccountRepo, mockLedgerRepo, mockPublisher)

	mockCampaignRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(campaign, nil)
	mockAccountRepo.On("GetByAddress", ctx, int64(1), "alice").Return(&entities.CampaignAccount{
		ShareBalance: 40,
	}, nil)

	err := service.Transfer(ctx, 1, "alice", "bob", 50)

	assert.ErrorIs(t, err, entities.ErrNoBalance)
	mockAccountRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestTransferService_Transfer_UnknownSender(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockAccountRepo := new(testhelpers.MockAccountRepository)
	mockLedgerRepo := new(testhelpers.MockLedgerEntryRepository)
	mockPublisher := new(testhelpers.MockEventPublisher)

	campaign := fundedCampaign()
	service := NewTransferService(mockCampaignRepo, mockAccountRepo, mockLedgerRepo, mockPublisher)

	mockCampaignRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(campaign, nil)
	mockAccountRepo.On("GetByAddress", ctx, int64(1), "ghost").Return(nil, nil)

	err := service.Transfer(ctx, 1, "ghost", "bob", 50)

	assert.ErrorIs(t, err, entities.ErrNoBalance)
}
