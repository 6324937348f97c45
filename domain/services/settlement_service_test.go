package services

import (
	"context"
	"testing"
	"time"

	"crowdfund/domain/entities"
	"crowdfund/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSettlementService_Settle_WithUpfrontFee(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockLedgerRepo := new(testhelpers.MockLedgerEntryRepository)
	mockTransport := new(testhelpers.MockTransport)
	mockPublisher := new(testhelpers.MockEventPublisher)

	campaign := testCampaign()
	campaign.FeeCollector = strPtr("collector-1")
	campaign.UpfrontFeeBips = 100 // 1%
	campaign.DepositTotal = 10_000

	clock := testhelpers.NewFixedClock(campaign.EndsAt)
	service := NewSettlementService(mockCampaignRepo, mockLedgerRepo, mockTransport, mockPublisher, clock)

	mockCampaignRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(campaign, nil)
	mockCampaignRepo.On("Update", ctx, mock.MatchedBy(func(c *entities.Campaign) bool {
		return c.State == entities.CampaignStateFunded &&
			c.Processed &&
			c.CollectorAccrued == 100
	})).Return(nil)
	mockLedgerRepo.On("Record", ctx, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.EntryType == entities.EntryTypeSettlement && e.Amount == 9_900
	})).Return(nil)
	mockLedgerRepo.On("Record", ctx, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.EntryType == entities.EntryTypeUpfrontFee && e.Amount == 100
	})).Return(nil)
	mockTransport.On("TransferOut", ctx, campaign.Denomination, "recipient-1", int64(9_900)).Return(nil)
	mockTransport.On("TransferOut", ctx, campaign.Denomination, "collector-1", int64(100)).Return(nil)
	mockPublisher.On("Publish", mock.AnythingOfType("events.SettledEvent")).Return(nil)

	result, err := service.Settle(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, entities.CampaignStateFunded, result.State)
	assert.Equal(t, int64(10_000), result.DepositTotal, "deposit total stays as the yield denominator")

	mockCampaignRepo.AssertExpectations(t)
	mockLedgerRepo.AssertExpectations(t)
	mockTransport.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestSettlementService_Settle_NoFeeSingleLeg(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockLedgerRepo := new(testhelpers.MockLedgerEntryRepository)
	mockTransport := new(testhelpers.MockTransport)
	mockPublisher := new(testhelpers.MockEventPublisher)

	campaign := testCampaign()
	campaign.DepositTotal = campaign.GoalMax // early settlement

	clock := midWindow(campaign)
	service := NewSettlementService(mockCampaignRepo, mockLedgerRepo, mockTransport, mockPublisher, clock)

	mockCampaignRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(campaign, nil)
	mockCampaignRepo.On("Update", ctx, mock.Anything).Return(nil)
	mockLedgerRepo.On("Record", ctx, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.EntryType == entities.EntryTypeSettlement && e.Amount == 10_000
	})).Return(nil)
	mockTransport.On("TransferOut", ctx, campaign.Denomination, "recipient-1", int64(10_000)).Return(nil)
	mockPublisher.On("Publish", mock.AnythingOfType("events.SettledEvent")).Return(nil)

	_, err := service.Settle(ctx, 1)

	require.NoError(t, err)
	mockTransport.AssertNumberOfCalls(t, "TransferOut", 1)
}

func TestSettlementService_Settle_GateNotMet(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockLedgerRepo := new(testhelpers.MockLedgerEntryRepository)
	mockTransport := new(testhelpers.MockTransport)
	mockPublisher := new(testhelpers.MockEventPublisher)

	campaign := testCampaign()
	campaign.DepositTotal = campaign.GoalMin // met, but window still open

	clock := midWindow(campaign)
	service := NewSettlementService(mockCampaignRepo, mockLedgerRepo, mockTransport, mockPublisher, clock)

	mockCampaignRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(campaign, nil)

	_, err := service.Settle(ctx, 1)

	assert.ErrorIs(t, err, entities.ErrWindowClosed)
	mockTransport.AssertNotCalled(t, "TransferOut", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementService_Settle_AlreadyResolved(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockLedgerRepo := new(testhelpers.MockLedgerEntryRepository)
	mockTransport := new(testhelpers.MockTransport)
	mockPublisher := new(testhelpers.MockEventPublisher)

	campaign := testCampaign()
	campaign.DepositTotal = campaign.GoalMax
	campaign.MarkFunded()

	clock := midWindow(campaign)
	service := NewSettlementService(mockCampaignRepo, mockLedgerRepo, mockTransport, mockPublisher, clock)

	mockCampaignRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(campaign, nil)

	_, err := service.Settle(ctx, 1)

	assert.ErrorIs(t, err, entities.ErrInvalidState)
}

func TestSettlementService_Settle_TransportFailure(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockLedgerRepo := new(testhelpers.MockLedgerEntryRepository)
	mockTransport := new(testhelpers.MockTransport)
	mockPublisher := new(testhelpers.MockEventPublisher)

	campaign := testCampaign()
	campaign.DepositTotal = campaign.GoalMax

	clock := midWindow(campaign)
	service := NewSettlementService(mockCampaignRepo, mockLedgerRepo, mockTransport, mockPublisher, clock)

	mockCampaignRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(campaign, nil)
	mockCampaignRepo.On("Update", ctx, mock.Anything).Return(nil)
	mockLedgerRepo.On("Record", ctx, mock.Anything).Return(nil)
	mockTransport.On("TransferOut", ctx, campaign.Denomination, "recipient-1", int64(10_000)).Return(assert.AnError)

	_, err := service.Settle(ctx, 1)

	assert.ErrorIs(t, err, entities.ErrTransport)
	mockPublisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestSettlementService_ReleaseFailed_GoalUnmet(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockLedgerRepo := new(testhelpers.MockLedgerEntryRepository)
	mockTransport := new(testhelpers.MockTransport)
	mockPublisher := new(testhelpers.MockEventPublisher)

	campaign := testCampaign()
	campaign.DepositTotal = campaign.GoalMin - 1

	clock := testhelpers.NewFixedClock(campaign.EndsAt)
	service := NewSettlementService(mockCampaignRepo, mockLedgerRepo, mockTransport, mockPublisher, clock)

	mockCampaignRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(campaign, nil)
	mockCampaignRepo.On("Update", ctx, mock.MatchedBy(func(c *entities.Campaign) bool {
		return c.State == entities.CampaignStateFailed && c.Processed
	})).Return(nil)
	mockPublisher.On("Publish", mock.AnythingOfType("events.FailedEvent")).Return(nil)

	result, err := service.ReleaseFailed(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, entities.CampaignStateFailed, result.State)
	// Failure moves no funds; the pool stays held for withdrawals.
	mockTransport.AssertNotCalled(t, "TransferOut", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockLedgerRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestSettlementService_ReleaseFailed_StaleFundsFailsafe(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockLedgerRepo := new(testhelpers.MockLedgerEntryRepository)
	mockTransport := new(testhelpers.MockTransport)
	mockPublisher := new(testhelpers.MockEventPublisher)

	campaign := testCampaign()
	campaign.DepositTotal = campaign.GoalMin // goal met but never settled

	clock := testhelpers.NewFixedClock(campaign.EndsAt.Add(entities.StaleFundsGrace))
	service := NewSettlementService(mockCampaignRepo, mockLedgerRepo, mockTransport, mockPublisher, clock)

	mockCampaignRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(campaign, nil)
	mockCampaignRepo.On("Update", ctx, mock.Anything).Return(nil)
	mockPublisher.On("Publish", mock.AnythingOfType("events.FailedEvent")).Return(nil)

	result, err := service.ReleaseFailed(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, entities.CampaignStateFailed, result.State)
}

func TestSettlementService_ReleaseFailed_GateNotMet(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockLedgerRepo := new(testhelpers.MockLedgerEntryRepository)
	mockTransport := new(testhelpers.MockTransport)
	mockPublisher := new(testhelpers.MockEventPublisher)

	campaign := testCampaign()
	campaign.DepositTotal = campaign.GoalMin

	// Goal met and still inside the grace period: only Settle may resolve.
	clock := testhelpers.NewFixedClock(campaign.EndsAt.Add(time.Hour))
	service := NewSettlementService(mockCampaignRepo, mockLedgerRepo, mockTransport, mockPublisher, clock)

	mockCampaignRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(campaign, nil)

	_, err := service.ReleaseFailed(ctx, 1)

	assert.ErrorIs(t, err, entities.ErrWindowClosed)
	mockCampaignRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
