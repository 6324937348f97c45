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

func TestCampaignService_CreateCampaign_Success(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockAccountRepo := new(testhelpers.MockAccountRepository)
	mockPublisher := new(testhelpers.MockEventPublisher)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := testhelpers.NewFixedClock(start.Add(-time.Hour))
	service := NewCampaignService(mockCampaignRepo, mockAccountRepo, mockPublisher, clock)

	params := entities.CampaignParams{
		Recipient:       "recipient-1",
		GoalMin:         1_000,
		GoalMax:         10_000,
		ContributionMin: 10,
		ContributionMax: 5_000,
		StartsAt:        start,
		EndsAt:          start.Add(30 * 24 * time.Hour),
		Denomination:    entities.NativeDenomination(),
	}

	mockCampaignRepo.On("Create", ctx, mock.MatchedBy(func(c *entities.Campaign) bool {
		return c.State == entities.CampaignStateFunding && c.Recipient == "recipient-1"
	})).Return(nil)

	campaign, err := service.CreateCampaign(ctx, params)

	require.NoError(t, err)
	assert.Equal(t, entities.CampaignStateFunding, campaign.State)
	// No collector means no fee schedule to announce.
	mockPublisher.AssertNotCalled(t, "Publish", mock.Anything)
	mockCampaignRepo.AssertExpectations(t)
}

func TestCampaignService_CreateCampaign_PublishesFeeSchedule(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockAccountRepo := new(testhelpers.MockAccountRepository)
	mockPublisher := new(testhelpers.MockEventPublisher)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := testhelpers.NewFixedClock(start)
	service := NewCampaignService(mockCampaignRepo, mockAccountRepo, mockPublisher, clock)

	params := entities.CampaignParams{
		Recipient:       "recipient-1",
		FeeCollector:    strPtr("collector-1"),
		UpfrontFeeBips:  100,
		PayoutFeeBips:   50,
		GoalMin:         1_000,
		GoalMax:         10_000,
		ContributionMin: 10,
		ContributionMax: 5_000,
		StartsAt:        start,
		EndsAt:          start.Add(30 * 24 * time.Hour),
		Denomination:    entities.NativeDenomination(),
	}

	mockCampaignRepo.On("Create", ctx, mock.Anything).Return(nil)
	mockPublisher.On("Publish", mock.AnythingOfType("events.FeeScheduleAppliedEvent")).Return(nil)

	_, err := service.CreateCampaign(ctx, params)

	require.NoError(t, err)
	mockPublisher.AssertExpectations(t)
}

func TestCampaignService_CreateCampaign_InvalidParams(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockAccountRepo := new(testhelpers.MockAccountRepository)
	mockPublisher := new(testhelpers.MockEventPublisher)

	clock := testhelpers.NewFixedClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	service := NewCampaignService(mockCampaignRepo, mockAccountRepo, mockPublisher, clock)

	_, err := service.CreateCampaign(ctx, entities.CampaignParams{})

	assert.ErrorIs(t, err, entities.ErrInvalidConfig)
	mockCampaignRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCampaignService_CreateCampaign_WindowAlreadyEnded(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockAccountRepo := new(testhelpers.MockAccountRepository)
	mockPublisher := new(testhelpers.MockEventPublisher)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(30 * 24 * time.Hour)
	clock := testhelpers.NewFixedClock(end)
	service := NewCampaignService(mockCampaignRepo, mockAccountRepo, mockPublisher, clock)

	params := entities.CampaignParams{
		Recipient:       "recipient-1",
		GoalMin:         1_000,
		GoalMax:         10_000,
		ContributionMin: 10,
		ContributionMax: 5_000,
		StartsAt:        start,
		EndsAt:          end,
		Denomination:    entities.NativeDenomination(),
	}

	_, err := service.CreateCampaign(ctx, params)

	assert.ErrorIs(t, err, entities.ErrInvalidConfig)
	mockCampaignRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCampaignService_HasContribution(t *testing.T) {
	ctx := context.Background()

	mockCampaignRepo := new(testhelpers.MockCampaignRepository)
	mockAccountRepo := new(testhelpers.MockAccountRepository)
	mockPublisher := new(testhelpers.MockEventPublisher)

	clock := testhelpers.NewFixedClock(time.Now().UTC())
	service := NewCampaignService(mockCampaignRepo, mockAccountRepo, mockPublisher, clock)

	// Lifetime contribution survives a refund that zeroed the share balance.
	mockAccountRepo.On("GetByAddress", ctx, int64(1), "alice").Return(&entities.CampaignAccount{
		ShareBalance: 0,
		Contributed:  500,
	}, nil)
	mockAccountRepo.On("GetByAddress", ctx, int64(1), "ghost").Return(nil, nil)

	has, err := service.HasContribution(ctx, 1, "alice")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = service.HasContribution(ctx, 1, "ghost")
	require.NoError(t, err)
	assert.False(t, has)
}
