package repository

import (
	"context"
	"testing"
	"time"

	"crowdfund/domain/entities"
	"crowdfund/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func testCampaignParams() entities.CampaignParams {
	start := time.Now().UTC().Truncate(time.Second)
	return entities.CampaignParams{
		Recipient:       "recipient-1",
		GoalMin:         1_000,
		GoalMax:         10_000,
		ContributionMin: 10,
		ContributionMax: 5_000,
		StartsAt:        start,
		EndsAt:          start.Add(30 * 24 * time.Hour),
		Denomination:    entities.NativeDenomination(),
	}
}

func TestCampaignRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewCampaignRepository(testDB.DB)
	ctx := context.Background()

	t.Run("campaign not found", func(t *testing.T) {
		campaign, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, campaign)
	})

	t.Run("native campaign round trip", func(t *testing.T) {
		campaign := entities.NewCampaign(testCampaignParams())

		err := repo.Create(ctx, campaign)
		require.NoError(t, err)
		assert.NotZero(t, campaign.ID)
		assert.False(t, campaign.CreatedAt.IsZero())

		loaded, err := repo.GetByID(ctx, campaign.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)

		assert.Equal(t, campaign.Recipient, loaded.Recipient)
		assert.Equal(t, entities.CampaignStateFunding, loaded.State)
		assert.True(t, loaded.Denomination.IsNative())
		assert.Nil(t, loaded.FeeCollector)
		assert.Equal(t, campaign.GoalMin, loaded.GoalMin)
		assert.Equal(t, campaign.GoalMax, loaded.GoalMax)
		assert.WithinDuration(t, campaign.EndsAt, loaded.EndsAt, time.Second)
	})

	t.Run("token campaign with fee schedule", func(t *testing.T) {
		params := testCampaignParams()
		params.Denomination = entities.TokenDenomination("token-ref")
		params.FeeCollector = strPtr("collector-1")
		params.UpfrontFeeBips = 100
		params.PayoutFeeBips = 50
		campaign := entities.NewCampaign(params)

		err := repo.Create(ctx, campaign)
		require.NoError(t, err)

		loaded, err := repo.GetByID(ctx, campaign.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)

		assert.Equal(t, entities.DenominationToken, loaded.Denomination.Kind)
		assert.Equal(t, "token-ref", loaded.Denomination.Token)
		require.NotNil(t, loaded.FeeCollector)
		assert.Equal(t, "collector-1", *loaded.FeeCollector)
		assert.Equal(t, int32(100), loaded.UpfrontFeeBips)
		assert.Equal(t, int32(50), loaded.PayoutFeeBips)
	})
}

func TestCampaignRepository_Update(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewCampaignRepository(testDB.DB)
	ctx := context.Background()

	campaign := entities.NewCampaign(testCampaignParams())
	require.NoError(t, repo.Create(ctx, campaign))

	campaign.DepositTotal = 5_000
	campaign.YieldTotal = 250
	campaign.CollectorAccrued = 10
	campaign.MarkFunded()

	require.NoError(t, repo.Update(ctx, campaign))

	loaded, err := repo.GetByID(ctx, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, entities.CampaignStateFunded, loaded.State)
	assert.True(t, loaded.Processed)
	assert.Equal(t, int64(5_000), loaded.DepositTotal)
	assert.Equal(t, int64(250), loaded.YieldTotal)
	assert.Equal(t, int64(10), loaded.CollectorAccrued)
}

func TestCampaignRepository_GetUnresolvedPastEnd(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewCampaignRepository(testDB.DB)
	ctx := context.Background()

	now := time.Now().UTC()

	// Expired and still funding: should be returned.
	expired := entities.NewCampaign(testCampaignParams())
	expired.StartsAt = now.Add(-40 * 24 * time.Hour)
	expired.EndsAt = now.Add(-10 * 24 * time.Hour)
	require.NoError(t, repo.Create(ctx, expired))

	// Still open: not returned.
	open := entities.NewCampaign(testCampaignParams())
	require.NoError(t, repo.Create(ctx, open))

	// Expired but already resolved: not returned.
	resolved := entities.NewCampaign(testCampaignParams())
	resolved.StartsAt = now.Add(-40 * 24 * time.Hour)
	resolved.EndsAt = now.Add(-10 * 24 * time.Hour)
	require.NoError(t, repo.Create(ctx, resolved))
	resolved.MarkFailed()
	require.NoError(t, repo.Update(ctx, resolved))

	candidates, err := repo.GetUnresolvedPastEnd(ctx, now)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, expired.ID, candidates[0].ID)
}
