package repository

import (
	"context"
	"testing"

	"crowdfund/domain/entities"
	"crowdfund/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerEntryRepository_RecordAndQuery(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	campaignRepo := NewCampaignRepository(testDB.DB)
	repo := NewLedgerEntryRepository(testDB.DB)
	ctx := context.Background()

	campaign := createTestCampaign(t, campaignRepo)
	alice := "alice"

	entries := []*entities.LedgerEntry{
		{CampaignID: campaign.ID, Address: &alice, EntryType: entities.EntryTypeContribution, Amount: 100, BalanceBefore: 0, BalanceAfter: 100},
		{CampaignID: campaign.ID, Address: &alice, EntryType: entities.EntryTypeContribution, Amount: 50, BalanceBefore: 100, BalanceAfter: 150},
		{CampaignID: campaign.ID, EntryType: entities.EntryTypeSettlement, Amount: 150, BalanceBefore: 150, BalanceAfter: 150},
	}
	for _, e := range entries {
		require.NoError(t, repo.Record(ctx, e))
		assert.NotZero(t, e.ID)
		assert.False(t, e.CreatedAt.IsZero())
	}

	t.Run("by campaign newest first", func(t *testing.T) {
		got, err := repo.GetByCampaign(ctx, campaign.ID, 10)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, entities.EntryTypeSettlement, got[0].EntryType)
		assert.Nil(t, got[0].Address)
	})

	t.Run("by account", func(t *testing.T) {
		got, err := repo.GetByAccount(ctx, campaign.ID, alice, 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(50), got[0].Amount)
		assert.Equal(t, int64(100), got[1].Amount)
	})

	t.Run("limit applies", func(t *testing.T) {
		got, err := repo.GetByCampaign(ctx, campaign.ID, 1)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}
