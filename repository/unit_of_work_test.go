package repository

import (
	"context"
	"testing"

	"crowdfund/domain/entities"
	"crowdfund/domain/events"
	"crowdfund/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher queues events like the production transactional
// publisher and records what Flush delivers
type recordingPublisher struct {
	pending   []events.Event
	flushed   []events.Event
	discarded int
}

func (p *recordingPublisher) Publish(event events.Event) error {
	p.pending = append(p.pending, event)
	return nil
}

func (p *recordingPublisher) Flush(ctx context.Context) error {
	p.flushed = append(p.flushed, p.pending...)
	p.pending = nil
	return nil
}

func (p *recordingPublisher) Discard() {
	p.discarded++
	p.pending = nil
}

func TestUnitOfWork_CommitPersistsAndFlushesEvents(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	publisher := &recordingPublisher{}
	uow := CreateTestUnitOfWork(testDB.DB, publisher)

	require.NoError(t, uow.Begin(ctx))

	campaign := entities.NewCampaign(testCampaignParams())
	require.NoError(t, uow.CampaignRepository().Create(ctx, campaign))

	account, err := uow.AccountRepository().GetOrCreate(ctx, campaign.ID, "alice")
	require.NoError(t, err)
	account.ShareBalance = 250
	account.Contributed = 250
	require.NoError(t, uow.AccountRepository().Update(ctx, account))

	require.NoError(t, uow.LedgerEntryRepository().Record(ctx, &entities.LedgerEntry{
		CampaignID:    campaign.ID,
		Address:       strPtr("alice"),
		EntryType:     entities.EntryTypeContribution,
		Amount:        250,
		BalanceBefore: 0,
		BalanceAfter:  250,
	}))

	require.NoError(t, uow.EventBus().Publish(events.ContributionAcceptedEvent{
		CampaignID:   campaign.ID,
		Address:      "alice",
		Amount:       250,
		ShareBalance: 250,
		DepositTotal: 250,
	}))

	// Events stay queued until the transaction commits
	assert.Empty(t, publisher.flushed)

	require.NoError(t, uow.Commit())

	require.Len(t, publisher.flushed, 1)
	assert.Equal(t, events.EventTypeContributionAccepted, publisher.flushed[0].Type())

	// Verify the writes are visible outside the transaction
	campaignRepo := NewCampaignRepository(testDB.DB)
	loaded, err := campaignRepo.GetByID(ctx, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	accountRepo := NewAccountRepository(testDB.DB)
	sum, err := accountRepo.SumShareBalances(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), sum)

	ledgerRepo := NewLedgerEntryRepository(testDB.DB)
	entries, err := ledgerRepo.GetByAccount(ctx, campaign.ID, "alice", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entities.EntryTypeContribution, entries[0].EntryType)
}

func TestUnitOfWork_RollbackDiscardsWritesAndEvents(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	publisher := &recordingPublisher{}
	uow := CreateTestUnitOfWork(testDB.DB, publisher)

	require.NoError(t, uow.Begin(ctx))

	campaign := entities.NewCampaign(testCampaignParams())
	require.NoError(t, uow.CampaignRepository().Create(ctx, campaign))
	campaignID := campaign.ID

	require.NoError(t, uow.EventBus().Publish(events.SettledEvent{
		CampaignID: campaignID,
	}))

	require.NoError(t, uow.Rollback())

	assert.Empty(t, publisher.flushed)
	assert.Equal(t, 1, publisher.discarded)

	campaignRepo := NewCampaignRepository(testDB.DB)
	loaded, err := campaignRepo.GetByID(ctx, campaignID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestUnitOfWork_BeginTwiceFails(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	uow := CreateTestUnitOfWork(testDB.DB, &recordingPublisher{})

	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	assert.Error(t, uow.Begin(ctx))
}

func TestUnitOfWork_RollbackWithoutBeginIsNoop(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	uow := CreateTestUnitOfWork(testDB.DB, &recordingPublisher{})
	assert.NoError(t, uow.Rollback())
}
