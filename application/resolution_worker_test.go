package application

import (
	"context"
	"testing"
	"time"

	"crowdfund/domain/entities"
	"crowdfund/domain/interfaces"
	"crowdfund/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeUnitOfWork hands the shared mock repositories to the worker and counts
// transaction lifecycle calls
type fakeUnitOfWork struct {
	campaignRepo *testhelpers.MockCampaignRepository
	accountRepo  *testhelpers.MockAccountRepository
	ledgerRepo   *testhelpers.MockLedgerEntryRepository
	publisher    *testhelpers.MockEventPublisher

	commits   *int
	rollbacks *int
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }

func (u *fakeUnitOfWork) Commit() error {
	*u.commits++
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	*u.rollbacks++
	return nil
}

func (u *fakeUnitOfWork) CampaignRepository() interfaces.CampaignRepository {
	return u.campaignRepo
}

func (u *fakeUnitOfWork) AccountRepository() interfaces.AccountRepository {
	return u.accountRepo
}

func (u *fakeUnitOfWork) LedgerEntryRepository() interfaces.LedgerEntryRepository {
	return u.ledgerRepo
}

func (u *fakeUnitOfWork) EventBus() interfaces.EventPublisher {
	return u.publisher
}

type fakeUnitOfWorkFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeUnitOfWorkFactory) Create() UnitOfWork {
	return f.uow
}

func expiredCampaign(id int64, depositTotal int64) *entities.Campaign {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	campaign := entities.NewCampaign(entities.CampaignParams{
		Recipient:       "recipient-1",
		GoalMin:         1_000,
		GoalMax:         10_000,
		ContributionMin: 10,
		ContributionMax: 5_000,
		StartsAt:        start,
		EndsAt:          start.Add(30 * 24 * time.Hour),
		Denomination:    entities.NativeDenomination(),
	})
	campaign.ID = id
	campaign.DepositTotal = depositTotal
	return campaign
}

func newWorkerFixture() (*ResolutionWorker, *fakeUnitOfWork, *testhelpers.FixedClock) {
	uow := &fakeUnitOfWork{
		campaignRepo: new(testhelpers.MockCampaignRepository),
		accountRepo:  new(testhelpers.MockAccountRepository),
		ledgerRepo:   new(testhelpers.MockLedgerEntryRepository),
		publisher:    new(testhelpers.MockEventPublisher),
		commits:      new(int),
		rollbacks:    new(int),
	}
	transport := new(testhelpers.MockTransport)
	clock := testhelpers.NewFixedClock(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	worker := NewResolutionWorker(&fakeUnitOfWorkFactory{uow: uow}, transport, clock, time.Minute)
	return worker, uow, clock
}

func TestResolutionWorker_ReleasesExpiredUnmetCampaign(t *testing.T) {
	worker, uow, clock := newWorkerFixture()
	ctx := context.Background()

	campaign := expiredCampaign(1, 500) // below goal minimum

	uow.campaignRepo.On("GetUnresolvedPastEnd", ctx, clock.Now()).
		Return([]*entities.Campaign{campaign}, nil)
	uow.campaignRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(campaign, nil)
	uow.campaignRepo.On("Update", ctx, mock.MatchedBy(func(c *entities.Campaign) bool {
		return c.ID == 1 && c.State == entities.CampaignStateFailed
	})).Return(nil)
	uow.publisher.On("Publish", mock.AnythingOfType("events.FailedEvent")).Return(nil)

	require.NoError(t, worker.ProcessUnresolved(ctx))

	uow.campaignRepo.AssertExpectations(t)
	uow.publisher.AssertExpectations(t)
	assert.Equal(t, 1, *uow.commits)
}

func TestResolutionWorker_SkipsMetCampaignInsideGrace(t *testing.T) {
	worker, uow, clock := newWorkerFixture()
	ctx := context.Background()

	// Goal met and grace not elapsed: settlement stays with the recipient
	campaign := expiredCampaign(2, 2_000)

	uow.campaignRepo.On("GetUnresolvedPastEnd", ctx, clock.Now()).
		Return([]*entities.Campaign{campaign}, nil)

	require.NoError(t, worker.ProcessUnresolved(ctx))

	uow.campaignRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
	uow.campaignRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Equal(t, 0, *uow.commits)
}

func TestResolutionWorker_StaleFundsFailsafePastGrace(t *testing.T) {
	worker, uow, clock := newWorkerFixture()
	ctx := context.Background()

	campaign := expiredCampaign(3, 2_000)
	clock.Time = campaign.EndsAt.Add(entities.StaleFundsGrace)

	uow.campaignRepo.On("GetUnresolvedPastEnd", ctx, clock.Now()).
		Return([]*entities.Campaign{campaign}, nil)
	uow.campaignRepo.On("GetByIDForUpdate", ctx, int64(3)).Return(campaign, nil)
	uow.campaignRepo.On("Update", ctx, mock.MatchedBy(func(c *entities.Campaign) bool {
		return c.State == entities.CampaignStateFailed
	})).Return(nil)
	uow.publisher.On("Publish", mock.AnythingOfType("events.FailedEvent")).Return(nil)

	require.NoError(t, worker.ProcessUnresolved(ctx))

	uow.campaignRepo.AssertExpectations(t)
	assert.Equal(t, 1, *uow.commits)
}

func TestResolutionWorker_NoCandidates(t *testing.T) {
	worker, uow, clock := newWorkerFixture()
	ctx := context.Background()

	uow.campaignRepo.On("GetUnresolvedPastEnd", ctx, clock.Now()).
		Return([]*entities.Campaign{}, nil)

	require.NoError(t, worker.ProcessUnresolved(ctx))

	uow.campaignRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
	assert.Equal(t, 0, *uow.commits)
}
