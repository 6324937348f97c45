package services

import (
	"context"
	"fmt"

	"crowdfund/domain/entities"
	"crowdfund/domain/events"
	"crowdfund/domain/interfaces"
	"crowdfund/domain/utils"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	campaignRepo   interfaces.CampaignRepository
	ledgerRepo     interfaces.LedgerEntryRepository
	transport      interfaces.Transport
	eventPublisher interfaces.EventPublisher
	clock          interfaces.Clock
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	campaignRepo interfaces.CampaignRepository,
	ledgerRepo interfaces.LedgerEntryRepository,
	transport interfaces.Transport,
	eventPublisher interfaces.EventPublisher,
	clock interfaces.Clock,
) interfaces.SettlementService {
	return &settlementService{
		campaignRepo:   campaignRepo,
		ledgerRepo:     ledgerRepo,
		transport:      transport,
		eventPublisher: eventPublisher,
		clock:          clock,
	}
}

// Settle moves the raised pool to the recipient, minus the upfront fee to the
// collector, and transitions the campaign to funded. One-shot: a second call
// fails with the state error. Ledger mutations are staged before the
// transport legs; any transport failure fails the operation so the enclosing
// transaction rolls everything back.
func (s *settlementService) Settle(ctx context.Context, campaignID int64) (*entities.Campaign, error) {
	campaign, err := s.campaignRepo.GetByIDForUpdate(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign %d: %w", campaignID, err)
	}
	if campaign == nil {
		return nil, fmt.Errorf("campaign %d not found", campaignID)
	}

	if !campaign.IsFunding() {
		return nil, fmt.Errorf("%w: campaign %d already resolved to %s", entities.ErrInvalidState, campaignID, campaign.State)
	}
	if !campaign.CanSettle(s.clock.Now()) {
		return nil, fmt.Errorf("%w: settlement gate not met for campaign %d", entities.ErrWindowClosed, campaignID)
	}

	upfrontFee := campaign.UpfrontFee()
	payout := campaign.DepositTotal - upfrontFee

	// Effects before interactions: the funded state is staged first, so the
	// transition is already in place when untrusted transport code runs.
	campaign.MarkFunded()
	if upfrontFee > 0 {
		campaign.CollectorAccrued += upfrontFee
	}
	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign %d: %w", campaignID, err)
	}

	entry := utils.CampaignEntry(campaignID, entities.EntryTypeSettlement, payout, campaign.DepositTotal, campaign.DepositTotal)
	if err := utils.RecordLedgerEntry(ctx, s.ledgerRepo, entry); err != nil {
		return nil, err
	}
	if upfrontFee > 0 {
		feeEntry := utils.CampaignEntry(campaignID, entities.EntryTypeUpfrontFee, upfrontFee, 0, upfrontFee)
		if err := utils.RecordLedgerEntry(ctx, s.ledgerRepo, feeEntry); err != nil {
			return nil, err
		}
	}

	if err := s.transport.TransferOut(ctx, campaign.Denomination, campaign.Recipient, payout); err != nil {
		return nil, fmt.Errorf("%w: settlement payout leg: %v", entities.ErrTransport, err)
	}
	if upfrontFee > 0 {
		if err := s.transport.TransferOut(ctx, campaign.Denomination, *campaign.FeeCollector, upfrontFee); err != nil {
			return nil, fmt.Errorf("%w: settlement fee leg: %v", entities.ErrTransport, err)
		}
	}

	event := events.SettledEvent{
		CampaignID: campaignID,
		Recipient:  campaign.Recipient,
		Amount:     payout,
		UpfrontFee: upfrontFee,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish settled event")
	}

	log.WithFields(log.Fields{
		"campaignID": campaignID,
		"recipient":  campaign.Recipient,
		"payout":     payout,
		"upfrontFee": upfrontFee,
	}).Info("Campaign settled")

	return campaign, nil
}

// ReleaseFailed transitions the campaign to failed. No funds move; the pool
// stays held for per-account withdrawal. One-shot.
func (s *settlementService) ReleaseFailed(ctx context.Context, campaignID int64) (*entities.Campaign, error) {
	campaign, err := s.campaignRepo.GetByIDForUpdate(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign %d: %w", campaignID, err)
	}
	if campaign == nil {
		return nil, fmt.Errorf("campaign %d not found", campaignID)
	}

	if !campaign.IsFunding() {
		return nil, fmt.Errorf("%w: campaign %d already resolved to %s", entities.ErrInvalidState, campaignID, campaign.State)
	}
	if !campaign.CanReleaseFailed(s.clock.Now()) {
		return nil, fmt.Errorf("%w: failure unlock not met for campaign %d", entities.ErrWindowClosed, campaignID)
	}

	campaign.MarkFailed()
	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign %d: %w", campaignID, err)
	}

	event := events.FailedEvent{
		CampaignID:   campaignID,
		DepositTotal: campaign.DepositTotal,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish failed event")
	}

	log.WithFields(log.Fields{
		"campaignID":   campaignID,
		"depositTotal": campaign.DepositTotal,
	}).Info("Campaign released to failed state")

	return campaign, nil
}
