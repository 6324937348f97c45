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

type contributionService struct {
	campaignRepo   interfaces.CampaignRepository
	accountRepo    interfaces.AccountRepository
	ledgerRepo     interfaces.LedgerEntryRepository
	transport      interfaces.Transport
	eventPublisher interfaces.EventPublisher
	clock          interfaces.Clock
}

// NewContributionService creates a new contribution service
func NewContributionService(
	campaignRepo interfaces.CampaignRepository,
	accountRepo interfaces.AccountRepository,
	ledgerRepo interfaces.LedgerEntryRepository,
	transport interfaces.Transport,
	eventPublisher interfaces.EventPublisher,
	clock interfaces.Clock,
) interfaces.ContributionService {
	return &contributionService{
		campaignRepo:   campaignRepo,
		accountRepo:    accountRepo,
		ledgerRepo:     ledgerRepo,
		transport:      transport,
		eventPublisher: eventPublisher,
		clock:          clock,
	}
}

// Contribute admits a contribution from address. The transport may deliver
// less than requested (fee-on-transfer tokens); the ledger credits exactly
// what was received. A net amount the bounds reject is refunded to the source
// and the operation fails without ledger mutation.
func (s *contributionService) Contribute(ctx context.Context, campaignID int64, address string, amount int64) (*entities.CampaignAccount, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: contribution must be positive", entities.ErrBelowMinimum)
	}
	if address == "" {
		return nil, fmt.Errorf("contributor address is required")
	}

	campaign, err := s.campaignRepo.GetByIDForUpdate(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign %d: %w", campaignID, err)
	}
	if campaign == nil {
		return nil, fmt.Errorf("campaign %d not found", campaignID)
	}

	account, err := s.accountRepo.GetOrCreate(ctx, campaignID, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}

	// Check the requested amount first so obviously inadmissible calls never
	// reach the transport.
	now := s.clock.Now()
	if err := campaign.AdmitContribution(account.ShareBalance, amount, now); err != nil {
		return nil, err
	}

	net, err := s.transport.TransferIn(ctx, campaign.Denomination, address, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrTransport, err)
	}
	if net <= 0 || net > amount {
		return nil, fmt.Errorf("%w: transport reported unexpected amount %d for request %d", entities.ErrTransport, net, amount)
	}

	// Re-admit against what actually arrived. A short delivery can drop the
	// cumulative balance under the account minimum; roll the transfer back.
	if err := campaign.AdmitContribution(account.ShareBalance, net, now); err != nil {
		if refundErr := s.transport.TransferOut(ctx, campaign.Denomination, address, net); refundErr != nil {
			log.WithError(refundErr).WithFields(log.Fields{
				"campaignID": campaignID,
				"address":    address,
				"amount":     net,
			}).Error("Failed to refund inadmissible contribution")
			return nil, fmt.Errorf("%w: refund of inadmissible amount failed: %v", entities.ErrTransport, refundErr)
		}
		return nil, err
	}

	balanceBefore := account.ShareBalance
	account.ShareBalance += net
	account.Contributed += net
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account %s: %w", address, err)
	}

	campaign.DepositTotal += net
	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign %d: %w", campaignID, err)
	}

	entry := utils.AccountEntry(campaignID, address, entities.EntryTypeContribution, net, balanceBefore, account.ShareBalance)
	if err := utils.RecordLedgerEntry(ctx, s.ledgerRepo, entry); err != nil {
		return nil, err
	}

	event := events.ContributionAcceptedEvent{
		CampaignID:   campaignID,
		Address:      address,
		Amount:       net,
		ShareBalance: account.ShareBalance,
		DepositTotal: campaign.DepositTotal,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish contribution event")
	}

	log.WithFields(log.Fields{
		"campaignID":   campaignID,
		"address":      address,
		"requested":    amount,
		"credited":     net,
		"depositTotal": campaign.DepositTotal,
	}).Info("Contribution accepted")

	return account, nil
}

// ContributionRange computes the legal next single contribution for address
func (s *contributionService) ContributionRange(ctx context.Context, campaignID int64, address string) (int64, int64, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get campaign %d: %w", campaignID, err)
	}
	if campaign == nil {
		return 0, 0, fmt.Errorf("campaign %d not found", campaignID)
	}

	var shareBalance int64
	account, err := s.accountRepo.GetByAddress(ctx, campaignID, address)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get account %s: %w", address, err)
	}
	if account != nil {
		shareBalance = account.ShareBalance
	}

	min, max := campaign.ContributionRange(shareBalance, s.clock.Now())
	return min, max, nil
}
