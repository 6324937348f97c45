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

type yieldService struct {
	campaignRepo   interfaces.CampaignRepository
	accountRepo    interfaces.AccountRepository
	ledgerRepo     interfaces.LedgerEntryRepository
	transport      interfaces.Transport
	eventPublisher interfaces.EventPublisher
}

// NewYieldService creates a new yield service
func NewYieldService(
	campaignRepo interfaces.CampaignRepository,
	accountRepo interfaces.AccountRepository,
	ledgerRepo interfaces.LedgerEntryRepository,
	transport interfaces.Transport,
	eventPublisher interfaces.EventPublisher,
) interfaces.YieldService {
	return &yieldService{
		campaignRepo:   campaignRepo,
		accountRepo:    accountRepo,
		ledgerRepo:     ledgerRepo,
		transport:      transport,
		eventPublisher: eventPublisher,
	}
}

// DepositYield receives post-settlement surplus. Distribution is lazy: only
// the cumulative total moves here, per-account claims are derived on read.
func (s *yieldService) DepositYield(ctx context.Context, campaignID int64, from string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("yield amount must be positive")
	}

	campaign, err := s.campaignRepo.GetByIDForUpdate(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to get campaign %d: %w", campaignID, err)
	}
	if campaign == nil {
		return fmt.Errorf("campaign %d not found", campaignID)
	}
	if !campaign.IsFunded() {
		return fmt.Errorf("%w: campaign %d is not funded", entities.ErrInvalidState, campaignID)
	}

	net, err := s.transport.TransferIn(ctx, campaign.Denomination, from, amount)
	if err != nil {
		return fmt.Errorf("%w: %v", entities.ErrTransport, err)
	}
	if net <= 0 || net > amount {
		return fmt.Errorf("%w: transport reported unexpected amount %d for request %d", entities.ErrTransport, net, amount)
	}

	yieldBefore := campaign.YieldTotal
	campaign.YieldTotal += net
	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return fmt.Errorf("failed to update campaign %d: %w", campaignID, err)
	}

	entry := utils.CampaignEntry(campaignID, entities.EntryTypeYieldDeposit, net, yieldBefore, campaign.YieldTotal)
	if err := utils.RecordLedgerEntry(ctx, s.ledgerRepo, entry); err != nil {
		return err
	}

	event := events.YieldDepositedEvent{
		CampaignID: campaignID,
		Amount:     net,
		YieldTotal: campaign.YieldTotal,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish yield deposited event")
	}

	log.WithFields(log.Fields{
		"campaignID": campaignID,
		"amount":     net,
		"yieldTotal": campaign.YieldTotal,
	}).Info("Yield deposited")

	return nil
}

// YieldBalance returns the address's accrued-but-unwithdrawn yield claim
func (s *yieldService) YieldBalance(ctx context.Context, campaignID int64, address string) (int64, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return 0, fmt.Errorf("failed to get campaign %d: %w", campaignID, err)
	}
	if campaign == nil {
		return 0, fmt.Errorf("campaign %d not found", campaignID)
	}

	account, err := s.accountRepo.GetByAddress(ctx, campaignID, address)
	if err != nil {
		return 0, fmt.Errorf("failed to get account %s: %w", address, err)
	}
	if account == nil {
		return 0, nil
	}
	return campaign.YieldBalanceOf(account), nil
}

// Withdraw pays out the caller's claim. In the failed state the claim is the
// original stake, which burns the shares; in the funded state it is the
// accrued yield, minus the payout fee split to the collector. The withdrawn
// counter and balances are updated before any transport leg runs, so a
// reentrant retry deterministically fails with the balance error.
func (s *yieldService) Withdraw(ctx context.Context, campaignID int64, address string) (int64, error) {
	campaign, err := s.campaignRepo.GetByIDForUpdate(ctx, campaignID)
	if err != nil {
		return 0, fmt.Errorf("failed to get campaign %d: %w", campaignID, err)
	}
	if campaign == nil {
		return 0, fmt.Errorf("campaign %d not found", campaignID)
	}

	switch campaign.State {
	case entities.CampaignStateFailed:
		return s.withdrawRefund(ctx, campaign, address)
	case entities.CampaignStateFunded:
		return s.withdrawYield(ctx, campaign, address)
	default:
		return 0, fmt.Errorf("%w: campaign %d not resolved", entities.ErrInvalidState, campaignID)
	}
}

// withdrawRefund returns the account's full stake and burns the shares
func (s *yieldService) withdrawRefund(ctx context.Context, campaign *entities.Campaign, address string) (int64, error) {
	account, err := s.accountRepo.GetByAddress(ctx, campaign.ID, address)
	if err != nil {
		return 0, fmt.Errorf("failed to get account %s: %w", address, err)
	}
	if account == nil || !account.HasShares() {
		return 0, fmt.Errorf("%w: account %s has nothing to refund", entities.ErrNoBalance, address)
	}

	refund := account.ShareBalance
	account.ShareBalance = 0
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return 0, fmt.Errorf("failed to update account %s: %w", address, err)
	}

	campaign.DepositTotal -= refund
	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return 0, fmt.Errorf("failed to update campaign %d: %w", campaign.ID, err)
	}

	entry := utils.AccountEntry(campaign.ID, address, entities.EntryTypeRefund, refund, refund, 0)
	if err := utils.RecordLedgerEntry(ctx, s.ledgerRepo, entry); err != nil {
		return 0, err
	}

	if err := s.transport.TransferOut(ctx, campaign.Denomination, address, refund); err != nil {
		return 0, fmt.Errorf("%w: refund leg: %v", entities.ErrTransport, err)
	}

	s.publishWithdrawn(campaign.ID, address, refund, 0, true)

	log.WithFields(log.Fields{
		"campaignID": campaign.ID,
		"address":    address,
		"refund":     refund,
	}).Info("Stake refunded")

	return refund, nil
}

// withdrawYield pays out the account's accrued yield claim, splitting the
// payout fee to the collector
func (s *yieldService) withdrawYield(ctx context.Context, campaign *entities.Campaign, address string) (int64, error) {
	account, err := s.accountRepo.GetByAddress(ctx, campaign.ID, address)
	if err != nil {
		return 0, fmt.Errorf("failed to get account %s: %w", address, err)
	}
	if account == nil {
		return 0, fmt.Errorf("%w: account %s has no yield claim", entities.ErrNoBalance, address)
	}

	due := campaign.YieldBalanceOf(account)
	if due <= 0 {
		return 0, fmt.Errorf("%w: account %s has no yield claim", entities.ErrNoBalance, address)
	}

	// Without a collector the fee folds back into the payout.
	var payoutFee int64
	if campaign.HasFeeCollector() {
		payoutFee = campaign.PayoutFee(due)
	}
	payout := due - payoutFee

	withdrawnBefore := account.Withdrawn
	account.Withdrawn += due
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return 0, fmt.Errorf("failed to update account %s: %w", address, err)
	}

	if payoutFee > 0 {
		campaign.CollectorAccrued += payoutFee
		if err := s.campaignRepo.Update(ctx, campaign); err != nil {
			return 0, fmt.Errorf("failed to update campaign %d: %w", campaign.ID, err)
		}
	}

	entry := utils.AccountEntry(campaign.ID, address, entities.EntryTypeYieldPayout, payout, withdrawnBefore, account.Withdrawn)
	if err := utils.RecordLedgerEntry(ctx, s.ledgerRepo, entry); err != nil {
		return 0, err
	}
	if payoutFee > 0 {
		feeEntry := utils.CampaignEntry(campaign.ID, entities.EntryTypePayoutFee, payoutFee, campaign.CollectorAccrued-payoutFee, campaign.CollectorAccrued)
		if err := utils.RecordLedgerEntry(ctx, s.ledgerRepo, feeEntry); err != nil {
			return 0, err
		}
	}

	if err := s.transport.TransferOut(ctx, campaign.Denomination, address, payout); err != nil {
		return 0, fmt.Errorf("%w: yield payout leg: %v", entities.ErrTransport, err)
	}
	if payoutFee > 0 {
		if err := s.transport.TransferOut(ctx, campaign.Denomination, *campaign.FeeCollector, payoutFee); err != nil {
			return 0, fmt.Errorf("%w: payout fee leg: %v", entities.ErrTransport, err)
		}
	}

	s.publishWithdrawn(campaign.ID, address, payout, payoutFee, false)

	log.WithFields(log.Fields{
		"campaignID": campaign.ID,
		"address":    address,
		"payout":     payout,
		"payoutFee":  payoutFee,
	}).Info("Yield withdrawn")

	return payout, nil
}

func (s *yieldService) publishWithdrawn(campaignID int64, address string, amount, fee int64, refund bool) {
	event := events.WithdrawnEvent{
		CampaignID: campaignID,
		Address:    address,
		Amount:     amount,
		PayoutFee:  fee,
		Refund:     refund,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish withdrawn event")
	}
}
