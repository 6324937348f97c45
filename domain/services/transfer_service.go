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

type transferService struct {
	campaignRepo   interfaces.CampaignRepository
	accountRepo    interfaces.AccountRepository
	ledgerRepo     interfaces.LedgerEntryRepository
	eventPublisher interfaces.EventPublisher
}

// NewTransferService creates a new share transfer service
func NewTransferService(
	campaignRepo interfaces.CampaignRepository,
	accountRepo interfaces.AccountRepository,
	ledgerRepo interfaces.LedgerEntryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.TransferService {
	return &transferService{
		campaignRepo:   campaignRepo,
		accountRepo:    accountRepo,
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
	}
}

// Transfer moves amount shares from one account to another. Alongside the
// balance move, the sender's withdrawal credit is rescaled to the shares it
// retains and the complement moves with the shares, so yield claims stay
// proportional and cannot be double-drawn through fresh accounts.
func (s *transferService) Transfer(ctx context.Context, campaignID int64, from, to string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: transfer amount must be positive", entities.ErrNoBalance)
	}
	if from == "" || to == "" {
		return fmt.Errorf("transfer requires both addresses")
	}
	if from == to {
		return nil
	}

	campaign, err := s.campaignRepo.GetByIDForUpdate(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to get campaign %d: %w", campaignID, err)
	}
	if campaign == nil {
		return fmt.Errorf("campaign %d not found", campaignID)
	}

	sender, err := s.accountRepo.GetByAddress(ctx, campaignID, from)
	if err != nil {
		return fmt.Errorf("failed to get account %s: %w", from, err)
	}
	if sender == nil || sender.ShareBalance < amount {
		return fmt.Errorf("%w: account %s cannot transfer %d shares", entities.ErrNoBalance, from, amount)
	}

	receiver, err := s.accountRepo.GetOrCreate(ctx, campaignID, to)
	if err != nil {
		return fmt.Errorf("failed to get account %s: %w", to, err)
	}

	kept, moved, err := sender.SplitWithdrawn(amount)
	if err != nil {
		return fmt.Errorf("%w: %v", entities.ErrNoBalance, err)
	}

	senderBefore := sender.ShareBalance
	receiverBefore := receiver.ShareBalance

	sender.ShareBalance -= amount
	sender.Withdrawn = kept
	receiver.ShareBalance += amount
	receiver.Withdrawn += moved

	if err := s.accountRepo.Update(ctx, sender); err != nil {
		return fmt.Errorf("failed to update account %s: %w", from, err)
	}
	if err := s.accountRepo.Update(ctx, receiver); err != nil {
		return fmt.Errorf("failed to update account %s: %w", to, err)
	}

	outEntry := utils.AccountEntry(campaignID, from, entities.EntryTypeTransferOut, amount, senderBefore, sender.ShareBalance)
	if err := utils.RecordLedgerEntry(ctx, s.ledgerRepo, outEntry); err != nil {
		return err
	}
	inEntry := utils.AccountEntry(campaignID, to, entities.EntryTypeTransferIn, amount, receiverBefore, receiver.ShareBalance)
	if err := utils.RecordLedgerEntry(ctx, s.ledgerRepo, inEntry); err != nil {
		return err
	}

	event := events.ShareTransferEvent{
		CampaignID: campaignID,
		From:       from,
		To:         to,
		Amount:     amount,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish share transfer event")
	}

	log.WithFields(log.Fields{
		"campaignID": campaignID,
		"from":       from,
		"to":         to,
		"amount":     amount,
		"movedCredit": moved,
	}).Info("Shares transferred")

	return nil
}
