package utils

import (
	"context"
	"fmt"

	"crowdfund/domain/entities"
	"crowdfund/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RecordLedgerEntry validates and persists a ledger entry. This is the single
// entry point for recording balance movements in the system.
func RecordLedgerEntry(ctx context.Context, ledgerRepo interfaces.LedgerEntryRepository, entry *entities.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid ledger entry: %w", err)
	}

	if err := ledgerRepo.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	log.WithFields(log.Fields{
		"campaignID":    entry.CampaignID,
		"entryType":     entry.EntryType,
		"amount":        entry.Amount,
		"balanceBefore": entry.BalanceBefore,
		"balanceAfter":  entry.BalanceAfter,
	}).Debug("Recorded ledger entry")

	return nil
}

// AccountEntry builds a ledger entry for a single account's share movement
func AccountEntry(campaignID int64, address string, entryType entities.EntryType, amount, before, after int64) *entities.LedgerEntry {
	return &entities.LedgerEntry{
		CampaignID:    campaignID,
		Address:       &address,
		EntryType:     entryType,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
	}
}

// CampaignEntry builds a campaign-level ledger entry with the deposit or
// yield total as the surrounding balance
func CampaignEntry(campaignID int64, entryType entities.EntryType, amount, before, after int64) *entities.LedgerEntry {
	return &entities.LedgerEntry{
		CampaignID:    campaignID,
		EntryType:     entryType,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
	}
}
