package entities

import (
	"errors"
	"time"
)

// EntryType represents the kind of ledger movement recorded
type EntryType string

const (
	// Contribution-side entries
	EntryTypeContribution EntryType = "contribution"
	EntryTypeRefund       EntryType = "refund"

	// Settlement entries
	EntryTypeSettlement EntryType = "settlement"
	EntryTypeUpfrontFee EntryType = "upfront_fee"

	// Yield entries
	EntryTypeYieldDeposit EntryType = "yield_deposit"
	EntryTypeYieldPayout  EntryType = "yield_payout"
	EntryTypePayoutFee    EntryType = "payout_fee"

	// Share transfer entries
	EntryTypeTransferIn  EntryType = "transfer_in"
	EntryTypeTransferOut EntryType = "transfer_out"
)

// IsFeeType returns true if the entry records a fee credit
func (et EntryType) IsFeeType() bool {
	return et == EntryTypeUpfrontFee || et == EntryTypePayoutFee
}

// IsTransferType returns true if the entry records a share transfer leg
func (et EntryType) IsTransferType() bool {
	return et == EntryTypeTransferIn || et == EntryTypeTransferOut
}

// String returns the string representation of the entry type
func (et EntryType) String() string {
	return string(et)
}

// LedgerEntry records a single balance movement with the surrounding share
// balance, the audit trail behind every campaign total
type LedgerEntry struct {
	ID            int64     `db:"id"`
	CampaignID    int64     `db:"campaign_id"`
	Address       *string   `db:"address"` // nil for campaign-level entries
	EntryType     EntryType `db:"entry_type"`
	Amount        int64     `db:"amount"`
	BalanceBefore int64     `db:"balance_before"`
	BalanceAfter  int64     `db:"balance_after"`
	CreatedAt     time.Time `db:"created_at"`
}

// Validate performs basic consistency checks on the entry
func (le *LedgerEntry) Validate() error {
	if le.Amount == 0 {
		return errors.New("ledger entry amount cannot be zero")
	}
	if le.EntryType == "" {
		return errors.New("ledger entry type is required")
	}
	return nil
}
