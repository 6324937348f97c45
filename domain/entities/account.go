package entities

import (
	"errors"
	"time"
)

// CampaignAccount represents one contributing address within a campaign.
// Shares are created 1:1 with net contributed units at admission time.
type CampaignAccount struct {
	ID         int64  `db:"id"`
	CampaignID int64  `db:"campaign_id"`
	Address    string `db:"address"`

	// ShareBalance is the account's current proportional ownership of the
	// raised pool. Burned to zero on a failure refund or by transfers out.
	ShareBalance int64 `db:"share_balance"`

	// Withdrawn is the cumulative yield ever paid out to this account. It is
	// rescaled on share transfers so claims stay proportional.
	Withdrawn int64 `db:"withdrawn"`

	// Contributed is the lifetime contribution total. Unlike ShareBalance it
	// is stable across transfers and refunds; the badge registry reads it.
	Contributed int64 `db:"contributed"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// HasShares checks if the account currently holds any shares
func (a *CampaignAccount) HasShares() bool {
	return a.ShareBalance > 0
}

// HasContributed checks if the account ever made an accepted contribution
func (a *CampaignAccount) HasContributed() bool {
	return a.Contributed > 0
}

// YieldBalanceOf computes the account's accrued-but-unwithdrawn yield claim:
// its floor pro-rata slice of all yield ever received, minus what it has
// already been paid. Never negative.
func (c *Campaign) YieldBalanceOf(a *CampaignAccount) int64 {
	gross := c.YieldShare(a.ShareBalance)
	if gross <= a.Withdrawn {
		return 0
	}
	return gross - a.Withdrawn
}

// SplitWithdrawn rescales the sender's withdrawal credit for a transfer of
// amount shares out of its current balance. The sender keeps the fraction of
// its withdrawn counter matching the shares it retains (floored); the
// complement moves to the receiver. Keeping the split exact preserves
// YieldBalanceOf across a transfer with no intervening yield deposit, and
// prevents shares from being washed through fresh accounts to double-draw
// yield.
func (a *CampaignAccount) SplitWithdrawn(amount int64) (kept, moved int64, err error) {
	if amount <= 0 || amount > a.ShareBalance {
		return 0, 0, errors.New("transfer amount outside share balance")
	}
	kept = mulDiv(a.Withdrawn, a.ShareBalance-amount, a.ShareBalance)
	return kept, a.Withdrawn - kept, nil
}
