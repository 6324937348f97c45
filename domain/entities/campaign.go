package entities

import (
	"fmt"
	"math/big"
	"time"
)

// CampaignState represents the lifecycle state of a campaign
type CampaignState string

const (
	CampaignStateFunding CampaignState = "funding"
	CampaignStateFunded  CampaignState = "funded"
	CampaignStateFailed  CampaignState = "failed"
)

const (
	// MaxFeeBips caps both fee schedules at 12.5%
	MaxFeeBips = 1250

	// BipsDivisor converts basis points to a fraction (10000 = 100%)
	BipsDivisor = 10000

	// MaxFundingWindow bounds endsAt - startsAt
	MaxFundingWindow = 90 * 24 * time.Hour

	// StaleFundsGrace is how long after the funding window closes an
	// unresolved campaign can be forced to the failed state, regardless of
	// whether the goal was met.
	StaleFundsGrace = 90 * 24 * time.Hour
)

// CampaignParams holds the write-once configuration supplied at creation
type CampaignParams struct {
	Recipient       string
	FeeCollector    *string
	UpfrontFeeBips  int32
	PayoutFeeBips   int32
	GoalMin         int64
	GoalMax         int64
	ContributionMin int64
	ContributionMax int64
	StartsAt        time.Time
	EndsAt          time.Time
	Denomination    Denomination
}

// Validate checks all configuration invariants. Violations reject creation.
func (p CampaignParams) Validate() error {
	if p.Recipient == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidConfig)
	}
	if err := p.Denomination.Validate(); err != nil {
		return err
	}
	if p.UpfrontFeeBips < 0 || p.UpfrontFeeBips > MaxFeeBips {
		return fmt.Errorf("%w: upfront fee %d bips exceeds maximum %d", ErrInvalidConfig, p.UpfrontFeeBips, MaxFeeBips)
	}
	if p.PayoutFeeBips < 0 || p.PayoutFeeBips > MaxFeeBips {
		return fmt.Errorf("%w: payout fee %d bips exceeds maximum %d", ErrInvalidConfig, p.PayoutFeeBips, MaxFeeBips)
	}
	if p.FeeCollector == nil {
		if p.UpfrontFeeBips != 0 || p.PayoutFeeBips != 0 {
			return fmt.Errorf("%w: fees require a fee collector", ErrInvalidConfig)
		}
	} else {
		if *p.FeeCollector == "" {
			return fmt.Errorf("%w: fee collector address cannot be empty", ErrInvalidConfig)
		}
		if p.UpfrontFeeBips == 0 && p.PayoutFeeBips == 0 {
			return fmt.Errorf("%w: fee collector requires a non-zero fee schedule", ErrInvalidConfig)
		}
	}
	if p.GoalMin <= 0 || p.GoalMax <= 0 {
		return fmt.Errorf("%w: goals must be positive", ErrInvalidConfig)
	}
	if p.GoalMin > p.GoalMax {
		return fmt.Errorf("%w: goal minimum %d exceeds goal maximum %d", ErrInvalidConfig, p.GoalMin, p.GoalMax)
	}
	if p.ContributionMin <= 0 {
		return fmt.Errorf("%w: contribution minimum must be positive", ErrInvalidConfig)
	}
	if p.ContributionMin > p.ContributionMax {
		return fmt.Errorf("%w: contribution minimum %d exceeds contribution maximum %d", ErrInvalidConfig, p.ContributionMin, p.ContributionMax)
	}
	// A raise must stay closeable: the last contributor has to be able to
	// land the total inside [goalMin, goalMax] without violating their own
	// minimum. The single-unit minimum is exempt since any positive amount
	// satisfies it.
	if p.ContributionMin != 1 && p.ContributionMin >= p.GoalMax-p.GoalMin {
		return fmt.Errorf("%w: contribution minimum %d cannot close the goal range [%d, %d]", ErrInvalidConfig, p.ContributionMin, p.GoalMin, p.GoalMax)
	}
	if !p.StartsAt.Before(p.EndsAt) {
		return fmt.Errorf("%w: campaign must start before it ends", ErrInvalidConfig)
	}
	if p.EndsAt.Sub(p.StartsAt) > MaxFundingWindow {
		return fmt.Errorf("%w: funding window exceeds %s", ErrInvalidConfig, MaxFundingWindow)
	}
	return nil
}

// Campaign represents a fundraising campaign with its immutable configuration
// and mutable ledger totals
type Campaign struct {
	ID              int64         `db:"id"`
	Recipient       string        `db:"recipient"`
	FeeCollector    *string       `db:"fee_collector"`
	UpfrontFeeBips  int32         `db:"upfront_fee_bips"`
	PayoutFeeBips   int32         `db:"payout_fee_bips"`
	GoalMin         int64         `db:"goal_min"`
	GoalMax         int64         `db:"goal_max"`
	ContributionMin int64         `db:"contribution_min"`
	ContributionMax int64         `db:"contribution_max"`
	StartsAt        time.Time     `db:"starts_at"`
	EndsAt          time.Time     `db:"ends_at"`
	Denomination    Denomination  `db:"-"` // Stored as kind/token columns
	State           CampaignState `db:"state"`
	Processed       bool          `db:"processed"`

	// DepositTotal is the sum of all share balances. After settlement it is
	// frozen as the permanent denominator for yield proportionality.
	DepositTotal int64 `db:"deposit_total"`

	// YieldTotal is the cumulative amount ever received as yield after
	// settlement, excluding the original pool.
	YieldTotal int64 `db:"yield_total"`

	// CollectorAccrued is the cumulative payout fee ever credited to the fee
	// collector. The collector holds no shares; this is its side ledger.
	CollectorAccrued int64 `db:"collector_accrued"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewCampaign builds a funding-state campaign from validated parameters
func NewCampaign(p CampaignParams) *Campaign {
	return &Campaign{
		Recipient:       p.Recipient,
		FeeCollector:    p.FeeCollector,
		UpfrontFeeBips:  p.UpfrontFeeBips,
		PayoutFeeBips:   p.PayoutFeeBips,
		GoalMin:         p.GoalMin,
		GoalMax:         p.GoalMax,
		ContributionMin: p.ContributionMin,
		ContributionMax: p.ContributionMax,
		StartsAt:        p.StartsAt,
		EndsAt:          p.EndsAt,
		Denomination:    p.Denomination,
		State:           CampaignStateFunding,
	}
}

// IsFunding checks if the campaign is still collecting contributions
func (c *Campaign) IsFunding() bool {
	return c.State == CampaignStateFunding
}

// IsFunded checks if the campaign settled successfully
func (c *Campaign) IsFunded() bool {
	return c.State == CampaignStateFunded
}

// IsFailed checks if the campaign resolved to the failed state
func (c *Campaign) IsFailed() bool {
	return c.State == CampaignStateFailed
}

// HasFeeCollector checks if a fee collector is configured
func (c *Campaign) HasFeeCollector() bool {
	return c.FeeCollector != nil
}

// IsGoalMinMet checks if the raise reached the minimum goal
func (c *Campaign) IsGoalMinMet() bool {
	return c.DepositTotal >= c.GoalMin
}

// IsGoalMaxMet checks if the raise reached the maximum goal
func (c *Campaign) IsGoalMaxMet() bool {
	return c.DepositTotal >= c.GoalMax
}

// IsWindowOpen checks if now falls inside the funding window [startsAt, endsAt)
func (c *Campaign) IsWindowOpen(now time.Time) bool {
	return !now.Before(c.StartsAt) && now.Before(c.EndsAt)
}

// IsContributionAllowed checks if a contribution can currently be admitted
func (c *Campaign) IsContributionAllowed(now time.Time) bool {
	return c.IsFunding() && c.IsWindowOpen(now) && !c.IsGoalMaxMet()
}

// CanSettle checks if settlement is currently callable: the raise either hit
// the goal maximum (early settlement) or the window closed with the minimum met
func (c *Campaign) CanSettle(now time.Time) bool {
	if !c.IsFunding() {
		return false
	}
	if c.IsGoalMaxMet() {
		return true
	}
	return !now.Before(c.EndsAt) && c.IsGoalMinMet()
}

// CanReleaseFailed checks if the failure unlock is currently callable: the
// window closed without reaching the minimum goal, or the stale-funds grace
// period elapsed with the campaign never settled
func (c *Campaign) CanReleaseFailed(now time.Time) bool {
	if !c.IsFunding() {
		return false
	}
	if !now.Before(c.EndsAt) && !c.IsGoalMinMet() {
		return true
	}
	return !now.Before(c.EndsAt.Add(StaleFundsGrace))
}

// MarkFunded transitions the campaign to the funded state, one-shot
func (c *Campaign) MarkFunded() {
	if c.IsFunding() {
		c.State = CampaignStateFunded
		c.Processed = true
	}
}

// MarkFailed transitions the campaign to the failed state, one-shot
func (c *Campaign) MarkFailed() {
	if c.IsFunding() {
		c.State = CampaignStateFailed
		c.Processed = true
	}
}

// UpfrontFee computes the settlement fee taken from the whole pool
func (c *Campaign) UpfrontFee() int64 {
	return mulDiv(c.DepositTotal, int64(c.UpfrontFeeBips), BipsDivisor)
}

// PayoutFee computes the fee taken from a single yield withdrawal
func (c *Campaign) PayoutFee(due int64) int64 {
	return mulDiv(due, int64(c.PayoutFeeBips), BipsDivisor)
}

// ContributionRange computes the legal next single contribution for an
// account currently holding shareBalance, as of now. Bounds apply to the
// cumulative per-account total, so they shrink as the account grows.
// Returns (0, 0) once contribution is globally disallowed.
func (c *Campaign) ContributionRange(shareBalance int64, now time.Time) (min, max int64) {
	if !c.IsContributionAllowed(now) {
		return 0, 0
	}

	remaining := c.GoalMax - c.DepositTotal
	max = c.ContributionMax - shareBalance
	if remaining < max {
		max = remaining
	}

	min = c.ContributionMin - shareBalance
	if min <= 0 {
		min = 1
	}
	// When the room left under the goal maximum is smaller than the personal
	// minimum, the raise itself is the binding constraint: any positive
	// top-off is admissible.
	if remaining < c.ContributionMin {
		min = 1
	}

	// Dead zone: the account could contribute something but never reach its
	// own minimum before the raise closes.
	if max < min {
		return 0, 0
	}
	return min, max
}

// AdmitContribution validates a net received amount against the cumulative
// per-account bounds and the goal maximum, as of now
func (c *Campaign) AdmitContribution(shareBalance, netAmount int64, now time.Time) error {
	if netAmount <= 0 {
		return fmt.Errorf("%w: contribution must be positive", ErrBelowMinimum)
	}
	if !c.IsFunding() || !c.IsWindowOpen(now) {
		return ErrWindowClosed
	}
	if c.DepositTotal+netAmount > c.GoalMax {
		return ErrGoalMaxExceeded
	}
	newBalance := shareBalance + netAmount
	if newBalance > c.ContributionMax {
		return ErrAboveMaximum
	}
	if newBalance < c.ContributionMin {
		// The personal minimum yields to the goal maximum: a top-off smaller
		// than the minimum is admitted when the minimum no longer fits.
		if c.GoalMax-c.DepositTotal >= c.ContributionMin {
			return ErrBelowMinimum
		}
	}
	return nil
}

// YieldShare computes the gross lifetime yield entitlement of a share balance:
// floor(shareBalance * yieldTotal / depositTotal)
func (c *Campaign) YieldShare(shareBalance int64) int64 {
	if c.DepositTotal == 0 {
		return 0
	}
	return mulDiv(shareBalance, c.YieldTotal, c.DepositTotal)
}

// mulDiv computes floor(a*b/den) with a widened intermediate so that
// 1e18-scale amounts cannot overflow
func mulDiv(a, b, den int64) int64 {
	if den == 0 {
		return 0
	}
	product := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	return product.Div(product, big.NewInt(den)).Int64()
}
