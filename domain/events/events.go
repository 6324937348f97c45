package events

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeContributionAccepted EventType = "contribution_accepted"
	EventTypeSettled              EventType = "settled"
	EventTypeFailed               EventType = "failed"
	EventTypeWithdrawn            EventType = "withdrawn"
	EventTypeShareTransfer        EventType = "share_transfer"
	EventTypeYieldDeposited       EventType = "yield_deposited"
	EventTypeFeeScheduleApplied   EventType = "fee_schedule_applied"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// ContributionAcceptedEvent represents an admitted contribution
type ContributionAcceptedEvent struct {
	CampaignID   int64
	Address      string
	Amount       int64
	ShareBalance int64
	DepositTotal int64
}

func (e ContributionAcceptedEvent) Type() EventType {
	return EventTypeContributionAccepted
}

// SettledEvent represents a successful settlement of the raised pool
type SettledEvent struct {
	CampaignID int64
	Recipient  string
	Amount     int64
	UpfrontFee int64
}

func (e SettledEvent) Type() EventType {
	return EventTypeSettled
}

// FailedEvent represents a campaign resolving to the failed state
type FailedEvent struct {
	CampaignID   int64
	DepositTotal int64
}

func (e FailedEvent) Type() EventType {
	return EventTypeFailed
}

// WithdrawnEvent represents a refund or yield payout to an account
type WithdrawnEvent struct {
	CampaignID int64
	Address    string
	Amount     int64
	PayoutFee  int64
	Refund     bool
}

func (e WithdrawnEvent) Type() EventType {
	return EventTypeWithdrawn
}

// ShareTransferEvent represents a share balance move between accounts
type ShareTransferEvent struct {
	CampaignID int64
	From       string
	To         string
	Amount     int64
}

func (e ShareTransferEvent) Type() EventType {
	return EventTypeShareTransfer
}

// YieldDepositedEvent represents post-settlement surplus received by a campaign
type YieldDepositedEvent struct {
	CampaignID int64
	Amount     int64
	YieldTotal int64
}

func (e YieldDepositedEvent) Type() EventType {
	return EventTypeYieldDeposited
}

// FeeScheduleAppliedEvent represents the fee schedule fixed at campaign creation
type FeeScheduleAppliedEvent struct {
	CampaignID  int64
	Collector   string
	UpfrontBips int32
	PayoutBips  int32
}

func (e FeeScheduleAppliedEvent) Type() EventType {
	return EventTypeFeeScheduleApplied
}
