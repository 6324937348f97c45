package observability

// Metric name prefixes
const (
	MetricPrefix = "crowdfund"
)

// Metric names
const (
	// Campaign metrics
	ContributionsTotal     = MetricPrefix + ".contributions.total"
	CampaignsResolvedTotal = MetricPrefix + ".campaigns.resolved_total"
	WithdrawalsTotal       = MetricPrefix + ".withdrawals.total"
	YieldDepositsTotal     = MetricPrefix + ".yield.deposits_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Database metrics
	DatabaseQueriesTotal  = MetricPrefix + ".database.queries_total"
	DatabaseQueryDuration = MetricPrefix + ".database.query_duration"
)

// Label keys
const (
	// Common labels
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelOutcome   = "outcome"

	// Database labels
	LabelRepository = "repository"
	LabelMethod     = "method"
)

// Campaign resolution outcomes
const (
	OutcomeFunded = "funded"
	OutcomeFailed = "failed"
)

// Withdrawal types
const (
	WithdrawalTypeRefund = "refund"
	WithdrawalTypeYield  = "yield"
)
