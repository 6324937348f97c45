package infrastructure

import (
	"fmt"

	"crowdfund/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeContributionAccepted:
		return "campaigns.contribution.accepted"
	case events.EventTypeSettled:
		return "campaigns.settled"
	case events.EventTypeFailed:
		return "campaigns.failed"
	case events.EventTypeWithdrawn:
		return "campaigns.withdrawn"
	case events.EventTypeShareTransfer:
		return "campaigns.shares.transferred"
	case events.EventTypeYieldDeposited:
		return "campaigns.yield.deposited"
	case events.EventTypeFeeScheduleApplied:
		return "campaigns.fees.applied"
	default:
		// Fallback for unknown event types
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case "campaigns.contribution.accepted":
		return events.EventTypeContributionAccepted
	case "campaigns.settled":
		return events.EventTypeSettled
	case "campaigns.failed":
		return events.EventTypeFailed
	case "campaigns.withdrawn":
		return events.EventTypeWithdrawn
	case "campaigns.shares.transferred":
		return events.EventTypeShareTransfer
	case "campaigns.yield.deposited":
		return events.EventTypeYieldDeposited
	case "campaigns.fees.applied":
		return events.EventTypeFeeScheduleApplied
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"campaigns.contribution.accepted",
		"campaigns.settled",
		"campaigns.failed",
		"campaigns.withdrawn",
		"campaigns.shares.transferred",
		"campaigns.yield.deposited",
		"campaigns.fees.applied",
	}
}
