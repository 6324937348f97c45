package services

import (
	"time"

	"crowdfund/domain/interfaces"
)

type systemClock struct{}

// NewSystemClock returns a Clock backed by time.Now in UTC
func NewSystemClock() interfaces.Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
