package entities

import "errors"

// Error taxonomy for campaign operations. Services wrap these with context
// via fmt.Errorf("...: %w", err); callers discriminate with errors.Is.
var (
	// ErrInvalidConfig rejects campaign creation with bad parameters.
	ErrInvalidConfig = errors.New("invalid campaign configuration")

	// ErrWindowClosed rejects contributions outside the funding window.
	ErrWindowClosed = errors.New("contribution window closed")

	// ErrInvalidState rejects operations not valid for the current campaign
	// state, e.g. settling twice or withdrawing before resolution.
	ErrInvalidState = errors.New("operation not valid in current campaign state")

	// ErrBelowMinimum rejects contributions that leave the account below the
	// cumulative per-account minimum.
	ErrBelowMinimum = errors.New("amount below per-account minimum")

	// ErrAboveMaximum rejects contributions that push the account above the
	// cumulative per-account maximum.
	ErrAboveMaximum = errors.New("amount above per-account maximum")

	// ErrGoalMaxExceeded rejects contributions that would push the raise past
	// the campaign's goal maximum.
	ErrGoalMaxExceeded = errors.New("goal maximum exceeded")

	// ErrNoBalance rejects withdrawals and transfers with nothing to move.
	ErrNoBalance = errors.New("no balance")

	// ErrTransport wraps failures of the underlying value mover, including
	// short deliveries that cannot be admitted.
	ErrTransport = errors.New("transport failed")
)
