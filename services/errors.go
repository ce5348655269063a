package services

import "errors"

// Sentinel errors for the reward transaction pattern. Handlers map these to
// HTTP statuses: ErrNotFound → 404, everything else here → 400. Unexpected
// errors stay 500.
var (
	ErrNotFound         = errors.New("not found")
	ErrNotEligible      = errors.New("not eligible")
	ErrAlreadyClaimed   = errors.New("reward already claimed")
	ErrAlreadyCompleted = errors.New("already completed")
	ErrAlreadyChosen    = errors.New("fork already chosen")
	ErrNotParticipant   = errors.New("not a participant")
	ErrNotCompleted     = errors.New("not completed yet")
)
