package race

import "errors"

var (
	// ErrNotOwner is returned when a privileged operation is invoked by an
	// account other than the engine owner.
	ErrNotOwner = errors.New("race: caller is not the owner")

	// Lifecycle violations, one per required state so callers can tell
	// "too early" from "too late".
	ErrBettingClosed   = errors.New("race: not accepting wagers")
	ErrRaceNotRunning  = errors.New("race: race not in progress")
	ErrRaceNotFinished = errors.New("race: race not finished")
	ErrRaceNotClosed   = errors.New("race: race not closed")

	// ErrInvalidRunner is returned for a pick outside the six-runner field.
	ErrInvalidRunner = errors.New("race: invalid runner id")

	// ErrSamePick is returned when first and second picks are equal.
	ErrSamePick = errors.New("race: first and second picks must differ")

	// ErrInvalidAmount is returned for a zero wager amount.
	ErrInvalidAmount = errors.New("race: amount must be greater than zero")

	// ErrInsufficientBalance is returned when a debit exceeds the account
	// balance.
	ErrInsufficientBalance = errors.New("race: insufficient balance")
)
