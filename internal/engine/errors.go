package engine

import "errors"

// Typed failures surfaced by session operations. No operation retries
// internally and no failure is swallowed; a failed call leaves session state
// exactly as it was.
var (
	// ErrAlreadyStarted is returned by Start on any session past NotStarted
	ErrAlreadyStarted = errors.New("session already started")

	// ErrBudgetExhausted is returned by Ask when the persona has no questions
	// left, or when every persona's budget is spent
	ErrBudgetExhausted = errors.New("question budget exhausted")

	// ErrGenerationUnavailable is returned by Ask when the external generator
	// produced no reply text
	ErrGenerationUnavailable = errors.New("persona reply unavailable")

	// ErrNotReady is returned when an operation is requested before the
	// session reached the required phase (accusing mid-play without the early
	// accusation policy, or asking before Start)
	ErrNotReady = errors.New("session not ready for this operation")

	// ErrAlreadyResolved is returned once an accusation has been resolved
	ErrAlreadyResolved = errors.New("session already resolved")

	// ErrInvalidPersona is returned for identifiers outside the fixed three
	ErrInvalidPersona = errors.New("unknown persona")
)
