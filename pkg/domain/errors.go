package domain

import "errors"

var (
	// ErrSessionNotFound is returned when an identity has no stored session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrResultNotFound is returned when an identity has no stored assessment result.
	ErrResultNotFound = errors.New("assessment result not found")

	// ErrInvalidInput is a validation failure on user input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownChoice is an input that matches no option key.
	ErrUnknownChoice = errors.New("unknown choice")

	// ErrRateLimited is returned by the scoring oracle when the upstream throttles us.
	ErrRateLimited = errors.New("scoring oracle rate limited")

	// ErrQuotaExceeded is returned when the quota guard refuses a call.
	ErrQuotaExceeded = errors.New("scoring quota exceeded")

	// ErrMalformedResponse is returned when the oracle output cannot be parsed.
	ErrMalformedResponse = errors.New("malformed oracle response")

	// ErrAssessmentTimeout marks an assessment abandoned through inactivity.
	ErrAssessmentTimeout = errors.New("assessment timed out")

	// ErrTransport wraps failures delivering messages to the chat transport.
	ErrTransport = errors.New("transport failure")
)

// ErrTreeNotFound is returned when no dialog tree has been persisted yet.
var ErrTreeNotFound = errors.New("dialog tree not found")
