package domain

import "errors"

// Error taxonomy for the call stack. Callers classify with errors.Is;
// wrapped detail rides along via fmt.Errorf("%w: ...").
var (
	// ErrValidation marks bad or missing user input, reported before any
	// side effect is attempted.
	ErrValidation = errors.New("invalid input")

	// ErrConfiguration marks deployment or credential misconfiguration.
	// Error text must stay generic enough to never carry secret material.
	ErrConfiguration = errors.New("configuration error")

	// ErrProvisioning marks a failed room metadata write; token issuance
	// is aborted rather than issued against a half-provisioned room.
	ErrProvisioning = errors.New("room provisioning failed")

	// ErrConnection marks a failed session establishment or recovery,
	// retryable by a fresh join.
	ErrConnection = errors.New("connection failed")

	// ErrDevice marks a failed mute/unmute request; the call continues.
	ErrDevice = errors.New("device request failed")
)
