// Package hunt implements the checkpoint quiz engine: session creation,
// question assignment, answer grading, and redemption-token lifecycle.
package hunt

import "errors"

// Sentinel errors used across the store and HTTP layers for stable mapping.
var (
	// ErrNotFound indicates a missing or expired entity (checkpoint token,
	// campaign, session checkpoint).
	ErrNotFound = errors.New("not found")

	// ErrPoolEmpty indicates a category with no active questions.
	ErrPoolEmpty = errors.New("question pool empty")

	// ErrInvalidSubmission covers every grading rejection: unknown checkpoint,
	// wrong owner, already completed, or a choice that does not belong to the
	// submitted question. Callers must not be able to tell these apart.
	ErrInvalidSubmission = errors.New("invalid submission")

	// ErrTokenSpent is the uniform redemption failure: unknown, expired, or
	// already used. Deliberately indistinguishable.
	ErrTokenSpent = errors.New("token invalid, expired, or already used")
)
