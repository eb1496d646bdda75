package service

import "errors"

var (
	// ErrActiveAttemptExists is returned when a second active attempt would be
	// created for the same (student, cohort) pair.
	ErrActiveAttemptExists = errors.New("an active exam attempt already exists")

	// ErrInvalidState is returned when an operation is attempted from a
	// lifecycle state that does not permit it.
	ErrInvalidState = errors.New("operation not permitted in the attempt's current state")

	// ErrAlreadySubmitted is returned on a duplicate submit. No grading side
	// effects are performed for the duplicate call.
	ErrAlreadySubmitted = errors.New("exam attempt has already been submitted")

	// ErrNotEligible is returned when prepare is called while the eligibility
	// evaluator returns anything other than eligible.
	ErrNotEligible = errors.New("student is not eligible to start a new attempt")
)
