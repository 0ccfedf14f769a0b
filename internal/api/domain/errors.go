package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrResultNotFound is returned when a terminal job has no stored result
	ErrResultNotFound = errors.New("result not found")

	// ErrUserNotFound is returned when no user matches the given credential
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when registering an already-registered email
	ErrEmailTaken = errors.New("a user with this email already exists")
)
