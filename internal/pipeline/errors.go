package pipeline

import "errors"

var (
	// ErrRateLimited signals upstream throttling. The worker retries
	// these with backoff; everything else is terminal.
	ErrRateLimited = errors.New("pipeline provider rate limited")

	// ErrEmptyDocument is returned when there is no text to analyze
	ErrEmptyDocument = errors.New("document text is empty")
)

// IsTransient reports whether an error should be retried
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
