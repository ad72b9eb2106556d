package harvest

import (
	"errors"
	"fmt"
)

// TransientError marks a fetch failure worth retrying (timeouts, 429, 5xx).
type TransientError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transient fetch failure for %s (status %d)", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("transient fetch failure for %s: %v", e.URL, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a fetch failure that must not be retried
// (4xx other than 429, malformed URLs, exhausted retries).
type PermanentError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *PermanentError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("permanent fetch failure for %s (status %d)", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("permanent fetch failure for %s: %v", e.URL, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// AIServiceError covers a failed or malformed AI scoring batch. The affected
// batch degrades to keyword-only scoring; the error never aborts the run.
type AIServiceError struct {
	Batch int
	Err   error
}

func (e *AIServiceError) Error() string {
	return fmt.Sprintf("ai scoring batch %d failed: %v", e.Batch, e.Err)
}

func (e *AIServiceError) Unwrap() error { return e.Err }

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is a non-retryable fetch failure.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
