package crawler

import (
	"errors"
	"fmt"
)

// ErrFetchFailed marks a fetch that failed after all retries.
var ErrFetchFailed = errors.New("fetch failed")

// TransientError is a timeout or HTTP status failure worth retrying.
type TransientError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient fetch error for %s: %v", e.URL, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError is any other fetch failure; it is never retried.
type FatalError struct {
	URL string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal fetch error for %s: %v", e.URL, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsTransient reports whether err is, or wraps, a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
