package domain

import (
	"errors"
	"fmt"
)

// ErrNoURL is the client-usage error for a scan request without a URL.
var ErrNoURL = errors.New("No URL provided")

// InvalidURLError reports a URL that does not yield a hostname.
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid url %q: no hostname", e.URL)
	}
	return fmt.Sprintf("invalid url %q: %v", e.URL, e.Err)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

// StoreUnavailableError wraps any failure of the durable settings store.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable (%s): %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// Unavailable wraps err for op, leaving nil untouched.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreUnavailableError{Op: op, Err: err}
}
