package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery is returned when a search query is empty or too short
	ErrInvalidQuery = errors.New("invalid search query")

	// ErrNoResults is returned when no provider returned any listing
	ErrNoResults = errors.New("no products found")

	// ErrProviderFailure is returned when a search provider request fails
	ErrProviderFailure = errors.New("search provider request failed")

	// ErrEmptyBatch is returned when a batch is started with no items
	ErrEmptyBatch = errors.New("batch contains no items")

	// ErrBatchFailed is returned when every item of a batch failed and the
	// result set is empty
	ErrBatchFailed = errors.New("all batch items failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// ProviderError is a failure from the remote search provider carrying the
// structured error payload when one was present. Message holds the
// human-readable text from the payload, which is preferred over the
// transport error when reporting a terminally-failed batch item.
type ProviderError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("provider error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider error (status %d)", e.StatusCode)
}

func (e *ProviderError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrProviderFailure
}

// FailureMessage extracts a human-readable message from a provider error,
// preferring the structured payload message over the generic error text.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) && provErr.Message != "" {
		return provErr.Message
	}
	return err.Error()
}
