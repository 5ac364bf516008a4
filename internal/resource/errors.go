package resource

import (
	"errors"
	"fmt"
)

// ErrOfflineFallbackExhausted signals that no network, no cache, and no
// offline page could serve a request. The agent converts it into a
// synthesized 503 response before it reaches callers.
var ErrOfflineFallbackExhausted = errors.New("resource: offline fallback exhausted")

// NetworkError wraps a failed fetch.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("resource: fetch %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
