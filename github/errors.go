package github

import (
	"errors"
	"fmt"
)

// Classified client failures. ErrRateLimited is only surfaced after the
// bounded retry budget is exhausted.
var (
	ErrNetwork     = errors.New("network error")
	ErrRateLimited = errors.New("api rate limit exceeded")
	ErrNotFound    = errors.New("resource not found")
	ErrDecode      = errors.New("response decode error")
)

// APIError carries the raw status and response body of any non-success
// response that is neither a rate limit nor a 404.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api error: status %d: %s", e.Status, e.Body)
}
