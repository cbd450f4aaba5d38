package github

import "fmt"

// NotFoundError means the requested user does not exist upstream.
// It is terminal: the fetcher never retries it.
type NotFoundError struct {
	Username string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user '%s' not found on GitHub", e.Username)
}

// UpstreamError is a non-2xx response from the GitHub API. Server-side
// failures (5xx) are transient and retried; everything else fails fast.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("GitHub API error: status=%d %s", e.StatusCode, e.Message)
}

func (e *UpstreamError) Transient() bool {
	return e.StatusCode >= 500
}
