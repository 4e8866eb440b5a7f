package model

import "fmt"

// NetworkError reports an upstream fetch that failed after retries were
// exhausted: a transport error, a timeout, or a non-2xx final response.
type NetworkError struct {
	URL        string
	StatusCode int    // 0 when no response was received
	Body       string // truncated body of the final non-2xx response
	Err        error  // underlying transport error, if any
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request %s failed: %v", e.URL, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("API returned %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("API returned %d", e.StatusCode)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports a response body that could not be interpreted: an
// unparsable document or a missing required field. Never retried.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return e.Reason }

// SourceError tags an upstream failure with the identity of the source
// adapter that produced it.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string { return fmt.Sprintf("%s: %v", e.Source, e.Err) }

func (e *SourceError) Unwrap() error { return e.Err }
