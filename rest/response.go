package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
)

// ErrNoResponse indicates that a request was dispatched, but no HTTP response has been received.
var ErrNoResponse = errors.New("no response")

// Result is the normalized outcome of a dispatched request.
type Result struct {
	// HTTP status code or 0, if no response has been received.
	StatusCode int
	Header     http.Header
	// Raw response body.
	Body []byte
	// Decoded JSON, if the response is of content type application/json or application/hal+json.
	// Otherwise the response body as string.
	Contents any

	err error // transport error, if no response has been received
}

// Decode unmarshals the raw JSON response body into v.
func (r Result) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode JSON response body: %v", err)
	}
	return nil
}

// Err returns a [*StatusError], if the engine responded with an HTTP error status code.
// If no response has been received, an error wrapping [ErrNoResponse] is returned.
// Otherwise nil.
func (r Result) Err() error {
	if r.err != nil {
		return fmt.Errorf("%w: %v", ErrNoResponse, r.err)
	}
	if r.StatusCode >= 400 {
		return &StatusError{StatusCode: r.StatusCode, Contents: r.Contents}
	}
	return nil
}

// IsSuccess determines if a 2xx response has been received.
func (r Result) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError represents an HTTP error response of the engine.
type StatusError struct {
	StatusCode int
	Contents   any // Decoded error response, usually an object with the properties "type" and "message".
}

func (e *StatusError) Error() string {
	if m, ok := e.Contents.(map[string]any); ok {
		if message, ok := m["message"].(string); ok && message != "" {
			return fmt.Sprintf("HTTP %d: %v: %s", e.StatusCode, m["type"], message)
		}
	}
	if s, ok := e.Contents.(string); ok && s != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, s)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// newResult reads and decodes the response body.
// The body is decoded as JSON, when one of the Content-Type header values is application/json or application/hal+json.
func newResult(res *http.Response) (Result, error) {
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response body: %v", err)
	}

	result := Result{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       b,
		Contents:   string(b),
	}

	contentTypes := res.Header.Values(HeaderContentType)
	if slices.Contains(contentTypes, ContentTypeJson) || slices.Contains(contentTypes, ContentTypeHalJson) {
		var contents any
		if err := json.Unmarshal(b, &contents); err != nil {
			return result, fmt.Errorf("failed to decode JSON response body: %w", err)
		}
		result.Contents = contents
	}

	return result, nil
}
