// Package geosafeerr centralizes the gateway's error taxonomy: every
// component that can fail (the HTTP fetcher, the retrying fetcher, the
// breaker registry, the five source adapters, the source pipeline)
// classifies its failures into one of a small set of kinds so the pipeline
// and the introspection API can reason about them uniformly.
package geosafeerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindTimeout     Kind = "timeout"
	KindNetwork     Kind = "network"
	KindHTTPStatus  Kind = "http_status"
	KindDecode      Kind = "decode"
	KindBreakerOpen Kind = "breaker_open"
	KindNoData      Kind = "no_data"
)

// Error wraps an underlying cause with a classification kind.
type Error struct {
	Kind       Kind
	Source     string // upstream id, empty if not source-specific
	StatusCode int    // populated for KindHTTPStatus
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// Timeout wraps err as a request-deadline expiry.
func Timeout(source string, err error) *Error {
	return &Error{Kind: KindTimeout, Source: source, Message: fmt.Sprintf("%s: request timed out", source), Cause: err}
}

// Network wraps err as a connection/TLS/DNS failure.
func Network(source string, err error) *Error {
	return &Error{Kind: KindNetwork, Source: source, Message: fmt.Sprintf("%s: network error: %v", source, err), Cause: err}
}

// HTTPStatus reports a non-2xx response.
func HTTPStatus(source string, status int, reason string) *Error {
	return &Error{
		Kind:       KindHTTPStatus,
		Source:     source,
		StatusCode: status,
		Message:    fmt.Sprintf("%s: http status %d: %s", source, status, reason),
	}
}

// Decode wraps a schema/decode failure.
func Decode(source string, err error) *Error {
	return &Error{Kind: KindDecode, Source: source, Message: fmt.Sprintf("%s: decode error: %v", source, err), Cause: err}
}

// BreakerOpen reports that the circuit breaker refused the request locally.
func BreakerOpen(source string) *Error {
	return &Error{Kind: KindBreakerOpen, Source: source, Message: fmt.Sprintf("%s: breaker open, no cached data", source)}
}

// NoData reports that a pipeline could neither fetch nor serve a cached value.
func NoData(source string) *Error {
	return &Error{Kind: KindNoData, Source: source, Message: fmt.Sprintf("%s: no data available", source)}
}

// KindOf extracts the Kind of err if it (or something it wraps) is an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsBreakerOpen reports whether err represents a breaker-open refusal.
func IsBreakerOpen(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindBreakerOpen
}
