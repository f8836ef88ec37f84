package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// UpstreamError is a non-2xx answer from the API. Body keeps the full
// (size-bounded) response for aggregation; use Snippet for log lines.
type UpstreamError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("HTTP %s at %s: %s", e.Status, e.Endpoint, strings.TrimSpace(e.Body))
}

const snippetLen = 300

// Snippet is the body collapsed to one line and cut to a log-friendly length.
func (e *UpstreamError) Snippet() string {
	s := strings.Join(strings.Fields(e.Body), " ")
	if len(s) > snippetLen {
		s = Truncate(s, snippetLen) + "..."
	}
	return s
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return strings.ToValidUTF8(s[:n], "")
}

type TimeoutError struct {
	Endpoint string
	Budget   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out after %s at %s", e.Budget, e.Endpoint)
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// EmptyResponseError is a 2xx answer without any text. Callers need a
// non-empty plan, so it counts as a failed attempt.
type EmptyResponseError struct {
	Endpoint     string
	FinishReason string
}

func (e *EmptyResponseError) Error() string {
	if e.FinishReason != "" {
		return fmt.Sprintf("empty response from model at %s (finish reason %s)", e.Endpoint, e.FinishReason)
	}
	return fmt.Sprintf("empty response from model at %s", e.Endpoint)
}

type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type DiscoveryError struct {
	APIVersion string
	Err        error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("list models (%s): %v", e.APIVersion, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

func IsUpstreamError(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

func IsEmptyResponse(err error) bool {
	var target *EmptyResponseError
	return errors.As(err, &target)
}

func IsDiscoveryError(err error) bool {
	var target *DiscoveryError
	return errors.As(err, &target)
}

// Error kinds used as metric labels and in the attempt log.
const (
	KindNone      = "success"
	KindDiscovery = "discovery_error"
	KindUpstream  = "upstream_error"
	KindTimeout   = "timeout"
	KindEmpty     = "empty_response"
	KindTransport = "transport_error"
	KindOther     = "other"
)

// Kind classifies err. Discovery wins over the cause it wraps.
func Kind(err error) string {
	var transport *TransportError
	switch {
	case err == nil:
		return KindNone
	case IsDiscoveryError(err):
		return KindDiscovery
	case IsTimeout(err):
		return KindTimeout
	case IsUpstreamError(err):
		return KindUpstream
	case IsEmptyResponse(err):
		return KindEmpty
	case errors.As(err, &transport):
		return KindTransport
	default:
		return KindOther
	}
}
