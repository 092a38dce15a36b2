package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the catalog has no such resource (e.g. no trailer)
	ErrNotFound = errors.New("not found")

	// ErrAlreadyPending indicates a membership mutation for the item is in flight
	ErrAlreadyPending = errors.New("membership update already pending")

	// ErrServerRejected indicates the server refused a membership mutation
	ErrServerRejected = errors.New("server rejected update")
)

// FetchErrorKind classifies a failed catalog request
type FetchErrorKind int

const (
	FetchNetwork FetchErrorKind = iota
	FetchHTTPStatus
	FetchDecode
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchNetwork:
		return "network"
	case FetchHTTPStatus:
		return "http_status"
	case FetchDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// FetchError is the only error type returned by the fetch gateway
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int    // Set for FetchHTTPStatus
	Message    string // Server-provided message when available
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchHTTPStatus:
		if e.Message != "" {
			return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
		}
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	case FetchDecode:
		return "decode response: " + e.cause()
	default:
		return "network: " + e.cause()
	}
}

func (e *FetchError) cause() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "request failed"
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err is an HTTP status failure with the given code
func IsStatus(err error, code int) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == FetchHTTPStatus && fe.StatusCode == code
}
