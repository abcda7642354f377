package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// FallbackError marks a failure where this transport could not serve the
// request but another transport might (upstream unreachable, stream dropped,
// explicit fallback flag from the gateway).
type FallbackError struct {
	Transport  string
	StatusCode int
	Err        error
}

func (e *FallbackError) Error() string {
	if e.Err == nil {
		return e.Transport + ": fallback"
	}
	return e.Transport + ": " + e.Err.Error()
}

func (e *FallbackError) Unwrap() error {
	return e.Err
}

// NewFallbackError wraps err as fallback-eligible for the named transport,
// with an optional HTTP status code.
func NewFallbackError(transport string, err error, statusCode int) *FallbackError {
	return &FallbackError{Transport: transport, Err: err, StatusCode: statusCode}
}

// TerminalError is an application-level rejection from the service. The
// message is shown to the user verbatim and no other transport is tried.
type TerminalError struct {
	Transport  string
	StatusCode int
	Message    string
}

func (e *TerminalError) Error() string {
	return e.Message
}

// NewTerminalError builds a TerminalError. An empty message becomes a generic
// verification failure.
func NewTerminalError(transport string, statusCode int, message string) *TerminalError {
	if strings.TrimSpace(message) == "" {
		message = "Failed to verify claim"
	}
	return &TerminalError{Transport: transport, StatusCode: statusCode, Message: message}
}

// ExhaustionError is returned when every transport in the chain failed with a
// fallback-eligible error.
type ExhaustionError struct {
	Attempts []string
	Last     error
}

func (e *ExhaustionError) Error() string {
	msg := "An unexpected error occurred. Please try again."
	if e.Last != nil {
		msg += " (" + e.Last.Error() + ")"
	}
	return msg
}

func (e *ExhaustionError) Unwrap() error {
	return e.Last
}

// IsFallbackEligible reports whether err permits moving to the next
// transport. Explicit FallbackErrors and network-level failures qualify;
// TerminalErrors never do.
func IsFallbackEligible(err error) bool {
	if err == nil {
		return false
	}
	var te *TerminalError
	if errors.As(err, &te) {
		return false
	}
	var fe *FallbackError
	if errors.As(err, &fe) {
		return true
	}
	return IsTransient(err)
}

// IsTerminal reports whether err is an application-level rejection.
func IsTerminal(err error) bool {
	var te *TerminalError
	return errors.As(err, &te)
}

// IsTransient returns true if err matches common network failure patterns
// (timeouts, connection resets, DNS failures) or wraps a FallbackError.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var fe *FallbackError
	if errors.As(err, &fe) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection refused",
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
		"unexpected eof",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
