package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

func TestIsFallbackEligible_ExplicitFallback(t *testing.T) {
	err := NewFallbackError("streaming", errors.New("stream dropped"), 0)
	if !IsFallbackEligible(err) {
		t.Error("expected FallbackError to be fallback-eligible")
	}
}

func TestIsFallbackEligible_WrappedFallback(t *testing.T) {
	inner := NewFallbackError("buffered", errors.New("backend down"), 503)
	wrapped := fmt.Errorf("verify: %w", inner)
	if !IsFallbackEligible(wrapped) {
		t.Error("expected wrapped FallbackError to be fallback-eligible")
	}
}

func TestIsFallbackEligible_Terminal(t *testing.T) {
	err := NewTerminalError("buffered", 500, "Claim is required")
	if IsFallbackEligible(err) {
		t.Error("TerminalError must not be fallback-eligible")
	}
	if !IsTerminal(fmt.Errorf("wrapped: %w", err)) {
		t.Error("expected wrapped TerminalError to be terminal")
	}
	if err.Error() != "Claim is required" {
		t.Errorf("expected server message, got %q", err.Error())
	}
}

func TestIsFallbackEligible_Nil(t *testing.T) {
	if IsFallbackEligible(nil) {
		t.Error("nil error should not be fallback-eligible")
	}
}

func TestIsFallbackEligible_ConnectionRefused(t *testing.T) {
	err := fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED)
	if !IsFallbackEligible(err) {
		t.Error("ECONNREFUSED should be fallback-eligible")
	}
}

func TestIsTransient_NetworkTimeout(t *testing.T) {
	err := &net.DNSError{IsTimeout: true, Err: "timeout"}
	if !IsTransient(err) {
		t.Error("network timeout should be transient")
	}
}

func TestIsTransient_RegularError(t *testing.T) {
	if IsTransient(errors.New("invalid input: missing field")) {
		t.Error("regular error should not be transient")
	}
}

func TestIsTransient_StringPatterns(t *testing.T) {
	for _, msg := range []string{
		"read tcp 10.0.0.1:443: connection reset by peer",
		"Get \"http://localhost:3000/api/check\": dial tcp [::1]:3000: connect: connection refused",
		"unexpected EOF",
	} {
		if !IsTransient(errors.New(msg)) {
			t.Errorf("expected %q to be transient", msg)
		}
	}
}

func TestNewTerminalError_EmptyMessage(t *testing.T) {
	err := NewTerminalError("buffered", 502, "  ")
	if err.Error() != "Failed to verify claim" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestExhaustionError(t *testing.T) {
	last := errors.New("simulator panicked")
	err := &ExhaustionError{Attempts: []string{"streaming", "buffered", "simulated"}, Last: last}
	if !errors.Is(err, last) {
		t.Error("expected ExhaustionError to unwrap to last error")
	}
	want := "An unexpected error occurred. Please try again. (simulator panicked)"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("expected %d to be transient", code)
		}
	}
	for _, code := range []int{200, 400, 404} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("expected %d to not be transient", code)
		}
	}
}
