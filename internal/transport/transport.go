// Package transport implements the three strategies for obtaining a
// verification result: the streaming event channel, the buffered
// request/response call, and the local simulator.
package transport

import (
	"context"

	"github.com/sells-group/capcheck/internal/model"
)

// Kind identifies a transport strategy.
type Kind string

const (
	KindStreaming Kind = "streaming"
	KindBuffered  Kind = "buffered"
	KindSimulated Kind = "simulated"
)

// Adapter obtains a verification result for a request. Implementations
// report intermediate progress through onProgress (which may be nil), must
// return once ctx is done, and release every resource they opened before
// returning.
//
// Errors are classified with the resilience package: a *resilience.FallbackError
// lets the caller try the next strategy, a *resilience.TerminalError must be
// surfaced as-is.
type Adapter interface {
	Kind() Kind
	Verify(ctx context.Context, req model.VerificationRequest, onProgress model.ProgressFunc) (*model.VerificationResult, error)
}
