package transport

import (
	"context"
	"errors"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/capcheck/internal/model"
	"github.com/sells-group/capcheck/internal/resilience"
	"github.com/sells-group/capcheck/pkg/checkapi"
)

// Streaming consumes the service's progress event stream.
type Streaming struct {
	client checkapi.Client
}

// NewStreaming creates a streaming adapter.
func NewStreaming(client checkapi.Client) *Streaming {
	return &Streaming{client: client}
}

// Kind implements Adapter.
func (s *Streaming) Kind() Kind { return KindStreaming }

// Verify opens the stream and forwards step and source events until the
// stream completes. Any stream-level failure, an "error" event, or the stream
// ending before "complete" is fallback-eligible.
func (s *Streaming) Verify(ctx context.Context, req model.VerificationRequest, onProgress model.ProgressFunc) (*model.VerificationResult, error) {
	stream, err := s.client.Stream(ctx, checkapi.CheckRequest{
		Claim:     req.Claim,
		Language:  req.Language,
		SkipCache: req.SkipCache,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fallback(KindStreaming, eris.Wrap(err, "transport: open stream"))
	}
	defer stream.Close() //nolint:errcheck

	// Unblock Next when the caller cancels.
	stop := context.AfterFunc(ctx, func() { _ = stream.Close() })
	defer stop()

	for {
		ev, err := stream.Next()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, io.EOF) {
			return nil, fallback(KindStreaming, eris.New("transport: stream ended before completion"))
		}
		if err != nil {
			return nil, fallback(KindStreaming, eris.Wrap(err, "transport: read stream"))
		}

		switch ev.Type {
		case checkapi.EventStep:
			onProgress.Emit(model.StageEvent(ev.Step, ev.Message))
		case checkapi.EventSource:
			onProgress.Emit(model.SourceActivityEvent(ev.Source, model.SourceStatus(ev.Status), ev.Count))
		case checkapi.EventComplete:
			if ev.Result == nil {
				return nil, fallback(KindStreaming, eris.New("transport: complete event has no result"))
			}
			return FromRaw(ev.Result, req.Claim), nil
		case checkapi.EventError:
			msg := ev.Message
			if msg == "" {
				msg = "stream reported an error"
			}
			return nil, fallback(KindStreaming, eris.Errorf("transport: %s", msg))
		default:
			zap.L().Debug("transport: ignoring stream event", zap.String("type", ev.Type))
		}
	}
}

func fallback(kind Kind, err error) error {
	status := 0
	var apiErr *checkapi.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return resilience.NewFallbackError(string(kind), err, status)
}
