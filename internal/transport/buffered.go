package transport

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/capcheck/internal/model"
	"github.com/sells-group/capcheck/internal/resilience"
	"github.com/sells-group/capcheck/pkg/checkapi"
)

// Buffered issues a single request and waits for the full result.
type Buffered struct {
	client checkapi.Client
}

// NewBuffered creates a buffered adapter.
func NewBuffered(client checkapi.Client) *Buffered {
	return &Buffered{client: client}
}

// Kind implements Adapter.
func (b *Buffered) Kind() Kind { return KindBuffered }

// Verify submits the request. An error response flagged fallback:true, or a
// failure to reach the service at all, is fallback-eligible. Every other
// error response is terminal and carries the server's message.
func (b *Buffered) Verify(ctx context.Context, req model.VerificationRequest, _ model.ProgressFunc) (*model.VerificationResult, error) {
	data, err := b.client.Check(ctx, checkapi.CheckRequest{
		Claim:     req.Claim,
		Language:  req.Language,
		SkipCache: req.SkipCache,
	})
	if err == nil {
		return FromData(data, req.Claim), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var apiErr *checkapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Fallback() {
			return nil, resilience.NewFallbackError(string(KindBuffered), apiErr, apiErr.StatusCode)
		}
		msg := apiErr.Body.Error
		if msg == "" {
			msg = apiErr.Body.Message
		}
		return nil, resilience.NewTerminalError(string(KindBuffered), apiErr.StatusCode, msg)
	}
	return nil, fallback(KindBuffered, eris.Wrap(err, "transport: buffered request"))
}
