package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/capcheck/internal/model"
	"github.com/sells-group/capcheck/internal/resilience"
	"github.com/sells-group/capcheck/internal/transport"
	"github.com/sells-group/capcheck/pkg/checkapi"
)

const unavailableMessage = "The fact-checking service is not running. Please start the verification backend."

// checkBody accepts any JSON type for claim so a non-string can be rejected
// with the same message as a missing one.
type checkBody struct {
	Claim     any    `json:"claim"`
	Language  string `json:"language"`
	SkipCache bool   `json:"skip_cache"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var body checkBody
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, checkapi.ErrorResponse{Error: "Claim is required and must be a string"})
		return
	}
	claim, ok := body.Claim.(string)
	if !ok || strings.TrimSpace(claim) == "" {
		writeJSON(w, http.StatusBadRequest, checkapi.ErrorResponse{Error: "Claim is required and must be a string"})
		return
	}
	language := body.Language
	if language == "" {
		language = model.DefaultLanguage
	}
	claim = strings.TrimSpace(claim)

	raw, err := resilience.Call(r.Context(), s.breaker, func(ctx context.Context) (*checkapi.RawResult, error) {
		return s.backend.check(ctx, checkapi.CheckRequest{Claim: claim, Language: language, SkipCache: body.SkipCache})
	})
	if err != nil {
		s.writeCheckError(w, err)
		return
	}

	res := transport.FromRaw(raw, claim)
	evidence := raw.Evidence
	if evidence == nil {
		evidence = []checkapi.Evidence{}
	}
	writeJSON(w, http.StatusOK, checkapi.CheckResponse{
		Success: true,
		Data: &checkapi.CheckData{
			ClaimID:          res.ClaimID,
			Claim:            res.ClaimEcho,
			Verdict:          string(res.Verdict),
			Confidence:       float64(res.ConfidencePercent),
			Severity:         res.Severity,
			Explanation:      res.Explanation,
			ExplanationHindi: res.ExplanationAlt,
			Correction:       res.Correction,
			Sources:          res.SourcesCheckedCount,
			Evidence:         evidence,
			Time:             res.ProcessingTime,
			Cached:           res.Cached,
		},
	})
}

func (s *Server) writeCheckError(w http.ResponseWriter, err error) {
	var upErr *UpstreamError
	switch {
	case errors.As(err, &upErr):
		zap.L().Warn("gateway: backend rejected check", zap.Int("status", upErr.StatusCode), zap.String("body", upErr.Body))
		writeJSON(w, upErr.StatusCode, checkapi.ErrorResponse{Error: "Failed to verify claim", Details: upErr.Body})
	case resilience.IsFallbackEligible(err):
		zap.L().Warn("gateway: backend unavailable", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, checkapi.ErrorResponse{
			Error:    "Backend service unavailable",
			Message:  unavailableMessage,
			Fallback: true,
		})
	default:
		zap.L().Error("gateway: check failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, checkapi.ErrorResponse{Error: "Internal server error", Message: err.Error()})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.backend.health(r.Context())
	if err != nil {
		var upErr *UpstreamError
		if errors.As(err, &upErr) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unhealthy", "backend": false})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "unhealthy",
			"backend": false,
			"message": "Backend not reachable",
		})
		return
	}

	out := map[string]any{"status": "healthy", "backend": true}
	for k, v := range health {
		out[k] = v
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	claim := q.Get("claim")
	if claim == "" {
		writeJSON(w, http.StatusBadRequest, checkapi.ErrorResponse{Error: "Claim is required"})
		return
	}
	language := q.Get("language")
	if language == "" {
		language = model.DefaultLanguage
	}
	skipCache, _ := strconv.ParseBool(q.Get("skip_cache"))

	resp, err := s.backend.openStream(r.Context(), claim, language, skipCache)
	if err != nil {
		var upErr *UpstreamError
		if errors.As(err, &upErr) {
			writeJSON(w, upErr.StatusCode, checkapi.ErrorResponse{Error: "Backend SSE connection failed"})
			return
		}
		zap.L().Warn("gateway: stream proxy failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, checkapi.ErrorResponse{Error: "Failed to connect to backend", Fallback: true})
		return
	}
	defer resp.Body.Close() //nolint:errcheck

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	buf := make([]byte, 4<<10)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				zap.L().Debug("gateway: flush failed", zap.Error(err))
			}
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) && r.Context().Err() == nil {
				zap.L().Warn("gateway: backend stream ended", zap.Error(readErr))
			}
			return
		}
	}
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	resp, src := s.trending.List(r.Context(), r.URL.Query().Get("category"))
	w.Header().Set("X-Trending-Source", string(src))
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("gateway: write response", zap.Error(err))
	}
}
