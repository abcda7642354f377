package checkapi

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Stream reads JSON events from an open event stream. It accepts both SSE
// framing ("data: {...}" followed by a blank line) and bare newline-delimited
// JSON. Close is safe to call more than once and from another goroutine.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner

	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

// NewStream wraps an open response body.
func NewStream(body io.ReadCloser) *Stream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	return &Stream{body: body, scanner: sc, closed: make(chan struct{})}
}

// Next blocks until the next event is available. It returns io.EOF when the
// stream ends cleanly. Lines that are not valid JSON are logged and skipped.
func (s *Stream) Next() (StreamEvent, error) {
	var data []string
	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")

		switch {
		case line == "":
			if len(data) == 0 {
				continue
			}
			ev, ok := decodeEvent(strings.Join(data, "\n"))
			data = data[:0]
			if ok {
				return ev, nil
			}
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, "event:"), strings.HasPrefix(line, "id:"), strings.HasPrefix(line, "retry:"):
		default:
			if ev, ok := decodeEvent(line); ok {
				return ev, nil
			}
		}
	}

	if err := s.scanner.Err(); err != nil {
		if s.isClosed() {
			return StreamEvent{}, io.EOF
		}
		return StreamEvent{}, eris.Wrap(err, "checkapi: read stream")
	}
	if len(data) > 0 {
		if ev, ok := decodeEvent(strings.Join(data, "\n")); ok {
			return ev, nil
		}
	}
	return StreamEvent{}, io.EOF
}

// Close releases the underlying connection.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}

// Closed is closed once Close has been called.
func (s *Stream) Closed() <-chan struct{} {
	return s.closed
}

func (s *Stream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func decodeEvent(raw string) (StreamEvent, bool) {
	var ev StreamEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		zap.L().Debug("checkapi: skipping malformed stream event",
			zap.String("data", raw),
			zap.Error(err),
		)
		return StreamEvent{}, false
	}
	if ev.Type == "" {
		return StreamEvent{}, false
	}
	return ev, true
}
