package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrStreamingUnsupported indicates the response writer cannot flush partial output.
var ErrStreamingUnsupported = errors.New("streaming unsupported")

// EventStream writes server-sent events, flushing after each one.
type EventStream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewEventStream prepares w for server-sent events and writes the response
// headers. Wrapped writers are flushed through their Unwrap chain.
func NewEventStream(w http.ResponseWriter) (*EventStream, error) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	if err := rc.Flush(); err != nil {
		if errors.Is(err, http.ErrNotSupported) {
			w.Header().Del("Content-Type")
			return nil, ErrStreamingUnsupported
		}
		return nil, err
	}

	return &EventStream{w: w, rc: rc}, nil
}

// Send writes data as a JSON-encoded event with the given name.
func (s *EventStream) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event, err)
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}

	return s.rc.Flush()
}
