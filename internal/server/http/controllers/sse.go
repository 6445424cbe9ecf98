package controllers

import (
	"encoding/json"
	"net/http"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
)

// sseWriter frames timeline messages as Server-Sent Events.
type sseWriter struct {
	w http.ResponseWriter
}

// Send writes one "post" event. The message is JSON-encoded on a single
// data line followed by the blank line that ends an SSE event.
func (s sseWriter) Send(m *tsnv1.TimelineMessage) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("event: post\ndata: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("\n\n")); err != nil {
		return err
	}
	return nil
}

// Close writes a terminal "end" event carrying the close reason.
func (s sseWriter) Close(reason string) error {
	_, err := s.w.Write([]byte("event: end\ndata: " + reason + "\n\n"))
	return err
}

// Flush flushes the HTTP response writer if it supports flushing.
//
// This ensures that SSE events are immediately sent to the client.
func (s sseWriter) Flush() error {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
