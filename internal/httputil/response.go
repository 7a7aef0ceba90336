// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides response helpers for the HTTP surface.
package httputil

import (
	"encoding/json"
	"net/http"
)

// ContentTypeNDJSON is the media type of streamed search responses.
const ContentTypeNDJSON = "application/x-ndjson"

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// WriteJSON encodes v as the whole response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes body with the given status.
func WriteError(w http.ResponseWriter, status int, body ErrorBody) error {
	return WriteJSON(w, status, body)
}

// StreamWriter writes one JSON value per line and flushes after each, so
// clients see rows as soon as they are produced.
type StreamWriter struct {
	enc     *json.Encoder
	flusher http.Flusher
	started bool
	w       http.ResponseWriter
}

// NewStreamWriter prepares w for an NDJSON stream. The status line is sent
// with the first value.
func NewStreamWriter(w http.ResponseWriter) *StreamWriter {
	f, _ := w.(http.Flusher)
	return &StreamWriter{enc: json.NewEncoder(w), flusher: f, w: w}
}

// Send writes v as one line.
func (s *StreamWriter) Send(v any) error {
	if !s.started {
		s.w.Header().Set("Content-Type", ContentTypeNDJSON)
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	if err := s.enc.Encode(v); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
