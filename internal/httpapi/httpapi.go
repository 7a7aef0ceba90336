// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httpapi serves the search engine over HTTP. Searches stream as
// NDJSON: one line per result row, interleaved with progress lines, and an
// error line if execution fails part-way.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pdiddy/newspaper-search/internal/engine"
	"github.com/pdiddy/newspaper-search/internal/httputil"
	"github.com/pdiddy/newspaper-search/internal/query"
	"github.com/pdiddy/newspaper-search/pkg/types"
)

// Event types of a search stream.
const (
	EventRow      = "row"
	EventProgress = "progress"
	EventError    = "error"
)

// Event is one line of a search stream. Row fields are inlined for row events.
type Event struct {
	Type string `json:"type"`
	*types.ResultRow
	Percent *int   `json:"percent,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Server routes API requests to an Engine.
type Server struct {
	eng    *engine.Engine
	logger *slog.Logger
	router *chi.Mux
}

// New builds the router. A nil logger uses slog.Default.
func New(eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{eng: eng, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/papers", s.handlePapers)
		r.Get("/years", s.handleYears)
		r.Get("/history", s.handleHistory)
		r.Get("/search", s.handleSearch)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handlePapers(w http.ResponseWriter, r *http.Request) {
	names, err := s.eng.Papers(r.Context())
	if err != nil {
		s.logger.Error("listing papers", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.ErrorBody{Error: "listing papers failed"})
		return
	}
	if names == nil {
		names = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"papers": names})
}

func (s *Server) handleYears(w http.ResponseWriter, _ *http.Request) {
	from, to := s.eng.Years()
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"from": from, "to": to})
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	h := s.eng.History()
	if h == nil {
		h = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"history": h})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in, err := s.filterInput(r)
	if err == nil {
		var spec query.Spec
		spec, err = s.eng.Prepare(in)
		if err == nil {
			s.stream(w, r, in, spec)
			return
		}
	}

	var ve *query.ValidationError
	if errors.As(err, &ve) {
		httputil.WriteError(w, http.StatusBadRequest, httputil.ErrorBody{Error: ve.Error(), Field: ve.Field})
		return
	}
	s.logger.ErrorContext(ctx, "preparing search", "error", err)
	httputil.WriteError(w, http.StatusInternalServerError, httputil.ErrorBody{Error: "search failed"})
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request, in query.FilterInput, spec query.Spec) {
	ctx := r.Context()
	if err := s.eng.RecordHistory(ctx, in.Text); err != nil {
		s.logger.WarnContext(ctx, "recording history", "query", in.Text, "error", err)
	}

	sw := httputil.NewStreamWriter(w)
	progress := func(p int) {
		sw.Send(Event{Type: EventProgress, Percent: &p})
	}

	rows := 0
	for row, err := range s.eng.Run(ctx, spec, progress) {
		if err != nil {
			s.logger.ErrorContext(ctx, "search failed", "query", in.Text, "rows", rows, "error", err)
			sw.Send(Event{Type: EventError, Error: err.Error()})
			return
		}
		if err := sw.Send(Event{Type: EventRow, ResultRow: &row}); err != nil {
			s.logger.WarnContext(ctx, "client gone", "rows", rows, "error", err)
			return
		}
		rows++
	}
	s.logger.DebugContext(ctx, "search complete", "query", in.Text, "rows", rows)
}

// filterInput reads the search parameters. paper may repeat; all_papers
// selects every paper in the store.
func (s *Server) filterInput(r *http.Request) (query.FilterInput, error) {
	q := r.URL.Query()

	sort, err := query.ParseSortOrder(q.Get("sort"))
	if err != nil {
		return query.FilterInput{}, err
	}

	papers := q["paper"]
	if flag(q.Get("all_papers")) {
		if papers, err = s.eng.Papers(r.Context()); err != nil {
			return query.FilterInput{}, err
		}
	}

	return query.FilterInput{
		Text:      q.Get("q"),
		WholeWord: flag(q.Get("whole_word")),
		Regex:     flag(q.Get("regex")),
		From:      query.YearMonth{Year: q.Get("from_year"), Month: q.Get("from_month")},
		To:        query.YearMonth{Year: q.Get("to_year"), Month: q.Get("to_month")},
		Papers:    papers,
		Sort:      sort,
	}, nil
}

func flag(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
