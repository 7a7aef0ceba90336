// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/newspaper-search/internal/engine"
	"github.com/pdiddy/newspaper-search/internal/history"
	"github.com/pdiddy/newspaper-search/internal/query/querytest"
	"github.com/pdiddy/newspaper-search/pkg/types"
)

func row(paper, date string, page int, title string) types.TitleRow {
	return types.TitleRow{
		TitleRecord: types.TitleRecord{
			PaperID: paper[:1],
			Date:    date,
			Page:    page,
			Title:   title,
			URL:     "https://archive.org/details/" + paper[:1] + date,
		},
		PaperName: paper,
	}
}

func testServer(t *testing.T) (*httptest.Server, *querytest.MemStore) {
	t.Helper()
	store := querytest.NewMemStore(
		row("Daily", "19300105", 1, "Fire in Kowloon"),
		row("Daily", "19300105", 2, "Rice prices"),
		row("Daily", "19300612", 1, "Kowloon ferry"),
		row("Evening", "19310101", 4, "New year in Kowloon"),
	)
	ctx := context.Background()
	hist, err := history.New(ctx, store, history.DefaultCapacity)
	require.NoError(t, err)
	eng, err := engine.New(ctx, store, hist, types.SearchConfig{ChunkSize: 2})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(New(eng, logger))
	t.Cleanup(ts.Close)
	return ts, store
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readEvents(t *testing.T, r io.Reader) []Event {
	t.Helper()
	var events []Event
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var e Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e), sc.Text())
		events = append(events, e)
	}
	require.NoError(t, sc.Err())
	return events
}

func TestPapersAndYears(t *testing.T) {
	ts, _ := testServer(t)

	var papers map[string][]string
	require.NoError(t, json.NewDecoder(get(t, ts.URL+"/api/papers").Body).Decode(&papers))
	assert.Equal(t, []string{"Daily", "Evening"}, papers["papers"])

	var years map[string]string
	require.NoError(t, json.NewDecoder(get(t, ts.URL+"/api/years").Body).Decode(&years))
	assert.Equal(t, map[string]string{"from": "1930", "to": "1931"}, years)
}

func TestSearchStreamsRowsAndProgress(t *testing.T) {
	ts, _ := testServer(t)

	resp := get(t, ts.URL+"/api/search?q=kowloon&paper=Daily&paper=Evening")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	var kinds []string
	var percents []int
	for _, e := range readEvents(t, resp.Body) {
		switch e.Type {
		case EventRow:
			require.NotNil(t, e.ResultRow)
			kinds = append(kinds, string(e.Kind)+":"+e.Date)
		case EventProgress:
			require.NotNil(t, e.Percent)
			percents = append(percents, *e.Percent)
		default:
			t.Fatalf("unexpected event %+v", e)
		}
	}
	assert.Equal(t, []string{
		"header:19300105", "detail:19300105",
		"header:19300612", "detail:19300612",
		"header:19310101", "detail:19310101",
	}, kinds)
	assert.Equal(t, []int{66, 100}, percents)
}

func TestSearchRecordsHistory(t *testing.T) {
	ts, _ := testServer(t)

	get(t, ts.URL+"/api/search?q=ferry&all_papers=1")
	get(t, ts.URL+"/api/search?q=rice&all_papers=true")

	var h map[string][]string
	require.NoError(t, json.NewDecoder(get(t, ts.URL+"/api/history").Body).Decode(&h))
	assert.Equal(t, []string{"rice", "ferry"}, h["history"])
}

func TestSearchValidationErrors(t *testing.T) {
	ts, store := testServer(t)

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"no papers", "q=fire", "papers"},
		{"bad regex", "q=(&regex=1&paper=Daily", "text"},
		{"bad month", "paper=Daily&from_month=13", "date_from"},
		{"bad sort", "paper=Daily&sort=sideways", "sort"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts.URL+"/api/search?"+tt.query)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.field, body["field"])
		})
	}
	assert.Zero(t, store.Calls(), "validation must not reach the store")
	assert.Empty(t, store.History)
}

func TestSearchStreamsExecutionError(t *testing.T) {
	ts, store := testServer(t)
	store.FetchErr = errors.New("disk gone")
	store.FetchErrAt = 2

	resp := get(t, ts.URL+"/api/search?q=kowloon&all_papers=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := readEvents(t, resp.Body)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.True(t, strings.Contains(last.Error, "disk gone"), last.Error)

	var rows int
	for _, e := range events {
		if e.Type == EventRow {
			rows++
		}
	}
	assert.Equal(t, 4, rows, "rows from the first chunk arrive before the error")
}

func TestUnknownRoute(t *testing.T) {
	ts, _ := testServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, ts.URL+"/api/nope").StatusCode)
}
