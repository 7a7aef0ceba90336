// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/newspaper-search/internal/query"
	"github.com/pdiddy/newspaper-search/internal/query/querytest"
	"github.com/pdiddy/newspaper-search/pkg/types"
)

// --- test helpers ---

func title(paper, date string, page int, text string) types.TitleRow {
	return types.TitleRow{
		TitleRecord: types.TitleRecord{
			PaperID: paper[:1],
			Date:    date,
			Page:    page,
			Title:   text,
			URL:     "https://archive.org/details/" + paper[:1] + date,
		},
		PaperName: paper,
	}
}

// manyTitles returns n titles spread over several issues of two papers.
func manyTitles(n int) []types.TitleRow {
	rows := make([]types.TitleRow, 0, n)
	for i := 0; i < n; i++ {
		paper := "Daily"
		if i%3 == 0 {
			paper = "Evening"
		}
		date := fmt.Sprintf("2023%02d%02d", 1+(i/28)%12, 1+i%28)
		rows = append(rows, title(paper, date, 1+i%5, fmt.Sprintf("Story %d", i)))
	}
	return rows
}

func allPapers() query.Spec {
	return query.Spec{
		Papers:   []string{"Daily", "Evening"},
		DateFrom: "00000101",
		DateTo:   "99991231",
		Text:     query.TextPredicate{Mode: query.Contains},
		Sort:     query.Ascending,
	}
}

func detailsOnly(rows []types.ResultRow) []types.ResultRow {
	var out []types.ResultRow
	for _, r := range rows {
		if !r.IsHeader() {
			out = append(out, r)
		}
	}
	return out
}

// --- Execute ---

func TestExecuteChunkedMatchesUnchunked(t *testing.T) {
	for _, order := range []query.SortOrder{query.Ascending, query.Descending} {
		t.Run(string(order), func(t *testing.T) {
			store := querytest.NewMemStore(manyTitles(250)...)
			spec := allPapers()
			spec.Sort = order

			chunked, err := Collect((&Executor{Store: store, ChunkSize: 100}).Execute(context.Background(), spec, nil))
			require.NoError(t, err)
			assert.Equal(t, []int{0, 100, 200}, store.Offsets)

			single, err := Collect((&Executor{Store: store, ChunkSize: 1000}).Execute(context.Background(), spec, nil))
			require.NoError(t, err)

			assert.Equal(t, single, chunked)
			assert.Len(t, detailsOnly(chunked), 250)
		})
	}
}

func TestExecuteInsertsHeadersOnGroupChange(t *testing.T) {
	store := querytest.NewMemStore(
		title("Daily", "20230102", 2, "B"),
		title("Daily", "20230101", 1, "A"),
		title("Daily", "20230102", 1, "C"),
		title("Evening", "20230102", 1, "D"),
	)
	rows, err := Collect((&Executor{Store: store, ChunkSize: 1}).Execute(context.Background(), allPapers(), nil))
	require.NoError(t, err)

	var got []string
	for _, r := range rows {
		if r.IsHeader() {
			got = append(got, "H "+r.PaperName+" "+r.Date)
		} else {
			got = append(got, fmt.Sprintf("D %d %s", r.Page, r.Title))
		}
	}
	assert.Equal(t, []string{
		"H Daily 20230101",
		"D 1 A",
		"H Daily 20230102",
		"D 1 C",
		"H Evening 20230102",
		"D 1 D",
		"H Daily 20230102",
		"D 2 B",
	}, got, "groups follow date then page order, so a paper can reappear")
}

func TestExecuteRowURLs(t *testing.T) {
	store := querytest.NewMemStore(title("Daily", "20230101", 7, "A"))
	rows, err := Collect((&Executor{Store: store}).Execute(context.Background(), allPapers(), nil))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, types.RowHeader, rows[0].Kind)
	assert.Equal(t, "https://archive.org/details/D20230101", rows[0].URL)
	assert.Equal(t, types.RowDetail, rows[1].Kind)
	assert.Equal(t, "https://archive.org/details/D20230101/page/n7", rows[1].URL)
	assert.Equal(t, types.GroupKey{PaperName: "Daily", Date: "20230101"}, rows[1].GroupKey())
}

func TestExecuteProgress(t *testing.T) {
	store := querytest.NewMemStore(manyTitles(250)...)
	var progress []int
	_, err := Collect((&Executor{Store: store, ChunkSize: 100}).Execute(context.Background(), allPapers(), func(p int) {
		progress = append(progress, p)
	}))
	require.NoError(t, err)
	assert.Equal(t, []int{40, 80, 100}, progress)
}

func TestExecuteProgressExactMultiple(t *testing.T) {
	store := querytest.NewMemStore(manyTitles(200)...)
	var progress []int
	_, err := Collect((&Executor{Store: store, ChunkSize: 100}).Execute(context.Background(), allPapers(), func(p int) {
		progress = append(progress, p)
	}))
	require.NoError(t, err)
	assert.Equal(t, []int{50, 100}, progress)
	assert.Equal(t, []int{0, 100}, store.Offsets)
}

func TestExecuteNoResults(t *testing.T) {
	store := querytest.NewMemStore(manyTitles(10)...)
	spec := allPapers()
	spec.Papers = []string{"Nobody"}

	var progress []int
	rows, err := Collect((&Executor{Store: store}).Execute(context.Background(), spec, func(p int) {
		progress = append(progress, p)
	}))
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, []int{100}, progress)
	assert.Zero(t, store.Fetches)
}

func TestExecuteFetchErrorKeepsPartialRows(t *testing.T) {
	store := querytest.NewMemStore(manyTitles(250)...)
	cause := errors.New("disk I/O error")
	store.FetchErr = cause
	store.FetchErrAt = 100

	rows, err := Collect((&Executor{Store: store, ChunkSize: 100}).Execute(context.Background(), allPapers(), nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	var qe *QueryExecutionError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "fetch", qe.Op)
	assert.Equal(t, 100, qe.Offset)
	assert.Len(t, detailsOnly(rows), 100)
	assert.Equal(t, []int{0, 100}, store.Offsets, "no retry and no further chunks")
}

func TestExecuteCountError(t *testing.T) {
	store := querytest.NewMemStore(manyTitles(5)...)
	store.CountErr = errors.New("locked")

	rows, err := Collect((&Executor{Store: store}).Execute(context.Background(), allPapers(), nil))
	var qe *QueryExecutionError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "count", qe.Op)
	assert.Empty(t, rows)
}

func TestExecuteStopsWhenConsumerBreaks(t *testing.T) {
	store := querytest.NewMemStore(manyTitles(250)...)
	seq := (&Executor{Store: store, ChunkSize: 100}).Execute(context.Background(), allPapers(), nil)

	n := 0
	for _, err := range seq {
		require.NoError(t, err)
		n++
		if n == 5 {
			break
		}
	}
	assert.Equal(t, 1, store.Fetches)
}

func TestExecuteCancelledBetweenChunks(t *testing.T) {
	store := querytest.NewMemStore(manyTitles(250)...)
	ctx, cancel := context.WithCancel(context.Background())
	seq := (&Executor{Store: store, ChunkSize: 100}).Execute(ctx, allPapers(), func(p int) {
		if p >= 40 {
			cancel()
		}
	})

	rows, err := Collect(seq)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, detailsOnly(rows), 100)
	assert.Equal(t, 1, store.Fetches)
}

func TestExecuteIsLazyAndRestartable(t *testing.T) {
	store := querytest.NewMemStore(manyTitles(30)...)
	seq := (&Executor{Store: store}).Execute(context.Background(), allPapers(), nil)
	assert.Zero(t, store.Calls(), "nothing runs before ranging")

	first, err := Collect(seq)
	require.NoError(t, err)
	second, err := Collect(seq)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, store.Counts)
}
