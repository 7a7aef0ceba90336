// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// RowKind tags a ResultRow as a group header or a page detail.
type RowKind string

const (
	RowHeader RowKind = "header"
	RowDetail RowKind = "detail"
)

// GroupKey identifies one issue of one paper. A change in GroupKey between
// consecutive results marks a header boundary.
type GroupKey struct {
	PaperName string `json:"paper_name" yaml:"paper_name"`
	Date      string `json:"date" yaml:"date"`
}

// ResultRow is one entry of a search result sequence. Header rows carry the
// group key and the bare item URL; detail rows add the page and title and
// link directly to the page.
type ResultRow struct {
	Kind      RowKind `json:"kind" yaml:"kind"`
	PaperName string  `json:"paper_name" yaml:"paper_name"`
	Date      string  `json:"date" yaml:"date"`
	Page      int     `json:"page,omitempty" yaml:"page,omitempty"`
	Title     string  `json:"title,omitempty" yaml:"title,omitempty"`
	URL       string  `json:"url" yaml:"url"`
}

// GroupKey returns the (paper, date) pair the row belongs to.
func (r ResultRow) GroupKey() GroupKey {
	return GroupKey{PaperName: r.PaperName, Date: r.Date}
}

// IsHeader reports whether r is a synthetic group header.
func (r ResultRow) IsHeader() bool { return r.Kind == RowHeader }

// GroupKey returns the (paper, date) pair for a joined title row.
func (t TitleRow) GroupKey() GroupKey {
	return GroupKey{PaperName: t.PaperName, Date: t.Date}
}

// HeaderRow builds the group header that precedes t's issue.
func HeaderRow(t TitleRow) ResultRow {
	return ResultRow{
		Kind:      RowHeader,
		PaperName: t.PaperName,
		Date:      t.Date,
		URL:       t.URL,
	}
}

// DetailRow builds the page entry for t.
func DetailRow(t TitleRow) ResultRow {
	return ResultRow{
		Kind:      RowDetail,
		PaperName: t.PaperName,
		Date:      t.Date,
		Page:      t.Page,
		Title:     t.Title,
		URL:       PageURL(t.URL, t.Page),
	}
}

// PageURL links to a single page of an archived issue.
func PageURL(itemURL string, page int) string {
	return fmt.Sprintf("%s/page/n%d", itemURL, page)
}

// HistoryEntry is one remembered search query.
type HistoryEntry struct {
	Query     string    `json:"query" yaml:"query"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}
