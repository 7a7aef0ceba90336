// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for newspaper-search.
// Papers and title records are written once at ingestion and read by the
// search engine; result rows and history entries are produced by the engine.
package types

// Paper identifies one newspaper title in the archive.
type Paper struct {
	// PaperID is the short alphabetic code used in source file names (e.g. "WKYP").
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// PaperName is the display name, taken from the source folder name.
	PaperName string `json:"paper_name" yaml:"paper_name"`
}

// TitleRecord is one headline listed on one page of one issue.
type TitleRecord struct {
	// ID is the store-assigned row identifier. Monotonic in insertion order.
	ID int64 `json:"id" yaml:"id"`

	// PaperID references Paper.PaperID.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Date is the issue date as eight digits, YYYYMMDD. Compared as a string.
	Date string `json:"date" yaml:"date"`

	// Page is the 1-based page number within the issue.
	Page int `json:"page" yaml:"page"`

	// Title is the headline text as listed in the source file.
	Title string `json:"title" yaml:"title"`

	// URL is the bare item page for the issue.
	URL string `json:"url" yaml:"url"`
}

// TitleRow is a TitleRecord joined with its paper's display name.
type TitleRow struct {
	TitleRecord
	PaperName string `json:"paper_name" yaml:"paper_name"`
}

// Year returns the four-digit year prefix of the record's date.
func (r TitleRecord) Year() string {
	if len(r.Date) < 4 {
		return r.Date
	}
	return r.Date[:4]
}
