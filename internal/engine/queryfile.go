// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/newspaper-search/internal/query"
	"github.com/pdiddy/newspaper-search/pkg/types"
)

// QueryFile is the on-disk form of a search and its results. A saved search
// can be reloaded and re-run, or its stored rows printed with PrintResults
// without touching the record store.
type QueryFile struct {
	Query    query.FilterInput `yaml:"query"`
	Resolved ResolvedQuery     `yaml:"resolved"`
	Results  []types.ResultRow `yaml:"results"`
	Summary  QuerySummary      `yaml:"summary"`
}

// ResolvedQuery records how the filter was interpreted.
type ResolvedQuery struct {
	Mode     query.MatchMode `yaml:"mode"`
	Operand  string          `yaml:"operand"`
	DateFrom string          `yaml:"date_from"`
	DateTo   string          `yaml:"date_to"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Titles    int       `yaml:"titles"`
	Groups    int       `yaml:"groups"`
	Timestamp time.Time `yaml:"timestamp"`
}

// Summarize counts detail and header rows.
func Summarize(rows []types.ResultRow) QuerySummary {
	var s QuerySummary
	for _, r := range rows {
		if r.IsHeader() {
			s.Groups++
		} else {
			s.Titles++
		}
	}
	s.Timestamp = time.Now()
	return s
}

// WriteQueryFile saves the filter, its resolution, and rows to a YAML file.
func WriteQueryFile(path string, in query.FilterInput, spec query.Spec, rows []types.ResultRow) error {
	qf := QueryFile{
		Query: in,
		Resolved: ResolvedQuery{
			Mode:     spec.Text.Mode,
			Operand:  spec.Text.Operand,
			DateFrom: spec.DateFrom,
			DateTo:   spec.DateTo,
		},
		Results: rows,
		Summary: Summarize(rows),
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// PrintResults writes the stored rows to w as a table, exactly as the search
// that produced them printed them.
func (qf *QueryFile) PrintResults(w io.Writer, styled bool) {
	table := NewTableWriter(w, styled)
	for _, r := range qf.Results {
		table.Write(r)
	}
	table.Close()
}
