// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/newspaper-search/pkg/types"
)

// ExportEntry is one title with its issue and page link.
type ExportEntry struct {
	Paper string `json:"paper" yaml:"paper"`
	Date  string `json:"date" yaml:"date"`
	Page  int    `json:"page" yaml:"page"`
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// exportEntries drops header rows; exports are flat lists of titles.
func exportEntries(rows []types.ResultRow) []ExportEntry {
	entries := make([]ExportEntry, 0, len(rows))
	for _, r := range rows {
		if r.IsHeader() {
			continue
		}
		entries = append(entries, ExportEntry{
			Paper: r.PaperName,
			Date:  r.Date,
			Page:  r.Page,
			Title: r.Title,
			URL:   r.URL,
		})
	}
	return entries
}

// ExportYAML writes the detail rows of rows to w as a YAML list.
func ExportYAML(w io.Writer, rows []types.ResultRow) error {
	data, err := yaml.Marshal(exportEntries(rows))
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes the detail rows of rows to w as indented JSON.
func ExportJSON(w io.Writer, rows []types.ResultRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportEntries(rows))
}

// ExportFile picks the format from the extension of path: .json for JSON,
// .yaml or .yml for YAML.
func ExportFile(path string, rows []types.ResultRow) error {
	var export func(io.Writer, []types.ResultRow) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		export = ExportJSON
	case ".yaml", ".yml":
		export = ExportYAML
	default:
		return fmt.Errorf("unsupported export format %q: use .yaml or .json", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := export(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
