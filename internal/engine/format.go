// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/newspaper-search/pkg/types"
)

var headerStyle = lipgloss.NewStyle().Bold(true)

// TableWriter prints result rows as they arrive. Header rows become
// section lines and detail rows are indented beneath them.
type TableWriter struct {
	w      io.Writer
	titles int
	styled bool
}

// NewTableWriter writes to w. When styled is false no terminal escape
// sequences are emitted.
func NewTableWriter(w io.Writer, styled bool) *TableWriter {
	return &TableWriter{w: w, styled: styled}
}

// Write prints one row.
func (t *TableWriter) Write(r types.ResultRow) {
	if r.IsHeader() {
		line := fmt.Sprintf("%s  %s  %s", r.PaperName, formatDate(r.Date), r.URL)
		if t.styled {
			line = headerStyle.Render(line)
		}
		fmt.Fprintln(t.w, line)
		return
	}
	t.titles++
	fmt.Fprintf(t.w, "  p.%-4d %-60s  %s\n", r.Page, truncate(r.Title, 60), r.URL)
}

// Close prints the trailing count.
func (t *TableWriter) Close() {
	if t.titles == 0 {
		fmt.Fprintln(t.w, "No results found.")
		return
	}
	fmt.Fprintf(t.w, "\n%d titles\n", t.titles)
}

// formatDate renders YYYYMMDD as YYYY-MM-DD for display only.
func formatDate(d string) string {
	if len(d) != 8 {
		return d
	}
	return d[:4] + "-" + d[4:6] + "-" + d[6:]
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// FormatProgress renders a fixed-width progress bar.
func FormatProgress(percent int) string {
	const width = 30
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat(" ", width-filled), percent)
}
