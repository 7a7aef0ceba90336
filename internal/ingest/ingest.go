// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest builds the title store from plain-text page listings.
//
// The source tree holds one folder per newspaper, named after the paper.
// Each folder holds one file per issue named <PaperID><date>.txt, where
// date is YYYYMMDD or YYYYMM. Each non-blank line reads "<label> <page>\t<title>".
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/newspaper-search/pkg/types"
)

const (
	// DefaultBaseURL prefixes the item identifier of each issue.
	DefaultBaseURL   = "https://archive.org/details"
	defaultBatchSize = 1000
)

var fileNamePattern = regexp.MustCompile(`^([A-Za-z]+)(\d{8}|\d{6})\.txt$`)

// Sink receives parsed records in batches.
type Sink interface {
	InsertBatch(ctx context.Context, papers []types.Paper, titles []types.TitleRecord) error
}

// Summary holds counts from an ingestion run.
type Summary struct {
	Files   int
	Titles  int
	Skipped int // malformed lines
	Failed  int // unreadable files
}

// IssueFile is one matched source file.
type IssueFile struct {
	Path      string
	PaperID   string
	PaperName string
	// RawDate is the date as written in the file name; it forms the item URL.
	RawDate string
}

// Date returns the issue date normalized to eight digits. A six-digit
// YYYYMM date becomes the first of the month.
func (f IssueFile) Date() string {
	return NormalizeDate(f.RawDate)
}

// NormalizeDate pads a YYYYMM date to YYYYMM01 and leaves other values unchanged.
func NormalizeDate(d string) string {
	if len(d) == 6 {
		return d + "01"
	}
	return d
}

// ParseFileName matches name against <PaperID><date>.txt.
func ParseFileName(name string) (paperID, date string, ok bool) {
	m := fileNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ParseLine splits one listing line into its page number and title. The
// line must contain a tab; the part before it must have a second
// whitespace-separated field holding the page number.
func ParseLine(line string) (int, string, error) {
	line = strings.TrimSpace(line)
	label, title, found := strings.Cut(line, "\t")
	if !found {
		return 0, "", fmt.Errorf("missing tab separator")
	}
	fields := strings.Fields(label)
	if len(fields) < 2 {
		return 0, "", fmt.Errorf("missing page number in %q", label)
	}
	page, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, "", fmt.Errorf("invalid page number %q: %w", fields[1], err)
	}
	return page, title, nil
}

// Scan lists the issue files under root in a stable order. Folders are
// paper names; files not matching the naming pattern are ignored.
func Scan(root string) ([]IssueFile, error) {
	folders, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", root, err)
	}

	var files []IssueFile
	for _, folder := range folders {
		if !folder.IsDir() {
			continue
		}
		dir := filepath.Join(root, folder.Name())
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			paperID, date, ok := ParseFileName(e.Name())
			if !ok {
				continue
			}
			files = append(files, IssueFile{
				Path:      filepath.Join(dir, e.Name()),
				PaperID:   paperID,
				PaperName: folder.Name(),
				RawDate:   date,
			})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Ingester parses issue files and writes them to a Sink.
type Ingester struct {
	Sink      Sink
	BatchSize int
	BaseURL   string
}

// Run ingests every issue file under root, committing every BatchSize
// files. Malformed lines are reported to w and skipped; unreadable files
// are reported and counted as failed.
func (in *Ingester) Run(ctx context.Context, root string, w io.Writer) (Summary, error) {
	files, err := Scan(root)
	if err != nil {
		return Summary{}, err
	}

	batchSize := in.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	baseURL := strings.TrimSuffix(in.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	fmt.Fprintf(w, "ingesting %d files from %s\n", len(files), root)

	var (
		summary   Summary
		papers    []types.Paper
		titles    []types.TitleRecord
		inBatch   int
		seenPaper = map[string]bool{}
	)
	commit := func() error {
		if inBatch == 0 {
			return nil
		}
		if err := in.Sink.InsertBatch(ctx, papers, titles); err != nil {
			return fmt.Errorf("committing batch: %w", err)
		}
		fmt.Fprintf(w, "committed %d files (total %d)\n", inBatch, summary.Files)
		papers, titles, inBatch = nil, nil, 0
		return nil
	}

	for _, f := range files {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		recs, skipped, err := parseIssue(f, baseURL, w)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", f.Path, err)
			summary.Failed++
			continue
		}
		if !seenPaper[f.PaperID] {
			seenPaper[f.PaperID] = true
			papers = append(papers, types.Paper{PaperID: f.PaperID, PaperName: f.PaperName})
		}
		titles = append(titles, recs...)
		summary.Files++
		summary.Titles += len(recs)
		summary.Skipped += skipped
		inBatch++

		if inBatch >= batchSize {
			if err := commit(); err != nil {
				return summary, err
			}
		}
	}
	if err := commit(); err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "\nfiles: %d, titles: %d, skipped lines: %d, failed files: %d\n",
		summary.Files, summary.Titles, summary.Skipped, summary.Failed)
	return summary, nil
}

func parseIssue(f IssueFile, baseURL string, w io.Writer) ([]types.TitleRecord, int, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	url := fmt.Sprintf("%s/%s%s", baseURL, f.PaperID, f.RawDate)
	name := filepath.Base(f.Path)

	var (
		recs    []types.TitleRecord
		skipped int
	)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		page, title, err := ParseLine(line)
		if err != nil {
			fmt.Fprintf(w, "warning: skipping malformed line in %s: %q (%v)\n", name, strings.TrimSpace(line), err)
			skipped++
			continue
		}
		recs = append(recs, types.TitleRecord{
			PaperID: f.PaperID,
			Date:    f.Date(),
			Page:    page,
			Title:   title,
			URL:     url,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, err
	}
	return recs, skipped, nil
}
