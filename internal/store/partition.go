// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/newspaper-search/pkg/types"
)

const copyBatch = 1000

// PartName returns the file name of part i (1-based) of a split database.
func PartName(i int) string {
	return fmt.Sprintf("newspapers_part_%d.db", i)
}

// Split writes the titles of s into n new databases under dir, ordered by
// date. Each part holds every paper; titles keep their ids. The first
// total%n parts receive one extra title. Existing part files are replaced.
func (s *Store) Split(ctx context.Context, dir string, n int, w io.Writer) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("split count must be positive, got %d", n)
	}

	total, err := s.CountTitles(ctx)
	if err != nil {
		return nil, err
	}
	papers, err := s.Papers(ctx)
	if err != nil {
		return nil, err
	}

	perPart, remainder := total/n, total%n
	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = perPart
		if i < remainder {
			sizes[i]++
		}
	}

	paths := make([]string, n)
	parts := make([]*Store, n)
	defer func() {
		for _, p := range parts {
			if p != nil {
				p.Close()
			}
		}
	}()
	for i := range parts {
		paths[i] = filepath.Join(dir, PartName(i+1))
		if err := os.Remove(paths[i]); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("removing old part %s: %w", paths[i], err)
		}
		part, err := Open(types.StoreConfig{Path: paths[i]})
		if err != nil {
			return nil, fmt.Errorf("creating part %s: %w", paths[i], err)
		}
		parts[i] = part
		if err := part.insert(ctx, papers, nil, true); err != nil {
			return nil, err
		}
	}

	var (
		idx   int
		batch []types.TitleRecord
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := parts[idx].insert(ctx, nil, batch, true)
		batch = batch[:0]
		return err
	}

	err = s.EachTitle(ctx, func(t types.TitleRecord) error {
		for idx < n && sizes[idx] == 0 {
			if err := flush(); err != nil {
				return err
			}
			idx++
		}
		if idx >= n {
			return fmt.Errorf("title count changed during split")
		}
		batch = append(batch, t)
		sizes[idx]--
		if len(batch) >= copyBatch || sizes[idx] == 0 {
			return flush()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("splitting titles: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	fmt.Fprintf(w, "split %d titles into %d parts: %s to %s\n", total, n, PartName(1), PartName(n))
	return paths, nil
}

// MergeSummary counts the outcome of a merge.
type MergeSummary struct {
	Merged  int
	Missing int
	Titles  int
}

// Merge copies every paper and title from the given part files into s.
// Missing parts are skipped with a warning. Titles receive new ids.
func (s *Store) Merge(ctx context.Context, parts []string, w io.Writer) (MergeSummary, error) {
	var summary MergeSummary

	for _, path := range parts {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(w, "warning: %s not found, skipping\n", path)
			summary.Missing++
			continue
		}

		n, err := s.mergeOne(ctx, path)
		if err != nil {
			return summary, fmt.Errorf("merging %s: %w", path, err)
		}
		fmt.Fprintf(w, "merged  %s (%d titles)\n", path, n)
		summary.Merged++
		summary.Titles += n
	}

	fmt.Fprintf(w, "\nmerged: %d, missing: %d, titles: %d\n", summary.Merged, summary.Missing, summary.Titles)
	return summary, nil
}

func (s *Store) mergeOne(ctx context.Context, path string) (int, error) {
	src, err := Open(types.StoreConfig{Path: path})
	if err != nil {
		return 0, err
	}
	defer src.Close()

	papers, err := src.Papers(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.insert(ctx, papers, nil, false); err != nil {
		return 0, err
	}

	var (
		count int
		batch []types.TitleRecord
	)
	err = src.EachTitle(ctx, func(t types.TitleRecord) error {
		batch = append(batch, t)
		count++
		if len(batch) >= copyBatch {
			err := s.insert(ctx, nil, batch, false)
			batch = batch[:0]
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(batch) > 0 {
		if err := s.insert(ctx, nil, batch, false); err != nil {
			return 0, err
		}
	}
	return count, nil
}
