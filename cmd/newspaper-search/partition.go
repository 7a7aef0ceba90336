// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/pdiddy/newspaper-search/internal/store"
	"github.com/pdiddy/newspaper-search/pkg/types"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split the SQLite store into smaller part files",
	Long: heredoc.Doc(`
		Split divides the titles of the SQLite store, ordered by date, into
		--parts files named newspapers_part_<n>.db. Every part holds the full
		paper list. Use "merge" to rebuild a single store from the parts.
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("parts")
		dir, _ := cmd.Flags().GetString("dir")

		cfg := pipelineConfig()
		s, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()

		_, err = s.Split(cmd.Context(), dir, n, os.Stdout)
		return err
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge [part...]",
	Short: "Merge part files into one SQLite store",
	Long: heredoc.Doc(`
		Merge rebuilds the SQLite store from part files. Without arguments it
		reads newspapers_part_1.db through newspapers_part_<parts>.db from
		--dir. An existing output store is replaced. Missing parts are
		reported and skipped.
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("parts")
		dir, _ := cmd.Flags().GetString("dir")

		parts := args
		if len(parts) == 0 {
			for i := 1; i <= n; i++ {
				parts = append(parts, filepath.Join(dir, store.PartName(i)))
			}
		}

		cfg := pipelineConfig()
		if err := os.Remove(cfg.Store.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing existing store: %w", err)
		}
		s, err := store.Open(types.StoreConfig{Path: cfg.Store.Path})
		if err != nil {
			return err
		}
		defer s.Close()

		summary, err := s.Merge(cmd.Context(), parts, os.Stdout)
		if err != nil {
			return err
		}
		if summary.Merged == 0 {
			return fmt.Errorf("no part files found")
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{splitCmd, mergeCmd} {
		c.Flags().Int("parts", 4, "number of part files")
		c.Flags().String("dir", ".", "directory holding the part files")
		rootCmd.AddCommand(c)
	}
}
