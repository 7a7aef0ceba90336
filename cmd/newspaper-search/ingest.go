// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/newspaper-search/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [root]",
	Short: "Build the title store from page listing files",
	Long: heredoc.Doc(`
		Ingest reads a directory holding one folder per newspaper. The folder
		name is the paper's display name. Each folder holds one file per issue
		named <PaperID><YYYYMMDD>.txt (or <PaperID><YYYYMM>.txt), with one
		"page <n><TAB><title>" line per page.

		Malformed lines are reported and skipped. Papers already in the store
		are kept; titles are appended.
	`),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()
		root := cfg.Ingest.Root
		if len(args) > 0 {
			root = args[0]
		}
		if root == "" {
			return fmt.Errorf("source directory required: pass it as an argument or set ingest.root")
		}

		b, err := openBackend(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		defer b.Close()

		in := &ingest.Ingester{
			Sink:      b,
			BatchSize: cfg.Ingest.BatchSize,
			BaseURL:   cfg.Ingest.BaseURL,
		}
		summary, err := in.Run(cmd.Context(), root, os.Stdout)
		if err != nil {
			return err
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d file(s) failed ingestion", summary.Failed)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().Int("batch-size", 0, "files committed per transaction (default 1000)")
	ingestCmd.Flags().String("base-url", "", "archive item URL prefix (default \"https://archive.org/details\")")
	viper.BindPFlag("ingest.batch_size", ingestCmd.Flags().Lookup("batch-size"))
	viper.BindPFlag("ingest.base_url", ingestCmd.Flags().Lookup("base-url"))

	rootCmd.AddCommand(ingestCmd)
}
