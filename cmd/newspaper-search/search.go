// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/pdiddy/newspaper-search/internal/engine"
	"github.com/pdiddy/newspaper-search/internal/query"
	"github.com/pdiddy/newspaper-search/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search newspaper titles",
	Long: heredoc.Doc(`
		Search finds page titles matching a query within a date range and a set
		of newspapers. Results are grouped by paper and issue date.

		Match modes:
		  plain text      case-insensitive substring ("fire" matches "Big Fire")
		  "quoted"        exact, case-sensitive title match
		  --whole-word    the word surrounded by spaces, case-insensitive
		  --regex         case-insensitive regular expression

		Without --paper every paper is searched. Dates default to the earliest
		and latest years in the store.
	`),
	Example: heredoc.Doc(`
		newspaper-search search kowloon --from-year 1930 --to-year 1935
		newspaper-search search '"Fire in Kowloon"' --paper "Daily Press"
		newspaper-search search '^hk' --regex --desc --export results.yaml
		newspaper-search search --load kowloon.yaml --replay
	`),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if replay, _ := cmd.Flags().GetBool("replay"); replay {
		return runReplay(cmd)
	}

	eng, b, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	in, err := searchInput(cmd, args, eng)
	if err != nil {
		return err
	}
	if in == nil {
		return nil
	}

	spec, err := eng.Prepare(*in)
	if err != nil {
		return err
	}
	if err := eng.RecordHistory(ctx, in.Text); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	savePath, _ := cmd.Flags().GetString("save")
	exportPath, _ := cmd.Flags().GetString("export")
	keep := jsonOut || savePath != "" || exportPath != ""

	var progress engine.ProgressFunc
	if !jsonOut {
		progress = func(p int) {
			fmt.Fprintf(os.Stderr, "\r%s", engine.FormatProgress(p))
			if p == 100 {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	table := engine.NewTableWriter(os.Stdout, true)
	var rows []types.ResultRow
	for row, err := range eng.Run(ctx, spec, progress) {
		if err != nil {
			return err
		}
		if keep {
			rows = append(rows, row)
		}
		if !jsonOut {
			table.Write(row)
		}
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if rows == nil {
			rows = []types.ResultRow{}
		}
		if err := enc.Encode(rows); err != nil {
			return err
		}
	} else {
		table.Close()
	}

	if savePath != "" {
		if err := engine.WriteQueryFile(savePath, *in, spec, rows); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved query to %s\n", savePath)
	}
	if exportPath != "" {
		if err := engine.ExportFile(exportPath, rows); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported to %s\n", exportPath)
	}
	return nil
}

// runReplay prints the rows stored in a --load file without opening the
// record store.
func runReplay(cmd *cobra.Command) error {
	loadPath, _ := cmd.Flags().GetString("load")
	if loadPath == "" {
		return errors.New("--replay requires --load")
	}
	qf, err := engine.ReadQueryFile(loadPath)
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		rows := qf.Results
		if rows == nil {
			rows = []types.ResultRow{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return err
		}
	} else {
		qf.PrintResults(os.Stdout, true)
	}

	if exportPath, _ := cmd.Flags().GetString("export"); exportPath != "" {
		if err := engine.ExportFile(exportPath, qf.Results); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported to %s\n", exportPath)
	}
	return nil
}

// searchInput builds the filter from a saved query file or from flags. It
// returns nil when the user aborts the history picker.
func searchInput(cmd *cobra.Command, args []string, eng *engine.Engine) (*query.FilterInput, error) {
	ctx := cmd.Context()

	if loadPath, _ := cmd.Flags().GetString("load"); loadPath != "" {
		qf, err := engine.ReadQueryFile(loadPath)
		if err != nil {
			return nil, err
		}
		return &qf.Query, nil
	}

	text := strings.Join(args, " ")
	if pick, _ := cmd.Flags().GetBool("pick-history"); pick {
		picked, ok, err := pickHistory(eng.History())
		if err != nil || !ok {
			return nil, err
		}
		text = picked
	}

	sort := query.Ascending
	if desc, _ := cmd.Flags().GetBool("desc"); desc {
		sort = query.Descending
	}

	papers, _ := cmd.Flags().GetStringArray("paper")
	all, _ := cmd.Flags().GetBool("all-papers")
	if all || len(papers) == 0 {
		var err error
		if papers, err = eng.Papers(ctx); err != nil {
			return nil, err
		}
	}

	wholeWord, _ := cmd.Flags().GetBool("whole-word")
	regex, _ := cmd.Flags().GetBool("regex")
	fromYear, _ := cmd.Flags().GetString("from-year")
	fromMonth, _ := cmd.Flags().GetString("from-month")
	toYear, _ := cmd.Flags().GetString("to-year")
	toMonth, _ := cmd.Flags().GetString("to-month")

	return &query.FilterInput{
		Text:      text,
		WholeWord: wholeWord,
		Regex:     regex,
		From:      query.YearMonth{Year: fromYear, Month: fromMonth},
		To:        query.YearMonth{Year: toYear, Month: toMonth},
		Papers:    papers,
		Sort:      sort,
	}, nil
}

func pickHistory(entries []string) (string, bool, error) {
	if len(entries) == 0 {
		return "", false, fmt.Errorf("no search history")
	}
	idx, err := fuzzyfinder.Find(entries, func(i int) string { return entries[i] },
		fuzzyfinder.WithHeader("Pick a previous search"))
	if errors.Is(err, fuzzyfinder.ErrAbort) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entries[idx], true, nil
}

func init() {
	f := searchCmd.Flags()
	f.Bool("whole-word", false, "match the query as a whole word")
	f.Bool("regex", false, "treat the query as a regular expression")
	f.String("from-year", "", "first year to search (YYYY)")
	f.String("from-month", "", "first month to search (MM)")
	f.String("to-year", "", "last year to search (YYYY)")
	f.String("to-month", "", "last month to search (MM)")
	f.StringArray("paper", nil, "newspaper name to search (repeatable)")
	f.Bool("all-papers", false, "search every newspaper")
	f.Bool("desc", false, "newest issues first")
	f.Bool("json", false, "output results as JSON")
	f.String("save", "", "save the query and its results to a YAML file")
	f.String("load", "", "rerun a query saved with --save")
	f.String("export", "", "export detail rows to a .yaml or .json file")
	f.Bool("pick-history", false, "choose the query from search history")
	f.Bool("replay", false, "print the results stored in the --load file without searching")

	searchCmd.MarkFlagsMutuallyExclusive("load", "pick-history")
	searchCmd.MarkFlagsMutuallyExclusive("replay", "save")

	rootCmd.AddCommand(searchCmd)
}
