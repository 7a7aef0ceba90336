// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent search queries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, b, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		entries := eng.History()
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			if entries == nil {
				entries = []string{}
			}
			return json.NewEncoder(os.Stdout).Encode(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No search history.")
			return nil
		}
		for i, q := range entries {
			fmt.Printf("%2d  %s\n", i+1, q)
		}
		return nil
	},
}

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "List the newspapers and the year range in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, b, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		names, err := eng.Papers(cmd.Context())
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		if from, to := eng.Years(); from != "" {
			fmt.Fprintf(os.Stderr, "\n%d papers, %s-%s\n", len(names), from, to)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Bool("json", false, "output history as JSON")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(papersCmd)
}
