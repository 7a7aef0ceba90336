// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the newspaper-search CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/newspaper-search/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Set

// rootCmd is the base command for the newspaper-search CLI.
var rootCmd = &cobra.Command{
	Use:   "newspaper-search",
	Short: "Search digitized newspaper page titles",
	Long: heredoc.Doc(`
		newspaper-search finds newspaper pages by title. Titles are stored per
		page of each issue; results are grouped by paper and issue date, with a
		link to the archived issue and to every matching page.

		Build a store with "ingest", then query it with "search" or serve it
		over HTTP with "serve".
	`),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secrets.DefaultDir, os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if keys := s.Keys(); len(keys) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./newspaper-search.yaml or ~/.config/newspaper-search/config.yaml)")
	pf.String("db", "", "SQLite database file (default \"newspapers.db\")")
	pf.String("driver", "", "record store driver: sqlite or postgres (default \"sqlite\")")
	pf.String("dsn", "", "PostgreSQL connection string (default: postgres-dsn secret)")

	viper.BindPFlag("store.path", pf.Lookup("db"))
	viper.BindPFlag("store.driver", pf.Lookup("driver"))
	viper.BindPFlag("store.dsn", pf.Lookup("dsn"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("newspaper-search")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "newspaper-search"))
		}
	}

	viper.SetEnvPrefix("NEWSPAPER_SEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
