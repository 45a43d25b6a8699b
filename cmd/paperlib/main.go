// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperlib CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/silk2onion/paperlib/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the paperlib CLI.
var rootCmd = &cobra.Command{
	Use:   "paperlib",
	Short: "Canonical library for scholarly papers",
	Long: `paperlib maintains a canonical library of scholarly papers: candidate
records are staged, deduplicated against the canon, promoted with embeddings,
searched semantically, and linked into a citation graph.

Each stage is a subcommand: ingest, promote, search, citations, graph,
reconcile, staging, groups, and archive.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; absence is not an error.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paperlib.yaml or ~/.config/paperlib/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging to stderr")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paperlib")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paperlib"))
		}
	}

	viper.SetEnvPrefix("PAPERLIB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setConfigDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
