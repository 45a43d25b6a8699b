// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/silk2onion/paperlib/internal/citations"
)

var citationsCmd = &cobra.Command{
	Use:   "citations <paper-id>",
	Short: "Sync a paper's reference list into the citation graph",
	Long: `Citations fetches a paper's reference list from the configured
bibliographic providers, resolves each reference against the canonical
library (creating placeholder papers for unknown works), and records
citation edges with a per-edge confidence.`,
	Args: cobra.ExactArgs(1),
	RunE: runCitations,
}

func init() {
	citationsCmd.Flags().StringSlice("sources", nil, "providers to query (default from config)")
	citationsCmd.Flags().Bool("json", false, "output the sync result as JSON")

	rootCmd.AddCommand(citationsCmd)
}

func runCitations(cmd *cobra.Command, args []string) error {
	paperID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid paper ID %q", args[0])
	}

	cfg := loadConfig()
	log := newLogger()
	defer log.Sync()

	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := citations.New(st, newResolver(st, cfg, log), citationSources(cfg.Citations), cfg.Citations, log)

	names, _ := cmd.Flags().GetStringSlice("sources")
	if len(names) == 0 {
		names = cfg.Citations.Sources
	}

	result, err := svc.Sync(cmd.Context(), paperID, names)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return printJSON(os.Stdout, result)
	}

	for _, r := range result.Reports {
		switch {
		case r.Skipped:
			fmt.Printf("  %s: skipped (paper has no DOI)\n", r.Source)
		case r.Err != "":
			fmt.Printf("  %s: failed: %s\n", r.Source, r.Err)
		default:
			fmt.Printf("  %s: %d reference(s), %d matched, %d placeholder(s), %d edge(s)\n",
				r.Source, r.Total, r.Matched, r.Placeholders, r.Edges)
		}
	}
	fmt.Printf("Paper %d: %d edge(s) recorded, cited by %d\n",
		result.PaperID, result.Edges, result.CitationsCount)
	return nil
}
