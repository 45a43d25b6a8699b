// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/silk2onion/paperlib/internal/citations"
)

var graphCmd = &cobra.Command{
	Use:   "graph <paper-id>",
	Short: "Show the citation neighborhood of a paper",
	Long: `Graph assembles the one-hop citation neighborhood of a paper: the
papers it cites, the papers citing it, and every recorded edge between
them, with per-source counts.`,
	Args: cobra.ExactArgs(1),
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().StringSlice("sources", nil, "restrict edges to these providers")
	graphCmd.Flags().Float64("min-confidence", 0, "drop edges below this confidence")
	graphCmd.Flags().Bool("json", false, "output the graph as JSON")

	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
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

	svc := citations.New(st, newResolver(st, cfg, log), nil, cfg.Citations, log)

	var filter citations.GraphFilter
	filter.Sources, _ = cmd.Flags().GetStringSlice("sources")
	filter.MinConfidence, _ = cmd.Flags().GetFloat64("min-confidence")

	g, err := svc.EgoGraph(cmd.Context(), paperID, filter)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return printJSON(os.Stdout, g)
	}

	for _, n := range g.Nodes {
		year := ""
		if n.Year != 0 {
			year = fmt.Sprintf(" (%d)", n.Year)
		}
		fmt.Printf("  [%s] #%d %s%s\n", n.Role, n.ID, n.Label, year)
	}
	for _, e := range g.Edges {
		fmt.Printf("  #%d -> #%d via %s (%.2f)\n", e.CitingID, e.CitedID, e.Source, e.Confidence)
	}
	fmt.Printf("Paper %d: %d node(s), %d edge(s), cites %d, cited by %d\n",
		g.CenterID, g.Stats.TotalNodes, g.Stats.TotalEdges, g.Stats.OutDegree, g.Stats.InDegree)
	for source, count := range g.Stats.BySource {
		fmt.Printf("  %s: %d edge(s)\n", source, count)
	}
	return nil
}
