// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/silk2onion/paperlib/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search the canonical library semantically",
	Long: `Search expands the query through the semantic-group lexicon, embeds it,
and ranks canonical papers by cosine similarity. Filters narrow the
candidate pool before ranking. With --stream, results are printed batch by
batch as they are ranked.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("top-k", 0, "maximum number of results (default from config)")
	searchCmd.Flags().Int("year-from", 0, "earliest publication year")
	searchCmd.Flags().Int("year-to", 0, "latest publication year")
	searchCmd.Flags().String("group", "", "restrict to papers in a named group")
	searchCmd.Flags().Bool("include-archived", false, "include archived papers")
	searchCmd.Flags().Bool("stream", false, "print result batches as they arrive")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}

	cfg := loadConfig()
	log := newLogger()
	defer log.Sync()

	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	lex, err := newLexicon(cfg.Search)
	if err != nil {
		return err
	}

	req := search.Request{Query: strings.Join(args, " ")}
	req.TopK, _ = cmd.Flags().GetInt("top-k")
	req.YearFrom, _ = cmd.Flags().GetInt("year-from")
	req.YearTo, _ = cmd.Flags().GetInt("year-to")
	req.IncludeArchived, _ = cmd.Flags().GetBool("include-archived")

	if groupName, _ := cmd.Flags().GetString("group"); groupName != "" {
		g, err := st.GetGroupByName(cmd.Context(), groupName)
		if err != nil {
			return fmt.Errorf("group %q: %w", groupName, err)
		}
		req.GroupID = g.ID
	}

	svc := search.New(st, newProvider(cfg.Embedding), lex, cfg.Search, log)

	asJSON, _ := cmd.Flags().GetBool("json")
	if streaming, _ := cmd.Flags().GetBool("stream"); streaming {
		return streamSearch(cmd, svc, req, asJSON)
	}

	resp, err := svc.Search(cmd.Context(), req)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(os.Stdout, resp)
	}

	printSearchDebug(resp.Debug)
	for i, h := range resp.Hits {
		printHit(i+1, h)
	}
	fmt.Printf("%d of %d result(s)\n", len(resp.Hits), resp.Total)
	return nil
}

func streamSearch(cmd *cobra.Command, svc *search.Service, req search.Request, asJSON bool) error {
	rank := 0
	for ev := range svc.Stream(cmd.Context(), req) {
		if asJSON {
			if ev.Type == search.EventError {
				return ev.Err
			}
			if err := printJSON(os.Stdout, ev); err != nil {
				return err
			}
			continue
		}
		switch ev.Type {
		case search.EventDebug:
			printSearchDebug(*ev.Debug)
		case search.EventBatch:
			for _, h := range ev.Batch {
				rank++
				printHit(rank, h)
			}
		case search.EventDone:
			fmt.Printf("%d result(s)\n", ev.Total)
		case search.EventError:
			return ev.Err
		}
	}
	return cmd.Context().Err()
}

func printSearchDebug(d search.Debug) {
	fmt.Fprintf(os.Stderr, "Query keywords: %s (pool %d", strings.Join(d.Keywords, ", "), d.PoolSize)
	if d.Fallback {
		fmt.Fprint(os.Stderr, ", fallback ranking")
	}
	fmt.Fprintln(os.Stderr, ")")
}

func printHit(rank int, h search.Hit) {
	year := ""
	if h.Paper.Year != 0 {
		year = fmt.Sprintf(" (%d)", h.Paper.Year)
	}
	fmt.Printf("%3d. [%.3f] #%d %s%s\n", rank, h.Score, h.Paper.ID, h.Paper.Title, year)
}
