// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/silk2onion/paperlib/internal/ingest"
	"github.com/silk2onion/paperlib/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Stage candidate papers for review",
	Long: `Ingest reads a YAML or JSON list of candidate papers from a file (or
stdin when the argument is "-" or omitted) and stages them for review.
Candidates already staged under the same DOI or source identity are skipped;
candidates with neither a title nor any identity field are rejected.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("json", false, "output the batch result as JSON")

	rootCmd.AddCommand(ingestCmd)
}

func readCandidates(path string) ([]types.CandidatePaper, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading candidates: %w", err)
	}

	var candidates []types.CandidatePaper
	if err := yaml.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("parsing candidates: %w", err)
	}
	return candidates, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	candidates, err := readCandidates(path)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no candidates in input")
	}

	log := newLogger()
	defer log.Sync()

	st, err := openStore(loadConfig(), log)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := ingest.New(st, log).IngestBatch(cmd.Context(), candidates)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return printJSON(os.Stdout, result)
	}

	fmt.Printf("Batch %s: %d staged, %d duplicate(s), %d rejected\n",
		result.BatchID, result.Staged, result.Duplicates, result.Rejected)
	for _, o := range result.Outcomes {
		switch {
		case o.Err != "":
			fmt.Printf("  [%d] rejected: %s\n", o.Index, o.Err)
		case o.Duplicate:
			fmt.Printf("  [%d] duplicate of staging record %d\n", o.Index, o.StagingID)
		default:
			fmt.Printf("  [%d] staged as record %d\n", o.Index, o.StagingID)
		}
	}
	return nil
}
