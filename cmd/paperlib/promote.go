// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/silk2onion/paperlib/internal/promote"
	"github.com/silk2onion/paperlib/pkg/types"
)

var promoteCmd = &cobra.Command{
	Use:   "promote [staging-ids...]",
	Short: "Promote staged records into the canonical library",
	Long: `Promote resolves staged records against the canonical library, merging
into existing papers or creating new ones, and embeds each promoted paper.
With no arguments every pending record is promoted; pass staging record IDs
to promote a subset. A DOI conflict or lookup failure aborts only the record
it occurred on.`,
	RunE: runPromote,
}

func init() {
	promoteCmd.Flags().String("batch", "", "restrict to one ingestion batch ID")
	promoteCmd.Flags().Bool("json", false, "output per-record outcomes as JSON")

	rootCmd.AddCommand(promoteCmd)
}

func runPromote(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid staging record ID %q", a)
		}
		ids = append(ids, id)
	}

	cfg := loadConfig()
	log := newLogger()
	defer log.Sync()

	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	batchID, _ := cmd.Flags().GetString("batch")
	if len(ids) == 0 {
		pending, err := st.ListStaging(cmd.Context(), types.StatusPending, batchID)
		if err != nil {
			return err
		}
		for _, rec := range pending {
			ids = append(ids, rec.ID)
		}
	}
	if len(ids) == 0 {
		fmt.Println("Nothing to promote")
		return nil
	}

	svc := promote.New(st, newResolver(st, cfg, log), newProvider(cfg.Embedding), log)
	outcomes, err := svc.Promote(cmd.Context(), ids)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return printJSON(os.Stdout, outcomes)
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != "" {
			failed++
			fmt.Printf("  staging %d: failed: %s\n", o.StagingID, o.Err)
			continue
		}
		verb := "merged into"
		switch {
		case o.Created:
			verb = "created"
		case o.Upgraded:
			verb = "upgraded placeholder"
		}
		embedded := "embedded"
		if !o.EmbeddingOK {
			embedded = "embedding pending"
		}
		fmt.Printf("  staging %d: %s paper %d (%s)\n", o.StagingID, verb, o.PaperID, embedded)
	}
	fmt.Printf("Promoted %d of %d record(s)\n", len(outcomes)-failed, len(outcomes))
	if failed > 0 {
		return fmt.Errorf("%d record(s) failed promotion", failed)
	}
	return nil
}
