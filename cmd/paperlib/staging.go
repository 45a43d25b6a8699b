// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/silk2onion/paperlib/pkg/types"
)

var stagingCmd = &cobra.Command{
	Use:   "staging",
	Short: "List staged candidate records",
	Long: `Staging lists candidate records in the staging area, newest first,
optionally filtered by review status or ingestion batch.`,
	RunE: runStaging,
}

var stagingRejectCmd = &cobra.Command{
	Use:   "reject <record-ids...>",
	Short: "Reject staged records",
	Long: `Reject marks staged records as rejected. Rejection is terminal: the
records never reach the canonical library.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStagingReject,
}

func init() {
	stagingCmd.Flags().String("status", "", "filter by status: pending, accepted, rejected")
	stagingCmd.Flags().String("batch", "", "filter by ingestion batch ID")
	stagingCmd.Flags().Bool("json", false, "output records as JSON")

	stagingCmd.AddCommand(stagingRejectCmd)
	rootCmd.AddCommand(stagingCmd)
}

func runStaging(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetString("status")
	switch types.ReviewStatus(status) {
	case "", types.StatusPending, types.StatusAccepted, types.StatusRejected:
	default:
		return fmt.Errorf("invalid status %q", status)
	}
	batchID, _ := cmd.Flags().GetString("batch")

	log := newLogger()
	defer log.Sync()

	st, err := openStore(loadConfig(), log)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.ListStaging(cmd.Context(), types.ReviewStatus(status), batchID)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return printJSON(os.Stdout, records)
	}

	for _, r := range records {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		line := fmt.Sprintf("  %d [%s] %s", r.ID, r.Status, title)
		if r.DOI != "" {
			line += " doi:" + r.DOI
		}
		if r.PaperID != 0 {
			line += fmt.Sprintf(" -> paper %d", r.PaperID)
		}
		fmt.Println(line)
	}
	fmt.Printf("%d record(s)\n", len(records))
	return nil
}

func runStagingReject(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer log.Sync()

	st, err := openStore(loadConfig(), log)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid staging record ID %q", a)
		}
		rec, err := st.GetStaging(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("staging record %d: %w", id, err)
		}
		if rec.Status == types.StatusAccepted {
			return fmt.Errorf("staging record %d is already accepted", id)
		}
		if err := st.SetStagingStatus(cmd.Context(), id, types.StatusRejected, 0); err != nil {
			return err
		}
	}
	fmt.Printf("Rejected %d record(s)\n", len(args))
	return nil
}
