// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <paper-ids...>",
	Short: "Archive or restore canonical papers",
	Long: `Archive hides canonical papers from search without deleting them.
Archived papers keep their citation edges and provenance and can be
restored with --restore. Search skips them unless --include-archived
is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runArchive,
}

func init() {
	archiveCmd.Flags().Bool("restore", false, "restore instead of archive")

	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid paper ID %q", a)
		}
		ids = append(ids, id)
	}

	log := newLogger()
	defer log.Sync()

	st, err := openStore(loadConfig(), log)
	if err != nil {
		return err
	}
	defer st.Close()

	restore, _ := cmd.Flags().GetBool("restore")
	updated, err := st.SetArchived(cmd.Context(), ids, !restore)
	if err != nil {
		return err
	}

	verb := "Archived"
	if restore {
		verb = "Restored"
	}
	fmt.Printf("%s %d paper(s)\n", verb, updated)
	return nil
}
