// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/silk2onion/paperlib/pkg/types"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Manage paper groups",
	Long: `Groups organizes canonical papers into named collections that can scope
semantic search. Without a subcommand, existing groups are listed.`,
	RunE: runGroupsList,
}

var groupsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupsCreate,
}

var groupsAddCmd = &cobra.Command{
	Use:   "add <name> <paper-ids...>",
	Short: "Add papers to a group",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runGroupsAdd,
}

func init() {
	groupsCreateCmd.Flags().String("description", "", "group description")
	groupsCmd.Flags().Bool("json", false, "output groups as JSON")

	groupsCmd.AddCommand(groupsCreateCmd)
	groupsCmd.AddCommand(groupsAddCmd)
	rootCmd.AddCommand(groupsCmd)
}

func runGroupsList(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer log.Sync()

	st, err := openStore(loadConfig(), log)
	if err != nil {
		return err
	}
	defer st.Close()

	groups, err := st.ListGroups(cmd.Context())
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return printJSON(os.Stdout, groups)
	}

	for _, g := range groups {
		line := fmt.Sprintf("  %d %s", g.ID, g.Name)
		if g.Description != "" {
			line += " - " + g.Description
		}
		fmt.Println(line)
	}
	fmt.Printf("%d group(s)\n", len(groups))
	return nil
}

func runGroupsCreate(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer log.Sync()

	st, err := openStore(loadConfig(), log)
	if err != nil {
		return err
	}
	defer st.Close()

	description, _ := cmd.Flags().GetString("description")
	g := types.Group{Name: args[0], Description: description}
	if err := st.CreateGroup(cmd.Context(), &g); err != nil {
		return err
	}
	fmt.Printf("Group %d: %s\n", g.ID, g.Name)
	return nil
}

func runGroupsAdd(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer log.Sync()

	st, err := openStore(loadConfig(), log)
	if err != nil {
		return err
	}
	defer st.Close()

	g, err := st.GetGroupByName(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("group %q: %w", args[0], err)
	}

	for _, a := range args[1:] {
		paperID, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid paper ID %q", a)
		}
		if _, err := st.GetPaper(cmd.Context(), paperID); err != nil {
			return fmt.Errorf("paper %d: %w", paperID, err)
		}
		if err := st.AddPaperToGroup(cmd.Context(), paperID, g.ID); err != nil {
			return err
		}
	}
	fmt.Printf("Added %d paper(s) to %s\n", len(args)-1, g.Name)
	return nil
}
