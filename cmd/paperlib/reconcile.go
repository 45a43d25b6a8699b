// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/silk2onion/paperlib/internal/promote"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Backfill missing paper embeddings",
	Long: `Reconcile finds canonical papers whose embedding is missing, usually
because the provider was unavailable at promotion time, and embeds them.
By default it runs one sweep and exits; with --watch it keeps sweeping at
the configured interval until interrupted.`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().Int("limit", 0, "papers per sweep (default from config)")
	reconcileCmd.Flags().Duration("interval", 0, "sweep interval for --watch (default from config)")
	reconcileCmd.Flags().Bool("watch", false, "sweep repeatedly until interrupted")

	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		cfg.Reconcile.BatchLimit = limit
	}
	if interval, _ := cmd.Flags().GetDuration("interval"); interval > 0 {
		cfg.Reconcile.Interval = interval
	}

	log := newLogger()
	defer log.Sync()

	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	rec := promote.NewReconciler(st, newProvider(cfg.Embedding), cfg.Reconcile, log)

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		fmt.Printf("Sweeping every %s, Ctrl-C to stop\n", cfg.Reconcile.Interval.Round(time.Second))
		if err := rec.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	healed, err := rec.Sweep(cmd.Context(), cfg.Reconcile.BatchLimit)
	if err != nil {
		return err
	}
	remaining, err := st.CountMissingEmbeddings(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Embedded %d paper(s), %d still missing\n", healed, remaining)
	return nil
}
