// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package promote

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/silk2onion/paperlib/internal/embedding"
	"github.com/silk2onion/paperlib/internal/store"
	"github.com/silk2onion/paperlib/pkg/types"
)

// Reconciler backfills embeddings for papers that were committed without a
// vector, either because the provider was down during promotion or because
// they were created as citation placeholders.
type Reconciler struct {
	store    *store.Store
	provider embedding.Provider
	cfg      types.ReconcileConfig
	log      *zap.Logger
}

func NewReconciler(st *store.Store, provider embedding.Provider, cfg types.ReconcileConfig, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.BatchLimit == 0 {
		cfg.BatchLimit = 100
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 4
	}
	return &Reconciler{store: st, provider: provider, cfg: cfg, log: log}
}

// Sweep embeds up to limit papers that lack a vector and reports how many
// were healed. Individual failures are logged and left for the next sweep.
func (r *Reconciler) Sweep(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = r.cfg.BatchLimit
	}
	papers, err := r.store.MissingEmbeddings(ctx, limit)
	if err != nil {
		return 0, err
	}
	if len(papers) == 0 {
		return 0, nil
	}

	healed := make(chan int64, len(papers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for _, p := range papers {
		p := p
		g.Go(func() error {
			vec, err := r.provider.Embed(gctx, p.EmbeddingText())
			if err != nil {
				r.log.Warn("reconcile embed failed",
					zap.Int64("paper_id", p.ID),
					zap.Error(err))
				return nil
			}
			if err := r.store.SetEmbedding(gctx, p.ID, vec); err != nil {
				r.log.Warn("storing reconciled embedding failed",
					zap.Int64("paper_id", p.ID),
					zap.Error(err))
				return nil
			}
			healed <- p.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	close(healed)

	n := len(healed)
	r.log.Info("reconciliation sweep complete",
		zap.Int("candidates", len(papers)),
		zap.Int("healed", n))
	return n, nil
}

// Run sweeps on the configured interval until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Sweep(ctx, r.cfg.BatchLimit); err != nil {
				r.log.Error("reconciliation sweep failed", zap.Error(err))
			}
		}
	}
}
