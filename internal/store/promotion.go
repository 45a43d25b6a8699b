// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/silk2onion/paperlib/pkg/types"
)

// CommitPromotion applies the outcome of resolving one staging record in a
// single transaction: the canonical paper is inserted (zero id) or rewritten
// (existing id), provenance is recorded, and the staging record is marked
// accepted and stamped with the canonical id. A DOI collision rolls the
// whole record back and returns ErrDOIConflict; other staged records are
// unaffected.
func (s *Store) CommitPromotion(ctx context.Context, p *types.Paper, source, sourceID string, stagingID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning promotion transaction: %w", err)
	}
	defer tx.Rollback()

	if p.ID == 0 {
		if err := s.insertPaper(ctx, tx, p); err != nil {
			return err
		}
	} else {
		if err := s.updatePaper(ctx, tx, p); err != nil {
			return err
		}
	}
	if err := s.addProvenance(ctx, tx, p.ID, source, sourceID); err != nil {
		return err
	}
	if stagingID != 0 {
		if err := s.setStagingStatus(ctx, tx, stagingID, types.StatusAccepted, p.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing promotion of staging record %d: %w", stagingID, err)
	}
	s.log.Debug("promotion committed",
		zap.Int64("paper_id", p.ID),
		zap.Int64("staging_id", stagingID))
	return nil
}
