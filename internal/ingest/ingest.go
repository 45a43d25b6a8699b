// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest writes crawl candidates into the staging area. Staging is
// independent of the canonical store; records wait there for review and
// promotion.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/silk2onion/paperlib/internal/store"
	"github.com/silk2onion/paperlib/pkg/types"
)

// ErrInvalidCandidate reports a candidate with no identity at all: no
// title, no DOI, no source-native id. Such records can never be resolved
// and are rejected before they reach the staging area.
var ErrInvalidCandidate = errors.New("candidate has no identity fields")

// Outcome is the per-candidate result of a batch ingestion.
type Outcome struct {
	Index     int    `json:"index"`
	StagingID int64  `json:"staging_id,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Err       string `json:"error,omitempty"`
}

// BatchResult reports what happened to each candidate of one batch.
type BatchResult struct {
	BatchID    string    `json:"batch_id"`
	Staged     int       `json:"staged"`
	Duplicates int       `json:"duplicates"`
	Rejected   int       `json:"rejected"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Service stages candidate papers.
type Service struct {
	store *store.Store
	log   *zap.Logger
}

func New(st *store.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, log: log}
}

// IngestBatch stages a batch of candidates under a fresh batch id. Each
// candidate is processed independently: invalid ones are rejected,
// candidates whose strong identity is already staged are reported as
// duplicates, the rest become pending staging records. The returned error
// covers only infrastructure failures, never per-candidate outcomes.
func (s *Service) IngestBatch(ctx context.Context, candidates []types.CandidatePaper) (BatchResult, error) {
	result := BatchResult{
		BatchID:  uuid.NewString(),
		Outcomes: make([]Outcome, 0, len(candidates)),
	}

	for i, c := range candidates {
		out := Outcome{Index: i}

		if c.Title == "" && !c.HasIdentity() {
			out.Err = ErrInvalidCandidate.Error()
			result.Rejected++
			result.Outcomes = append(result.Outcomes, out)
			continue
		}

		if c.HasIdentity() {
			existing, err := s.store.FindStagingByIdentity(ctx, c)
			if err == nil {
				out.Duplicate = true
				out.StagingID = existing.ID
				result.Duplicates++
				result.Outcomes = append(result.Outcomes, out)
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return result, fmt.Errorf("checking staged identity: %w", err)
			}
		}

		rec := &types.StagingRecord{
			CandidatePaper: c,
			Status:         types.StatusPending,
			BatchID:        result.BatchID,
		}
		if err := s.store.CreateStaging(ctx, rec); err != nil {
			return result, fmt.Errorf("staging candidate %d: %w", i, err)
		}
		out.StagingID = rec.ID
		result.Staged++
		result.Outcomes = append(result.Outcomes, out)
	}

	s.log.Info("batch staged",
		zap.String("batch_id", result.BatchID),
		zap.Int("staged", result.Staged),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("rejected", result.Rejected))
	return result, nil
}
