// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ReviewStatus is the lifecycle state of a staging record.
type ReviewStatus string

const (
	// StatusPending means the record is awaiting review.
	StatusPending ReviewStatus = "pending"

	// StatusAccepted means the record was promoted into the canonical store.
	StatusAccepted ReviewStatus = "accepted"

	// StatusRejected is terminal; the record never reaches the canonical store.
	StatusRejected ReviewStatus = "rejected"
)

// StagingRecord wraps a crawled candidate in the pre-review holding area.
// It is mutated only by reviewer actions; ranking and citation subsystems
// never touch it.
type StagingRecord struct {
	ID int64 `json:"id"`

	CandidatePaper `yaml:",inline"`

	// Status is pending until a reviewer accepts or rejects the record.
	Status ReviewStatus `json:"status"`

	// BatchID groups records ingested by the same crawl job.
	BatchID string `json:"batch_id,omitempty"`

	// PaperID is the canonical paper this record was promoted into,
	// 0 until promotion. Kept for traceability.
	PaperID int64 `json:"paper_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
