// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Group is a named literature collection papers can belong to. Search can be
// scoped to a single group.
type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SemanticGroup is a named cluster of domain keywords used for query
// expansion. Loaded from configuration and consumed read-only.
type SemanticGroup struct {
	// Words are the member keywords; any of them appearing in a query can
	// activate the group.
	Words []string `json:"words" yaml:"words"`

	// Weight scales the group's activation strength.
	Weight float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}
