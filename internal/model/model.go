package model

import (
	"strings"
	"time"
)

// Item is a single todo. Items form a forest via ParentID; siblings under the
// same parent are ordered by Order (see outline.CompareSiblings for the exact
// comparator, including tie-breaking).
type Item struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parentId,omitempty"`

	// Order positions an item among siblings sharing the same ParentID.
	// Values are not required to be contiguous; only relative order matters.
	// Reorder operations rewrite a sibling group to dense integers 0..N-1.
	Order float64 `json:"order"`

	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	StatusID    string   `json:"status,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Parent returns the trimmed parent id, or "" for a root item.
func (it Item) Parent() string {
	if it.ParentID == nil {
		return ""
	}
	return strings.TrimSpace(*it.ParentID)
}

// SameParent reports whether two parent references point at the same sibling group.
// nil and nil are the same group (roots); nil and non-nil are not.
func SameParent(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return strings.TrimSpace(*a) == strings.TrimSpace(*b)
}

const (
	StatusActive = "active"
	StatusDone   = "done"
)

// Event is one entry in the append-only mutation log.
type Event struct {
	ID       string    `json:"id"`
	TS       time.Time `json:"ts"`
	Type     string    `json:"type"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload"`
}
