// Package store persists hierarchies, example sets and assigned item labels.
package store

import (
	"time"

	"github.com/funsense/fewshot/internal/dataset"
	"github.com/funsense/fewshot/internal/hierarchy"
)

// Snapshot is a stored hierarchy.
type Snapshot struct {
	ID         int64
	SourceDir  string
	Dict       hierarchy.Dict
	LabelCount int
	ItemCount  int
	CreatedAt  time.Time
}

// Hierarchy rebuilds the stored hierarchy.
func (s Snapshot) Hierarchy(singles ...string) (*hierarchy.Hierarchy, error) {
	return hierarchy.FromDict(s.Dict, singles...)
}

// ExampleSet is a stored selection.
type ExampleSet struct {
	ID          int64
	HierarchyID int64 // 0 when not tied to a stored hierarchy
	TokenBudget int
	TotalTokens int
	MinPerLabel int
	MaxPerLabel int
	Seed        int64
	Count       int
	Examples    []dataset.Example
	CreatedAt   time.Time
}

// ItemLabels are the labels assigned to an item by the labeler.
type ItemLabels struct {
	ItemID    string
	Labels    []string
	Model     string
	UpdatedAt time.Time
}

// Stats summarises what's stored.
type Stats struct {
	Hierarchies   int
	Labels        int // in the latest hierarchy
	ExampleSets   int
	Examples      int // in the latest example set
	LabelledItems int
	LastUpdated   time.Time
}
