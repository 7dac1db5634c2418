package dataset

import (
	"log/slog"

	"github.com/funsense/fewshot/internal/hierarchy"
	"github.com/funsense/fewshot/internal/logging"
)

// Coster estimates the prompt token cost of an example.
type Coster interface {
	Cost(ex Example) int
}

// Candidate is an example together with its estimated cost.
type Candidate struct {
	Example Example
	Tokens  int
}

// Pools maps each label to its candidate examples.
type Pools map[string][]Candidate

// Sizes returns the number of candidates per label.
func (p Pools) Sizes() map[string]int {
	sizes := make(map[string]int, len(p))
	for label, c := range p {
		sizes[label] = len(c)
	}
	return sizes
}

// BuildPools collects candidate examples for every label in h.
//
// Labels are visited in creation order and their items in sorted order.
// Items missing from items or without English content are skipped. A
// candidate costing more than half the budget is dropped with a warning.
// Every label gets an entry, possibly empty.
func BuildPools(h *hierarchy.Hierarchy, items Items, coster Coster, budget int, logger *slog.Logger) (Pools, error) {
	logger = logging.OrDiscard(logger)
	limit := budget / 2

	pools := make(Pools, h.Len())
	cache := make(map[string]Candidate)

	for _, label := range h.Labels() {
		node, _ := h.Node(label)
		pool := []Candidate{}

		for _, id := range node.Items() {
			item, ok := items[id]
			if !ok || item.Content() == "" {
				continue
			}

			c, seen := cache[id]
			if !seen {
				paths, err := h.AllPathsForItem(id)
				if err != nil {
					return nil, err
				}
				ex := NewExample(item.Content(), paths)
				c = Candidate{Example: ex, Tokens: coster.Cost(ex)}
				cache[id] = c
			}

			if c.Tokens > limit {
				logger.Warn("example exceeds half the budget",
					logging.Label(label), logging.Item(id),
					logging.Tokens(c.Tokens), logging.Budget(budget))
				continue
			}
			pool = append(pool, c)
		}

		pools[label] = pool
		logger.Debug("pool built", logging.Label(label), logging.Count(len(pool)))
	}
	return pools, nil
}
