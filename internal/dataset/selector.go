package dataset

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/funsense/fewshot/internal/logging"
	"github.com/funsense/fewshot/internal/random"
	"github.com/funsense/fewshot/internal/tokens"
)

// DefaultMaxTokens is the default total token budget of a selection.
const DefaultMaxTokens = 32000

var (
	// ErrInvalidBudget is returned for a non-positive token budget, or for
	// overhead text given without a Counter to charge it.
	ErrInvalidBudget = errors.New("dataset: budget must be positive")
	// ErrInvalidMin is returned when fewer than one example per label is requested.
	ErrInvalidMin = errors.New("dataset: min examples per label must be at least 1")
)

// SelectOptions controls Select.
type SelectOptions struct {
	Min      int      // examples each label should get first; 0 means 1
	Max      int      // per-label ceiling for the top-up pass; 0 derives it from pool sizes
	Budget   int      // total token budget, overhead included
	Overhead []string // fixed prompt text charged before any example
	Counter  tokens.Counter // required when Overhead is set
	Rand     *rand.Rand // nil uses a time-seeded source
	Logger   *slog.Logger
}

// Selection is the result of Select.
type Selection struct {
	Examples    []Example
	TotalTokens int
	Budget      int
	MinPerLabel int
	MaxPerLabel int
}

// Distribution returns, for each label, how many selected examples carry it.
func (s *Selection) Distribution(labels []string) map[string]int {
	dist := make(map[string]int, len(labels))
	for _, label := range labels {
		dist[label] = countLabel(s.Examples, label)
	}
	return dist
}

// Select picks a balanced set of unique examples from pools within the budget.
//
// Labels are served smallest pool first. The first pass gives every label up
// to Min new examples; the second tops labels up to Max while budget remains.
// Content already selected is skipped. When a candidate does not fit the
// remaining budget, the current label stops and selection moves on.
//
// Pools are shuffled in place.
func Select(pools Pools, opts SelectOptions) (*Selection, error) {
	if opts.Budget <= 0 {
		return nil, ErrInvalidBudget
	}
	if len(opts.Overhead) > 0 && opts.Counter == nil {
		return nil, fmt.Errorf("%w: overhead without counter", ErrInvalidBudget)
	}
	if opts.Min == 0 {
		opts.Min = 1
	}
	if opts.Min < 1 {
		return nil, ErrInvalidMin
	}
	if opts.Max == 0 {
		opts.Max = autoMax(pools, opts.Min)
	}
	rng := random.OrNew(opts.Rand)
	logger := logging.WithOperation(logging.OrDiscard(opts.Logger), "select")

	budget := tokens.NewBudget(opts.Budget)
	if opts.Counter != nil {
		budget.ChargeText(opts.Counter, opts.Overhead...)
	}

	order := labelsBySize(pools)
	for _, label := range order {
		pool := pools[label]
		if len(pool) == 0 {
			logger.Warn("no examples for label", logging.Label(label))
			continue
		}
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}

	s := &selector{
		budget: budget,
		seen:   make(map[string]struct{}),
		logger: logger,
	}

	for _, label := range order {
		s.fill(label, pools[label], 0, opts.Min)
	}

	if !budget.Exhausted() {
		for _, label := range order {
			s.fill(label, pools[label], countLabel(s.examples, label), opts.Max)
		}
	}

	logger.Info("selection complete",
		logging.Count(len(s.examples)),
		logging.Tokens(budget.Used()),
		logging.Budget(budget.Limit()))

	return &Selection{
		Examples:    s.examples,
		TotalTokens: budget.Used(),
		Budget:      budget.Limit(),
		MinPerLabel: opts.Min,
		MaxPerLabel: opts.Max,
	}, nil
}

type selector struct {
	budget   *tokens.Budget
	seen     map[string]struct{}
	examples []Example
	logger   *slog.Logger
}

// fill adds candidates from pool until count reaches limit, the pool runs
// out, or a candidate does not fit the budget.
func (s *selector) fill(label string, pool []Candidate, count, limit int) {
	for _, c := range pool {
		if count >= limit {
			return
		}
		if _, dup := s.seen[c.Example.Content]; dup {
			continue
		}
		if !s.budget.TryCharge(c.Tokens) {
			s.logger.Warn("token budget reached",
				logging.Label(label),
				logging.Tokens(s.budget.Used()),
				logging.Budget(s.budget.Limit()))
			return
		}
		s.seen[c.Example.Content] = struct{}{}
		s.examples = append(s.examples, c.Example)
		count++
	}
}

// autoMax is the smallest pool size, but never below min.
func autoMax(pools Pools, minPer int) int {
	if len(pools) == 0 {
		return minPer
	}
	smallest := -1
	for _, pool := range pools {
		if smallest < 0 || len(pool) < smallest {
			smallest = len(pool)
		}
	}
	return max(minPer, smallest)
}

// labelsBySize orders labels by ascending pool size, then name.
func labelsBySize(pools Pools) []string {
	labels := make([]string, 0, len(pools))
	for label := range pools {
		labels = append(labels, label)
	}
	slices.SortFunc(labels, func(a, b string) int {
		if c := cmp.Compare(len(pools[a]), len(pools[b])); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return labels
}

func countLabel(examples []Example, label string) int {
	n := 0
	for _, ex := range examples {
		if ex.HasLabel(label) {
			n++
		}
	}
	return n
}
