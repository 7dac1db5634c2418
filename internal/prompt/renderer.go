package prompt

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/funsense/fewshot/internal/dataset"
	"github.com/funsense/fewshot/internal/logging"
	"github.com/funsense/fewshot/internal/random"
	"github.com/funsense/fewshot/internal/tokens"
)

var (
	// ErrNoExamples is returned when there is nothing to render.
	ErrNoExamples = errors.New("prompt: no examples available")
	// ErrInvalidCount is returned for a requested count below one.
	ErrInvalidCount = errors.New("prompt: requested count must be at least 1")
	// ErrBudgetTooSmall is returned when the framing alone exceeds the budget.
	ErrBudgetTooSmall = errors.New("prompt: budget too small for preamble and postamble")
)

// Result is a rendered prompt and its accounting.
type Result struct {
	Text      string
	Included  int // examples in Text
	Requested int // count asked for, before clamping
	Available int // examples that could have been sampled
	Tokens    int // token count of Text
	Budget    int
}

// Renderer assembles prompts within a token budget.
type Renderer struct {
	formatter *Formatter
	counter   tokens.Counter
	maxTokens int
	logger    *slog.Logger
}

// NewRenderer creates a Renderer. A nil logger discards output.
func NewRenderer(formatter *Formatter, counter tokens.Counter, maxTokens int, logger *slog.Logger) *Renderer {
	return &Renderer{
		formatter: formatter,
		counter:   counter,
		maxTokens: maxTokens,
		logger:    logging.WithOperation(logging.OrDiscard(logger), "prompt"),
	}
}

// Generate samples requested examples without replacement and renders them
// between the preamble and the postamble. Examples that would push the prompt
// over budget are left out; the returned text never exceeds the budget.
func (r *Renderer) Generate(examples []dataset.Example, requested int, rng *rand.Rand) (*Result, error) {
	if len(examples) == 0 {
		return nil, ErrNoExamples
	}
	if requested < 1 {
		return nil, ErrInvalidCount
	}
	rng = random.OrNew(rng)

	n := requested
	if n > len(examples) {
		r.logger.Warn("requested more examples than available",
			logging.Count(requested), slog.Int("available", len(examples)))
		n = len(examples)
	}

	budget := tokens.NewBudget(r.maxTokens)
	budget.ChargeText(r.counter, Preamble, Postamble)
	if budget.Remaining() < 0 {
		return nil, ErrBudgetTooSmall
	}

	var blocks []string
	for _, idx := range rng.Perm(len(examples))[:n] {
		block := r.formatter.FormatExample(examples[idx]) + Separator
		if !budget.TryCharge(r.counter.Count(block)) {
			r.logger.Warn("stopping early to stay within token budget",
				logging.Count(len(blocks)), logging.Budget(budget.Limit()))
			break
		}
		blocks = append(blocks, block)
	}

	// Token counts are not additive across concatenation, so the whole text
	// is recounted and trailing examples dropped until it fits.
	text := assemble(blocks)
	total := r.counter.Count(text)
	for total > r.maxTokens && len(blocks) > 0 {
		blocks = blocks[:len(blocks)-1]
		text = assemble(blocks)
		total = r.counter.Count(text)
	}
	if total > r.maxTokens {
		return nil, ErrBudgetTooSmall
	}

	if len(blocks) < requested {
		r.logger.Warn("prompt has fewer examples than requested",
			slog.Int("included", len(blocks)), logging.Count(requested))
	}
	r.logger.Debug("prompt rendered", logging.Tokens(total), logging.Budget(r.maxTokens))

	return &Result{
		Text:      text,
		Included:  len(blocks),
		Requested: requested,
		Available: len(examples),
		Tokens:    total,
		Budget:    r.maxTokens,
	}, nil
}

func assemble(blocks []string) string {
	var b strings.Builder
	b.WriteString(Preamble)
	for _, blk := range blocks {
		b.WriteString(blk)
	}
	b.WriteString(Postamble)
	return b.String()
}
