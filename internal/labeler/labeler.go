// Package labeler assigns labels to new content using a few-shot prompt.
package labeler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/funsense/fewshot/internal/adapter"
	"github.com/funsense/fewshot/internal/dataset"
	"github.com/funsense/fewshot/internal/logging"
)

// SystemPrompt instructs the model to answer with a bare JSON array.
const SystemPrompt = `You are an AI assistant that generates labels for content.
Given examples of content and their corresponding labels, your task is to generate appropriate labels for new content.
The labels should be consistent with the examples provided and reflect the main topics or categories of the content.

Rules:
1. Return ONLY a JSON array of label strings, nothing else
2. Keep labels concise and lowercase
3. Use existing labels from examples when possible
4. Add new labels only when necessary
5. Focus on the main topics and technologies mentioned

Example output format: ["label1", "label2", "label3"]
`

// ErrNoLabels is returned when a model response holds no JSON array.
var ErrNoLabels = errors.New("labeler: no label array in response")

// Truncator counts tokens and cuts text to a token limit.
// *tokens.Tokenizer satisfies it.
type Truncator interface {
	Count(s string) int
	Truncate(s string, maxTokens int) string
}

// Options configures the completion requests.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// Tokenizer, when set, trims content so the request fits the model's
	// context window. Nil sends content untrimmed.
	Tokenizer Truncator
	Logger    *slog.Logger
}

// Labeler labels content through an LLM, guided by a rendered few-shot prompt.
type Labeler struct {
	llm    adapter.LLMAdapter
	prompt string
	opts   Options
	logger *slog.Logger
}

// New creates a Labeler. prompt is the rendered few-shot prompt.
func New(llm adapter.LLMAdapter, prompt string, opts Options) *Labeler {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 512
	}
	return &Labeler{
		llm:    llm,
		prompt: prompt,
		opts:   opts,
		logger: logging.WithOperation(logging.OrDiscard(opts.Logger), "label"),
	}
}

const userTemplate = "Now generate labels for this content:\n%s\n\nReturn ONLY a JSON array of label strings, nothing else.\nFor example: [\"label1\", \"label2\", \"label3\"]"

// LabelContent asks the model for labels for content.
func (l *Labeler) LabelContent(ctx context.Context, content string) ([]string, error) {
	msg := fmt.Sprintf(userTemplate, l.fitContent(content))

	raw, err := adapter.Complete(ctx, l.llm, adapter.CompletionRequest{
		SystemPrompt: SystemPrompt,
		Context:      l.prompt,
		UserMessage:  msg,
		Model:        l.opts.Model,
		MaxTokens:    l.opts.MaxTokens,
		Temperature:  l.opts.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return ParseLabels(raw)
}

// fitContent trims content to the room the model's context window leaves
// after the system prompt, the few-shot prompt, the instructions and the
// reserved completion tokens.
func (l *Labeler) fitContent(content string) string {
	window := l.llm.Info().MaxContextWindow
	tok := l.opts.Tokenizer
	if tok == nil || window <= 0 {
		return content
	}
	room := window - tok.Count(SystemPrompt) - tok.Count(l.prompt) -
		tok.Count(fmt.Sprintf(userTemplate, "")) - l.opts.MaxTokens
	if room < 0 {
		room = 0
	}
	trimmed := tok.Truncate(content, room)
	if len(trimmed) < len(content) {
		l.logger.Debug("content truncated to fit context window",
			slog.Int("window", window), slog.Int("room", room))
	}
	return trimmed
}

// RunOptions controls LabelItems.
type RunOptions struct {
	Overwrite  bool // relabel items that already have labels
	Limit      int  // stop after this many model calls; 0 = no limit
	OnProgress func(done, total int)
}

// LabelItems labels every item that needs it, in ID order. Items with
// existing labels are skipped unless Overwrite is set; items without
// English content are always skipped. Per-item failures are collected and
// do not stop the run. Cancelling ctx stops the run and reports ctx.Err().
func (l *Labeler) LabelItems(ctx context.Context, items dataset.Items, opts RunOptions) (map[string][]string, []error) {
	var todo []string
	for _, id := range items.IDs() {
		it := items[id]
		if it.Content() == "" {
			continue
		}
		if len(it.PostLabels) > 0 && !opts.Overwrite {
			continue
		}
		todo = append(todo, id)
	}
	if opts.Limit > 0 && len(todo) > opts.Limit {
		todo = todo[:opts.Limit]
	}

	out := make(map[string][]string, len(todo))
	var errs []error
	for i, id := range todo {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		labels, err := l.LabelContent(ctx, items[id].Content())
		if err != nil {
			l.logger.Warn("labelling failed", logging.Item(id), logging.Err(err))
			errs = append(errs, fmt.Errorf("item %s: %w", id, err))
		} else {
			l.logger.Debug("labelled", logging.Item(id), logging.Count(len(labels)))
			out[id] = labels
		}
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(todo))
		}
	}
	return out, errs
}

// ParseLabels extracts a label list from a model response.
// Lenient: searches for the first '[' and last ']' to handle models that
// wrap the array in extra prose or markdown fences. Labels are trimmed,
// lowercased and deduplicated; non-string elements are ignored.
func ParseLabels(raw string) ([]string, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end <= start {
		return nil, ErrNoLabels
	}

	var values []any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoLabels, err)
	}

	labels := []string{}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		labels = append(labels, s)
	}
	return labels, nil
}
