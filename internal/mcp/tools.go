package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/funsense/fewshot/internal/export"
	"github.com/funsense/fewshot/internal/hierarchy"
	"github.com/funsense/fewshot/internal/logging"
	"github.com/funsense/fewshot/internal/prompt"
	"github.com/funsense/fewshot/internal/random"
	"github.com/funsense/fewshot/internal/store"
)

const notBuilt = "No hierarchy stored yet. Run `fewshot hierarchy` first."

func (s *Server) latestHierarchy() (store.Snapshot, *hierarchy.Hierarchy, error) {
	snap, err := s.store.LatestHierarchy()
	if err != nil {
		return snap, nil, err
	}
	h, err := snap.Hierarchy(s.cfg.Dataset.SingleLabels...)
	return snap, h, err
}

func (s *Server) handleListLabels(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, h, err := s.latestHierarchy()
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultText(notBuilt), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load hierarchy: %v", err)), nil
	}

	exp, _ := export.Get("markdown")
	out, err := exp.Export(export.ExportData{SourceDir: snap.SourceDir, Hierarchy: h})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render hierarchy: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleLabelPath(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: label"), nil
	}

	_, h, err := s.latestHierarchy()
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultText(notBuilt), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load hierarchy: %v", err)), nil
	}

	path, err := h.PathToRoot(label)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(path) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Unknown label %q.", label)), nil
	}
	return mcp.NewToolResultText(strings.Join(path, " -> ")), nil
}

func (s *Server) handleItemPaths(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: item_id"), nil
	}

	_, h, err := s.latestHierarchy()
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultText(notBuilt), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load hierarchy: %v", err)), nil
	}

	paths, err := h.AllPathsForItem(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Email %s has no labels.", id)), nil
	}

	var sb strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&sb, "- %s\n", strings.Join(p, " -> "))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleFewShotPrompt(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count := req.GetInt("count", s.cfg.Dataset.NumExamples)
	seed := req.GetInt("seed", 0)

	set, err := s.store.LatestExampleSet()
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultText("No example set stored yet. Run `fewshot examples` first."), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load examples: %v", err)), nil
	}

	rng, _ := random.New(int64(seed))

	renderer := prompt.NewRenderer(prompt.NewFormatter(s.cfg.Dataset.SingleLabels...), s.counter, s.cfg.Dataset.MaxTokens, s.logger)
	res, err := renderer.Generate(set.Examples, count, rng)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render prompt: %v", err)), nil
	}

	s.logger.Debug("prompt rendered",
		logging.Count(res.Included),
		logging.Tokens(res.Tokens),
		slog.Int64("set", set.ID),
	)
	return mcp.NewToolResultText(res.Text), nil
}

func (s *Server) handleItemLabels(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: item_id"), nil
	}

	il, err := s.store.GetItemLabels(id)
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf("Email %s has not been labelled.", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load labels: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n  model: %s | updated: %s",
		strings.Join(il.Labels, ", "), il.Model, il.UpdatedAt.Format("2006-01-02 15:04"))), nil
}

func (s *Server) handleStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.store.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read stats: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hierarchies:  %d (latest has %d labels)\n", st.Hierarchies, st.Labels)
	fmt.Fprintf(&sb, "Example sets: %d (latest has %d examples)\n", st.ExampleSets, st.Examples)
	fmt.Fprintf(&sb, "Labelled:     %d emails\n", st.LabelledItems)
	if !st.LastUpdated.IsZero() {
		fmt.Fprintf(&sb, "Updated:      %s\n", st.LastUpdated.Format("2006-01-02 15:04"))
	}
	return mcp.NewToolResultText(sb.String()), nil
}
