package mcp

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/funsense/fewshot/internal/config"
	"github.com/funsense/fewshot/internal/dataset"
	"github.com/funsense/fewshot/internal/db"
	"github.com/funsense/fewshot/internal/hierarchy"
	"github.com/funsense/fewshot/internal/store"
)

type wordCounter struct{}

func (wordCounter) Count(s string) int { return len(strings.Fields(s)) }

func newTestServer(t *testing.T, populate bool) *Server {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	st := store.NewStore(database)

	if populate {
		h := hierarchy.New(hierarchy.DefaultSingleLabels...)
		h.AddLabelFromFilename("LLM_RAG_evaluation_20241222.json", []string{"m1", "m2"})
		h.AddLabelFromFilename("good_material_20241224.json", []string{"m1"})
		hid, err := st.SaveHierarchy("email_dumps", h)
		if err != nil {
			t.Fatalf("SaveHierarchy: %v", err)
		}
		_, err = st.SaveExampleSet(store.ExampleSet{
			HierarchyID: hid,
			TokenBudget: 1000,
			Examples: []dataset.Example{
				dataset.NewExample("rag eval notes", [][]string{{"LLM", "RAG", "evaluation"}}),
				dataset.NewExample("keep this one", [][]string{{"good_material"}}),
			},
		})
		if err != nil {
			t.Fatalf("SaveExampleSet: %v", err)
		}
		if err := st.UpsertItemLabels("m1", []string{"llm", "rag"}, "llama3.2"); err != nil {
			t.Fatalf("UpsertItemLabels: %v", err)
		}
	}

	cfg := config.DefaultGlobal()
	return NewServer(t.TempDir(), cfg, st, wordCounter{}, "test", nil)
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return ""
}

func TestListLabels(t *testing.T) {
	s := newTestServer(t, true)
	res, err := s.handleListLabels(context.Background(), call(nil))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, res)
	for _, want := range []string{"- LLM (2)", "    - evaluation (2)", "- good_material (1)"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}

func TestListLabels_NothingStored(t *testing.T) {
	s := newTestServer(t, false)
	res, _ := s.handleListLabels(context.Background(), call(nil))
	if res.IsError || !strings.Contains(resultText(t, res), "No hierarchy") {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestLabelPath(t *testing.T) {
	s := newTestServer(t, true)

	res, _ := s.handleLabelPath(context.Background(), call(map[string]any{"label": "evaluation"}))
	if got := resultText(t, res); got != "LLM -> RAG -> evaluation" {
		t.Errorf("got %q", got)
	}

	res, _ = s.handleLabelPath(context.Background(), call(map[string]any{"label": "nope"}))
	if !strings.Contains(resultText(t, res), "Unknown label") {
		t.Errorf("unexpected result for unknown label")
	}

	res, _ = s.handleLabelPath(context.Background(), call(nil))
	if !res.IsError {
		t.Error("expected error for missing label")
	}
}

func TestItemPaths(t *testing.T) {
	s := newTestServer(t, true)
	res, _ := s.handleItemPaths(context.Background(), call(map[string]any{"item_id": "m1"}))
	text := resultText(t, res)
	for _, want := range []string{"- LLM\n", "- LLM -> RAG -> evaluation\n", "- good_material\n"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}

	res, _ = s.handleItemPaths(context.Background(), call(map[string]any{"item_id": "m9"}))
	if !strings.Contains(resultText(t, res), "no labels") {
		t.Error("expected no labels for unknown item")
	}
}

func TestFewShotPrompt(t *testing.T) {
	s := newTestServer(t, true)
	res, err := s.handleFewShotPrompt(context.Background(), call(map[string]any{"count": 5, "seed": 7}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	for _, want := range []string{"Content: rag eval notes", "Content: keep this one", "- LLM -> RAG -> evaluation"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in prompt", want)
		}
	}

	again, _ := s.handleFewShotPrompt(context.Background(), call(map[string]any{"count": 5, "seed": 7}))
	if resultText(t, again) != text {
		t.Error("same seed should render the same prompt")
	}
}

func TestFewShotPrompt_NoExamples(t *testing.T) {
	s := newTestServer(t, false)
	res, _ := s.handleFewShotPrompt(context.Background(), call(nil))
	if !strings.Contains(resultText(t, res), "No example set") {
		t.Error("expected hint to build examples")
	}
}

func TestItemLabels(t *testing.T) {
	s := newTestServer(t, true)
	res, _ := s.handleItemLabels(context.Background(), call(map[string]any{"item_id": "m1"}))
	text := resultText(t, res)
	if !strings.HasPrefix(text, "llm, rag") || !strings.Contains(text, "llama3.2") {
		t.Errorf("unexpected text %q", text)
	}

	res, _ = s.handleItemLabels(context.Background(), call(map[string]any{"item_id": "m2"}))
	if !strings.Contains(resultText(t, res), "not been labelled") {
		t.Error("expected not-labelled message")
	}
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, true)
	res, _ := s.handleStatus(context.Background(), call(nil))
	text := resultText(t, res)
	for _, want := range []string{"Hierarchies:  1", "latest has 2 examples", "Labelled:     1"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}
