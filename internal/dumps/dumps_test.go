package dumps

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/funsense/fewshot/internal/hierarchy"
)

func writeDump(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []string
		wantErr bool
	}{
		{"list", `[{"id":"a"},{"id":"b","snippet":"x"}]`, []string{"a", "b"}, false},
		{"object", `{"id":"a","threadId":"t"}`, []string{"a"}, false},
		{"empty list", `[]`, []string{}, false},
		{"leading whitespace", "\n  [{\"id\":\"a\"}]", []string{"a"}, false},
		{"missing id", `[{"snippet":"x"}]`, nil, true},
		{"empty id", `{"id":""}`, nil, true},
		{"numeric id", `[{"id":7}]`, nil, true},
		{"scalar", `"a"`, nil, true},
		{"empty", ``, nil, true},
		{"truncated", `[{"id":"a"`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIDs([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseIDs(%q): expected error, got %v", tt.body, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseIDs(%q): %v", tt.body, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseIDs(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}

func TestScan_SkipsNonDumps(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "LLM_RAG_20241222.json", `[{"id":"m1"}]`)
	writeDump(t, dir, "notes.txt", "hello")
	os.MkdirAll(filepath.Join(dir, "nested.json"), 0o755)

	result, err := Scan(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Dumps) != 1 {
		t.Fatalf("expected 1 dump, got %d", len(result.Dumps))
	}
	d := result.Dumps[0]
	if d.Name != "LLM_RAG_20241222.json" || !slices.Equal(d.IDs, []string{"m1"}) {
		t.Errorf("unexpected dump: %+v", d)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
}

func TestScan_CollectsMalformed(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "a_b_20240101.json", `[{"id":"m1"}]`)
	writeDump(t, dir, "c_d_20240101.json", `not json`)

	result, err := Scan(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Dumps) != 1 {
		t.Errorf("expected 1 good dump, got %d", len(result.Dumps))
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", result.Errors)
	}
}

func TestScan_Exclude(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "a_b_20240101.json", `[{"id":"m1"}]`)
	writeDump(t, dir, "spam_x_20240101.json", `[{"id":"m2"}]`)
	writeDump(t, dir, "promo_y_20240101.json", `[{"id":"m3"}]`)
	writeDump(t, dir, IgnoreFile, "promo_*\n")

	result, err := Scan(dir, Options{Exclude: []string{"spam_*"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Dumps) != 1 || result.Dumps[0].Name != "a_b_20240101.json" {
		t.Errorf("unexpected dumps: %+v", result.Dumps)
	}
	if len(result.Skipped) != 2 {
		t.Errorf("expected 2 skipped, got %v", result.Skipped)
	}
}

func TestScan_MissingDir(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"), Options{})
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestIgnoreMatcher_Empty(t *testing.T) {
	m, err := NewIgnoreMatcher(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.Match("anything.json") {
		t.Error("empty matcher should match nothing")
	}
}

func TestScan_UnreadableIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	// A directory in place of the ignore file cannot be read as patterns.
	if err := os.Mkdir(filepath.Join(dir, IgnoreFile), 0o755); err != nil {
		t.Fatal(err)
	}
	writeDump(t, dir, "draft_notes_20241222.json", `[{"id":"a"}]`)
	writeDump(t, dir, "LLM_RAG_20241222.json", `[{"id":"b"}]`)

	m, err := NewIgnoreMatcher(dir, []string{"draft_*"})
	if err == nil {
		t.Fatal("expected error for unreadable ignore file")
	}
	if !m.Match("draft_notes_20241222.json") {
		t.Error("configured patterns should still apply")
	}

	result, err := Scan(dir, Options{Exclude: []string{"draft_*"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0].Error(), IgnoreFile) {
		t.Errorf("expected ignore file error, got %v", result.Errors)
	}
	if len(result.Dumps) != 1 || len(result.Skipped) != 1 {
		t.Errorf("got %d dumps, %v skipped", len(result.Dumps), result.Skipped)
	}
}

func TestBuildHierarchy_Testdata(t *testing.T) {
	h, result, err := BuildHierarchy("../../testdata/email_dumps", hierarchy.DefaultSingleLabels, Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// finance_markets has no ids and is skipped.
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 skipped dump, got %v", result.Errors)
	}
	if _, ok := h.Node("finance"); ok {
		t.Error("malformed dump should not create labels")
	}

	path, err := h.PathToRoot("evaluation")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(path, []string{"LLM", "RAG", "evaluation"}) {
		t.Errorf("PathToRoot(evaluation) = %v", path)
	}

	llm, ok := h.Node("LLM")
	if !ok {
		t.Fatal("missing LLM label")
	}
	for _, id := range []string{"m1", "m2", "m3"} {
		if !llm.HasItem(id) {
			t.Errorf("LLM should contain %s", id)
		}
	}
	for _, single := range []string{"good_material", "daily_news"} {
		n, ok := h.Node(single)
		if !ok {
			t.Fatalf("missing single label %s", single)
		}
		if n.Parent() != "" || len(n.Children()) != 0 {
			t.Errorf("%s should be a flat root", single)
		}
	}
	_, good := h.Node("good")
	_, daily := h.Node("daily")
	if good || daily {
		t.Error("single labels must not be split")
	}
}

func TestBuildHierarchy_SkipsRejectedFilename(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "a_b_20240101.json", `[{"id":"m1"}]`)
	writeDump(t, dir, "a__b_20240101.json", `[{"id":"m2"}]`)

	h, result, err := BuildHierarchy(dir, nil, Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Dumps) != 1 {
		t.Errorf("expected 1 kept dump, got %d", len(result.Dumps))
	}
	if len(result.Errors) != 1 || !errors.Is(result.Errors[0], hierarchy.ErrEmptySegment) {
		t.Errorf("expected ErrEmptySegment, got %v", result.Errors)
	}
	if a, _ := h.Node("a"); a == nil || a.HasItem("m2") {
		t.Error("rejected dump should not contribute items")
	}
}
