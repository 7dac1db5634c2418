package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"

	"github.com/funsense/fewshot/internal/dumps"
)

func TestShouldIgnoreEvent(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, dumps.IgnoreFile), []byte("spam_*\n"), 0o644)
	ignore, err := dumps.NewIgnoreMatcher(dir, []string{"draft_*"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"LLM_RAG_20241222.json", false},
		{"good_material_20241224_080000.json", false},
		{"README.txt", true},
		{".LLM_agents.json.swp", true},
		{".hidden.json", true},
		{"spam_offers_20241222.json", true},
		{"draft_notes_20241222.json", true},
	}

	for _, tt := range tests {
		got := shouldIgnoreEvent(tt.name, ignore)
		if got != tt.want {
			t.Errorf("shouldIgnoreEvent(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSummarizeBatch(t *testing.T) {
	batch := map[string]fsnotify.Op{
		"a.json": fsnotify.Create,
		"b.json": fsnotify.Create | fsnotify.Write,
		"c.json": fsnotify.Write,
		"d.json": fsnotify.Remove,
		"e.json": fsnotify.Rename,
	}
	added, modified, deleted := summarizeBatch(batch)
	if added != 2 || modified != 1 || deleted != 2 {
		t.Errorf("got +%d ~%d -%d, want +2 ~1 -2", added, modified, deleted)
	}
}

func TestRebuild_StoresHierarchy(t *testing.T) {
	p := setupTestProject(t)

	rebuild(p, p.cfg.Dataset.DumpsDir, map[string]fsnotify.Op{"LLM_agents_20241223.json": fsnotify.Create})

	snap, err := p.store.LatestHierarchy()
	if err != nil {
		t.Fatalf("LatestHierarchy: %v", err)
	}
	if snap.LabelCount != 6 {
		t.Errorf("label count: got %d, want 6", snap.LabelCount)
	}
}
