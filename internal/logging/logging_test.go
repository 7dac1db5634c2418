package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be suppressed without verbose, got %q", buf.String())
	}

	New(&buf, true).Debug("shown", Label("LLM"), Tokens(12))
	out := buf.String()
	for _, want := range []string{"shown", "label=LLM", "tokens=12"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestErr(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Warn("with error", Err(errors.New("boom")))
	if !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("error attribute missing: %q", buf.String())
	}

	buf.Reset()
	l.Warn("nil error", Err(nil))
	if strings.Contains(buf.String(), "error=") {
		t.Errorf("nil error should be omitted: %q", buf.String())
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	l := New(&bytes.Buffer{}, false)
	if OrDiscard(l) != l {
		t.Error("OrDiscard should return the given logger")
	}
}
