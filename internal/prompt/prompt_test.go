package prompt

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"

	"github.com/funsense/fewshot/internal/dataset"
)

type wordCounter struct{}

func (wordCounter) Count(s string) int { return len(strings.Fields(s)) }

// squareCounter makes whole-prompt counts grow faster than the sum of the
// parts, like merges across block boundaries do in a real tokenizer.
type squareCounter struct{}

func (squareCounter) Count(s string) int {
	sep := strings.Count(s, "---")
	return len(strings.Fields(s)) + sep*sep
}

const frameWords = 21 // Preamble + Postamble

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func flat(content, label string) dataset.Example {
	return dataset.NewExample(content, [][]string{{label}})
}

func TestFormatExample(t *testing.T) {
	f := NewFormatter("good_material", "daily_news")
	ex := dataset.NewExample("Some text", [][]string{
		{"LLM", "RAG", "evaluation"},
		{"LLM", "RAG"},
		{"good_material"},
	})

	want := "Content: Some text\n" +
		"Labels:\n" +
		"- LLM -> RAG -> evaluation\n" +
		"- LLM -> RAG\n" +
		"- good_material\n"
	if got := f.FormatExample(ex); got != want {
		t.Errorf("FormatExample:\ngot  %q\nwant %q", got, want)
	}
}

func TestFormatExample_PairsByPosition(t *testing.T) {
	f := NewFormatter()
	ex := dataset.Example{
		Content:    "x",
		Labels:     []string{"a", "b", "c"},
		LabelPaths: [][]string{{"root", "a"}},
	}
	got := f.FormatExample(ex)
	if strings.Count(got, "\n- ") != 1 {
		t.Errorf("expected one label line, got %q", got)
	}
	if !strings.Contains(got, "- root -> a\n") {
		t.Errorf("missing path line in %q", got)
	}
}

func TestCoster(t *testing.T) {
	f := NewFormatter()
	c := Coster{Formatter: f, Counter: wordCounter{}}
	ex := flat("one two three", "A")
	// Content: one two three Labels: - A
	if got := c.Cost(ex); got != 7 {
		t.Errorf("Cost = %d, want 7", got)
	}
}

func TestGenerate_Errors(t *testing.T) {
	r := NewRenderer(NewFormatter(), wordCounter{}, 1000, nil)

	if _, err := r.Generate(nil, 3, seeded(1)); !errors.Is(err, ErrNoExamples) {
		t.Errorf("no examples: got %v", err)
	}
	examples := []dataset.Example{flat("x", "A")}
	if _, err := r.Generate(examples, 0, seeded(1)); !errors.Is(err, ErrInvalidCount) {
		t.Errorf("count 0: got %v", err)
	}

	small := NewRenderer(NewFormatter(), wordCounter{}, frameWords-1, nil)
	if _, err := small.Generate(examples, 1, seeded(1)); !errors.Is(err, ErrBudgetTooSmall) {
		t.Errorf("tiny budget: got %v", err)
	}
}

func TestGenerate_ClampsRequest(t *testing.T) {
	r := NewRenderer(NewFormatter(), wordCounter{}, 1000, nil)
	examples := []dataset.Example{flat("a", "A"), flat("b", "B"), flat("c", "C")}

	res, err := r.Generate(examples, 10, seeded(2))
	if err != nil {
		t.Fatal(err)
	}
	if res.Included != 3 || res.Requested != 10 || res.Available != 3 {
		t.Errorf("got included=%d requested=%d available=%d", res.Included, res.Requested, res.Available)
	}
	if !strings.HasPrefix(res.Text, Preamble) || !strings.HasSuffix(res.Text, Postamble) {
		t.Error("prompt must be framed by preamble and postamble")
	}
	if got := strings.Count(res.Text, Separator); got != 3 {
		t.Errorf("separators: got %d, want 3", got)
	}
	for _, c := range []string{"Content: a\n", "Content: b\n", "Content: c\n"} {
		if strings.Count(res.Text, c) != 1 {
			t.Errorf("expected %q exactly once", c)
		}
	}
	if res.Tokens != (wordCounter{}).Count(res.Text) {
		t.Errorf("Tokens = %d, want recount of text", res.Tokens)
	}
}

func TestGenerate_NilSource(t *testing.T) {
	r := NewRenderer(NewFormatter(), wordCounter{}, 1000, nil)
	examples := []dataset.Example{flat("a", "A"), flat("b", "B")}

	res, err := r.Generate(examples, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Included != 2 {
		t.Errorf("included: got %d, want 2", res.Included)
	}
}

func TestGenerate_StopsAtBudget(t *testing.T) {
	// Each block is 6 words: Content: x Labels: - A ---
	r := NewRenderer(NewFormatter(), wordCounter{}, frameWords+2*6, nil)
	examples := []dataset.Example{flat("a", "A"), flat("b", "B"), flat("c", "C")}

	res, err := r.Generate(examples, 3, seeded(3))
	if err != nil {
		t.Fatal(err)
	}
	if res.Included != 2 {
		t.Errorf("included: got %d, want 2", res.Included)
	}
	if res.Tokens != frameWords+12 {
		t.Errorf("tokens: got %d, want %d", res.Tokens, frameWords+12)
	}
}

func TestGenerate_RecountDropsTrailing(t *testing.T) {
	// Per block the counter sees 7; the whole prompt with k blocks costs
	// 21 + 5k + k*k, so three blocks pass the running check but not the recount.
	r := NewRenderer(NewFormatter(), squareCounter{}, 43, nil)
	examples := []dataset.Example{flat("a", "A"), flat("b", "B"), flat("c", "C")}

	res, err := r.Generate(examples, 3, seeded(4))
	if err != nil {
		t.Fatal(err)
	}
	if res.Included != 2 {
		t.Errorf("included: got %d, want 2", res.Included)
	}
	if res.Tokens > 43 {
		t.Errorf("tokens %d exceed budget", res.Tokens)
	}
}

func TestGenerate_NeverExceedsBudget(t *testing.T) {
	var examples []dataset.Example
	for i := 0; i < 20; i++ {
		content := strings.Repeat("word ", i+1)
		examples = append(examples, flat(content, "L"))
	}
	for seed := uint64(0); seed < 40; seed++ {
		rng := seeded(seed)
		budget := frameWords + rng.IntN(120)
		r := NewRenderer(NewFormatter(), squareCounter{}, budget, nil)
		res, err := r.Generate(examples, 1+rng.IntN(25), rng)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if got := (squareCounter{}).Count(res.Text); got > budget {
			t.Fatalf("seed %d: %d tokens exceeds %d", seed, got, budget)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	r := NewRenderer(NewFormatter(), wordCounter{}, 1000, nil)
	var examples []dataset.Example
	for _, c := range []string{"a", "b", "c", "d", "e"} {
		examples = append(examples, flat(c, "L"))
	}

	a, err := r.Generate(examples, 3, seeded(9))
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Generate(examples, 3, seeded(9))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed should render the same prompt")
	}
}
