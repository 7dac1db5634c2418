// Package prompt renders few-shot examples into a bounded prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/funsense/fewshot/internal/dataset"
	"github.com/funsense/fewshot/internal/tokens"
)

// Fixed prompt framing.
const (
	Preamble  = "Here are some examples of content and their hierarchical labels:\n\n"
	Postamble = "Now, please analyze the following content and assign appropriate hierarchical labels:\n\n"
	Separator = "\n---\n\n"
)

// Formatter renders examples. Single labels are printed bare; every other
// label is printed as its full path.
type Formatter struct {
	singles map[string]struct{}
}

// NewFormatter creates a Formatter treating singles as flat labels.
func NewFormatter(singles ...string) *Formatter {
	f := &Formatter{singles: make(map[string]struct{}, len(singles))}
	for _, s := range singles {
		f.singles[s] = struct{}{}
	}
	return f
}

// FormatExample renders one example. Labels and paths are paired by
// position; extra entries on either side are ignored.
func (f *Formatter) FormatExample(ex dataset.Example) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Content: %s\n", ex.Content)
	b.WriteString("Labels:\n")
	n := min(len(ex.Labels), len(ex.LabelPaths))
	for i := 0; i < n; i++ {
		label := ex.Labels[i]
		if _, single := f.singles[label]; single {
			fmt.Fprintf(&b, "- %s\n", label)
			continue
		}
		fmt.Fprintf(&b, "- %s\n", strings.Join(ex.LabelPaths[i], " -> "))
	}
	return b.String()
}

// Coster estimates example cost as the token count of its rendering.
type Coster struct {
	Formatter *Formatter
	Counter   tokens.Counter
}

// Cost implements dataset.Coster.
func (c Coster) Cost(ex dataset.Example) int {
	return c.Counter.Count(c.Formatter.FormatExample(ex))
}
