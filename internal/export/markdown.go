package export

import (
	"fmt"
	"strings"

	"github.com/funsense/fewshot/internal/hierarchy"
)

// MarkdownExporter renders the label tree and example distribution.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(data ExportData) (string, error) {
	var b strings.Builder
	b.WriteString("# Label Hierarchy\n\n")
	if data.SourceDir != "" {
		fmt.Fprintf(&b, "Built from `%s`.\n\n", data.SourceDir)
	}

	h := data.Hierarchy
	if h == nil || h.Len() == 0 {
		b.WriteString("_No labels._\n")
		return b.String(), nil
	}

	b.WriteString("## Labels\n\n")
	for _, root := range h.Roots() {
		writeTree(&b, h, root, 0)
	}
	b.WriteString("\n")

	var singles []string
	for _, s := range h.SingleLabels() {
		if _, ok := h.Node(s); ok {
			singles = append(singles, s)
		}
	}
	if len(singles) > 0 {
		b.WriteString("## Single Labels\n\n")
		for _, s := range singles {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	if len(data.Examples) > 0 {
		fmt.Fprintf(&b, "## Example Distribution\n\n%d examples.\n\n", len(data.Examples))
		b.WriteString("| Label | Examples |\n|---|---|\n")
		for _, label := range h.Labels() {
			n := 0
			for _, ex := range data.Examples {
				if ex.HasLabel(label) {
					n++
				}
			}
			fmt.Fprintf(&b, "| %s | %d |\n", label, n)
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}

// writeTree renders label and its descendants as a nested list.
func writeTree(b *strings.Builder, h *hierarchy.Hierarchy, label string, depth int) {
	if depth > h.Len() {
		return // parent cycle
	}
	n, ok := h.Node(label)
	if !ok {
		return
	}
	fmt.Fprintf(b, "%s- %s (%d)\n", strings.Repeat("  ", depth), label, n.ItemCount())
	for _, c := range n.Children() {
		writeTree(b, h, c, depth+1)
	}
}
