// Package export renders a label hierarchy and its example set into
// formats consumed by other tools.
package export

import (
	"slices"

	"github.com/funsense/fewshot/internal/dataset"
	"github.com/funsense/fewshot/internal/hierarchy"
)

// ExportData is passed to every Exporter.
type ExportData struct {
	SourceDir string
	Hierarchy *hierarchy.Hierarchy
	Examples  []dataset.Example
}

// Exporter renders ExportData to a string in a specific format.
type Exporter interface {
	Export(data ExportData) (string, error)
}

// registry maps format names to Exporter implementations.
var registry = map[string]Exporter{
	"markdown": &MarkdownExporter{},
	"json":     &JSONExporter{},
}

// Get returns the Exporter registered under name, and whether it was found.
func Get(name string) (Exporter, bool) {
	e, ok := registry[name]
	return e, ok
}

// ValidFormats returns the supported export format names, sorted.
func ValidFormats() []string {
	formats := make([]string, 0, len(registry))
	for k := range registry {
		formats = append(formats, k)
	}
	slices.Sort(formats)
	return formats
}

// Filename returns the file an export format is written to.
func Filename(format string) string {
	switch format {
	case "markdown":
		return "LABELS.md"
	case "json":
		return "label_hierarchy.json"
	default:
		return ""
	}
}
