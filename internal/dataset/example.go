package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// Example is one few-shot example: a piece of content and every label path
// it belongs to. Labels holds the distinct leaves of LabelPaths, in order.
type Example struct {
	Content    string     `json:"content"`
	Labels     []string   `json:"labels"`
	LabelPaths [][]string `json:"label_paths"`
}

// NewExample builds an Example from content and its label paths.
func NewExample(content string, paths [][]string) Example {
	labels := make([]string, 0, len(paths))
	cloned := make([][]string, 0, len(paths))
	for _, p := range paths {
		if len(p) == 0 {
			continue
		}
		cloned = append(cloned, slices.Clone(p))
		if leaf := p[len(p)-1]; !slices.Contains(labels, leaf) {
			labels = append(labels, leaf)
		}
	}
	return Example{Content: content, Labels: labels, LabelPaths: cloned}
}

// HasLabel reports whether label is one of the example's leaf labels.
func (e Example) HasLabel(label string) bool {
	return slices.Contains(e.Labels, label)
}

// SaveExamples writes examples to path as a JSON list.
func SaveExamples(path string, examples []Example) error {
	if examples == nil {
		examples = []Example{}
	}
	data, err := json.MarshalIndent(examples, "", "  ")
	if err != nil {
		return fmt.Errorf("dataset: encode examples: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("dataset: write examples: %w", err)
	}
	return nil
}

// LoadExamples reads a JSON list of examples from path.
func LoadExamples(path string) ([]Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read examples: %w", err)
	}
	var examples []Example
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("dataset: decode examples: %w", err)
	}
	return examples, nil
}
