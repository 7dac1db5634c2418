package export

import (
	"encoding/json"

	"github.com/funsense/fewshot/internal/dataset"
	"github.com/funsense/fewshot/internal/hierarchy"
)

// JSONExporter renders the hierarchy dict together with the examples.
type JSONExporter struct{}

type jsonOutput struct {
	Hierarchy hierarchy.Dict    `json:"hierarchy"`
	Examples  []dataset.Example `json:"examples"`
}

func (e *JSONExporter) Export(data ExportData) (string, error) {
	h := data.Hierarchy
	if h == nil {
		h = hierarchy.New()
	}
	examples := data.Examples
	if examples == nil {
		examples = []dataset.Example{}
	}

	b, err := json.MarshalIndent(jsonOutput{
		Hierarchy: h.ToDict(),
		Examples:  examples,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
