// Package dataset builds balanced, token-budgeted few-shot example sets
// from a label hierarchy and a map of analyzed items.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// Item is the analysis record of a single email.
type Item struct {
	EmailID         string   `json:"email_id"`
	PostLabels      []string `json:"post_labels"`
	PostContentCN   string   `json:"post_content_cn"`
	PostContentEN   string   `json:"post_content_en"`
	LinkLists       []string `json:"link_lists"`
	PostSummaryCN   string   `json:"post_summary_cn"`
	PostSummaryEN   string   `json:"post_summary_en"`
	PostDatetime    string   `json:"post_datetime,omitempty"`
	SourceLanguage  string   `json:"source_language,omitempty"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// Content returns the text used for examples and labelling.
func (it Item) Content() string { return it.PostContentEN }

// Items maps item IDs to their analysis.
type Items map[string]Item

// IDs returns the item IDs in sorted order.
func (items Items) IDs() []string {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// LoadItems reads an analyzed map from a JSON file.
func LoadItems(path string) (Items, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read items: %w", err)
	}
	var items Items
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("dataset: decode items: %w", err)
	}
	if items == nil {
		items = Items{}
	}
	return items, nil
}

// SaveItems writes items to path as indented JSON.
func SaveItems(path string, items Items) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("dataset: encode items: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("dataset: write items: %w", err)
	}
	return nil
}
