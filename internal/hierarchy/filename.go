package hierarchy

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrEmptySegment is returned for filenames containing an empty label segment,
// e.g. "LLM__RAG_20241222.json" or "LLM_.json".
var ErrEmptySegment = errors.New("hierarchy: empty label segment")

// ExtractLabelParts splits a dump filename into its label segments.
//
// The directory prefix is ignored and the base name is split on "_". Any
// segment whose first byte is an ASCII digit is treated as part of the
// trailing date/time stamp and dropped, wherever it appears. A label that
// legitimately starts with a digit is therefore lost; this matches how dump
// files have always been named and must not be "fixed" here.
//
// Extensions are not removed; see cleanLabel.
func ExtractLabelParts(filename string) ([]string, error) {
	base := filepath.Base(filename)
	var parts []string
	for _, part := range strings.Split(base, "_") {
		if part == "" {
			return nil, fmt.Errorf("%w in %q", ErrEmptySegment, base)
		}
		if isDigit(part[0]) {
			continue
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// combinedLabel joins the first two label parts and strips the extension.
// The result is what gets matched against the single-label set.
func combinedLabel(parts []string) string {
	n := len(parts)
	if n > 2 {
		n = 2
	}
	return cleanLabel(strings.Join(parts[:n], "_"))
}

// cleanLabel removes everything from the first '.' onward.
func cleanLabel(part string) string {
	name, _, _ := strings.Cut(part, ".")
	return name
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
