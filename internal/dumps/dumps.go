// Package dumps reads a directory of labelled email dump files.
//
// Each dump is a JSON file named after its label path, such as
// "LLM_RAG_evaluation_20241222_220726.json", holding either a list of email
// objects or a single email object. Only the "id" field of each email is used.
package dumps

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/funsense/fewshot/internal/hierarchy"
	"github.com/funsense/fewshot/internal/logging"
)

// Dump is one parsed dump file.
type Dump struct {
	Name string // base file name, which encodes the labels
	Path string
	IDs  []string
}

// Options controls which files are read.
type Options struct {
	Exclude []string // gitignore-style patterns matched against file names
}

// Result holds the output of a directory scan.
type Result struct {
	Dumps   []Dump
	Skipped []string
	Errors  []error
}

type email struct {
	ID *string `json:"id"`
}

// ParseIDs extracts email IDs from a dump file's content.
func ParseIDs(data []byte) ([]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty dump")
	}

	var emails []email
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &emails); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
	case '{':
		var e email
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode object: %w", err)
		}
		emails = []email{e}
	default:
		return nil, errors.New("dump is neither a JSON list nor an object")
	}

	ids := make([]string, 0, len(emails))
	for i, e := range emails {
		if e.ID == nil || *e.ID == "" {
			return nil, fmt.Errorf("email %d has no id", i)
		}
		ids = append(ids, *e.ID)
	}
	return ids, nil
}

// Scan reads every top-level *.json file in dir, in name order. Unreadable
// or malformed files are recorded in Result.Errors and skipped, as is an
// unreadable IgnoreFile. The error
// return is reserved for a directory that cannot be listed.
func Scan(dir string, opts Options) (Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, fmt.Errorf("dumps: read dir: %w", err)
	}

	var result Result
	ignore, err := NewIgnoreMatcher(dir, opts.Exclude)
	if err != nil {
		result.Errors = append(result.Errors, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if ignore.Match(name) {
			result.Skipped = append(result.Skipped, name)
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("read %s: %w", name, err))
			continue
		}
		ids, err := ParseIDs(data)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("parse %s: %w", name, err))
			continue
		}
		result.Dumps = append(result.Dumps, Dump{Name: name, Path: path, IDs: ids})
	}
	return result, nil
}

// BuildHierarchy scans dir and registers every dump with a new hierarchy.
// Files that cannot be read, parsed, or mapped to labels are logged and
// skipped; they never abort the build.
func BuildHierarchy(dir string, singles []string, opts Options, logger *slog.Logger) (*hierarchy.Hierarchy, Result, error) {
	logger = logging.OrDiscard(logger)

	result, err := Scan(dir, opts)
	if err != nil {
		return nil, result, err
	}
	for _, err := range result.Errors {
		logger.Warn("skipping dump", logging.Err(err))
	}

	h := hierarchy.New(singles...)
	kept := result.Dumps[:0]
	for _, d := range result.Dumps {
		if err := h.AddLabelFromFilename(d.Name, d.IDs); err != nil {
			logger.Warn("skipping dump", logging.File(d.Name), logging.Err(err))
			result.Errors = append(result.Errors, fmt.Errorf("labels %s: %w", d.Name, err))
			continue
		}
		logger.Debug("added dump", logging.File(d.Name), logging.Count(len(d.IDs)))
		kept = append(kept, d)
	}
	result.Dumps = kept
	return h, result, nil
}
