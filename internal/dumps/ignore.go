package dumps

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFile is the per-directory file listing dump patterns to skip.
const IgnoreFile = ".fewshotignore"

// IgnoreMatcher wraps a gitignore pattern matcher.
type IgnoreMatcher struct {
	gi *gitignore.GitIgnore
}

// NewIgnoreMatcher combines patterns with the IgnoreFile in dir, if present.
// With neither, the matcher accepts everything.
//
// If the IgnoreFile exists but cannot be read, the returned matcher still
// applies patterns and the error says why the file was left out.
func NewIgnoreMatcher(dir string, patterns []string) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{}
	if len(patterns) > 0 {
		m.gi = gitignore.CompileIgnoreLines(patterns...)
	}

	path := filepath.Join(dir, IgnoreFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	gi, err := gitignore.CompileIgnoreFileAndLines(path, patterns...)
	if err != nil {
		return m, fmt.Errorf("read %s: %w", IgnoreFile, err)
	}
	return &IgnoreMatcher{gi: gi}, nil
}

// Match returns true if the given file name should be skipped.
func (m *IgnoreMatcher) Match(name string) bool {
	if m.gi == nil {
		return false
	}
	return m.gi.MatchesPath(name)
}
