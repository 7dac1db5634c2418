package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/funsense/fewshot/internal/config"
	"github.com/funsense/fewshot/internal/db"
	"github.com/funsense/fewshot/internal/logging"
	"github.com/funsense/fewshot/internal/store"
)

// project is an initialized fewshot directory with its store open.
type project struct {
	root   string
	cfg    config.GlobalConfig
	db     *db.DB
	store  *store.Store
	logger *slog.Logger
}

// openProject locates the project root, loads its config and opens the store.
func openProject() (*project, error) {
	root, err := findRoot()
	if err != nil {
		return nil, err
	}

	dbPath, err := ensureInitialized(root)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &project{
		root:   root,
		cfg:    cfg,
		db:     database,
		store:  store.NewStore(database),
		logger: newLogger(cfg),
	}, nil
}

func (p *project) Close() error {
	return p.db.Close()
}

// newLogger logs to stderr; --verbose or output.verbose enables debug detail.
func newLogger(cfg config.GlobalConfig) *slog.Logger {
	return logging.New(os.Stderr, verbose || cfg.Output.Verbose)
}

// findRoot returns the nearest directory at or above cwd holding .fewshot/,
// or cwd itself when there is none.
func findRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	dir, _ := filepath.Abs(cwd)
	for {
		if _, err := os.Stat(filepath.Join(dir, config.DirName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return filepath.Abs(cwd)
}

// ensureInitialized checks that the project has been initialized (.fewshot/fewshot.db exists).
func ensureInitialized(root string) (string, error) {
	dbPath := config.ProjectDBPath(root)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("fewshot not initialized. Run `fewshot init` first")
	}
	return dbPath, nil
}
