// Package config manages global (~/.config/fewshot/config.toml) and
// per-project (.fewshot/config.toml) configuration for fewshot.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DirName is the per-project state directory.
const DirName = ".fewshot"

// GlobalConfig holds user-wide settings.
type GlobalConfig struct {
	Dataset    DatasetConfig    `toml:"dataset"`
	LLM        LLMConfig        `toml:"llm"`
	Keys       KeysConfig       `toml:"keys"`
	Ollama     OllamaConfig     `toml:"ollama"`
	Output     OutputConfig     `toml:"output"`
	AutoExport AutoExportConfig `toml:"auto_export"`
}

// DatasetConfig controls hierarchy building, selection and rendering.
type DatasetConfig struct {
	MaxTokens           int      `toml:"max_tokens"`
	MinExamplesPerLabel int      `toml:"min_examples_per_label"`
	MaxExamplesPerLabel int      `toml:"max_examples_per_label"` // 0 = derived from pool sizes
	NumExamples         int      `toml:"num_examples"`
	SingleLabels        []string `toml:"single_labels"`
	Encoding            string   `toml:"encoding"`
	Seed                int64    `toml:"seed"` // 0 = random
	DumpsDir            string   `toml:"dumps_dir"`
	AnalyzedFile        string   `toml:"analyzed_file"`
	Exclude             []string `toml:"exclude"`
}

// LLMConfig selects the model used for labelling.
type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

type KeysConfig struct {
	Anthropic string `toml:"anthropic"`
	OpenAI    string `toml:"openai"`
}

type OllamaConfig struct {
	Host  string `toml:"host"`
	Model string `toml:"model"`
}

type OutputConfig struct {
	Verbose  bool `toml:"verbose"`
	Progress bool `toml:"progress"`
}

// AutoExportConfig controls automatic regeneration of export files
// whenever a hierarchy or example set is stored.
type AutoExportConfig struct {
	Enabled bool     `toml:"enabled"`
	Formats []string `toml:"formats"`
}

// ProjectConfig holds per-project overrides stored in .fewshot/config.toml.
// Zero values mean "inherit from the global config".
type ProjectConfig struct {
	Project      ProjectMeta `toml:"project"`
	Provider     string      `toml:"provider"`
	DumpsDir     string      `toml:"dumps_dir"`
	AnalyzedFile string      `toml:"analyzed_file"`
	MaxTokens    int         `toml:"max_tokens"`
	NumExamples  int         `toml:"num_examples"`
	SingleLabels []string    `toml:"single_labels"`
	Exclude      []string    `toml:"exclude"`
}

type ProjectMeta struct {
	Name string `toml:"name"`
}

// DefaultGlobal returns sensible defaults.
func DefaultGlobal() GlobalConfig {
	return GlobalConfig{
		Dataset: DatasetConfig{
			MaxTokens:           32000,
			MinExamplesPerLabel: 1,
			MaxExamplesPerLabel: 0,
			NumExamples:         5,
			SingleLabels:        []string{"good_material", "daily_news"},
			Encoding:            "cl100k_base",
			DumpsDir:            "email_dumps",
		},
		LLM: LLMConfig{
			Provider:    "ollama",
			Temperature: 0,
			MaxTokens:   512,
		},
		Ollama: OllamaConfig{
			Host:  "http://localhost:11434",
			Model: "llama3.2",
		},
		Output: OutputConfig{
			Progress: true,
		},
		AutoExport: AutoExportConfig{
			Enabled: false,
			Formats: []string{"json", "markdown"},
		},
	}
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "fewshot", "config.toml"), nil
}

// LoadGlobal loads the global config, applying defaults for any missing values.
func LoadGlobal() (GlobalConfig, error) {
	cfg := DefaultGlobal()

	path, err := GlobalConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, fmt.Errorf("config: load global: %w", err)
			}
		}
	}

	// Let env vars override config file API keys.
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Keys.Anthropic = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Keys.OpenAI = v
	}

	return cfg, nil
}

// SaveGlobal writes the global config to disk.
func SaveGlobal(cfg GlobalConfig) error {
	path, err := GlobalConfigPath()
	if err != nil {
		return err
	}
	return writeTOML(path, cfg)
}

// LoadProject loads .fewshot/config.toml from the given project root.
func LoadProject(root string) (ProjectConfig, error) {
	var cfg ProjectConfig
	path := filepath.Join(root, DirName, "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: load project: %w", err)
	}
	return cfg, nil
}

// SaveProject writes the project config to .fewshot/config.toml.
func SaveProject(root string, cfg ProjectConfig) error {
	return writeTOML(filepath.Join(root, DirName, "config.toml"), cfg)
}

// ProjectDBPath returns the path to the project's SQLite database.
func ProjectDBPath(root string) string {
	return filepath.Join(root, DirName, "fewshot.db")
}

// ProjectConfigDirPath returns the path to the project's .fewshot/ directory.
func ProjectConfigDirPath(root string) string {
	return filepath.Join(root, DirName)
}

// Load returns the effective config for a project root (global merged with project).
// Relative dump and analyzed-file paths are resolved against root.
func Load(root string) (GlobalConfig, error) {
	global, err := LoadGlobal()
	if err != nil {
		return global, err
	}

	project, err := LoadProject(root)
	if err != nil {
		return global, err
	}
	applyProject(&global, project)

	global.Dataset.DumpsDir = resolve(root, global.Dataset.DumpsDir)
	global.Dataset.AnalyzedFile = resolve(root, global.Dataset.AnalyzedFile)
	return global, nil
}

func applyProject(cfg *GlobalConfig, p ProjectConfig) {
	if p.Provider != "" {
		cfg.LLM.Provider = p.Provider
	}
	if p.DumpsDir != "" {
		cfg.Dataset.DumpsDir = p.DumpsDir
	}
	if p.AnalyzedFile != "" {
		cfg.Dataset.AnalyzedFile = p.AnalyzedFile
	}
	if p.MaxTokens > 0 {
		cfg.Dataset.MaxTokens = p.MaxTokens
	}
	if p.NumExamples > 0 {
		cfg.Dataset.NumExamples = p.NumExamples
	}
	if len(p.SingleLabels) > 0 {
		cfg.Dataset.SingleLabels = p.SingleLabels
	}
	cfg.Dataset.Exclude = append(cfg.Dataset.Exclude, p.Exclude...)
}

func resolve(root, path string) string {
	if path == "" || root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func writeTOML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(v)
}
