package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/funsense/fewshot/internal/config"
	"github.com/funsense/fewshot/internal/db"
)

func newInitCmd() *cobra.Command {
	var (
		projectRoot  string
		dumpsDir     string
		analyzedFile string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize fewshot in the current directory",
		Long: `Set up the .fewshot/ directory with a SQLite database and a project config
pointing at the email dumps and the analyzed email file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := projectRoot
			if root == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("get working directory: %w", err)
				}
				root = cwd
			}
			root, _ = filepath.Abs(root)

			database, err := db.Open(config.ProjectDBPath(root))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			database.Close()

			pcfg, err := config.LoadProject(root)
			if err != nil {
				return err
			}
			if pcfg.Project.Name == "" {
				pcfg.Project.Name = filepath.Base(root)
			}
			if dumpsDir != "" {
				pcfg.DumpsDir = dumpsDir
			}
			if analyzedFile != "" {
				pcfg.AnalyzedFile = analyzedFile
			}
			if err := config.SaveProject(root, pcfg); err != nil {
				return fmt.Errorf("write project config: %w", err)
			}

			ensureGitignore(root)

			cfg, _ := config.Load(root)
			if _, err := os.Stat(cfg.Dataset.DumpsDir); err != nil {
				fmt.Fprintf(os.Stderr, "  Warning: dumps directory %s not found\n", cfg.Dataset.DumpsDir)
			}

			fmt.Printf("fewshot initialized in %s\n", config.ProjectConfigDirPath(root))
			fmt.Println(`Tip: Run "fewshot hierarchy" to build the label hierarchy.`)
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectRoot, "root", "r", "", "Project root directory (default: cwd)")
	cmd.Flags().StringVar(&dumpsDir, "dumps", "", "Email dumps directory, relative to the root")
	cmd.Flags().StringVar(&analyzedFile, "analyzed", "", "Analyzed email JSON file, relative to the root")

	return cmd
}

// ensureGitignore appends .fewshot/ to .gitignore if not already present.
func ensureGitignore(root string) {
	path := filepath.Join(root, ".gitignore")
	content, err := os.ReadFile(path)
	if err == nil && strings.Contains(string(content), config.DirName+"/") {
		return
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		_, _ = f.WriteString("\n")
	}
	_, _ = f.WriteString(config.DirName + "/\n")
}
