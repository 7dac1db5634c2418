package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/funsense/fewshot/internal/config"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored hierarchy, example sets and labelling progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}
			defer p.Close()

			st, err := p.store.Stats()
			if err != nil {
				return err
			}

			var dbSize int64
			if fi, err := os.Stat(config.ProjectDBPath(p.root)); err == nil {
				dbSize = fi.Size()
			}

			ds := p.cfg.Dataset
			fmt.Printf("\nProject:   %s\n", p.root)
			fmt.Printf("Dumps:     %s\n", ds.DumpsDir)
			if ds.AnalyzedFile != "" {
				fmt.Printf("Analyzed:  %s\n", ds.AnalyzedFile)
			}
			fmt.Printf("Hierarchy: %d labels (%d builds stored)\n", st.Labels, st.Hierarchies)
			fmt.Printf("Examples:  %d in latest set (%d sets stored)\n", st.Examples, st.ExampleSets)
			fmt.Printf("Labelled:  %d emails\n", st.LabelledItems)
			fmt.Printf("Budget:    %d tokens, %d examples per prompt\n", ds.MaxTokens, ds.NumExamples)
			fmt.Printf("Model:     %s\n", describeModel(p.cfg))
			if !st.LastUpdated.IsZero() {
				fmt.Printf("Updated:   %s\n", st.LastUpdated.Format("2006-01-02 15:04"))
			}
			fmt.Printf("DB size:   %s\n", formatBytes(dbSize))
			fmt.Println()

			return nil
		},
	}
}

func describeModel(cfg config.GlobalConfig) string {
	model := cfg.LLM.Model
	if model == "" && cfg.LLM.Provider == "ollama" {
		model = cfg.Ollama.Model
	}
	if model == "" {
		return cfg.LLM.Provider + " (default model)"
	}
	return cfg.LLM.Provider + " / " + model
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
