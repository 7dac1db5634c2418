package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/funsense/fewshot/internal/dataset"
	"github.com/funsense/fewshot/internal/prompt"
	"github.com/funsense/fewshot/internal/random"
	"github.com/funsense/fewshot/internal/store"
	"github.com/funsense/fewshot/internal/tokens"
)

func newPromptCmd() *cobra.Command {
	var (
		count        int
		seed         int64
		examplesPath string
	)

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Render a few-shot labelling prompt",
		Long: `Sample examples without replacement from the latest stored example set (or
from --examples) and render them into a prompt that fits the token budget.
The prompt goes to stdout; the token report goes to stderr.

Examples:
  fewshot prompt -n 10 > prompt.txt
  fewshot prompt --examples few_shot_examples.json --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}
			defer p.Close()

			if !cmd.Flags().Changed("count") {
				count = p.cfg.Dataset.NumExamples
			}
			if !cmd.Flags().Changed("seed") {
				seed = p.cfg.Dataset.Seed
			}

			examples, err := loadExamples(p, examplesPath)
			if err != nil {
				return err
			}

			res, err := renderPrompt(p, examples, count, seed)
			if err != nil {
				return err
			}

			fmt.Print(res.Text)
			fmt.Fprintf(os.Stderr, "\n%d of %d requested examples (%d available), %d/%d tokens\n",
				res.Included, res.Requested, res.Available, res.Tokens, res.Budget)
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of examples to include")
	cmd.Flags().Int64Var(&seed, "seed", 0, "sampling seed (0 = random)")
	cmd.Flags().StringVar(&examplesPath, "examples", "", "read examples from this JSON file instead of the store")

	return cmd
}

// loadExamples reads examples from path, or from the latest stored set when
// path is empty.
func loadExamples(p *project, path string) ([]dataset.Example, error) {
	if path != "" {
		return dataset.LoadExamples(path)
	}
	set, err := p.store.LatestExampleSet()
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no example set stored yet. Run `fewshot examples` first")
	}
	if err != nil {
		return nil, err
	}
	return set.Examples, nil
}

func renderPrompt(p *project, examples []dataset.Example, count int, seed int64) (*prompt.Result, error) {
	tok, err := tokens.NewTokenizer(p.cfg.Dataset.Encoding)
	if err != nil {
		return nil, err
	}
	rng, _ := random.New(seed)
	renderer := prompt.NewRenderer(prompt.NewFormatter(p.cfg.Dataset.SingleLabels...), tok, p.cfg.Dataset.MaxTokens, p.logger)
	return renderer.Generate(examples, count, rng)
}
