package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/funsense/fewshot/internal/dataset"
	"github.com/funsense/fewshot/internal/prompt"
	"github.com/funsense/fewshot/internal/random"
	"github.com/funsense/fewshot/internal/store"
	"github.com/funsense/fewshot/internal/tokens"
)

func newExamplesCmd() *cobra.Command {
	var (
		analyzed string
		minPer   int
		maxPer   int
		budget   int
		seed     int64
		outPath  string
	)

	cmd := &cobra.Command{
		Use:   "examples",
		Short: "Select a balanced few-shot example set",
		Long: `Build an example pool per label from the analyzed emails and pick a
balanced set within the token budget: every label first gets --min examples,
then labels are topped up to --max while budget remains.

The selection is stored; "fewshot prompt" renders from the latest set.

Examples:
  fewshot examples --analyzed analyzed.json
  fewshot examples --budget 8000 --min 2 --seed 42 --out few_shot_examples.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}
			defer p.Close()

			ds := p.cfg.Dataset
			if analyzed == "" {
				analyzed = ds.AnalyzedFile
			}
			if analyzed == "" {
				return fmt.Errorf("no analyzed file; pass --analyzed or set analyzed_file in the config")
			}
			if !cmd.Flags().Changed("min") {
				minPer = ds.MinExamplesPerLabel
			}
			if !cmd.Flags().Changed("max") {
				maxPer = ds.MaxExamplesPerLabel
			}
			if !cmd.Flags().Changed("budget") {
				budget = ds.MaxTokens
			}
			if !cmd.Flags().Changed("seed") {
				seed = ds.Seed
			}

			items, err := dataset.LoadItems(analyzed)
			if err != nil {
				return err
			}

			snap, err := p.store.LatestHierarchy()
			if errors.Is(err, store.ErrNotFound) {
				if _, _, _, err := buildAndStoreHierarchy(p, ds.DumpsDir); err != nil {
					return err
				}
				snap, err = p.store.LatestHierarchy()
			}
			if err != nil {
				return err
			}
			h, err := snap.Hierarchy(ds.SingleLabels...)
			if err != nil {
				return err
			}

			tok, err := tokens.NewTokenizer(ds.Encoding)
			if err != nil {
				return err
			}
			coster := prompt.Coster{Formatter: prompt.NewFormatter(ds.SingleLabels...), Counter: tok}

			bar := newSpinner("  Building example pools")
			pools, err := dataset.BuildPools(h, items, coster, budget, p.logger)
			_ = bar.Finish()
			if err != nil {
				return err
			}

			rng, seedUsed := random.New(seed)
			sel, err := dataset.Select(pools, dataset.SelectOptions{
				Min:      minPer,
				Max:      maxPer,
				Budget:   budget,
				Overhead: []string{prompt.Preamble, prompt.Postamble},
				Counter:  tok,
				Rand:     rng,
				Logger:   p.logger,
			})
			if err != nil {
				return err
			}

			id, err := p.store.SaveExampleSet(store.ExampleSet{
				HierarchyID: snap.ID,
				TokenBudget: sel.Budget,
				TotalTokens: sel.TotalTokens,
				MinPerLabel: sel.MinPerLabel,
				MaxPerLabel: sel.MaxPerLabel,
				Seed:        seedUsed,
				Examples:    sel.Examples,
			})
			if err != nil {
				return err
			}
			autoExport(p.root, p.store)

			if outPath != "" {
				if err := dataset.SaveExamples(outPath, sel.Examples); err != nil {
					return err
				}
			}

			printDistribution(h.Labels(), pools.Sizes(), sel.Distribution(h.Labels()))
			fmt.Printf("\nSelected %d examples, %d/%d tokens (set #%d, seed %d)\n",
				len(sel.Examples), sel.TotalTokens, sel.Budget, id, seedUsed)
			if outPath != "" {
				fmt.Printf("Wrote %s\n", outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&analyzed, "analyzed", "", "analyzed email JSON file (default from config)")
	cmd.Flags().IntVar(&minPer, "min", 1, "examples per label in the first pass")
	cmd.Flags().IntVar(&maxPer, "max", 0, "per-label ceiling for the top-up pass (0 = from pool sizes)")
	cmd.Flags().IntVar(&budget, "budget", dataset.DefaultMaxTokens, "total token budget")
	cmd.Flags().Int64Var(&seed, "seed", 0, "sampling seed (0 = random)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "also write the examples JSON to this file")

	return cmd
}

func printDistribution(labels []string, pools, selected map[string]int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tPOOL\tSELECTED")
	for _, label := range labels {
		fmt.Fprintf(w, "%s\t%d\t%d\n", label, pools[label], selected[label])
	}
	_ = w.Flush()
}

// newSpinner shows an indeterminate spinner on stderr when it is a terminal.
func newSpinner(desc string) *progressbar.ProgressBar {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return progressbar.DefaultSilent(-1)
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
}
