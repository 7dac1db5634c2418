package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/funsense/fewshot/internal/adapter"
	"github.com/funsense/fewshot/internal/config"
	"github.com/funsense/fewshot/internal/dataset"
	"github.com/funsense/fewshot/internal/labeler"
	"github.com/funsense/fewshot/internal/tokens"
)

func newLabelCmd() *cobra.Command {
	var (
		analyzed  string
		provider  string
		model     string
		overwrite bool
		limit     int
		count     int
		seed      int64
	)

	cmd := &cobra.Command{
		Use:   "label",
		Short: "Label analyzed emails with an LLM guided by a few-shot prompt",
		Long: `Render a few-shot prompt from the latest example set and ask the configured
LLM to label every analyzed email that has no labels yet. Assigned labels are
written back to the analyzed file and recorded in the store.

Examples:
  fewshot label --analyzed analyzed.json
  fewshot label --provider claude --overwrite -n 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}
			defer p.Close()

			if analyzed == "" {
				analyzed = p.cfg.Dataset.AnalyzedFile
			}
			if analyzed == "" {
				return fmt.Errorf("no analyzed file; pass --analyzed or set analyzed_file in the config")
			}
			if provider == "" {
				provider = p.cfg.LLM.Provider
			}
			if !cmd.Flags().Changed("count") {
				count = p.cfg.Dataset.NumExamples
			}
			if !cmd.Flags().Changed("seed") {
				seed = p.cfg.Dataset.Seed
			}

			items, err := dataset.LoadItems(analyzed)
			if err != nil {
				return err
			}

			examples, err := loadExamples(p, "")
			if err != nil {
				return err
			}
			res, err := renderPrompt(p, examples, count, seed)
			if err != nil {
				return err
			}

			llm, err := newLLM(p.cfg, provider, model)
			if err != nil {
				return err
			}
			info := llm.Info()
			tok, err := tokens.NewTokenizer(p.cfg.Dataset.Encoding)
			if err != nil {
				return err
			}

			lb := labeler.New(llm, res.Text, labeler.Options{
				Model:       info.Name,
				MaxTokens:   p.cfg.LLM.MaxTokens,
				Temperature: p.cfg.LLM.Temperature,
				Tokenizer:   tok,
				Logger:      p.logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(os.Stderr, "Labelling with %s/%s (%d-example prompt, %d tokens)\n",
				info.Provider, info.Name, res.Included, res.Tokens)

			var bar *progressbar.ProgressBar
			showProgress := p.cfg.Output.Progress && term.IsTerminal(int(os.Stderr.Fd()))
			labels, errs := lb.LabelItems(ctx, items, labeler.RunOptions{
				Overwrite: overwrite,
				Limit:     limit,
				OnProgress: func(done, total int) {
					if !showProgress {
						return
					}
					if bar == nil {
						bar = progressbar.NewOptions(total,
							progressbar.OptionSetDescription("  Labelling"),
							progressbar.OptionSetWriter(os.Stderr),
							progressbar.OptionShowCount(),
							progressbar.OptionClearOnFinish(),
						)
					}
					_ = bar.Set(done)
				},
			})
			if bar != nil {
				_ = bar.Finish()
			}

			for id, ls := range labels {
				it := items[id]
				it.PostLabels = ls
				items[id] = it
				if err := p.store.UpsertItemLabels(id, ls, info.Name); err != nil {
					fmt.Fprintf(os.Stderr, "  Warning: could not record labels for %s: %v\n", id, err)
				}
			}
			if len(labels) > 0 {
				if err := dataset.SaveItems(analyzed, items); err != nil {
					return err
				}
			}

			fmt.Printf("Labelled %d emails", len(labels))
			if len(errs) > 0 {
				fmt.Printf(", %d failed", len(errs))
			}
			fmt.Println()

			if ctx.Err() != nil {
				return context.Cause(ctx)
			}
			if len(labels) == 0 && len(errs) > 0 {
				return errs[0]
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&analyzed, "analyzed", "", "analyzed email JSON file (default from config)")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider: ollama, claude, openai (default from config)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name (default per provider)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "relabel emails that already have labels")
	cmd.Flags().IntVar(&limit, "limit", 0, "label at most this many emails (0 = all)")
	cmd.Flags().IntVarP(&count, "count", "n", 5, "examples in the few-shot prompt")
	cmd.Flags().Int64Var(&seed, "seed", 0, "prompt sampling seed (0 = random)")

	return cmd
}

// newLLM builds the adapter for provider from the config.
func newLLM(cfg config.GlobalConfig, provider, model string) (adapter.LLMAdapter, error) {
	if model == "" && provider == cfg.LLM.Provider {
		model = cfg.LLM.Model
	}
	var baseURL string
	if provider == adapter.ProviderOllama {
		baseURL = cfg.Ollama.Host
		if model == "" {
			model = cfg.Ollama.Model
		}
	}
	return adapter.New(provider, model, apiKey(cfg, provider), baseURL)
}

// apiKey returns the correct API key from the global config for the given provider.
func apiKey(cfg config.GlobalConfig, provider string) string {
	switch provider {
	case adapter.ProviderClaude:
		return cfg.Keys.Anthropic
	case adapter.ProviderOpenAI:
		return cfg.Keys.OpenAI
	default:
		return ""
	}
}
