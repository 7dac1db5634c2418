package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/funsense/fewshot/internal/adapter"
	"github.com/funsense/fewshot/internal/config"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive first-time configuration",
		Long:  "Configure the LLM provider, API keys and model used for labelling emails.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(os.Stdin)

			fmt.Println("Welcome to fewshot! Let's configure the labelling model.")
			fmt.Println()

			cfg := config.DefaultGlobal()

			fmt.Println("Which LLM should label your emails?")
			fmt.Println("  [1] Ollama (local)")
			fmt.Println("  [2] Claude (Anthropic)")
			fmt.Println("  [3] OpenAI")
			fmt.Print("> ")

			switch readLineBuf(reader) {
			case "", "1":
				cfg.LLM.Provider = adapter.ProviderOllama
				fmt.Printf("Ollama host (press Enter for %s): ", cfg.Ollama.Host)
				if host := readLineBuf(reader); host != "" {
					cfg.Ollama.Host = host
				}
				fmt.Printf("Ollama model (press Enter for %s): ", cfg.Ollama.Model)
				if model := readLineBuf(reader); model != "" {
					cfg.Ollama.Model = model
				}
			case "2":
				cfg.LLM.Provider = adapter.ProviderClaude
				fmt.Print("Enter your Anthropic API key (or press Enter to set ANTHROPIC_API_KEY later): ")
				if key := readLineBuf(reader); key != "" {
					cfg.Keys.Anthropic = key
				}
			case "3":
				cfg.LLM.Provider = adapter.ProviderOpenAI
				fmt.Print("Enter your OpenAI API key (or press Enter to set OPENAI_API_KEY later): ")
				if key := readLineBuf(reader); key != "" {
					cfg.Keys.OpenAI = key
				}
			default:
				fmt.Println("Unrecognized choice; defaulting to ollama.")
				cfg.LLM.Provider = adapter.ProviderOllama
			}

			fmt.Println()

			if err := config.SaveGlobal(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			path, _ := config.GlobalConfigPath()
			fmt.Printf("Configuration saved to %s\n", path)
			fmt.Println("Navigate to your dumps and run `fewshot init` to get started.")

			return nil
		},
	}
}

func readLineBuf(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
