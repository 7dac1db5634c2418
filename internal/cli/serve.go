package cli

import (
	"github.com/spf13/cobra"

	"github.com/funsense/fewshot/internal/mcp"
	"github.com/funsense/fewshot/internal/tokens"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the label hierarchy and prompts to AI tools over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout. Tools expose the
latest stored hierarchy, label paths, assigned labels and few-shot prompts.

Register it with an MCP client as:  fewshot serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}
			defer p.Close()

			tok, err := tokens.NewTokenizer(p.cfg.Dataset.Encoding)
			if err != nil {
				return err
			}

			return mcp.NewServer(p.root, p.cfg, p.store, tok, version, p.logger).ServeStdio()
		},
	}
}
