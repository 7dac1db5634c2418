package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/funsense/fewshot/internal/export"
)

func newExportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the hierarchy and latest example set as JSON or markdown",
		Long: `Render the latest stored hierarchy, together with the latest example set,
in a format other tools can read. Output is written to stdout; pipe it to a file.

Examples:
  fewshot export --format json > label_hierarchy.json
  fewshot export --format markdown > LABELS.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}
			defer p.Close()

			exporter, ok := export.Get(strings.ToLower(format))
			if !ok {
				return fmt.Errorf("unknown format %q; valid formats: %s",
					format, strings.Join(export.ValidFormats(), ", "))
			}

			data, err := exportData(p.store, p.cfg.Dataset.SingleLabels)
			if err != nil {
				return err
			}

			output, err := exporter.Export(data)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			_, err = os.Stdout.WriteString(output)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "markdown", "output format: json, markdown")

	return cmd
}
