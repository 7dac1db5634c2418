package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/funsense/fewshot/internal/dumps"
	"github.com/funsense/fewshot/internal/hierarchy"
	"github.com/funsense/fewshot/internal/store"
)

func newHierarchyCmd() *cobra.Command {
	var (
		dumpsDir string
		outPath  string
	)

	cmd := &cobra.Command{
		Use:   "hierarchy",
		Short: "Build the label hierarchy from the email dumps",
		Long: `Read every dump file in the dumps directory, derive labels from the file
names, and store the resulting hierarchy. Files that cannot be parsed are
reported and skipped.

Examples:
  fewshot hierarchy
  fewshot hierarchy --dumps ./email_dumps --out label_hierarchy.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}
			defer p.Close()

			dir := dumpsDir
			if dir == "" {
				dir = p.cfg.Dataset.DumpsDir
			}

			h, res, id, err := buildAndStoreHierarchy(p, dir)
			if err != nil {
				return err
			}

			fmt.Printf("Read %d dumps from %s: %d labels, %d roots (hierarchy #%d)\n",
				len(res.Dumps), dir, h.Len(), len(h.Roots()), id)
			if len(res.Skipped) > 0 {
				fmt.Printf("Excluded: %s\n", strings.Join(res.Skipped, ", "))
			}
			if len(res.Errors) > 0 {
				fmt.Fprintf(os.Stderr, "  Warning: %d dump(s) skipped (use --verbose for details)\n", len(res.Errors))
			}

			if outPath != "" {
				if err := writeHierarchyJSON(outPath, h); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dumpsDir, "dumps", "", "dumps directory (default from config)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "also write the hierarchy JSON to this file")

	return cmd
}

// buildAndStoreHierarchy builds the hierarchy for dir, stores it and
// refreshes auto-exported files.
func buildAndStoreHierarchy(p *project, dir string) (*hierarchy.Hierarchy, dumps.Result, int64, error) {
	h, res, err := dumps.BuildHierarchy(dir, p.cfg.Dataset.SingleLabels, dumps.Options{Exclude: p.cfg.Dataset.Exclude}, p.logger)
	if err != nil {
		return nil, res, 0, err
	}
	id, err := p.store.SaveHierarchy(dir, h)
	if err != nil {
		return nil, res, 0, err
	}
	autoExport(p.root, p.store)
	return h, res, id, nil
}

func writeHierarchyJSON(path string, h *hierarchy.Hierarchy) error {
	b, err := json.MarshalIndent(h.ToDict(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// latestHierarchy loads the newest stored hierarchy.
func latestHierarchy(p *project) (store.Snapshot, *hierarchy.Hierarchy, error) {
	snap, err := p.store.LatestHierarchy()
	if errors.Is(err, store.ErrNotFound) {
		return snap, nil, fmt.Errorf("no hierarchy stored yet. Run `fewshot hierarchy` first")
	}
	if err != nil {
		return snap, nil, err
	}
	h, err := snap.Hierarchy(p.cfg.Dataset.SingleLabels...)
	return snap, h, err
}

func newPathCmd() *cobra.Command {
	var itemID string

	cmd := &cobra.Command{
		Use:   "path [label]",
		Short: "Print the path from a label, or every path of an email, to the root",
		Example: `  fewshot path evaluation
  fewshot path --item 18c2f1a9`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (itemID == "") {
				return fmt.Errorf("give either a label or --item")
			}

			p, err := openProject()
			if err != nil {
				return err
			}
			defer p.Close()

			_, h, err := latestHierarchy(p)
			if err != nil {
				return err
			}

			if itemID != "" {
				paths, err := h.AllPathsForItem(itemID)
				if err != nil {
					return err
				}
				if len(paths) == 0 {
					return fmt.Errorf("email %s is not in any dump", itemID)
				}
				for _, path := range paths {
					fmt.Println(strings.Join(path, " -> "))
				}
				return nil
			}

			path, err := h.PathToRoot(args[0])
			if err != nil {
				return err
			}
			if len(path) == 0 {
				return fmt.Errorf("unknown label %q", args[0])
			}
			fmt.Println(strings.Join(path, " -> "))
			return nil
		},
	}

	cmd.Flags().StringVar(&itemID, "item", "", "print every label path of this email ID")

	return cmd
}
