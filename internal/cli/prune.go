package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	var (
		keepLatest int
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old hierarchies and example sets to reduce database size",
		Long: `Prune old hierarchy builds and example sets from the .fewshot database.
Assigned item labels are never pruned.

  fewshot prune              # keep the latest 10 of each
  fewshot prune --keep 3     # keep only the latest 3 of each
  fewshot prune --dry-run    # preview what would be deleted`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keepLatest < 1 {
				return fmt.Errorf("--keep must be at least 1")
			}

			p, err := openProject()
			if err != nil {
				return err
			}
			defer p.Close()

			before, err := p.store.Stats()
			if err != nil {
				return err
			}

			if dryRun {
				fmt.Printf("Current: %d hierarchies, %d example sets\n", before.Hierarchies, before.ExampleSets)
				fmt.Printf("Would keep latest %d of each\n", keepLatest)
				return nil
			}

			sets, err := p.store.PruneExampleSets(keepLatest)
			if err != nil {
				return err
			}
			hiers, err := p.store.PruneHierarchies(keepLatest)
			if err != nil {
				return err
			}

			fmt.Printf("Pruned %d hierarchies (%d -> %d) and %d example sets (%d -> %d)\n",
				hiers, before.Hierarchies, before.Hierarchies-hiers,
				sets, before.ExampleSets, before.ExampleSets-sets)
			return nil
		},
	}

	cmd.Flags().IntVar(&keepLatest, "keep", 10, "Keep only the latest N hierarchies and example sets")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview what would be pruned without deleting")

	return cmd
}
