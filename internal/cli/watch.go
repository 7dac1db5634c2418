package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/funsense/fewshot/internal/dumps"
	"github.com/funsense/fewshot/internal/logging"
)

func newWatchCmd() *cobra.Command {
	var (
		dumpsDir   string
		debounceMs int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the dumps directory and rebuild the hierarchy on changes",
		Long: `Start a long-running watcher on the dumps directory. Whenever dump files
are created, modified, renamed or deleted, the label hierarchy is rebuilt and
stored.

Changes are debounced so that a batch of new dumps triggers a single rebuild.

Press Ctrl-C to stop.`,
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

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close()

			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}

			debounce := time.Duration(debounceMs) * time.Millisecond

			fmt.Printf("Watching %s for changes (debounce %s). Press Ctrl-C to stop.\n", dir, debounce)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ignore, err := dumps.NewIgnoreMatcher(dir, p.cfg.Dataset.Exclude)
			if err != nil {
				p.logger.Warn("ignore file skipped", logging.Err(err))
			}
			pending := make(map[string]fsnotify.Op)
			timer := time.NewTimer(debounce)
			timer.Stop() // Don't fire immediately.

			for {
				select {
				case <-ctx.Done():
					fmt.Println("\nStopping watcher.")
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					name := filepath.Base(event.Name)
					if name == dumps.IgnoreFile {
						// Exclusions changed; everything may need re-reading.
						if ignore, err = dumps.NewIgnoreMatcher(dir, p.cfg.Dataset.Exclude); err != nil {
							p.logger.Warn("ignore file skipped", logging.Err(err))
						}
					} else if shouldIgnoreEvent(name, ignore) {
						continue
					}
					if event.Op == fsnotify.Chmod {
						continue
					}
					pending[name] |= event.Op
					timer.Reset(debounce)

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintf(os.Stderr, "  watch error: %v\n", err)

				case <-timer.C:
					if len(pending) == 0 {
						continue
					}
					batch := pending
					pending = make(map[string]fsnotify.Op)

					rebuild(p, dir, batch)
				}
			}
		},
	}

	cmd.Flags().StringVar(&dumpsDir, "dumps", "", "dumps directory (default from config)")
	cmd.Flags().IntVar(&debounceMs, "debounce", 500, "debounce interval in milliseconds")

	return cmd
}

// shouldIgnoreEvent reports whether a change to the named file can be
// ignored: hidden files, non-dump files and excluded dumps.
func shouldIgnoreEvent(name string, ignore *dumps.IgnoreMatcher) bool {
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
		return true
	}
	return ignore.Match(name)
}

// summarizeBatch counts created, modified and removed files in a batch.
func summarizeBatch(batch map[string]fsnotify.Op) (added, modified, deleted int) {
	for _, op := range batch {
		switch {
		case op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename):
			deleted++
		case op.Has(fsnotify.Create):
			added++
		default:
			modified++
		}
	}
	return added, modified, deleted
}

// rebuild rebuilds and stores the hierarchy after a batch of changes.
func rebuild(p *project, dir string, batch map[string]fsnotify.Op) {
	added, modified, deleted := summarizeBatch(batch)
	ts := time.Now().Format("15:04:05")

	h, res, id, err := buildAndStoreHierarchy(p, dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[%s] rebuild failed: %v\n", ts, err)
		return
	}

	fmt.Printf("[%s] +%d ~%d -%d: %d labels from %d dumps (hierarchy #%d)",
		ts, added, modified, deleted, h.Len(), len(res.Dumps), id)
	if len(res.Errors) > 0 {
		fmt.Printf(", %d skipped", len(res.Errors))
	}
	fmt.Println()
}
