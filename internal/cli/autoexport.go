package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/funsense/fewshot/internal/config"
	"github.com/funsense/fewshot/internal/export"
	"github.com/funsense/fewshot/internal/store"
)

// autoExportFilenames returns the filenames that auto-export would generate
// for the given config.
func autoExportFilenames(cfg config.AutoExportConfig) []string {
	var names []string
	for _, f := range cfg.Formats {
		if name := export.Filename(f); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// exportData gathers the latest hierarchy and example set. Either may be
// missing.
func exportData(st *store.Store, singles []string) (export.ExportData, error) {
	var data export.ExportData

	snap, err := st.LatestHierarchy()
	switch {
	case err == nil:
		h, err := snap.Hierarchy(singles...)
		if err != nil {
			return data, err
		}
		data.SourceDir = snap.SourceDir
		data.Hierarchy = h
	case !errors.Is(err, store.ErrNotFound):
		return data, err
	}

	set, err := st.LatestExampleSet()
	switch {
	case err == nil:
		data.Examples = set.Examples
	case !errors.Is(err, store.ErrNotFound):
		return data, err
	}
	return data, nil
}

// autoExport regenerates all configured export files in the project root.
// It is best-effort: failures are logged to stderr but never abort the caller.
func autoExport(root string, st *store.Store) {
	gcfg, _ := config.Load(root)
	if !gcfg.AutoExport.Enabled || len(gcfg.AutoExport.Formats) == 0 {
		return
	}

	data, err := exportData(st, gcfg.Dataset.SingleLabels)
	if err != nil {
		return
	}

	var exported []string
	for _, format := range gcfg.AutoExport.Formats {
		exporter, ok := export.Get(format)
		if !ok {
			continue
		}
		output, err := exporter.Export(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  warn: auto-export %s failed: %v\n", format, err)
			continue
		}

		filename := export.Filename(format)
		outPath := filepath.Join(root, filename)
		if err := os.WriteFile(outPath, []byte(output), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "  warn: write %s failed: %v\n", filename, err)
			continue
		}
		exported = append(exported, filename)
	}

	if len(exported) > 0 {
		fmt.Fprintf(os.Stderr, "  auto-exported: %s\n", strings.Join(exported, ", "))
	}
}
