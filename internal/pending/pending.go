// Package pending computes the per-source work list by diffing the symbol
// registry against already-materialized output files. A file's existence is
// the system's only completion ledger: a failed fetch leaves no file and is
// automatically re-attempted on the next run.
package pending

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"midasfetch/internal/registry"
)

// Resolve returns every registry symbol lacking an output file under
// outputDir, sorted so repeated runs against an unchanged filesystem yield
// the same list. Files whose name maps to no registry entry are reported as
// orphans and never deleted.
func Resolve(reg *registry.Registry, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", outputDir, err)
	}

	files, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan output dir %s: %w", outputDir, err)
	}

	done := make(map[string]bool)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".csv") {
			continue
		}
		name := strings.TrimSuffix(f.Name(), ".csv")
		symbol, ok := reg.SymbolForFilename(name)
		if !ok {
			slog.Warn("orphan output file not in registry", "dir", outputDir, "file", f.Name())
			continue
		}
		done[symbol] = true
	}

	var pendingList []string
	for _, symbol := range reg.Symbols() {
		if !done[symbol] {
			pendingList = append(pendingList, symbol)
		}
	}
	sort.Strings(pendingList)
	return pendingList, nil
}
