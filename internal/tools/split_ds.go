package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hession/datakit/internal/logger"
	"github.com/hession/datakit/internal/registry"
)

// NewSplitDS returns the split-ds tool: datasets are split into train/val/
// test (or any configured suffixes) by the IDs common to all sources, so the
// splits stay aligned across modalities.
func NewSplitDS() *registry.Tool {
	return &registry.Tool{
		Name:        "split-ds",
		Description: "Split datasets into train/val/test by common IDs.",
		Params: []registry.Param{
			{
				Name:        "source_paths",
				Kind:        registry.KindTrackedPath,
				Repeatable:  true,
				Help:        "Dataset directories to split.",
				Placeholder: "source_path",
			},
			{
				Name:       "suffixes",
				Kind:       registry.KindString,
				Repeatable: true,
				Default:    []string{"train", "val", "test"},
				Help:       "Output suffixes, one per split.",
			},
			{
				Name:       "ratios",
				Kind:       registry.KindInt,
				Repeatable: true,
				Default:    []int{80, 10, 10},
				Help:       "Split ratios (must sum to 100).",
			},
		},
		Run: runSplitDS,
	}
}

func runSplitDS(ctx context.Context, args registry.Args) error {
	sources := args.Paths("source_paths")
	suffixes := args.Strings("suffixes")
	ratios := args.Ints("ratios")

	if len(sources) == 0 {
		return fmt.Errorf("at least one --source-paths is required")
	}
	if len(suffixes) != len(ratios) {
		return fmt.Errorf("got %d suffixes but %d ratios", len(suffixes), len(ratios))
	}
	sum := 0
	for _, r := range ratios {
		if r < 0 {
			return fmt.Errorf("ratios must be non-negative, got %d", r)
		}
		sum += r
	}
	if sum != 100 {
		return fmt.Errorf("ratios must sum to 100, got %d", sum)
	}

	logger.Info("Splitting %d datasets with ratios %v", len(sources), ratios)
	for _, sp := range sources {
		logger.Info("Source: %s (origin: %s)", sp.Working, sp.Origin)
	}

	// Index every source by ID (relative path without extension) and keep
	// the IDs common to all of them.
	indexes := make([]map[string]string, len(sources)) // id -> relative path
	var common map[string]bool
	for i, sp := range sources {
		files, err := indexDataset(sp.Working)
		if err != nil {
			return err
		}
		idx := make(map[string]string, len(files))
		for _, rel := range files {
			idx[fileID(rel)] = rel
		}
		indexes[i] = idx

		if common == nil {
			common = make(map[string]bool, len(idx))
			for id := range idx {
				common[id] = true
			}
			continue
		}
		for id := range common {
			if _, ok := idx[id]; !ok {
				delete(common, id)
			}
		}
	}

	ids := make([]string, 0, len(common))
	for id := range common {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	logger.Info("Common IDs: %d", len(ids))

	splits := splitIDs(ids, ratios)

	for i, sp := range sources {
		excluded := len(indexes[i]) - len(ids)
		logger.Info("%s: total=%d, excluded=%d", sp.Working, len(indexes[i]), excluded)

		for j, suffix := range suffixes {
			var rels []string
			for _, id := range splits[j] {
				rels = append(rels, indexes[i][id])
			}
			out := outputPath(sp.Working, "_"+suffix)
			if err := copyFiles(sp.Working, out, rels); err != nil {
				return err
			}
			logger.Info("  %s: %d IDs, copied -> %s", suffix, len(splits[j]), out)
		}
	}

	return nil
}

// fileID strips the extension, so "000123.png" in one source and
// "000123.exr" in another share the ID "000123".
func fileID(rel string) string {
	if e := filepath.Ext(rel); e != "" {
		return strings.TrimSuffix(rel, e)
	}
	return rel
}

// splitIDs partitions the sorted IDs by ratio; the last split absorbs the
// rounding remainder.
func splitIDs(ids []string, ratios []int) [][]string {
	splits := make([][]string, len(ratios))
	start := 0
	for i, r := range ratios {
		count := len(ids) * r / 100
		if i == len(ratios)-1 {
			count = len(ids) - start
		}
		end := start + count
		if end > len(ids) {
			end = len(ids)
		}
		splits[i] = ids[start:end]
		start = end
	}
	return splits
}
