// Package tools holds the built-in dataset-processing tools. Each tool is a
// declarative definition plus an opaque callback; the dispatcher neither
// knows nor cares what the callbacks do with the files.
package tools

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hession/datakit/internal/logger"
	"github.com/hession/datakit/internal/registry"
)

// NewSampleDataset returns the sample-dataset tool: the first dataset is
// subsampled (every Nth file); all subsequent datasets are index-matched
// against it and copied in the same order.
func NewSampleDataset() *registry.Tool {
	return &registry.Tool{
		Name:        "sample-dataset",
		Description: "Subsample the first dataset and index-match the rest.",
		Params: []registry.Param{
			{
				Name:        "dataset_paths",
				Kind:        registry.KindTrackedPath,
				Repeatable:  true,
				Help:        "Dataset directories. The first is subsampled; the rest are index-matched against it.",
				Placeholder: "dataset_path",
			},
			{
				Name:        "sample_rate",
				Kind:        registry.KindInt,
				Default:     3,
				Help:        "Take every Nth file from the primary (first) dataset.",
				Placeholder: "sample_cfg:1",
			},
			{
				Name:        "output_suffix",
				Kind:        registry.KindString,
				Default:     "_8k",
				Help:        "Suffix appended to output directory names.",
				Placeholder: "sample_cfg:2",
			},
		},
		Run: runSampleDataset,
	}
}

func runSampleDataset(ctx context.Context, args registry.Args) error {
	datasets := args.Paths("dataset_paths")
	rate := args.Int("sample_rate")
	suffix := args.String("output_suffix")

	if len(datasets) == 0 {
		return fmt.Errorf("at least one --dataset-paths is required")
	}
	if rate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", rate)
	}

	primary := datasets[0]
	logger.Info("Indexing primary dataset: %s (origin: %s)", primary.Working, primary.Origin)

	index, err := indexDataset(primary.Working)
	if err != nil {
		return err
	}
	logger.Info("Primary index contains %d files.", len(index))

	// 1) Subsample the primary dataset.
	var sampled []string
	for i := 0; i < len(index); i += rate {
		sampled = append(sampled, index[i])
	}

	primaryOut := outputPath(primary.Working, suffix)
	logger.Info("Copying primary subset -> %s", primaryOut)
	if err := copyFiles(primary.Working, primaryOut, sampled); err != nil {
		return err
	}

	keep := make(map[string]bool, len(sampled))
	for _, rel := range sampled {
		keep[rel] = true
	}

	// 2) Index-match and copy every subsequent dataset.
	for i, tp := range datasets[1:] {
		logger.Info("Indexing dataset %d: %s (origin: %s)", i+2, tp.Working, tp.Origin)
		idx, err := indexDataset(tp.Working)
		if err != nil {
			return err
		}

		var matched []string
		for _, rel := range idx {
			if keep[rel] {
				matched = append(matched, rel)
			}
		}
		logger.Info("Dataset %d matched %d of %d files.", i+2, len(matched), len(idx))

		out := outputPath(tp.Working, suffix)
		logger.Info("Copying dataset %d subset -> %s", i+2, out)
		if err := copyFiles(tp.Working, out, matched); err != nil {
			return err
		}
	}

	logger.Info("Processed %d dataset(s).", len(datasets))
	return nil
}

// indexDataset returns the sorted relative paths of all regular files under
// dir, so sampling is deterministic regardless of walk order.
func indexDataset(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to index dataset %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// outputPath derives the output directory name: the suffix goes before a
// trailing extension when there is one ("x.zip" -> "x_8k.zip"), after the
// name otherwise.
func outputPath(dir string, suffix string) string {
	dir = strings.TrimRight(dir, string(filepath.Separator))
	ext := filepath.Ext(dir)
	if ext != "" {
		return strings.TrimSuffix(dir, ext) + suffix + ext
	}
	return dir + suffix
}

// copyFiles copies the listed relative paths from srcDir into dstDir,
// creating directories as needed.
func copyFiles(srcDir, dstDir string, rels []string) error {
	for _, rel := range rels {
		src := filepath.Join(srcDir, rel)
		dst := filepath.Join(dstDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
