package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hession/datakit/internal/paths"
	"github.com/hession/datakit/internal/registry"
)

// writeDataset creates a dataset directory with the given files.
func writeDataset(t *testing.T, root string, files ...string) string {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(f), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func tracked(dirs ...string) []paths.TrackedPath {
	tps := make([]paths.TrackedPath, 0, len(dirs))
	for _, d := range dirs {
		tps = append(tps, paths.TrackedPath{Working: d, Origin: d})
	}
	return tps
}

func TestRegisterAll(t *testing.T) {
	reg := registry.New()
	if err := RegisterAll(reg); err != nil {
		t.Fatalf("RegisterAll failed: %v", err)
	}

	names := []string{"sample-dataset", "split-ds"}
	tools := reg.List()
	if len(tools) != len(names) {
		t.Fatalf("Expected %d tools, got %d", len(names), len(tools))
	}
	for i, n := range names {
		if tools[i].Name != n {
			t.Errorf("Position %d: expected %s, got %s", i, n, tools[i].Name)
		}
	}
}

func TestSampleDataset(t *testing.T) {
	tmpDir := t.TempDir()
	primary := writeDataset(t, filepath.Join(tmpDir, "rgb"),
		"000.png", "001.png", "002.png", "003.png", "004.png", "005.png")
	secondary := writeDataset(t, filepath.Join(tmpDir, "depth"),
		"000.png", "001.png", "002.png", "003.png", "004.png", "005.png")

	tool := NewSampleDataset()
	err := tool.Run(context.Background(), registry.Args{
		"dataset_paths": tracked(primary, secondary),
		"sample_rate":   3,
		"output_suffix": "_2k",
	})
	if err != nil {
		t.Fatalf("sample-dataset failed: %v", err)
	}

	// Every 3rd file of the sorted index: 000 and 003.
	for _, out := range []string{primary + "_2k", secondary + "_2k"} {
		for _, f := range []string{"000.png", "003.png"} {
			if _, err := os.Stat(filepath.Join(out, f)); err != nil {
				t.Errorf("Expected %s in %s: %v", f, out, err)
			}
		}
		for _, f := range []string{"001.png", "002.png", "004.png", "005.png"} {
			if _, err := os.Stat(filepath.Join(out, f)); !os.IsNotExist(err) {
				t.Errorf("File %s should not be in %s", f, out)
			}
		}
	}
}

func TestSampleDatasetIndexMatchSkipsMissing(t *testing.T) {
	tmpDir := t.TempDir()
	primary := writeDataset(t, filepath.Join(tmpDir, "rgb"),
		"000.png", "001.png", "002.png", "003.png")
	// Secondary is missing 000.png, so only 002.png can be matched.
	secondary := writeDataset(t, filepath.Join(tmpDir, "depth"),
		"001.png", "002.png", "003.png")

	tool := NewSampleDataset()
	err := tool.Run(context.Background(), registry.Args{
		"dataset_paths": tracked(primary, secondary),
		"sample_rate":   2,
		"output_suffix": "_s",
	})
	if err != nil {
		t.Fatalf("sample-dataset failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(secondary+"_s", "002.png")); err != nil {
		t.Errorf("Expected matched file 002.png: %v", err)
	}
	if _, err := os.Stat(filepath.Join(secondary+"_s", "000.png")); !os.IsNotExist(err) {
		t.Error("Missing primary file should not appear in the matched output")
	}
}

func TestSampleDatasetRejectsBadRate(t *testing.T) {
	tool := NewSampleDataset()
	err := tool.Run(context.Background(), registry.Args{
		"dataset_paths": tracked(t.TempDir()),
		"sample_rate":   0,
		"output_suffix": "_s",
	})
	if err == nil {
		t.Fatal("Expected an error for sample_rate 0")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in     string
		suffix string
		want   string
	}{
		{"/data/rgb", "_8k", "/data/rgb_8k"},
		{"/data/rgb/", "_8k", "/data/rgb_8k"},
		{"/data/rgb.zip", "_8k", "/data/rgb_8k.zip"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.in, tt.suffix); got != tt.want {
			t.Errorf("outputPath(%q, %q) = %q, want %q", tt.in, tt.suffix, got, tt.want)
		}
	}
}

func TestSplitDS(t *testing.T) {
	tmpDir := t.TempDir()
	files := make([]string, 10)
	for i := range files {
		files[i] = filepath.Join("imgs", string(rune('a'+i))+".png")
	}
	rgb := writeDataset(t, filepath.Join(tmpDir, "rgb"), files...)

	depthFiles := make([]string, 10)
	for i := range depthFiles {
		depthFiles[i] = filepath.Join("imgs", string(rune('a'+i))+".exr")
	}
	depth := writeDataset(t, filepath.Join(tmpDir, "depth"), depthFiles...)

	tool := NewSplitDS()
	err := tool.Run(context.Background(), registry.Args{
		"source_paths": tracked(rgb, depth),
		"suffixes":     []string{"train", "val"},
		"ratios":       []int{80, 20},
	})
	if err != nil {
		t.Fatalf("split-ds failed: %v", err)
	}

	countFiles := func(dir string) int {
		n := 0
		filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err == nil && !d.IsDir() {
				n++
			}
			return nil
		})
		return n
	}

	// 10 common IDs split 80/20.
	if got := countFiles(rgb + "_train"); got != 8 {
		t.Errorf("rgb_train: expected 8 files, got %d", got)
	}
	if got := countFiles(rgb + "_val"); got != 2 {
		t.Errorf("rgb_val: expected 2 files, got %d", got)
	}
	if got := countFiles(depth + "_train"); got != 8 {
		t.Errorf("depth_train: expected 8 files, got %d", got)
	}
	if got := countFiles(depth + "_val"); got != 2 {
		t.Errorf("depth_val: expected 2 files, got %d", got)
	}
}

func TestSplitDSExcludesUncommonIDs(t *testing.T) {
	tmpDir := t.TempDir()
	rgb := writeDataset(t, filepath.Join(tmpDir, "rgb"), "a.png", "b.png", "only-rgb.png")
	depth := writeDataset(t, filepath.Join(tmpDir, "depth"), "a.exr", "b.exr")

	tool := NewSplitDS()
	err := tool.Run(context.Background(), registry.Args{
		"source_paths": tracked(rgb, depth),
		"suffixes":     []string{"train"},
		"ratios":       []int{100},
	})
	if err != nil {
		t.Fatalf("split-ds failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(rgb+"_train", "only-rgb.png")); !os.IsNotExist(err) {
		t.Error("IDs not common to all sources must be excluded")
	}
	if _, err := os.Stat(filepath.Join(rgb+"_train", "a.png")); err != nil {
		t.Errorf("Common ID should be copied: %v", err)
	}
}

func TestSplitDSValidation(t *testing.T) {
	tool := NewSplitDS()

	tests := []struct {
		name     string
		suffixes []string
		ratios   []int
	}{
		{"ratio sum", []string{"train", "val"}, []int{80, 10}},
		{"length mismatch", []string{"train"}, []int{80, 20}},
		{"negative ratio", []string{"train", "val"}, []int{120, -20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tool.Run(context.Background(), registry.Args{
				"source_paths": tracked(t.TempDir()),
				"suffixes":     tt.suffixes,
				"ratios":       tt.ratios,
			})
			if err == nil {
				t.Error("Expected a validation error")
			}
		})
	}
}

func TestSplitIDsRemainderGoesLast(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}
	splits := splitIDs(ids, []int{80, 10, 10})

	if len(splits) != 3 {
		t.Fatalf("Expected 3 splits, got %d", len(splits))
	}
	total := len(splits[0]) + len(splits[1]) + len(splits[2])
	if total != len(ids) {
		t.Errorf("Splits must cover all IDs: %d != %d", total, len(ids))
	}
	// 7*80/100 = 5, 7*10/100 = 0, remainder 2 in the last split.
	if len(splits[0]) != 5 || len(splits[1]) != 0 || len(splits[2]) != 2 {
		t.Errorf("Unexpected split sizes: %d/%d/%d", len(splits[0]), len(splits[1]), len(splits[2]))
	}
}
