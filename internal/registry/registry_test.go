package registry

import (
	"context"
	"errors"
	"testing"
)

func testTool(name string, params ...Param) *Tool {
	return &Tool{
		Name:        name,
		Description: "test tool",
		Params:      params,
		Run:         func(ctx context.Context, args Args) error { return nil },
	}
}

func TestRegisterAndGet(t *testing.T) {
	reg := New()

	if err := reg.Register(testTool("sample-dataset")); err != nil {
		t.Fatalf("Failed to register tool: %v", err)
	}

	got, err := reg.Get("sample-dataset")
	if err != nil {
		t.Fatalf("Failed to get registered tool: %v", err)
	}
	if got.Name != "sample-dataset" {
		t.Errorf("Tool name mismatch: expected sample-dataset, got %s", got.Name)
	}

	_, err = reg.Get("not-there")
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("Expected ErrUnknownTool, got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := New()

	if err := reg.Register(testTool("split-ds")); err != nil {
		t.Fatalf("Failed to register tool: %v", err)
	}
	err := reg.Register(testTool("split-ds"))
	if !errors.Is(err, ErrDuplicateTool) {
		t.Errorf("Expected ErrDuplicateTool, got %v", err)
	}
}

func TestListKeepsRegistrationOrder(t *testing.T) {
	reg := New()
	names := []string{"zeta", "alpha", "mid"}
	for _, n := range names {
		if err := reg.Register(testTool(n)); err != nil {
			t.Fatalf("Failed to register %s: %v", n, err)
		}
	}

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

func TestRegisterReservedNames(t *testing.T) {
	tests := []struct {
		name  string
		param Param
	}{
		{
			name:  "log-level",
			param: Param{Name: "log_level", Kind: KindString},
		},
		{
			name:  "origin-map",
			param: Param{Name: "origin_map", Kind: KindString},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := New()
			err := reg.Register(testTool("bad-tool", tt.param))
			if !errors.Is(err, ErrReservedName) {
				t.Errorf("Expected ErrReservedName, got %v", err)
			}
		})
	}
}

func TestRegisterCompanionCollision(t *testing.T) {
	// "input" is tracked, so it also owns --input-origin; a second parameter
	// named input_origin collides with the derived companion flag.
	reg := New()
	err := reg.Register(testTool("bad-tool",
		Param{Name: "input", Kind: KindTrackedPath},
		Param{Name: "input_origin", Kind: KindString},
	))
	if !errors.Is(err, ErrReservedName) {
		t.Errorf("Expected ErrReservedName, got %v", err)
	}
}

func TestParamDerivedFields(t *testing.T) {
	p := Param{Name: "dataset_paths", Kind: KindTrackedPath, Repeatable: true}

	if p.CLIName() != "dataset-paths" {
		t.Errorf("Expected kebab-case dataset-paths, got %s", p.CLIName())
	}
	if p.OriginCLIName() != "dataset-paths-origin" {
		t.Errorf("Expected dataset-paths-origin, got %s", p.OriginCLIName())
	}
	if !p.Required() {
		t.Error("Parameter without default should be required")
	}

	p.Default = []string{"a"}
	if p.Required() {
		t.Error("Parameter with default should not be required")
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindString, "string"},
		{KindInt, "int"},
		{KindFloat, "float"},
		{KindTrackedPath, "tracked_path"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind %d: expected %s, got %s", tt.kind, tt.want, got)
		}
	}
}
