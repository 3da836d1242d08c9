package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hession/datakit/internal/config"
	"github.com/hession/datakit/internal/registry"
	"github.com/hession/datakit/internal/tools"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.History.DBPath = t.TempDir() + "/history.db"
	cfg.Log.Dir = t.TempDir()
	return cfg
}

func TestVersion(t *testing.T) {
	if version != "0.1.0" {
		t.Errorf("Expected version '0.1.0', got '%s'", version)
	}
}

func TestRootCmdHasSubcommands(t *testing.T) {
	reg := registry.New()
	if err := tools.RegisterAll(reg); err != nil {
		t.Fatalf("Failed to register tools: %v", err)
	}

	rootCmd := newRootCmd(reg, testConfig(t))

	expected := []string{"list", "schema", "run", "history", "shell", "config", "version"}
	for _, name := range expected {
		found := false
		for _, sub := range rootCmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected subcommand %q", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	rootCmd := newRootCmd(registry.New(), testConfig(t))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"version"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out.String(), "DataKit v0.1.0") {
		t.Errorf("Unexpected version output: %q", out.String())
	}
}
