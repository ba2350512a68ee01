// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("log defaults = %+v", cfg.Log)
	}
	if cfg.Telemetry.Exporter != "none" {
		t.Fatalf("telemetry default = %+v", cfg.Telemetry)
	}
	if cfg.Workspace.AgentPrefix != "ClawControl" {
		t.Fatalf("agent prefix = %q", cfg.Workspace.AgentPrefix)
	}
	if cfg.Workspace.RuntimeCommand != "openclaw" {
		t.Fatalf("runtime command = %q", cfg.Workspace.RuntimeCommand)
	}
	if cfg.Workspace.RuntimeTimeout != 30*time.Second {
		t.Fatalf("runtime timeout = %v", cfg.Workspace.RuntimeTimeout)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	text := `
log:
  level: debug
  format: json
workspace:
  root: /srv/org
  runtime_timeout: 5s
roster:
  db_path: /srv/org/roster.db
`
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("log = %+v", cfg.Log)
	}
	if cfg.Workspace.Root != "/srv/org" {
		t.Fatalf("root = %q", cfg.Workspace.Root)
	}
	if cfg.Workspace.RuntimeTimeout != 5*time.Second {
		t.Fatalf("timeout = %v", cfg.Workspace.RuntimeTimeout)
	}
	if cfg.Roster.DBPath != "/srv/org/roster.db" {
		t.Fatalf("db path = %q", cfg.Roster.DBPath)
	}
	// Untouched sections keep defaults.
	if cfg.Workspace.AgentPrefix != "ClawControl" {
		t.Fatalf("agent prefix = %q", cfg.Workspace.AgentPrefix)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SAVORG_LOG_LEVEL", "warn")
	t.Setenv("SAVORG_TELEMETRY_EXPORTER", "stdout")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("log level = %q", cfg.Log.Level)
	}
	if cfg.Telemetry.Exporter != "stdout" {
		t.Fatalf("exporter = %q", cfg.Telemetry.Exporter)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit file")
	}
}
