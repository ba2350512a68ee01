// Package config loads savORG settings from defaults, an optional YAML file,
// and SAVORG_* environment variables, in that order.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Workspace WorkspaceConfig `koanf:"workspace"`
	Roster    RosterConfig    `koanf:"roster"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp, none
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

// WorkspaceConfig locates the hierarchy engine's sources. Relative paths
// resolve against Root.
type WorkspaceConfig struct {
	Root           string        `koanf:"root"`
	ConfigPath     string        `koanf:"config_path"`
	FallbackPath   string        `koanf:"fallback_path"`
	CorpusDir      string        `koanf:"corpus_dir"`
	AgentPrefix    string        `koanf:"agent_prefix"`
	RuntimeCommand string        `koanf:"runtime_command"`
	RuntimeArgs    []string      `koanf:"runtime_args"`
	RuntimeTimeout time.Duration `koanf:"runtime_timeout"`
}

type RosterConfig struct {
	DBPath string `koanf:"db_path"`
}

// Load reads configuration from the optional file at path, then overlays
// SAVORG_* environment variables (SAVORG_LOG_LEVEL -> log.level).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("telemetry.exporter", "none")
	k.Set("workspace.root", ".")
	k.Set("workspace.agent_prefix", "ClawControl")
	k.Set("workspace.runtime_command", "openclaw")
	k.Set("workspace.runtime_args", []string{"agents", "list", "--json"})
	k.Set("workspace.runtime_timeout", "30s")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("SAVORG_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "SAVORG_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
