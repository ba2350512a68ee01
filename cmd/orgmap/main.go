// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/salexandr0s/savORG-sub003/pkg/config"
	"github.com/salexandr0s/savORG-sub003/pkg/hierarchy"
	"github.com/salexandr0s/savORG-sub003/pkg/inventory"
	"github.com/salexandr0s/savORG-sub003/pkg/roster"
	"github.com/salexandr0s/savORG-sub003/pkg/telemetry"
)

const version = "dev"

type globalFlags struct {
	ConfigPath string
	Workspace  string
	Timeout    time.Duration
	JSON       bool
	Help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	cfg, err := config.Load(global.ConfigPath)
	if err != nil {
		fatal(err)
	}
	if global.Workspace != "" {
		cfg.Workspace.Root = global.Workspace
	}

	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	shutdown, err := telemetry.Setup("savorg", version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		fatal(err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	switch args[0] {
	case "graph":
		runGraph(ctx, global, cfg, logger, args[1:])
	case "sources":
		ensureNoArgs(args[1:])
		runSources(ctx, global, cfg, logger)
	case "warnings":
		ensureNoArgs(args[1:])
		runWarnings(ctx, global, cfg, logger)
	case "roster":
		runRoster(ctx, global, cfg, args[1:])
	case "mcp":
		runMCPServe(global, cfg, logger, args[1:])
	case "help":
		printUsage()
	case "version":
		printVersion()
	default:
		fatal(fmt.Errorf("unknown command %q", args[0]))
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	flags := globalFlags{
		ConfigPath: getenv("SAVORG_CONFIG", ""),
		Timeout:    30 * time.Second,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --config")
			}
			flags.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			flags.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--workspace":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --workspace")
			}
			flags.Workspace = args[i+1]
			i++
		case strings.HasPrefix(arg, "--workspace="):
			flags.Workspace = strings.TrimPrefix(arg, "--workspace=")
		case arg == "--timeout":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --timeout")
			}
			value, err := time.ParseDuration(args[i+1])
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
			i++
		case strings.HasPrefix(arg, "--timeout="):
			value, err := time.ParseDuration(strings.TrimPrefix(arg, "--timeout="))
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

// buildEngine wires the reconcile engine from the loaded settings: the SQLite
// roster when a db path is configured, and the real command runner.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*hierarchy.Engine, func(), error) {
	var provider roster.Provider
	cleanup := func() {}
	if cfg.Roster.DBPath != "" {
		store, err := roster.Open(cfg.Roster.DBPath)
		if err != nil {
			return nil, nil, err
		}
		provider = store
		cleanup = func() { _ = store.Close() }
	}

	opts := hierarchy.Options{
		WorkspaceRoot:  cfg.Workspace.Root,
		ConfigPath:     cfg.Workspace.ConfigPath,
		CorpusDir:      cfg.Workspace.CorpusDir,
		FallbackPath:   cfg.Workspace.FallbackPath,
		AgentPrefix:    cfg.Workspace.AgentPrefix,
		RuntimeCommand: cfg.Workspace.RuntimeCommand,
		RuntimeArgs:    cfg.Workspace.RuntimeArgs,
		RuntimeTimeout: cfg.Workspace.RuntimeTimeout,
	}

	engine := hierarchy.New(opts, provider, inventory.ExecRunner{}, logger)
	metrics, err := telemetry.NewReconcileMetrics()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	engine.SetMetrics(metrics)
	return engine, cleanup, nil
}

func reconcileOnce(ctx context.Context, global globalFlags, cfg *config.Config, logger *slog.Logger) *hierarchy.Result {
	engine, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		fatal(err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, global.Timeout)
	defer cancel()

	result, err := engine.Reconcile(ctx)
	if err != nil {
		fatal(err)
	}
	return result
}

func printJSON(value any) {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(payload))
}

func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
}

func writeRow(writer *tabwriter.Writer, cols ...string) {
	for i, col := range cols {
		cols[i] = normalizeCell(col)
	}
	fmt.Fprintln(writer, strings.Join(cols, "\t"))
}

func normalizeCell(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return strings.Join(strings.Fields(value), " ")
}

func printVersion() {
	fmt.Println(version)
}

func printUsage() {
	fmt.Print(`orgmap - agent hierarchy reconciliation

Usage:
  orgmap [global flags] <command> [args]

Global flags:
  --config <path>      Path to savORG settings YAML (or SAVORG_CONFIG)
  --workspace <dir>    Workspace root override
  --timeout <dur>      Reconcile timeout (default 30s)
  --json               JSON output

Commands:
  graph [--output json|mermaid|dot] [--out FILE] [--watch] [--interval 5s]
  sources
  warnings
  roster import <file.json> [--db <path>]
  roster list [--db <path>]
  mcp serve
  version
`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func ensureNoArgs(args []string) {
	if len(args) > 0 {
		fatal(fmt.Errorf("unexpected args: %v", args))
	}
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
