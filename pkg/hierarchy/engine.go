// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"gopkg.in/yaml.v3"

	"github.com/salexandr0s/savORG-sub003/pkg/inventory"
	"github.com/salexandr0s/savORG-sub003/pkg/roster"
	"github.com/salexandr0s/savORG-sub003/pkg/telemetry"
)

const tracerName = "savorg/hierarchy"

// DefaultRuntimeTimeout bounds the runtime inventory command.
const DefaultRuntimeTimeout = 30 * time.Second

// Options locate the engine's sources. Relative defaults hang off the
// workspace root; an empty RuntimeCommand disables the runtime source.
type Options struct {
	WorkspaceRoot  string
	ConfigPath     string
	CorpusDir      string
	FallbackPath   string
	AgentPrefix    string
	RuntimeCommand string
	RuntimeArgs    []string
	RuntimeTimeout time.Duration
}

func (o Options) configPath() string {
	if o.ConfigPath != "" {
		return o.ConfigPath
	}
	return filepath.Join(o.WorkspaceRoot, "savorg.yaml")
}

func (o Options) corpusDir() string {
	if o.CorpusDir != "" {
		return o.CorpusDir
	}
	return o.WorkspaceRoot
}

func (o Options) fallbackPath() string {
	if o.FallbackPath != "" {
		return o.FallbackPath
	}
	return filepath.Join(o.WorkspaceRoot, "org-defaults.yaml")
}

func (o Options) runtimeTimeout() time.Duration {
	if o.RuntimeTimeout > 0 {
		return o.RuntimeTimeout
	}
	return DefaultRuntimeTimeout
}

// Engine sequences source acquisition and graph construction. It holds no
// state between invocations; every Reconcile is independently reproducible
// from its inputs.
type Engine struct {
	opts    Options
	roster  roster.Provider
	runner  inventory.Runner
	log     *slog.Logger
	metrics *telemetry.ReconcileMetrics
}

// New creates an engine. provider and runner may be nil, degrading the
// roster and runtime sources to unavailable.
func New(opts Options, provider roster.Provider, runner inventory.Runner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{opts: opts, roster: provider, runner: runner, log: logger}
}

// SetMetrics attaches reconcile metrics recording.
func (e *Engine) SetMetrics(m *telemetry.ReconcileMetrics) {
	e.metrics = m
}

// acquisition holds the raw per-source payloads and statuses for one
// invocation. Each source owns a disjoint field group, so the concurrent
// acquisition goroutines never share mutable state.
type acquisition struct {
	rosterRecords []roster.Record
	rosterStatus  SourceStatus
	rosterWarns   []Warning

	configRoot   any
	configStatus SourceStatus
	configWarns  []Warning

	docs       []Document
	docsStatus SourceStatus
	docsWarns  []Warning

	runtimePayload []byte
	runtimeStatus  SourceStatus
	runtimeWarns   []Warning

	fallbackRoot   any
	fallbackStatus SourceStatus
	fallbackWarns  []Warning
}

// Reconcile runs one full acquisition and merge. It never fails on missing
// or malformed sources; the only error returned is context cancellation.
func (e *Engine) Reconcile(ctx context.Context) (*Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "hierarchy.reconcile")
	defer span.End()

	start := time.Now()
	log := e.log.With("run_id", uuid.NewString())

	acq := e.acquire(ctx, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	warnings := newWarningSet()
	warnings.addAll(acq.rosterWarns)
	warnings.addAll(acq.configWarns)
	warnings.addAll(acq.docsWarns)
	warnings.addAll(acq.runtimeWarns)
	warnings.addAll(acq.fallbackWarns)

	structural := e.selectStructural(acq, warnings)
	overlay := e.selectOverlay(acq, warnings)

	nodes, edges := buildGraph(buildInputs{
		Roster:     acq.rosterRecords,
		Structural: structural,
		Overlay:    overlay,
	}, warnings)

	result := &Result{
		Nodes: nodes,
		Edges: edges,
		Sources: SourceReport{
			Roster:   acq.rosterStatus,
			Config:   acq.configStatus,
			Docs:     acq.docsStatus,
			Runtime:  acq.runtimeStatus,
			Fallback: acq.fallbackStatus,
		},
		Warnings: warnings.sorted(),
	}

	span.SetAttributes(telemetry.GraphAttributes(len(result.Nodes), len(result.Edges), len(result.Warnings))...)
	e.metrics.RecordReconcile(ctx, time.Since(start), len(result.Nodes), len(result.Edges), len(result.Warnings))
	e.metrics.RecordSourceState(ctx, string(SourceRoster), string(acq.rosterStatus.State))
	e.metrics.RecordSourceState(ctx, string(SourceConfig), string(acq.configStatus.State))
	e.metrics.RecordSourceState(ctx, string(SourceDocs), string(acq.docsStatus.State))
	e.metrics.RecordSourceState(ctx, string(SourceRuntime), string(acq.runtimeStatus.State))
	e.metrics.RecordSourceState(ctx, string(SourceFallback), string(acq.fallbackStatus.State))

	log.InfoContext(ctx, "reconcile complete",
		"nodes", len(result.Nodes),
		"edges", len(result.Edges),
		"warnings", len(result.Warnings),
		"duration", time.Since(start))
	return result, nil
}

// acquire dispatches the five source acquisitions concurrently. They are
// read-only and mutually independent; only the processing order afterwards
// matters for the graph.
func (e *Engine) acquire(ctx context.Context, log *slog.Logger) *acquisition {
	acq := &acquisition{}
	var wg sync.WaitGroup
	wg.Add(5)
	go func() { defer wg.Done(); e.acquireRoster(ctx, log, acq) }()
	go func() { defer wg.Done(); e.acquireConfig(log, acq) }()
	go func() { defer wg.Done(); e.acquireDocs(log, acq) }()
	go func() { defer wg.Done(); e.acquireRuntime(ctx, log, acq) }()
	go func() { defer wg.Done(); e.acquireFallback(log, acq) }()
	wg.Wait()
	return acq
}

func (e *Engine) acquireRoster(ctx context.Context, log *slog.Logger, acq *acquisition) {
	acq.rosterStatus.Detail = "roster"
	if e.roster == nil {
		acq.rosterStatus.State = StateUnavailable
		acq.rosterStatus.Detail = "not configured"
		return
	}
	records, err := e.roster.List(ctx)
	if err != nil {
		acq.rosterStatus.State = StateUnavailable
		acq.rosterStatus.Error = err.Error()
		acq.rosterWarns = append(acq.rosterWarns, Warning{
			Code:    WarnSourceUnavailable,
			Source:  SourceRoster,
			Message: fmt.Sprintf("roster query failed: %v", err),
		})
		log.Warn("roster query failed", "error", err)
		return
	}
	acq.rosterStatus.State = StateAvailable
	acq.rosterRecords = records
}

func (e *Engine) acquireConfig(log *slog.Logger, acq *acquisition) {
	path := e.opts.configPath()
	acq.configStatus.Detail = path
	acq.configStatus.State = StateUnavailable

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		acq.configStatus.Error = err.Error()
		acq.configWarns = append(acq.configWarns, Warning{
			Code:    WarnSourceUnavailable,
			Source:  SourceConfig,
			Message: fmt.Sprintf("workspace config unreadable: %v", err),
		})
		log.Warn("workspace config unreadable", "path", path, "error", err)
		return
	}

	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		acq.configStatus.Error = err.Error()
		acq.configWarns = append(acq.configWarns, Warning{
			Code:    WarnParseError,
			Source:  SourceConfig,
			Message: fmt.Sprintf("workspace config unparseable: %v", err),
		})
		log.Warn("workspace config unparseable", "path", path, "error", err)
		return
	}
	acq.configStatus.State = StateAvailable
	acq.configRoot = root
}

func (e *Engine) acquireDocs(log *slog.Logger, acq *acquisition) {
	dir := e.opts.corpusDir()
	acq.docsStatus.Detail = dir
	acq.docsStatus.State = StateUnavailable

	docs, err := LoadCorpus(dir)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		acq.docsStatus.Error = err.Error()
		acq.docsWarns = append(acq.docsWarns, Warning{
			Code:    WarnSourceUnavailable,
			Source:  SourceDocs,
			Message: fmt.Sprintf("document corpus unreadable: %v", err),
		})
		log.Warn("document corpus unreadable", "dir", dir, "error", err)
		return
	}
	acq.docsStatus.State = StateAvailable
	acq.docs = docs
}

func (e *Engine) acquireRuntime(ctx context.Context, log *slog.Logger, acq *acquisition) {
	acq.runtimeStatus.State = StateUnavailable
	if e.runner == nil || e.opts.RuntimeCommand == "" {
		acq.runtimeStatus.Detail = "not configured"
		return
	}
	acq.runtimeStatus.Detail = e.opts.RuntimeCommand

	ctx, cancel := context.WithTimeout(ctx, e.opts.runtimeTimeout())
	defer cancel()

	payload, err := e.runner.Run(ctx, e.opts.RuntimeCommand, e.opts.RuntimeArgs...)
	if err != nil {
		acq.runtimeStatus.Error = err.Error()
		if inventory.IsCommandMissing(err) {
			// Expected unavailability: the runtime is simply not installed.
			log.Debug("runtime inventory command missing", "command", e.opts.RuntimeCommand)
			return
		}
		acq.runtimeWarns = append(acq.runtimeWarns, Warning{
			Code:    WarnSourceUnavailable,
			Source:  SourceRuntime,
			Message: fmt.Sprintf("runtime inventory failed: %v", err),
		})
		log.Warn("runtime inventory failed", "command", e.opts.RuntimeCommand, "error", err)
		return
	}
	acq.runtimeStatus.State = StateAvailable
	acq.runtimePayload = payload
}

func (e *Engine) acquireFallback(log *slog.Logger, acq *acquisition) {
	path := e.opts.fallbackPath()
	acq.fallbackStatus.Detail = path
	acq.fallbackStatus.State = StateUnavailable

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		acq.fallbackStatus.Error = err.Error()
		acq.fallbackWarns = append(acq.fallbackWarns, Warning{
			Code:    WarnSourceUnavailable,
			Source:  SourceFallback,
			Message: fmt.Sprintf("fallback template unreadable: %v", err),
		})
		log.Warn("fallback template unreadable", "path", path, "error", err)
		return
	}

	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		acq.fallbackStatus.Error = err.Error()
		acq.fallbackWarns = append(acq.fallbackWarns, Warning{
			Code:    WarnParseError,
			Source:  SourceFallback,
			Message: fmt.Sprintf("fallback template unparseable: %v", err),
		})
		log.Warn("fallback template unparseable", "path", path, "error", err)
		return
	}
	acq.fallbackStatus.State = StateAvailable
	acq.fallbackRoot = root
}

// selectStructural picks the structural source: the workspace config when it
// yields agents, else the document corpus.
func (e *Engine) selectStructural(acq *acquisition, warnings *warningSet) []structuralAgent {
	if acq.configStatus.State == StateAvailable {
		res := ParseWorkspaceConfig(acq.configRoot)
		warnings.addAll(res.Warnings)
		if len(res.Agents) > 0 {
			if acq.docsStatus.State == StateAvailable {
				acq.docsStatus.State = StateUnused
			}
			return structuralFromConfig(res)
		}
	}
	if acq.docsStatus.State != StateAvailable {
		return nil
	}
	res := ExtractDocRelations(acq.docs, e.opts.AgentPrefix)
	warnings.addAll(res.Warnings)
	return structuralFromDocs(res)
}

// selectOverlay applies exactly one overlay: runtime when its payload
// decodes, else the fallback template, else none. Applying the fallback
// always emits the fallback-used warning, whether the runtime source was
// merely absent or errored; the distinction stays visible in the source
// status block.
func (e *Engine) selectOverlay(acq *acquisition, warnings *warningSet) *OverlayResult {
	if acq.runtimeStatus.State == StateAvailable {
		res := ParseRuntimeInventory(acq.runtimePayload)
		warnings.addAll(res.Warnings)
		if !res.Malformed {
			if acq.fallbackStatus.State == StateAvailable {
				acq.fallbackStatus.State = StateUnused
			}
			return &res
		}
		acq.runtimeStatus.State = StateUnavailable
		acq.runtimeStatus.Error = "payload malformed"
	}

	if acq.fallbackStatus.State != StateAvailable {
		return nil
	}
	res := ParseFallbackTemplate(acq.fallbackRoot)
	warnings.addAll(res.Warnings)
	if res.Malformed {
		acq.fallbackStatus.State = StateUnavailable
		acq.fallbackStatus.Error = "template malformed"
		return nil
	}
	warnings.add(Warning{
		Code:    WarnFallbackUsed,
		Source:  SourceFallback,
		Message: "runtime inventory unavailable; static fallback template applied",
	})
	return &res
}
