// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package hierarchy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/salexandr0s/savORG-sub003/pkg/roster"
)

type fakeRunner struct {
	payload []byte
	err     error
}

func (r fakeRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, error) {
	return r.payload, r.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine(t *testing.T, root string, provider roster.Provider, runner fakeRunner) *Engine {
	t.Helper()
	return New(Options{
		WorkspaceRoot:  root,
		RuntimeCommand: "openclaw",
		RuntimeArgs:    []string{"agents", "list", "--json"},
	}, provider, runner, quietLogger())
}

func warningCodes(result *Result) map[WarningCode]int {
	codes := make(map[WarningCode]int)
	for _, w := range result.Warnings {
		codes[w.Code]++
	}
	return codes
}

// Full pipeline: roster + config structure, runtime missing, fallback overlay
// applied with its messaging allow list.
func TestReconcileFallbackPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "savorg.yaml"), `
agents:
  agentA:
    reports_to: B
`)
	writeFile(t, filepath.Join(root, "org-defaults.yaml"), `
tools:
  agent_to_agent:
    enabled: true
    allow: [agentA]
`)
	writeFile(t, filepath.Join(root, "README.md"), "# Project\n")

	provider := roster.Static{Records: []roster.Record{
		{ID: "row-1", RuntimeID: "agentA", Name: "Agent A", Role: "builder"},
	}}
	engine := testEngine(t, root, provider, fakeRunner{err: exec.ErrNotFound})

	result, err := engine.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if len(result.Nodes) != 2 {
		t.Fatalf("nodes = %+v", result.Nodes)
	}
	a := result.NodeByAlias("agentA")
	if a == nil || a.Kind != KindAgent || a.Roster == nil {
		t.Fatalf("agentA = %+v", a)
	}
	if findEdge(result.Edges, EdgeReportsTo, "agenta", "b") == nil {
		t.Fatalf("missing reports_to edge: %+v", result.Edges)
	}
	if findEdge(result.Edges, EdgeCanMessage, "agenta", "b") == nil {
		t.Fatalf("missing can_message edge: %+v", result.Edges)
	}

	codes := warningCodes(result)
	if codes[WarnFallbackUsed] != 1 {
		t.Fatalf("expected one fallback-used warning, got %v", result.Warnings)
	}

	if result.Sources.Roster.State != StateAvailable {
		t.Errorf("roster state = %s", result.Sources.Roster.State)
	}
	if result.Sources.Config.State != StateAvailable {
		t.Errorf("config state = %s", result.Sources.Config.State)
	}
	if result.Sources.Docs.State != StateUnused {
		t.Errorf("docs state = %s", result.Sources.Docs.State)
	}
	if result.Sources.Runtime.State != StateUnavailable {
		t.Errorf("runtime state = %s", result.Sources.Runtime.State)
	}
	if result.Sources.Fallback.State != StateAvailable {
		t.Errorf("fallback state = %s", result.Sources.Fallback.State)
	}
}

// A live runtime payload sidelines the fallback template and no fallback
// warning is raised.
func TestReconcileRuntimePath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "savorg.yaml"), `
agents:
  agentA:
    reports_to: agentB
  agentB: {}
`)
	writeFile(t, filepath.Join(root, "org-defaults.yaml"), "agents:\n  list: []\n")

	runner := fakeRunner{payload: []byte(`[{"id": "agentA", "tools": {"deny": ["exec"]}}]`)}
	engine := testEngine(t, root, nil, runner)

	result, err := engine.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	a := result.NodeByAlias("agentA")
	if state := a.Capabilities[CapExec]; state.Value || state.Source != SourceRuntime {
		t.Fatalf("exec state = %+v", state)
	}
	if codes := warningCodes(result); codes[WarnFallbackUsed] != 0 {
		t.Fatalf("unexpected fallback warning: %v", result.Warnings)
	}
	if result.Sources.Runtime.State != StateAvailable {
		t.Errorf("runtime state = %s", result.Sources.Runtime.State)
	}
	if result.Sources.Fallback.State != StateUnused {
		t.Errorf("fallback state = %s", result.Sources.Fallback.State)
	}
	if result.Sources.Roster.State != StateUnavailable {
		t.Errorf("nil roster provider should read unavailable, got %s", result.Sources.Roster.State)
	}
}

// With no config the document corpus supplies structure.
func TestReconcileDocsStructure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "TEAM.md"), "# ClawControlBuild\nReports to: ClawControlCEO\n")

	engine := testEngine(t, root, nil, fakeRunner{err: exec.ErrNotFound})
	result, err := engine.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	edge := findEdge(result.Edges, EdgeReportsTo, "clawcontrolbuild", "clawcontrolceo")
	if edge == nil || edge.Source != SourceDocs {
		t.Fatalf("edges = %+v", result.Edges)
	}
	if result.Sources.Config.State != StateUnavailable {
		t.Errorf("config state = %s", result.Sources.Config.State)
	}
	if result.Sources.Docs.State != StateAvailable {
		t.Errorf("docs state = %s", result.Sources.Docs.State)
	}
}

// A malformed runtime payload degrades to the fallback overlay.
func TestReconcileMalformedRuntimeFallsBack(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "org-defaults.yaml"), `
agents:
  list:
    - id: agentA
      tools:
        allow: ["write"]
`)

	runner := fakeRunner{payload: []byte(`{"oops": true}`)}
	engine := testEngine(t, root, nil, runner)
	result, err := engine.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	codes := warningCodes(result)
	if codes[WarnParseError] == 0 {
		t.Fatalf("expected runtime parse warning: %v", result.Warnings)
	}
	if codes[WarnFallbackUsed] != 1 {
		t.Fatalf("expected fallback-used warning: %v", result.Warnings)
	}
	if result.Sources.Runtime.State != StateUnavailable {
		t.Errorf("runtime state = %s", result.Sources.Runtime.State)
	}
	a := result.NodeByAlias("agentA")
	if a == nil {
		t.Fatalf("nodes = %+v", result.Nodes)
	}
	if state := a.Capabilities[CapWrite]; !state.Value || state.Source != SourceFallback {
		t.Fatalf("write state = %+v", state)
	}
}

// Roster failure degrades that source but the reconcile still succeeds.
func TestReconcileRosterFailure(t *testing.T) {
	root := t.TempDir()
	provider := roster.Static{Err: errors.New("db locked")}
	engine := testEngine(t, root, provider, fakeRunner{err: exec.ErrNotFound})

	result, err := engine.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Sources.Roster.State != StateUnavailable {
		t.Errorf("roster state = %s", result.Sources.Roster.State)
	}
	if codes := warningCodes(result); codes[WarnSourceUnavailable] != 1 {
		t.Fatalf("warnings = %v", result.Warnings)
	}
}

// Determinism: repeated reconciles over the same inputs yield identical output.
func TestReconcileDeterministic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "savorg.yaml"), `
agents:
  agentB:
    reports_to: agentA
  agentA:
    delegates_to: [agentB, agentC]
`)

	engine := testEngine(t, root, nil, fakeRunner{err: exec.ErrNotFound})
	first, err := engine.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	second, err := engine.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if len(first.Nodes) != len(second.Nodes) || len(first.Edges) != len(second.Edges) {
		t.Fatal("reconcile output differs between runs")
	}
	for i := range first.Nodes {
		if first.Nodes[i].Key != second.Nodes[i].Key {
			t.Fatalf("node order differs at %d: %s vs %s", i, first.Nodes[i].Key, second.Nodes[i].Key)
		}
	}
	for i := range first.Edges {
		if first.Edges[i].From != second.Edges[i].From || first.Edges[i].To != second.Edges[i].To || first.Edges[i].Type != second.Edges[i].Type {
			t.Fatalf("edge order differs at %d", i)
		}
	}
}

func TestReconcileContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := testEngine(t, t.TempDir(), nil, fakeRunner{err: exec.ErrNotFound})
	if _, err := engine.Reconcile(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
