// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"
	"testing"

	"github.com/salexandr0s/savORG-sub003/pkg/hierarchy"
)

func renderResult() *hierarchy.Result {
	return &hierarchy.Result{
		Nodes: []hierarchy.Node{
			{Key: "clawcontrol-lead", Label: "ClawControl-Lead", Kind: hierarchy.KindAgent, Role: "squad-lead"},
			{Key: "clawcontrol-qa", Label: "ClawControl-QA", Kind: hierarchy.KindAgent},
			{Key: "ops board", Label: "Ops Board", Kind: hierarchy.KindExternal},
		},
		Edges: []hierarchy.Edge{
			{Type: hierarchy.EdgeReportsTo, From: "clawcontrol-qa", To: "clawcontrol-lead", Confidence: hierarchy.ConfidenceHigh},
			{Type: hierarchy.EdgeDelegatesTo, From: "clawcontrol-lead", To: "ops board", Confidence: hierarchy.ConfidenceMedium},
		},
	}
}

func TestToMermaid(t *testing.T) {
	result := toMermaid(renderResult())

	if !strings.Contains(result, "graph TD") {
		t.Error("expected graph TD directive")
	}
	if !strings.Contains(result, "clawcontrol_lead[ClawControl-Lead: squad-lead]") {
		t.Errorf("expected agent node with role, got:\n%s", result)
	}
	// External nodes render as stadium shapes.
	if !strings.Contains(result, "ops_board([Ops Board])") {
		t.Errorf("expected external node shape, got:\n%s", result)
	}
	if !strings.Contains(result, "clawcontrol_qa -->|reports_to| clawcontrol_lead") {
		t.Errorf("expected high-confidence edge, got:\n%s", result)
	}
	// Medium confidence renders dotted.
	if !strings.Contains(result, "clawcontrol_lead -.->|delegates_to| ops_board") {
		t.Errorf("expected dotted medium edge, got:\n%s", result)
	}
}

func TestToDot(t *testing.T) {
	result := toDot(renderResult())

	if !strings.Contains(result, "digraph org") {
		t.Error("expected digraph org")
	}
	if !strings.Contains(result, `"clawcontrol-lead" [label="ClawControl-Lead\n(squad-lead)"]`) {
		t.Errorf("expected labelled agent node, got:\n%s", result)
	}
	if !strings.Contains(result, `"ops board" [label="Ops Board", style="rounded,dashed"]`) {
		t.Errorf("expected dashed external node, got:\n%s", result)
	}
	if !strings.Contains(result, `"clawcontrol-qa" -> "clawcontrol-lead" [label="reports_to"]`) {
		t.Errorf("expected reports_to edge, got:\n%s", result)
	}
	if !strings.Contains(result, `style=dashed`) {
		t.Errorf("expected dashed medium edge, got:\n%s", result)
	}
}

func TestMermaidID(t *testing.T) {
	cases := map[string]string{
		"clawcontrol-qa": "clawcontrol_qa",
		"ops board":      "ops_board",
		"plain":          "plain",
	}
	for in, want := range cases {
		if got := mermaidID(in); got != want {
			t.Errorf("mermaidID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseGlobalFlags(t *testing.T) {
	flags, rest, err := parseGlobalFlags([]string{"--json", "--timeout", "10s", "graph", "--output", "dot"})
	if err != nil {
		t.Fatalf("parseGlobalFlags: %v", err)
	}
	if !flags.JSON {
		t.Error("expected JSON flag set")
	}
	if flags.Timeout.Seconds() != 10 {
		t.Errorf("timeout = %v", flags.Timeout)
	}
	if len(rest) != 3 || rest[0] != "graph" {
		t.Errorf("rest = %v", rest)
	}
}

func TestParseGlobalFlagsUnknown(t *testing.T) {
	if _, _, err := parseGlobalFlags([]string{"--bogus"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}
