// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

// Package hierarchy reconciles the organizational graph of autonomous agents
// from up to four independent sources: the authoritative roster, the
// structured workspace config (or, failing that, the document corpus), the
// live runtime inventory, and the static fallback template. The result is a
// deterministic best-effort graph plus a structured warning list; the engine
// never fails outright on missing or malformed sources.
package hierarchy

import (
	"sort"
	"strings"
)

// Source identifies where a fact about the organization came from.
type Source string

const (
	SourceRoster   Source = "roster"
	SourceConfig   Source = "config"
	SourceDocs     Source = "docs"
	SourceRuntime  Source = "runtime"
	SourceFallback Source = "fallback"
)

// sourcePrecedence ranks sources for conflicting capability and policy
// claims. Higher wins; equal precedence overwrites (last write wins).
func sourcePrecedence(s Source) int {
	switch s {
	case SourceRuntime:
		return 3
	case SourceFallback:
		return 2
	case SourceConfig, SourceDocs:
		return 1
	default:
		return 0
	}
}

// Capability is one of the boolean permission flags tracked per agent.
type Capability string

const (
	CapDelegate Capability = "delegate"
	CapMessage  Capability = "message"
	CapExec     Capability = "exec"
	CapWrite    Capability = "write"
)

// CapabilityState is a resolved capability value together with its
// provenance: which source set it and at what precedence.
type CapabilityState struct {
	Value      bool   `json:"value"`
	Source     Source `json:"source"`
	Precedence int    `json:"precedence"`
}

// CapabilitySet maps capabilities to their resolved states.
type CapabilitySet map[Capability]CapabilityState

// apply writes value for the capability unless a strictly higher-precedence
// source already set it. This is the single place the precedence rule lives.
func (cs CapabilitySet) apply(capability Capability, value bool, src Source) {
	p := sourcePrecedence(src)
	if cur, ok := cs[capability]; ok && p < cur.Precedence {
		return
	}
	cs[capability] = CapabilityState{Value: value, Source: src, Precedence: p}
}

// CapabilityClaims carries tri-state capability assertions from one source.
// A nil field means the source made no claim and must not override anything.
type CapabilityClaims struct {
	Delegate *bool
	Message  *bool
	Exec     *bool
	Write    *bool
}

func (c CapabilityClaims) empty() bool {
	return c.Delegate == nil && c.Message == nil && c.Exec == nil && c.Write == nil
}

// ToolPolicy is the raw allow/deny tool policy attached to a node. It is
// applied as a single unit under the same precedence rule as capabilities,
// never merged field by field.
type ToolPolicy struct {
	Allow        []string `json:"allow,omitempty"`
	Deny         []string `json:"deny,omitempty"`
	ExecSecurity string   `json:"exec_security,omitempty"`
	Source       Source   `json:"source"`
}

// RosterRef links a node back to its authoritative roster record.
type RosterRef struct {
	InternalID string `json:"internal_id,omitempty"`
	RuntimeID  string `json:"runtime_id,omitempty"`
	Role       string `json:"role,omitempty"`
	Station    string `json:"station,omitempty"`
	Status     string `json:"status,omitempty"`
	Kind       string `json:"kind,omitempty"`
}

// NodeKind distinguishes known agents from unresolved external references.
type NodeKind string

const (
	KindAgent    NodeKind = "agent"
	KindExternal NodeKind = "external"
)

// Node is one agent (or unresolved external reference) in the reconciled
// graph. Exactly one node exists per canonical key.
type Node struct {
	Key          string        `json:"key"`
	ID           string        `json:"id"`
	Label        string        `json:"label"`
	Kind         NodeKind      `json:"kind"`
	Role         string        `json:"role,omitempty"`
	Roster       *RosterRef    `json:"roster,omitempty"`
	Capabilities CapabilitySet `json:"capabilities,omitempty"`
	Policy       *ToolPolicy   `json:"tool_policy,omitempty"`
	Sources      []Source      `json:"sources"`
}

// Cap returns the resolved value of a capability and whether any source set it.
func (n *Node) Cap(capability Capability) (bool, bool) {
	state, ok := n.Capabilities[capability]
	return state.Value, ok
}

// EdgeType classifies graph edges. The three structural types come from
// explicit source data; can_message is synthesized by the builder.
type EdgeType string

const (
	EdgeReportsTo    EdgeType = "reports_to"
	EdgeDelegatesTo  EdgeType = "delegates_to"
	EdgeReceivesFrom EdgeType = "receives_from"
	EdgeCanMessage   EdgeType = "can_message"
)

func (t EdgeType) structural() bool {
	return t == EdgeReportsTo || t == EdgeDelegatesTo || t == EdgeReceivesFrom
}

// Confidence expresses how much the engine trusts an edge.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
)

// Edge is a directed relation between two canonical keys. At most one edge
// exists per (type, from, to) triple; repeats merge source sets and keep the
// highest confidence ever observed.
type Edge struct {
	Type       EdgeType   `json:"type"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	Confidence Confidence `json:"confidence"`
	Source     Source     `json:"source"`
	Sources    []Source   `json:"sources"`
}

// WarningCode is the closed enumeration of diagnostic codes.
type WarningCode string

const (
	WarnSourceUnavailable      WarningCode = "source_unavailable"
	WarnParseError             WarningCode = "parse_error"
	WarnInvalidRelation        WarningCode = "invalid_relation"
	WarnSelfLoopDropped        WarningCode = "self_loop_dropped"
	WarnAmbiguousMessageTarget WarningCode = "ambiguous_message_target"
	WarnFallbackUsed           WarningCode = "runtime_unavailable_fallback_used"
)

// Warning is one diagnostic record. Warnings are deduplicated by the full
// (code, source, node, message) tuple and sorted by message text.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
	Source  Source      `json:"source,omitempty"`
	Node    string      `json:"node,omitempty"`
}

// SourceState is the availability tri-state reported per source.
type SourceState string

const (
	StateUnavailable SourceState = "unavailable"
	StateAvailable   SourceState = "available"
	StateUnused      SourceState = "available_unused"
)

// SourceStatus describes one source acquisition: its availability, the
// resolved path or command identifier, and any error encountered. It is
// observational only and never feeds back into graph construction.
type SourceStatus struct {
	State  SourceState `json:"state"`
	Detail string      `json:"detail,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// SourceReport aggregates the per-source statuses for one invocation.
type SourceReport struct {
	Roster   SourceStatus `json:"roster"`
	Config   SourceStatus `json:"config"`
	Docs     SourceStatus `json:"docs"`
	Runtime  SourceStatus `json:"runtime"`
	Fallback SourceStatus `json:"fallback"`
}

// Result is the engine's entire public contract: sorted nodes, sorted edges,
// the per-source status block, and the sorted warning list.
type Result struct {
	Nodes    []Node       `json:"nodes"`
	Edges    []Edge       `json:"edges"`
	Sources  SourceReport `json:"sources"`
	Warnings []Warning    `json:"warnings"`
}

// NodeByAlias resolves an id, alias, or canonical key to a node in the result.
func (r *Result) NodeByAlias(alias string) *Node {
	key := NormalizeKey(alias)
	for i := range r.Nodes {
		n := &r.Nodes[i]
		if n.Key == key || NormalizeKey(n.ID) == key || NormalizeKey(n.Label) == key {
			return n
		}
	}
	return nil
}

func sortNodes(nodes []Node) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Kind != nodes[j].Kind {
			return nodes[i].Kind == KindAgent
		}
		li, lj := strings.ToLower(nodes[i].Label), strings.ToLower(nodes[j].Label)
		if li != lj {
			return li < lj
		}
		return nodes[i].Key < nodes[j].Key
	})
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Type != edges[j].Type {
			return edges[i].Type < edges[j].Type
		}
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
}

func appendSource(sources []Source, s Source) []Source {
	for _, existing := range sources {
		if existing == s {
			return sources
		}
	}
	sources = append(sources, s)
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources
}
