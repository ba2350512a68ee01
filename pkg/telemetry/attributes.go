// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry integration for the savORG
// hierarchy engine: SDK setup, trace-aware logging, and reconcile metrics.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for savORG telemetry.
const (
	// Graph attributes
	AttrGraphNodes    = "savorg.graph.nodes"
	AttrGraphEdges    = "savorg.graph.edges"
	AttrGraphWarnings = "savorg.graph.warnings"

	// Source attributes
	AttrSourceName  = "savorg.source.name"
	AttrSourceState = "savorg.source.state"
)

// GraphAttributes returns the attributes describing a reconciled graph.
func GraphAttributes(nodes, edges, warnings int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrGraphNodes, nodes),
		attribute.Int(AttrGraphEdges, edges),
		attribute.Int(AttrGraphWarnings, warnings),
	}
}

// SourceAttributes returns the attributes for one source acquisition.
func SourceAttributes(name, state string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSourceName, name),
		attribute.String(AttrSourceState, state),
	}
}
