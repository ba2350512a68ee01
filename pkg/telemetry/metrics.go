// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// ReconcileMetrics tracks hierarchy reconciliation outcomes for production
// monitoring. All methods are nil-receiver safe so instrumentation stays
// optional.
type ReconcileMetrics struct {
	// runCounter counts reconcile invocations.
	runCounter metric.Int64Counter

	// durationHist records reconcile wall time in milliseconds.
	durationHist metric.Float64Histogram

	// nodeGauge / edgeGauge / warningGauge track the size of the last
	// reconciled graph.
	nodeGauge    metric.Int64Gauge
	edgeGauge    metric.Int64Gauge
	warningGauge metric.Int64Gauge

	// sourceStateGauge tracks per-source availability
	// (0=unavailable, 1=available_unused, 2=available).
	sourceStateGauge metric.Int64Gauge
}

// NewReconcileMetrics creates the reconcile metrics set on the global meter.
func NewReconcileMetrics() (*ReconcileMetrics, error) {
	meter := otel.Meter("savorg/hierarchy")

	runCounter, err := meter.Int64Counter(
		"savorg.reconcile.runs",
		metric.WithDescription("Total hierarchy reconcile invocations"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"savorg.reconcile.duration_ms",
		metric.WithDescription("Reconcile duration in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	nodeGauge, err := meter.Int64Gauge(
		"savorg.graph.nodes",
		metric.WithDescription("Nodes in the last reconciled graph"),
	)
	if err != nil {
		return nil, err
	}

	edgeGauge, err := meter.Int64Gauge(
		"savorg.graph.edges",
		metric.WithDescription("Edges in the last reconciled graph"),
	)
	if err != nil {
		return nil, err
	}

	warningGauge, err := meter.Int64Gauge(
		"savorg.graph.warnings",
		metric.WithDescription("Warnings produced by the last reconcile"),
	)
	if err != nil {
		return nil, err
	}

	sourceStateGauge, err := meter.Int64Gauge(
		"savorg.source.state",
		metric.WithDescription("Per-source availability (0=unavailable, 1=available_unused, 2=available)"),
	)
	if err != nil {
		return nil, err
	}

	return &ReconcileMetrics{
		runCounter:       runCounter,
		durationHist:     durationHist,
		nodeGauge:        nodeGauge,
		edgeGauge:        edgeGauge,
		warningGauge:     warningGauge,
		sourceStateGauge: sourceStateGauge,
	}, nil
}

// RecordReconcile records one completed reconcile.
func (m *ReconcileMetrics) RecordReconcile(ctx context.Context, d time.Duration, nodes, edges, warnings int) {
	if m == nil {
		return
	}
	m.runCounter.Add(ctx, 1)
	m.durationHist.Record(ctx, float64(d.Milliseconds()))
	m.nodeGauge.Record(ctx, int64(nodes))
	m.edgeGauge.Record(ctx, int64(edges))
	m.warningGauge.Record(ctx, int64(warnings))
}

// RecordSourceState records the availability of one source.
func (m *ReconcileMetrics) RecordSourceState(ctx context.Context, source, state string) {
	if m == nil {
		return
	}
	var value int64
	switch state {
	case "available":
		value = 2
	case "available_unused":
		value = 1
	}
	m.sourceStateGauge.Record(ctx, value,
		metric.WithAttributes(SourceAttributes(source, state)...))
}
