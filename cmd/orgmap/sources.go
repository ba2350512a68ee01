// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"

	"github.com/salexandr0s/savORG-sub003/pkg/config"
	"github.com/salexandr0s/savORG-sub003/pkg/hierarchy"
)

func runSources(ctx context.Context, global globalFlags, cfg *config.Config, logger *slog.Logger) {
	result := reconcileOnce(ctx, global, cfg, logger)

	if global.JSON {
		printJSON(result.Sources)
		return
	}

	rows := []struct {
		name   string
		status hierarchy.SourceStatus
	}{
		{"roster", result.Sources.Roster},
		{"config", result.Sources.Config},
		{"docs", result.Sources.Docs},
		{"runtime", result.Sources.Runtime},
		{"fallback", result.Sources.Fallback},
	}

	writer := newTabWriter()
	writeRow(writer, "SOURCE", "STATE", "DETAIL", "ERROR")
	for _, row := range rows {
		writeRow(writer, row.name, string(row.status.State), row.status.Detail, row.status.Error)
	}
	_ = writer.Flush()
}

func runWarnings(ctx context.Context, global globalFlags, cfg *config.Config, logger *slog.Logger) {
	result := reconcileOnce(ctx, global, cfg, logger)

	if global.JSON {
		printJSON(result.Warnings)
		return
	}

	writer := newTabWriter()
	writeRow(writer, "CODE", "SOURCE", "NODE", "MESSAGE")
	for _, warning := range result.Warnings {
		writeRow(writer, string(warning.Code), string(warning.Source), warning.Node, warning.Message)
	}
	_ = writer.Flush()
}
