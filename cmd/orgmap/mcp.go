// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"log/slog"

	"github.com/salexandr0s/savORG-sub003/pkg/config"
	"github.com/salexandr0s/savORG-sub003/pkg/orgmcp"
)

// runMCPServe blocks serving the org graph tool set on stdio until the
// client disconnects.
func runMCPServe(global globalFlags, cfg *config.Config, logger *slog.Logger, args []string) {
	if len(args) == 0 || args[0] != "serve" {
		fatal(errors.New("usage: orgmap mcp serve"))
	}
	ensureNoArgs(args[1:])

	engine, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		fatal(err)
	}
	defer cleanup()

	srv := orgmcp.NewServer("savorg", version, engine)
	logger.Info("mcp server listening on stdio")
	if err := srv.ServeStdio(); err != nil {
		fatal(err)
	}
}
