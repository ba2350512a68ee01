// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/salexandr0s/savORG-sub003/pkg/config"
	savorgerr "github.com/salexandr0s/savORG-sub003/pkg/errors"
	"github.com/salexandr0s/savORG-sub003/pkg/roster"
)

func runRoster(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 {
		fatal(errors.New("usage: orgmap roster <import|list>"))
	}

	switch args[0] {
	case "import":
		fs := flag.NewFlagSet("roster import", flag.ExitOnError)
		dbPath := fs.String("db", cfg.Roster.DBPath, "Roster database path")
		if err := fs.Parse(args[1:]); err != nil {
			fatal(err)
		}
		if fs.NArg() < 1 {
			fatal(errors.New("usage: orgmap roster import <file.json> [--db <path>]"))
		}
		if err := importRoster(ctx, *dbPath, fs.Arg(0), global.JSON); err != nil {
			fatal(err)
		}
	case "list":
		fs := flag.NewFlagSet("roster list", flag.ExitOnError)
		dbPath := fs.String("db", cfg.Roster.DBPath, "Roster database path")
		if err := fs.Parse(args[1:]); err != nil {
			fatal(err)
		}
		if err := listRoster(ctx, *dbPath, global.JSON); err != nil {
			fatal(err)
		}
	default:
		fatal(fmt.Errorf("unknown roster command %q", args[0]))
	}
}

func importRoster(ctx context.Context, dbPath, filePath string, asJSON bool) error {
	if dbPath == "" {
		return savorgerr.New(savorgerr.CodeInvalidInput, "no roster database configured; use --db or roster.db_path", nil)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return savorgerr.New(savorgerr.CodeInvalidInput, "read roster file", err).
			WithContext("path", filePath)
	}

	var records []roster.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return savorgerr.New(savorgerr.CodeInvalidInput, "decode roster file", err).
			WithContext("path", filePath)
	}

	store, err := roster.Open(dbPath)
	if err != nil {
		return savorgerr.New(savorgerr.CodeStoreFailure, "open roster database", err).
			WithContext("db", dbPath)
	}
	defer store.Close()

	imported := make([]roster.Record, 0, len(records))
	for i, rec := range records {
		stored, err := store.Upsert(ctx, rec)
		if err != nil {
			return savorgerr.New(savorgerr.CodeStoreFailure, "upsert roster record", err).
				WithContext("index", i)
		}
		imported = append(imported, stored)
	}

	if asJSON {
		printJSON(map[string]any{"imported": len(imported), "records": imported})
		return nil
	}
	fmt.Printf("imported %d roster records into %s\n", len(imported), dbPath)
	return nil
}

func listRoster(ctx context.Context, dbPath string, asJSON bool) error {
	if dbPath == "" {
		return savorgerr.New(savorgerr.CodeInvalidInput, "no roster database configured; use --db or roster.db_path", nil)
	}
	store, err := roster.Open(dbPath)
	if err != nil {
		return savorgerr.New(savorgerr.CodeStoreFailure, "open roster database", err).
			WithContext("db", dbPath)
	}
	defer store.Close()

	records, err := store.List(ctx)
	if err != nil {
		return savorgerr.New(savorgerr.CodeStoreFailure, "list roster records", err)
	}

	if asJSON {
		printJSON(records)
		return nil
	}
	writer := newTabWriter()
	writeRow(writer, "ID", "NAME", "ROLE", "STATION", "STATUS")
	for _, rec := range records {
		name := rec.Name
		if rec.DisplayName != "" {
			name = rec.DisplayName
		}
		writeRow(writer, rec.ID, name, rec.Role, rec.Station, rec.Status)
	}
	return writer.Flush()
}
