// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

// Package roster supplies the authoritative agent roster the hierarchy
// engine seeds its graph from.
package roster

import "context"

// Record is one authoritative roster entry. RuntimeID, Slug, Name, and
// DisplayName are all registered as aliases of the same agent.
type Record struct {
	ID          string `json:"id"`
	RuntimeID   string `json:"runtime_id,omitempty"`
	Slug        string `json:"slug,omitempty"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
	Station     string `json:"station,omitempty"`
	Status      string `json:"status,omitempty"`
	Kind        string `json:"kind,omitempty"`
}

// Provider lists the authoritative roster. Absence or failure is tolerated
// by callers; it degrades the roster source, never the whole reconcile.
type Provider interface {
	List(ctx context.Context) ([]Record, error)
}

// Static is a fixed in-memory roster, used for fixtures and tests.
type Static struct {
	Records []Record
	Err     error
}

// List returns the fixed records or the configured error.
func (s Static) List(_ context.Context) ([]Record, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Records, nil
}
