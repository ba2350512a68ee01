// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package hierarchy

import (
	"fmt"
	"sort"
)

// ConfigAgent is one agent entry extracted from the structured workspace
// config. Claims carry only the capabilities the entry states explicitly.
type ConfigAgent struct {
	ID           string
	Label        string
	Role         string
	ReportsTo    string
	DelegatesTo  []string
	ReceivesFrom []string
	Claims       CapabilityClaims
}

// ConfigResult is the structured-config extraction output.
type ConfigResult struct {
	Agents   []ConfigAgent
	Warnings []Warning
}

// ParseWorkspaceConfig extracts the agents block from a parsed workspace
// config document. Malformed documents and entries degrade to warnings;
// the function never fails.
func ParseWorkspaceConfig(root any) ConfigResult {
	var result ConfigResult

	doc := asMap(root)
	if doc == nil {
		result.Warnings = append(result.Warnings, Warning{
			Code:    WarnParseError,
			Source:  SourceConfig,
			Message: "workspace config root is not a mapping",
		})
		return result
	}

	agents, ok := doc["agents"]
	if !ok {
		result.Warnings = append(result.Warnings, Warning{
			Code:    WarnParseError,
			Source:  SourceConfig,
			Message: "workspace config has no agents section",
		})
		return result
	}

	for _, entry := range agentEntries(agents) {
		agent, warning := parseConfigAgent(entry.id, entry.value)
		if warning != nil {
			result.Warnings = append(result.Warnings, *warning)
			continue
		}
		result.Agents = append(result.Agents, agent)
	}
	return result
}

type configEntry struct {
	id    string
	value any
}

// agentEntries accepts the agents section as either a map keyed by agent id
// or a list of records carrying their own id. Map iteration is sorted so the
// extraction order is stable.
func agentEntries(section any) []configEntry {
	if m := asMap(section); m != nil {
		ids := make([]string, 0, len(m))
		for id := range m {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		entries := make([]configEntry, 0, len(ids))
		for _, id := range ids {
			entries = append(entries, configEntry{id: id, value: m[id]})
		}
		return entries
	}
	if list, ok := section.([]any); ok {
		entries := make([]configEntry, 0, len(list))
		for _, item := range list {
			entries = append(entries, configEntry{value: item})
		}
		return entries
	}
	return nil
}

func parseConfigAgent(id string, value any) (ConfigAgent, *Warning) {
	entry := asMap(value)
	if entry == nil {
		return ConfigAgent{}, &Warning{
			Code:    WarnInvalidRelation,
			Source:  SourceConfig,
			Node:    id,
			Message: fmt.Sprintf("agent entry %q is not a mapping", id),
		}
	}
	if id == "" {
		id = firstString(entry, "id", "name")
	}
	if id == "" {
		return ConfigAgent{}, &Warning{
			Code:    WarnInvalidRelation,
			Source:  SourceConfig,
			Message: "agent entry has no id",
		}
	}

	agent := ConfigAgent{
		ID:           id,
		Label:        firstString(entry, "name", "label"),
		Role:         asString(entry["role"]),
		ReportsTo:    firstString(entry, "reports_to", "reportsTo"),
		DelegatesTo:  asStringList(valueFor(entry, "delegates_to", "delegatesTo")),
		ReceivesFrom: asStringList(valueFor(entry, "receives_from", "receivesFrom")),
	}

	if perms := asMap(valueFor(entry, "permissions", "perms")); perms != nil {
		agent.Claims = CapabilityClaims{
			Delegate: asBoolPtr(valueFor(perms, "can_delegate", "canDelegate")),
			Message:  asBoolPtr(valueFor(perms, "can_message", "canMessage")),
			Exec:     asBoolPtr(valueFor(perms, "can_execute", "canExecute")),
			Write:    asBoolPtr(valueFor(perms, "can_modify_files", "canModifyFiles")),
		}
	}

	// An agent that delegates to anyone can delegate, unless stated otherwise.
	if agent.Claims.Delegate == nil && len(agent.DelegatesTo) > 0 {
		agent.Claims.Delegate = boolPtr(true)
	}
	return agent, nil
}

func valueFor(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return nil
}
