// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package hierarchy

import (
	"encoding/json"
	"fmt"
)

// OverlayAgent is one per-agent record from the runtime inventory or the
// fallback template: an optional tool policy plus the capability claims
// inferred from it. Placeholder records are synthesized from the fallback's
// global allow list and carry no policy.
type OverlayAgent struct {
	ID          string
	Label       string
	Policy      *ToolPolicy
	Claims      CapabilityClaims
	Placeholder bool
}

// OverlayResult is the output of either overlay extractor. Malformed is set
// when the document as a whole was undecodable, in which case the source
// contributed nothing and the orchestrator treats it as unavailable.
type OverlayResult struct {
	Source    Source
	Agents    []OverlayAgent
	Warnings  []Warning
	Malformed bool
}

type runtimeRecord struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Tools *toolBlock `json:"tools"`
}

type toolBlock struct {
	Allow []string `json:"allow" yaml:"allow"`
	Deny  []string `json:"deny" yaml:"deny"`
	Exec  *struct {
		Security string `json:"security" yaml:"security"`
	} `json:"exec" yaml:"exec"`
}

// ParseRuntimeInventory parses the live inventory payload into per-agent
// tool-policy and inferred-capability records.
func ParseRuntimeInventory(payload []byte) OverlayResult {
	result := OverlayResult{Source: SourceRuntime}

	var records []runtimeRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		result.Malformed = true
		result.Warnings = append(result.Warnings, Warning{
			Code:    WarnParseError,
			Source:  SourceRuntime,
			Message: fmt.Sprintf("runtime inventory is not a JSON agent array: %v", err),
		})
		return result
	}

	for i, record := range records {
		if record.ID == "" {
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarnParseError,
				Source:  SourceRuntime,
				Message: fmt.Sprintf("runtime inventory record %d has no id", i),
			})
			continue
		}
		policy := record.Tools.toPolicy(SourceRuntime)
		result.Agents = append(result.Agents, OverlayAgent{
			ID:     record.ID,
			Label:  record.Name,
			Policy: policy,
			Claims: InferCapabilities(policy),
		})
	}
	return result
}

// toPolicy converts a raw tools block to a ToolPolicy. An empty block yields
// nil, never an empty policy object.
func (t *toolBlock) toPolicy(src Source) *ToolPolicy {
	if t == nil {
		return nil
	}
	policy := &ToolPolicy{Source: src}
	policy.Allow = append(policy.Allow, t.Allow...)
	policy.Deny = append(policy.Deny, t.Deny...)
	if t.Exec != nil {
		policy.ExecSecurity = t.Exec.Security
	}
	if len(policy.Allow) == 0 && len(policy.Deny) == 0 && policy.ExecSecurity == "" {
		return nil
	}
	return policy
}

// ParseFallbackTemplate parses the static template document into the same
// shape as the runtime overlay and applies its global agent-to-agent
// messaging policy: globally disabled forces message=false everywhere; an
// explicit allow list decides message per agent and synthesizes placeholder
// nodes for allow-listed ids with no record; enabled with no allow list is
// undeterminable and yields one document-level warning.
func ParseFallbackTemplate(root any) OverlayResult {
	result := OverlayResult{Source: SourceFallback}

	doc := asMap(root)
	if doc == nil {
		result.Malformed = true
		result.Warnings = append(result.Warnings, Warning{
			Code:    WarnParseError,
			Source:  SourceFallback,
			Message: "fallback template root is not a mapping",
		})
		return result
	}

	for i, item := range fallbackAgentList(doc) {
		entry := asMap(item)
		if entry == nil {
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarnParseError,
				Source:  SourceFallback,
				Message: fmt.Sprintf("fallback agent entry %d is not a mapping", i),
			})
			continue
		}
		id := firstString(entry, "id", "name")
		if id == "" {
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarnParseError,
				Source:  SourceFallback,
				Message: fmt.Sprintf("fallback agent entry %d has no id", i),
			})
			continue
		}
		policy := fallbackToolPolicy(entry["tools"])
		result.Agents = append(result.Agents, OverlayAgent{
			ID:     id,
			Label:  asString(entry["name"]),
			Policy: policy,
			Claims: InferCapabilities(policy),
		})
	}

	applyGlobalMessagingPolicy(doc, &result)
	return result
}

func fallbackAgentList(doc map[string]any) []any {
	agents := asMap(doc["agents"])
	if agents == nil {
		return nil
	}
	list, _ := agents["list"].([]any)
	return list
}

func fallbackToolPolicy(v any) *ToolPolicy {
	tools := asMap(v)
	if tools == nil {
		return nil
	}
	block := &toolBlock{
		Allow: asStringList(tools["allow"]),
		Deny:  asStringList(tools["deny"]),
	}
	if exec := asMap(tools["exec"]); exec != nil {
		block.Exec = &struct {
			Security string `json:"security" yaml:"security"`
		}{Security: asString(exec["security"])}
	}
	return block.toPolicy(SourceFallback)
}

func applyGlobalMessagingPolicy(doc map[string]any, result *OverlayResult) {
	tools := asMap(doc["tools"])
	if tools == nil {
		return
	}
	a2a := asMap(tools["agent_to_agent"])
	if a2a == nil {
		return
	}

	enabled := true
	if b, ok := a2a["enabled"].(bool); ok {
		enabled = b
	}
	if !enabled {
		for i := range result.Agents {
			result.Agents[i].Claims.Message = boolPtr(false)
		}
		return
	}

	allowRaw, declared := a2a["allow"]
	if !declared {
		result.Warnings = append(result.Warnings, Warning{
			Code:    WarnAmbiguousMessageTarget,
			Source:  SourceFallback,
			Message: "fallback template enables agent-to-agent messaging without an allow list; recipients are undeterminable",
		})
		return
	}

	allowed := make(map[string]bool)
	for _, id := range asStringList(allowRaw) {
		allowed[NormalizeKey(id)] = true
	}
	covered := make(map[string]bool, len(result.Agents))
	for i := range result.Agents {
		key := NormalizeKey(result.Agents[i].ID)
		covered[key] = true
		result.Agents[i].Claims.Message = boolPtr(allowed[key])
	}
	for _, id := range asStringList(allowRaw) {
		if covered[NormalizeKey(id)] {
			continue
		}
		result.Agents = append(result.Agents, OverlayAgent{
			ID:          id,
			Claims:      CapabilityClaims{Message: boolPtr(true)},
			Placeholder: true,
		})
	}
}
