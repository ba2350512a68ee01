// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package hierarchy

import (
	"fmt"

	"github.com/salexandr0s/savORG-sub003/pkg/roster"
)

// structuralAgent is the source-independent shape the graph builder consumes
// for the structural pass, produced from either the workspace config or the
// document corpus.
type structuralAgent struct {
	id           string
	label        string
	role         string
	reportsTo    string
	delegatesTo  []string
	receivesFrom []string
	claims       CapabilityClaims
	source       Source
	confidence   Confidence
}

func structuralFromConfig(res ConfigResult) []structuralAgent {
	agents := make([]structuralAgent, 0, len(res.Agents))
	for _, a := range res.Agents {
		agents = append(agents, structuralAgent{
			id:           a.ID,
			label:        a.Label,
			role:         a.Role,
			reportsTo:    a.ReportsTo,
			delegatesTo:  a.DelegatesTo,
			receivesFrom: a.ReceivesFrom,
			claims:       a.Claims,
			source:       SourceConfig,
			confidence:   ConfidenceHigh,
		})
	}
	return agents
}

func structuralFromDocs(res DocResult) []structuralAgent {
	agents := make([]structuralAgent, 0, len(res.Agents))
	for _, a := range res.Agents {
		agents = append(agents, structuralAgent{
			id:           a.ID,
			reportsTo:    a.ReportsTo,
			delegatesTo:  a.DelegatesTo,
			receivesFrom: a.ReceivesFrom,
			source:       SourceDocs,
			confidence:   ConfidenceMedium,
		})
	}
	return agents
}

// buildInputs carries the per-source extraction results into one merge.
type buildInputs struct {
	Roster     []roster.Record
	Structural []structuralAgent
	Overlay    *OverlayResult
}

type edgeKey struct {
	typ      EdgeType
	from, to string
}

// builder accumulates the graph in an arena of nodes and edges addressed by
// stable indices, with alias resolution delegated to the Normalizer.
type builder struct {
	norm      *Normalizer
	nodes     []*Node
	index     map[string]int
	edges     []*Edge
	edgeIndex map[edgeKey]int
	warnings  *warningSet
}

// buildGraph folds the roster and the extraction results into the final node
// and edge lists. Processing order is fixed: roster first (it claims
// canonical identities), then the structural source, then exactly one
// overlay, then derived messaging edges.
func buildGraph(in buildInputs, warnings *warningSet) ([]Node, []Edge) {
	b := &builder{
		norm:      NewNormalizer(),
		index:     make(map[string]int),
		edgeIndex: make(map[edgeKey]int),
		warnings:  warnings,
	}

	b.addRoster(in.Roster)
	b.addStructural(in.Structural)
	if in.Overlay != nil {
		b.applyOverlay(in.Overlay)
	}
	b.deriveMessaging()

	return b.finalize()
}

func (b *builder) ensureNode(key string) *Node {
	if i, ok := b.index[key]; ok {
		return b.nodes[i]
	}
	node := &Node{Key: key, Capabilities: make(CapabilitySet)}
	b.index[key] = len(b.nodes)
	b.nodes = append(b.nodes, node)
	return node
}

func (b *builder) addRoster(records []roster.Record) {
	for _, rec := range records {
		canonical := firstNonEmpty(rec.RuntimeID, rec.Slug, rec.Name, rec.ID)
		key := NormalizeKey(canonical)
		if key == "" {
			b.warnings.add(Warning{
				Code:    WarnInvalidRelation,
				Source:  SourceRoster,
				Message: "roster record carries no usable identity, skipped",
			})
			continue
		}

		node := b.ensureNode(key)
		node.Kind = KindAgent
		node.ID = firstNonEmpty(rec.RuntimeID, rec.Slug, rec.ID)
		node.Label = firstNonEmpty(rec.DisplayName, rec.Name, rec.RuntimeID)
		node.Role = rec.Role
		node.Roster = &RosterRef{
			InternalID: rec.ID,
			RuntimeID:  rec.RuntimeID,
			Role:       rec.Role,
			Station:    rec.Station,
			Status:     rec.Status,
			Kind:       rec.Kind,
		}
		node.Sources = appendSource(node.Sources, SourceRoster)

		for _, alias := range []string{rec.RuntimeID, rec.Slug, rec.ID, rec.Name, rec.DisplayName} {
			b.norm.Register(alias, key)
		}
	}
}

func (b *builder) addStructural(agents []structuralAgent) {
	for _, sa := range agents {
		key := b.norm.Resolve(sa.id)
		if key == "" {
			continue
		}
		node := b.ensureNode(key)
		node.Kind = KindAgent
		b.norm.Register(sa.id, key)
		b.norm.Register(sa.label, key)
		if node.ID == "" {
			node.ID = sa.id
		}
		if node.Label == "" {
			node.Label = firstNonEmpty(sa.label, sa.id)
		}
		if node.Role == "" {
			node.Role = sa.role
		}
		node.Sources = appendSource(node.Sources, sa.source)
		b.applyClaims(node, sa.claims, sa.source)

		if sa.reportsTo != "" {
			b.addRelation(EdgeReportsTo, node, sa.reportsTo, sa.confidence, sa.source)
		}
		for _, target := range sa.delegatesTo {
			b.addRelation(EdgeDelegatesTo, node, target, sa.confidence, sa.source)
		}
		for _, target := range sa.receivesFrom {
			b.addRelation(EdgeReceivesFrom, node, target, sa.confidence, sa.source)
		}
	}
}

func (b *builder) applyOverlay(res *OverlayResult) {
	for _, oa := range res.Agents {
		key := b.norm.Resolve(oa.ID)
		if key == "" {
			continue
		}
		node := b.ensureNode(key)
		node.Kind = KindAgent
		b.norm.Register(oa.ID, key)
		b.norm.Register(oa.Label, key)
		if node.ID == "" {
			node.ID = oa.ID
		}
		if node.Label == "" {
			node.Label = firstNonEmpty(oa.Label, oa.ID)
		}
		node.Sources = appendSource(node.Sources, res.Source)

		if oa.Policy != nil {
			b.applyPolicy(node, oa.Policy)
		}
		b.applyClaims(node, oa.Claims, res.Source)
	}
}

func (b *builder) applyClaims(node *Node, claims CapabilityClaims, src Source) {
	if claims.empty() {
		return
	}
	for capability, value := range map[Capability]*bool{
		CapDelegate: claims.Delegate,
		CapMessage:  claims.Message,
		CapExec:     claims.Exec,
		CapWrite:    claims.Write,
	} {
		if value != nil {
			node.Capabilities.apply(capability, *value, src)
		}
	}
}

// applyPolicy replaces the node's tool policy as a single unit under the
// same precedence rule capabilities use. Policies are never merged.
func (b *builder) applyPolicy(node *Node, policy *ToolPolicy) {
	if node.Policy != nil && sourcePrecedence(policy.Source) < sourcePrecedence(node.Policy.Source) {
		return
	}
	node.Policy = policy
}

// addRelation resolves a relation target, classifies it, and upserts the
// edge. Self-referential relations are dropped with a warning.
func (b *builder) addRelation(typ EdgeType, from *Node, target string, conf Confidence, src Source) {
	toKey := b.norm.Resolve(target)
	if toKey == "" {
		b.warnings.add(Warning{
			Code:    WarnInvalidRelation,
			Source:  src,
			Node:    from.Key,
			Message: fmt.Sprintf("%s relation for %s has an empty target", typ, from.Key),
		})
		return
	}
	if toKey == from.Key {
		b.warnings.add(Warning{
			Code:    WarnSelfLoopDropped,
			Source:  src,
			Node:    from.Key,
			Message: fmt.Sprintf("self-referential %s relation for %s dropped", typ, from.Key),
		})
		return
	}

	to := b.ensureNode(toKey)
	if to.Kind != KindAgent {
		if b.norm.Known(target) {
			to.Kind = KindAgent
		} else {
			to.Kind = KindExternal
		}
	}
	if to.ID == "" {
		to.ID = target
	}
	if to.Label == "" {
		to.Label = target
	}
	to.Sources = appendSource(to.Sources, src)

	b.upsertEdge(typ, from.Key, toKey, conf, src)
}

func (b *builder) upsertEdge(typ EdgeType, from, to string, conf Confidence, src Source) {
	key := edgeKey{typ: typ, from: from, to: to}
	if i, ok := b.edgeIndex[key]; ok {
		edge := b.edges[i]
		edge.Sources = appendSource(edge.Sources, src)
		if conf == ConfidenceHigh {
			edge.Confidence = ConfidenceHigh
		}
		return
	}
	b.edgeIndex[key] = len(b.edges)
	b.edges = append(b.edges, &Edge{
		Type:       typ,
		From:       from,
		To:         to,
		Confidence: conf,
		Source:     src,
		Sources:    []Source{src},
	})
}

// deriveMessaging synthesizes can_message edges: every agent whose resolved
// message capability is true may message the nodes it points to through
// structural edges. An agent with message=true and no structural targets
// yields an ambiguity warning instead of invented edges.
func (b *builder) deriveMessaging() {
	outgoing := make(map[string][]string)
	for _, edge := range b.edges {
		if edge.Type.structural() {
			outgoing[edge.From] = append(outgoing[edge.From], edge.To)
		}
	}

	for _, node := range b.nodes {
		if node.Kind != KindAgent {
			continue
		}
		state, ok := node.Capabilities[CapMessage]
		if !ok || !state.Value {
			continue
		}
		targets := outgoing[node.Key]
		if len(targets) == 0 {
			b.warnings.add(Warning{
				Code:    WarnAmbiguousMessageTarget,
				Source:  state.Source,
				Node:    node.Key,
				Message: fmt.Sprintf("%s may send messages but has no structural relations; recipients are undeterminable", firstNonEmpty(node.Label, node.Key)),
			})
			continue
		}
		seen := make(map[string]bool, len(targets))
		for _, target := range targets {
			if seen[target] {
				continue
			}
			seen[target] = true
			b.upsertEdge(EdgeCanMessage, node.Key, target, ConfidenceMedium, state.Source)
		}
	}
}

func (b *builder) finalize() ([]Node, []Edge) {
	nodes := make([]Node, 0, len(b.nodes))
	for _, node := range b.nodes {
		if node.Kind == "" {
			node.Kind = KindExternal
		}
		if len(node.Capabilities) == 0 {
			node.Capabilities = nil
		}
		nodes = append(nodes, *node)
	}
	edges := make([]Edge, 0, len(b.edges))
	for _, edge := range b.edges {
		edges = append(edges, *edge)
	}
	sortNodes(nodes)
	sortEdges(edges)
	return nodes, edges
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
