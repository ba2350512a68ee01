// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package hierarchy

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// DefaultAgentPrefix is the organization's agent-name convention. Bare role
// words found in documents are canonicalized under this prefix.
const DefaultAgentPrefix = "ClawControl"

// soulFileName is the conventional per-agent identity document.
const soulFileName = "SOUL.md"

// Document is one text file from the workspace corpus.
type Document struct {
	Path string
	Text string
}

// DocAgent is the relation record distilled from the documents that resolve
// to one agent identity. The document extractor supplies structure only; it
// never raises capability flags.
type DocAgent struct {
	ID           string
	ReportsTo    string
	DelegatesTo  []string
	ReceivesFrom []string
}

// DocResult is the document-heuristic extraction output.
type DocResult struct {
	Agents   []DocAgent
	Warnings []Warning
}

var (
	reDocLink       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	reDocReportsTo  = regexp.MustCompile(`(?i)\breports\s+to\b:?\s*(.+)$`)
	reDocCoordWith  = regexp.MustCompile(`(?i)\bcoordination\b:?\s*(.+)$`)
	reDocDelegates  = regexp.MustCompile(`(?i)\bdelegates\s+to\b:?\s*(.+)$`)
	reDocDelegTasks = regexp.MustCompile(`(?i)\bdelegates?\s+tasks?\s+to\b:?\s*(.+)$`)
	reDocReceives   = regexp.MustCompile(`(?i)\breceives\b[^:]*\bfrom\b:?\s*(.+)$`)
	reDocNameField  = regexp.MustCompile(`(?i)^name\s*:\s*(.+)$`)
	reDocHeading    = regexp.MustCompile(`^#\s+(.+)$`)
	reDocSplit      = regexp.MustCompile(`[\s,;/&+]+`)
)

// docStopWords are tokens that can never name an agent.
var docStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"of": true, "with": true, "for": true, "to": true, "from": true,
	"via": true, "as": true, "needed": true, "team": true, "teams": true,
	"human": true, "humans": true, "operator": true, "everyone": true,
	"all": true, "none": true, "n/a": true, "tbd": true,
}

// bareRoleTokens are role words the org uses without the prefix in prose.
var bareRoleTokens = map[string]string{
	"build":    "Build",
	"qa":       "QA",
	"ops":      "Ops",
	"ceo":      "CEO",
	"design":   "Design",
	"research": "Research",
	"infra":    "Infra",
}

// ExtractDocRelations scans free-form documents for relation phrases and
// merges the findings per resolved agent identity: the first non-empty
// reports-to wins, delegate and receive targets are unioned.
func ExtractDocRelations(docs []Document, prefix string) DocResult {
	if prefix == "" {
		prefix = DefaultAgentPrefix
	}

	var result DocResult
	merged := make(map[string]*DocAgent)
	var order []string

	for _, doc := range docs {
		rel := scanDocument(doc, prefix)
		if rel.ID == "" {
			continue
		}
		key := NormalizeKey(rel.ID)
		existing, ok := merged[key]
		if !ok {
			copied := rel
			merged[key] = &copied
			order = append(order, key)
			continue
		}
		if existing.ReportsTo == "" {
			existing.ReportsTo = rel.ReportsTo
		}
		existing.DelegatesTo = unionRefs(existing.DelegatesTo, rel.DelegatesTo)
		existing.ReceivesFrom = unionRefs(existing.ReceivesFrom, rel.ReceivesFrom)
	}

	for _, key := range order {
		result.Agents = append(result.Agents, *merged[key])
	}
	return result
}

func scanDocument(doc Document, prefix string) DocAgent {
	rel := DocAgent{ID: documentIdentity(doc, prefix)}

	for _, raw := range strings.Split(doc.Text, "\n") {
		line := stripMarkup(raw)

		if m := reDocReportsTo.FindStringSubmatch(line); m != nil {
			rhs := m[1]
			if c := reDocCoordWith.FindStringSubmatchIndex(rhs); c != nil {
				rel.ReceivesFrom = unionRefs(rel.ReceivesFrom, nameCandidates(rhs[c[2]:c[3]], prefix))
				rhs = rhs[:c[0]]
			}
			if rel.ReportsTo == "" {
				if targets := nameCandidates(rhs, prefix); len(targets) > 0 {
					rel.ReportsTo = targets[0]
				}
			}
			continue
		}
		if m := reDocDelegates.FindStringSubmatch(line); m != nil {
			rel.DelegatesTo = unionRefs(rel.DelegatesTo, nameCandidates(m[1], prefix))
			continue
		}
		if m := reDocDelegTasks.FindStringSubmatch(line); m != nil {
			rel.DelegatesTo = unionRefs(rel.DelegatesTo, nameCandidates(m[1], prefix))
			continue
		}
		if m := reDocReceives.FindStringSubmatch(line); m != nil {
			rel.ReceivesFrom = unionRefs(rel.ReceivesFrom, nameCandidates(m[1], prefix))
		}
	}
	return rel
}

// documentIdentity resolves which agent a document speaks for: an explicit
// Name: field, else the top-level heading, else (for SOUL.md) the containing
// folder, else the filename stem.
func documentIdentity(doc Document, prefix string) string {
	var heading string
	for _, raw := range strings.Split(doc.Text, "\n") {
		line := strings.TrimSpace(stripMarkup(raw))
		if m := reDocNameField.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
		if heading == "" {
			if m := reDocHeading.FindStringSubmatch(line); m != nil {
				heading = strings.TrimSpace(m[1])
			}
		}
	}
	if heading != "" {
		return heading
	}

	base := filepath.Base(doc.Path)
	if strings.EqualFold(base, soulFileName) {
		folder := filepath.Base(filepath.Dir(doc.Path))
		return ensurePrefixed(folder, prefix)
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return ensurePrefixed(stem, prefix)
}

// stripMarkup removes basic markdown dressing: links collapse to their text,
// emphasis and inline-code markers drop out.
func stripMarkup(line string) string {
	line = reDocLink.ReplaceAllString(line, "$1")
	return strings.NewReplacer("**", "", "`", "", "*", "").Replace(line)
}

// nameCandidates tokenizes a phrase's right-hand side into plausible agent
// names: a token must survive punctuation trimming, not be a stop word, and
// either carry the org prefix or an internal capital. Bare role words are
// canonicalized under the prefix.
func nameCandidates(rhs, prefix string) []string {
	var out []string
	for _, token := range reDocSplit.Split(rhs, -1) {
		token = strings.Trim(token, ".,;:()[]{}\"'!?<>|*_~")
		if token == "" {
			continue
		}
		lower := strings.ToLower(token)
		if docStopWords[lower] {
			continue
		}
		if role, ok := bareRoleTokens[lower]; ok {
			out = append(out, prefix+role)
			continue
		}
		if hasPrefixFold(token, prefix) || hasInternalCapital(token) {
			out = append(out, token)
		}
	}
	return out
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func hasInternalCapital(s string) bool {
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// ensurePrefixed canonicalizes a bare folder or file name under the org
// prefix; names already carrying the prefix pass through unchanged.
func ensurePrefixed(name, prefix string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if hasPrefixFold(name, prefix) {
		return name
	}
	if role, ok := bareRoleTokens[strings.ToLower(name)]; ok {
		return prefix + role
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return prefix + string(runes)
}

// unionRefs appends refs not yet present, comparing by normalized key, and
// preserves first-seen order.
func unionRefs(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, ref := range existing {
		seen[NormalizeKey(ref)] = true
	}
	for _, ref := range add {
		key := NormalizeKey(ref)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		existing = append(existing, ref)
	}
	return existing
}
