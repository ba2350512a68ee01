package hierarchy

import "strings"

// NormalizeKey canonicalizes a free-text agent reference. Empty input yields
// the empty key, which is never registered.
func NormalizeKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Normalizer owns the alias → canonical-key table shared by every stage of a
// single reconcile. The first binding for an alias wins; later registrations
// are no-ops. Processing the authoritative roster first therefore lets it
// claim canonical identities before looser sources attach looser aliases.
type Normalizer struct {
	aliases map[string]string
}

// NewNormalizer returns an empty alias table.
func NewNormalizer() *Normalizer {
	return &Normalizer{aliases: make(map[string]string)}
}

// Register binds alias to key unless the alias is already bound.
func (n *Normalizer) Register(alias, key string) {
	a := NormalizeKey(alias)
	if a == "" || key == "" {
		return
	}
	if _, ok := n.aliases[a]; ok {
		return
	}
	n.aliases[a] = key
}

// Resolve returns the canonical key for alias. An unbound alias resolves to
// its own normalized form, i.e. an unseen reference becomes its own key.
func (n *Normalizer) Resolve(alias string) string {
	a := NormalizeKey(alias)
	if key, ok := n.aliases[a]; ok {
		return key
	}
	return a
}

// Known reports whether alias is bound to a canonical key.
func (n *Normalizer) Known(alias string) bool {
	_, ok := n.aliases[NormalizeKey(alias)]
	return ok
}
