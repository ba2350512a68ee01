package hierarchy

import "sort"

// warningKey is the value identity used for deduplication.
type warningKey struct {
	code    WarningCode
	source  Source
	node    string
	message string
}

// warningSet collects warnings, deduplicating by the full tuple so that two
// runs over identical inputs produce an identical warning list.
type warningSet struct {
	seen map[warningKey]struct{}
	list []Warning
}

func newWarningSet() *warningSet {
	return &warningSet{seen: make(map[warningKey]struct{})}
}

func (ws *warningSet) add(w Warning) {
	key := warningKey{code: w.Code, source: w.Source, node: w.Node, message: w.Message}
	if _, ok := ws.seen[key]; ok {
		return
	}
	ws.seen[key] = struct{}{}
	ws.list = append(ws.list, w)
}

func (ws *warningSet) addAll(warnings []Warning) {
	for _, w := range warnings {
		ws.add(w)
	}
}

// sorted returns the deduplicated warnings ordered by message text, then by
// code and node as tiebreakers.
func (ws *warningSet) sorted() []Warning {
	out := make([]Warning, len(ws.list))
	copy(out, ws.list)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Message != out[j].Message {
			return out[i].Message < out[j].Message
		}
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Node < out[j].Node
	})
	return out
}
