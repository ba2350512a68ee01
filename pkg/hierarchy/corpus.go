package hierarchy

import (
	"os"
	"path/filepath"
	"strings"
)

// agentsDirName is the workspace folder holding one subfolder per agent.
const agentsDirName = "agents"

// nonRelationalDocs are top-level documents known to carry no reporting
// structure; scanning them only produces noise.
var nonRelationalDocs = map[string]bool{
	"readme.md":       true,
	"changelog.md":    true,
	"license.md":      true,
	"contributing.md": true,
	"todo.md":         true,
}

// LoadCorpus collects the document corpus for the heuristic extractor: each
// agent folder's SOUL.md plus the other top-level markdown documents under
// root. Unreadable individual files are skipped; a missing root directory is
// the caller's expected-absence case.
func LoadCorpus(root string) ([]Document, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".md") || nonRelationalDocs[lower] {
			continue
		}
		if doc, ok := readDocument(filepath.Join(root, name)); ok {
			docs = append(docs, doc)
		}
	}

	agentDirs, err := os.ReadDir(filepath.Join(root, agentsDirName))
	if err != nil {
		if os.IsNotExist(err) {
			return docs, nil
		}
		return docs, err
	}
	for _, dir := range agentDirs {
		if !dir.IsDir() {
			continue
		}
		path := filepath.Join(root, agentsDirName, dir.Name(), soulFileName)
		if doc, ok := readDocument(path); ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func readDocument(path string) (Document, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, false
	}
	return Document{Path: path, Text: string(data)}, true
}
