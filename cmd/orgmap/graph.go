// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/salexandr0s/savORG-sub003/pkg/config"
	"github.com/salexandr0s/savORG-sub003/pkg/hierarchy"
)

type graphResult struct {
	Format   string `json:"format"`
	Content  string `json:"content"`
	Nodes    int    `json:"nodes"`
	Edges    int    `json:"edges"`
	Warnings int    `json:"warnings"`
}

func runGraph(ctx context.Context, global globalFlags, cfg *config.Config, logger *slog.Logger, args []string) {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	output := fs.String("output", "json", "Output format: json, mermaid, dot")
	outPath := fs.String("out", "", "Write rendered output to file instead of stdout")
	watch := fs.Bool("watch", false, "Re-render on an interval until interrupted")
	interval := fs.Duration("interval", 5*time.Second, "Re-render interval with --watch")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}

	switch *output {
	case "json", "mermaid", "dot":
	default:
		fatal(fmt.Errorf("unknown output format %q; use json, mermaid, or dot", *output))
	}

	if !*watch {
		renderGraph(ctx, global, cfg, logger, *output, *outPath)
		return
	}

	// Watch mode re-renders on a fixed interval so edits to any source file
	// show up; settings file edits wake the loop early and rewire the engine.
	// The watcher swaps its config pointer on its own goroutine, so each
	// iteration reads the current snapshot through the watcher instead of
	// sharing a variable with the reload callback.
	var watcher *config.Watcher
	reloaded := make(chan struct{}, 1)
	if global.ConfigPath != "" {
		w, err := config.NewWatcher(global.ConfigPath, config.WithWatchLogger(logger))
		if err != nil {
			fatal(err)
		}
		w.OnChange(func(*config.Config) {
			select {
			case reloaded <- struct{}{}:
			default:
			}
		})
		w.Start(ctx)
		defer w.Stop()
		watcher = w
	}

	for {
		current := cfg
		if watcher != nil {
			current = watcher.Config()
			if global.Workspace != "" {
				current.Workspace.Root = global.Workspace
			}
		}
		renderGraph(ctx, global, current, logger, *output, *outPath)
		select {
		case <-time.After(*interval):
		case <-reloaded:
		case <-ctx.Done():
			return
		}
	}
}

func renderGraph(ctx context.Context, global globalFlags, cfg *config.Config, logger *slog.Logger, output, outPath string) {
	result := reconcileOnce(ctx, global, cfg, logger)

	out := graphResult{
		Format:   output,
		Nodes:    len(result.Nodes),
		Edges:    len(result.Edges),
		Warnings: len(result.Warnings),
	}

	switch output {
	case "json":
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fatal(err)
		}
		out.Content = string(payload)
	case "mermaid":
		out.Content = toMermaid(result)
	case "dot":
		out.Content = toDot(result)
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(out.Content+"\n"), 0o644); err != nil {
			fatal(err)
		}
		return
	}
	if global.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fatal(err)
		}
		return
	}
	fmt.Println(out.Content)
}

func toMermaid(r *hierarchy.Result) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range r.Nodes {
		id := mermaidID(node.Key)
		label := node.Label
		if node.Role != "" {
			label = fmt.Sprintf("%s: %s", node.Label, node.Role)
		}
		if node.Kind == hierarchy.KindExternal {
			sb.WriteString(fmt.Sprintf("    %s([%s])\n", id, label))
		} else {
			sb.WriteString(fmt.Sprintf("    %s[%s]\n", id, label))
		}
	}

	for _, edge := range r.Edges {
		from := mermaidID(edge.From)
		to := mermaidID(edge.To)
		arrow := "-->"
		if edge.Confidence == hierarchy.ConfidenceMedium {
			arrow = "-.->"
		}
		sb.WriteString(fmt.Sprintf("    %s %s|%s| %s\n", from, arrow, edge.Type, to))
	}

	return sb.String()
}

func toDot(r *hierarchy.Result) string {
	var sb strings.Builder
	sb.WriteString("digraph org {\n")
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n")

	for _, node := range r.Nodes {
		label := node.Label
		if node.Role != "" {
			label = fmt.Sprintf("%s\\n(%s)", node.Label, node.Role)
		}
		attrs := fmt.Sprintf("label=\"%s\"", label)
		if node.Kind == hierarchy.KindExternal {
			attrs += ", style=\"rounded,dashed\""
		}
		sb.WriteString(fmt.Sprintf("    %q [%s];\n", node.Key, attrs))
	}

	for _, edge := range r.Edges {
		attrs := fmt.Sprintf(" [label=\"%s\"]", edge.Type)
		if edge.Confidence == hierarchy.ConfidenceMedium {
			attrs = fmt.Sprintf(" [label=\"%s\", style=dashed]", edge.Type)
		}
		sb.WriteString(fmt.Sprintf("    %q -> %q%s;\n", edge.From, edge.To, attrs))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// mermaidID strips characters mermaid rejects in node identifiers.
func mermaidID(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
