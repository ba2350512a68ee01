// SPDX-License-Identifier: Apache-2.0
// Package orgmcp exposes the reconciled organization graph over the Model
// Context Protocol so agent runtimes can query their own hierarchy.
package orgmcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/salexandr0s/savORG-sub003/pkg/hierarchy"
)

// Reconciler produces a fresh organization graph. Each tool call runs a full
// reconcile so callers always see current source data.
type Reconciler interface {
	Reconcile(ctx context.Context) (*hierarchy.Result, error)
}

// Server wraps the mcp-go server with the org graph tool set.
type Server struct {
	mcpServer *server.MCPServer
	engine    Reconciler
}

// NewServer creates an MCP server exposing org_graph, org_agent, and
// org_sources backed by the given engine.
func NewServer(name, version string, engine Reconciler) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(name, version),
		engine:    engine,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	graphTool := mcp.NewTool("org_graph",
		mcp.WithDescription("Reconcile all sources and return the full organization graph: nodes, edges, source states, and warnings."),
	)
	s.mcpServer.AddTool(graphTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.handleGraph(ctx)
	})

	agentTool := mcp.NewTool("org_agent",
		mcp.WithDescription("Look up a single agent by name, id, or alias and return its node with capabilities and relations."),
		mcp.WithString("agent", mcp.Required(), mcp.Description("Agent name, id, or alias to resolve.")),
	)
	s.mcpServer.AddTool(agentTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})
		return s.handleAgent(ctx, args)
	})

	sourcesTool := mcp.NewTool("org_sources",
		mcp.WithDescription("Return per-source availability states and the warning list from a fresh reconcile."),
	)
	s.mcpServer.AddTool(sourcesTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.handleSources(ctx)
	})
}

func (s *Server) handleGraph(ctx context.Context) (*mcp.CallToolResult, error) {
	result, err := s.engine.Reconcile(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("reconcile failed: %v", err)), nil
	}
	return structuredResult(map[string]interface{}{
		"nodes":    result.Nodes,
		"edges":    result.Edges,
		"sources":  result.Sources,
		"warnings": result.Warnings,
	})
}

func (s *Server) handleAgent(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	name, _ := args["agent"].(string)
	if name == "" {
		return errorResult("agent argument required"), nil
	}
	result, err := s.engine.Reconcile(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("reconcile failed: %v", err)), nil
	}
	node := result.NodeByAlias(name)
	if node == nil {
		return errorResult(fmt.Sprintf("agent %q not found", name)), nil
	}

	var related []hierarchy.Edge
	for _, e := range result.Edges {
		if e.From == node.Key || e.To == node.Key {
			related = append(related, e)
		}
	}
	return structuredResult(map[string]interface{}{
		"node":  node,
		"edges": related,
	})
}

func (s *Server) handleSources(ctx context.Context) (*mcp.CallToolResult, error) {
	result, err := s.engine.Reconcile(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("reconcile failed: %v", err)), nil
	}
	return structuredResult(map[string]interface{}{
		"sources":  result.Sources,
		"warnings": result.Warnings,
	})
}

// ServeStdio starts the server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func structuredResult(payload map[string]interface{}) (*mcp.CallToolResult, error) {
	// Text content mirrors the structured payload so clients without
	// structured-content support still get the full answer.
	text, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{mcp.TextContent{Type: "text", Text: string(text)}},
		StructuredContent: payload,
	}, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: msg}},
	}
}
