// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package hierarchy

import "strings"

// wildcardToken in an allow or deny list matches every tool.
const wildcardToken = "*"

// Token groups recognized by capability inference. Matching is
// case-insensitive; deny always beats allow.
var (
	writeTokens   = []string{"write", "fs_write", "file_write", "edit", "save_file"}
	execTokens    = []string{"exec", "execute", "shell", "bash", "run", "command"}
	messageTokens = []string{"message", "send_message", "sessions_send", "agent_message"}
)

// execSecurityDeny is the security flag value that forces exec off outright.
const execSecurityDeny = "deny"

// InferCapabilities derives tri-state capability claims from a tool policy.
// For each group: false if the wildcard or any group token is denied, else
// true if the wildcard or any group token is allowed, else undefined. The
// exec flag additionally honors the policy's security flag: "deny" forces
// exec=false; any other non-empty value defaults exec=true when inference
// left it undefined. Delegation is never inferred from tool lists.
func InferCapabilities(p *ToolPolicy) CapabilityClaims {
	if p == nil {
		return CapabilityClaims{}
	}
	allow := tokenSet(p.Allow)
	deny := tokenSet(p.Deny)

	claims := CapabilityClaims{
		Write:   inferFlag(allow, deny, writeTokens),
		Exec:    inferFlag(allow, deny, execTokens),
		Message: inferFlag(allow, deny, messageTokens),
	}

	security := strings.ToLower(strings.TrimSpace(p.ExecSecurity))
	switch {
	case security == execSecurityDeny:
		claims.Exec = boolPtr(false)
	case security != "" && claims.Exec == nil:
		claims.Exec = boolPtr(true)
	}
	return claims
}

func inferFlag(allow, deny map[string]bool, group []string) *bool {
	if deny[wildcardToken] || anyToken(deny, group) {
		return boolPtr(false)
	}
	if allow[wildcardToken] || anyToken(allow, group) {
		return boolPtr(true)
	}
	return nil
}

func anyToken(set map[string]bool, group []string) bool {
	for _, token := range group {
		if set[token] {
			return true
		}
	}
	return false
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token != "" {
			set[token] = true
		}
	}
	return set
}

func boolPtr(v bool) *bool {
	return &v
}
