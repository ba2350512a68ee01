// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

// Package inventory invokes the runtime's agent inventory command. The
// hierarchy engine depends only on the Runner contract; the exec-backed
// implementation lives here so tests can substitute canned payloads.
package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes the inventory command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner shells out to the command. Callers bound the invocation with a
// context deadline; the process is killed when the deadline passes.
type ExecRunner struct{}

// Run executes the command and returns stdout. On failure the error carries
// the trailing stderr output so callers can classify it.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", name, ctxErr)
		}
		detail := bytes.TrimSpace(stderr.Bytes())
		if len(detail) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", name, err, detail)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// IsCommandMissing reports whether err indicates the command executable
// itself does not exist, which callers treat as expected unavailability.
func IsCommandMissing(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{
		"executable file not found",
		"command not found",
		"no such file or directory",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
