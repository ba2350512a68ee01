// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package hierarchy

import "testing"

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"  ClawControl-QA ": "clawcontrol-qa",
		"AGENTA":            "agenta",
		"":                  "",
		"   ":               "",
	}
	for in, want := range cases {
		if got := NormalizeKey(in); got != want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizerFirstBindingWins(t *testing.T) {
	n := NewNormalizer()
	n.Register("Agent A", "agenta")
	n.Register("agent a", "someone-else")

	if got := n.Resolve("AGENT A"); got != "agenta" {
		t.Fatalf("Resolve = %q, want agenta", got)
	}
}

func TestNormalizerUnboundResolvesToSelf(t *testing.T) {
	n := NewNormalizer()
	if got := n.Resolve("  Ops Board "); got != "ops board" {
		t.Fatalf("Resolve = %q, want %q", got, "ops board")
	}
	if n.Known("Ops Board") {
		t.Fatal("unbound alias must not be known")
	}
}

func TestNormalizerIgnoresEmpty(t *testing.T) {
	n := NewNormalizer()
	n.Register("", "agenta")
	n.Register("   ", "agenta")
	n.Register("alias", "")
	if n.Known("alias") {
		t.Fatal("empty key must not bind")
	}
}
