// Copyright 2026 © The savORG Authors
// SPDX-License-Identifier: Apache-2.0

package hierarchy

import (
	"reflect"
	"testing"
)

func extractOne(t *testing.T, doc Document) DocAgent {
	t.Helper()
	res := ExtractDocRelations([]Document{doc}, "ClawControl")
	if len(res.Agents) != 1 {
		t.Fatalf("agents = %+v, want exactly one", res.Agents)
	}
	return res.Agents[0]
}

func TestDocIdentityFromHeading(t *testing.T) {
	agent := extractOne(t, Document{
		Path: "docs/team.md",
		Text: "# ClawControlBuild\n\nReports to: ClawControlCEO\n",
	})
	if agent.ID != "ClawControlBuild" {
		t.Fatalf("ID = %q", agent.ID)
	}
	if agent.ReportsTo != "ClawControlCEO" {
		t.Fatalf("ReportsTo = %q", agent.ReportsTo)
	}
}

func TestDocIdentityFromNameField(t *testing.T) {
	agent := extractOne(t, Document{
		Path: "notes.md",
		Text: "# Some Heading\nName: ClawControl-QA\n",
	})
	if agent.ID != "ClawControl-QA" {
		t.Fatalf("ID = %q", agent.ID)
	}
}

func TestDocIdentityFromSoulFolder(t *testing.T) {
	agent := extractOne(t, Document{
		Path: "agents/qa/SOUL.md",
		Text: "just prose, no heading\n",
	})
	if agent.ID != "ClawControlQA" {
		t.Fatalf("ID = %q", agent.ID)
	}
}

func TestDocReportsToWithCoordination(t *testing.T) {
	agent := extractOne(t, Document{
		Path: "build.md",
		Text: "# ClawControlBuild\n**Reports to**: ClawControlCEO. Coordination: ClawControlQA, ClawControlOps\n",
	})
	if agent.ReportsTo != "ClawControlCEO" {
		t.Fatalf("ReportsTo = %q", agent.ReportsTo)
	}
	want := []string{"ClawControlQA", "ClawControlOps"}
	if !reflect.DeepEqual(agent.ReceivesFrom, want) {
		t.Fatalf("ReceivesFrom = %v, want %v", agent.ReceivesFrom, want)
	}
}

func TestDocDelegationPhrases(t *testing.T) {
	agent := extractOne(t, Document{
		Path: "lead.md",
		Text: "# ClawControlLead\nDelegates to: ClawControlBuild\nDelegates tasks to qa and ops teams as needed\n",
	})
	want := []string{"ClawControlBuild", "ClawControlQA", "ClawControlOps"}
	if !reflect.DeepEqual(agent.DelegatesTo, want) {
		t.Fatalf("DelegatesTo = %v, want %v", agent.DelegatesTo, want)
	}
}

func TestDocReceivesFrom(t *testing.T) {
	agent := extractOne(t, Document{
		Path: "qa.md",
		Text: "# ClawControlQA\nReceives work from build\n",
	})
	want := []string{"ClawControlBuild"}
	if !reflect.DeepEqual(agent.ReceivesFrom, want) {
		t.Fatalf("ReceivesFrom = %v, want %v", agent.ReceivesFrom, want)
	}
}

func TestDocStopWordsAndPlainWordsIgnored(t *testing.T) {
	res := ExtractDocRelations([]Document{{
		Path: "x.md",
		Text: "# ClawControlBuild\nReports to: the human operator\n",
	}}, "ClawControl")
	if res.Agents[0].ReportsTo != "" {
		t.Fatalf("ReportsTo = %q, want empty", res.Agents[0].ReportsTo)
	}
}

func TestDocMergeAcrossDocuments(t *testing.T) {
	res := ExtractDocRelations([]Document{
		{Path: "a.md", Text: "# ClawControlBuild\nReports to: ClawControlCEO\nDelegates to: ClawControlQA\n"},
		{Path: "b.md", Text: "# clawcontrolbuild\nReports to: ClawControlLead\nDelegates to: ClawControlOps, ClawControlQA\n"},
	}, "ClawControl")
	if len(res.Agents) != 1 {
		t.Fatalf("agents = %+v", res.Agents)
	}
	agent := res.Agents[0]
	// First non-empty reports-to wins.
	if agent.ReportsTo != "ClawControlCEO" {
		t.Fatalf("ReportsTo = %q", agent.ReportsTo)
	}
	want := []string{"ClawControlQA", "ClawControlOps"}
	if !reflect.DeepEqual(agent.DelegatesTo, want) {
		t.Fatalf("DelegatesTo = %v, want %v", agent.DelegatesTo, want)
	}
}

func TestDocMarkupStripped(t *testing.T) {
	agent := extractOne(t, Document{
		Path: "x.md",
		Text: "# ClawControlQA\nReports to: [ClawControlLead](./lead.md)\n",
	})
	if agent.ReportsTo != "ClawControlLead" {
		t.Fatalf("ReportsTo = %q", agent.ReportsTo)
	}
}

func TestEnsurePrefixed(t *testing.T) {
	cases := map[string]string{
		"qa":               "ClawControlQA",
		"build":            "ClawControlBuild",
		"ClawControl-Lead": "ClawControl-Lead",
		"scout":            "ClawControlScout",
	}
	for in, want := range cases {
		if got := ensurePrefixed(in, "ClawControl"); got != want {
			t.Errorf("ensurePrefixed(%q) = %q, want %q", in, got, want)
		}
	}
}
