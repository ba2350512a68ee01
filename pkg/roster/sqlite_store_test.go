package roster

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "roster.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUpsertAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a, err := store.Upsert(ctx, Record{RuntimeID: "agentA", Name: "Agent A", Role: "builder"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected generated id")
	}
	if _, err := store.Upsert(ctx, Record{ID: "fixed", Name: "Agent B", Station: "ops"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %+v", records)
	}
	// Ordered by name.
	if records[0].Name != "Agent A" || records[1].Name != "Agent B" {
		t.Fatalf("order = %q, %q", records[0].Name, records[1].Name)
	}
	if records[1].Station != "ops" {
		t.Fatalf("station = %q", records[1].Station)
	}
}

func TestUpsertReplacesByID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Upsert(ctx, Record{ID: "r1", Name: "Old Name"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := store.Upsert(ctx, Record{ID: "r1", Name: "New Name", Status: "active"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].Name != "New Name" || records[0].Status != "active" {
		t.Fatalf("records = %+v", records)
	}
}

func TestUpsertRequiresName(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Upsert(context.Background(), Record{ID: "r1"}); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStaticProvider(t *testing.T) {
	s := Static{Records: []Record{{ID: "r1", Name: "Agent A"}}}
	records, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %+v", records)
	}
}
