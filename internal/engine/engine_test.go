package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/graphweave/graphweave/internal/analyzer"
	"github.com/graphweave/graphweave/internal/config"
	"github.com/graphweave/graphweave/internal/store"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return testEngineCfg(t, config.Default())
}

func testEngineCfg(t *testing.T, cfg config.Config) *Engine {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	an, err := analyzer.New(cfg.Analyzer)
	if err != nil {
		t.Fatalf("analyzer.New: %v", err)
	}
	return New(db, an, cfg)
}

func TestAddMemoryEmptyContent(t *testing.T) {
	e := testEngine(t)

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := e.AddMemory(context.Background(), content, nil)
		if !errors.Is(err, ErrEmptyContent) {
			t.Errorf("AddMemory(%q) err = %v, want ErrEmptyContent", content, err)
		}
	}

	stats, err := e.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Memories != 0 {
		t.Errorf("Memories = %d, want 0", stats.Memories)
	}
}

func TestAddMemoryEndToEnd(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	id, err := e.AddMemory(ctx, "John works at Google and specializes in AI research.", []string{"work"})
	if err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	if len(id) != 12 {
		t.Errorf("id = %q, want 12-char fingerprint", id)
	}

	m, err := e.DB.GetMemory(id)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if m == nil {
		t.Fatal("memory not persisted")
	}
	if len(m.Tags) != 1 || m.Tags[0] != "work" {
		t.Errorf("Tags = %v, want [work]", m.Tags)
	}

	john, err := e.DB.GetEntityByKey("john", analyzer.TypePerson)
	if err != nil {
		t.Fatalf("GetEntityByKey: %v", err)
	}
	if john == nil {
		t.Fatal("john not woven")
	}
	google, err := e.DB.GetEntityByKey("google", analyzer.TypeOrganization)
	if err != nil {
		t.Fatalf("GetEntityByKey: %v", err)
	}
	if google == nil {
		t.Fatal("google not woven")
	}

	edge, err := e.DB.GetEdge(john.ID, analyzer.LabelWorksAt, google.ID)
	if err != nil {
		t.Fatalf("GetEdge: %v", err)
	}
	if edge == nil {
		t.Fatal("WORKS_AT edge not woven")
	}
	if math.Abs(edge.Weight-0.3) > 1e-9 {
		t.Errorf("edge weight = %f, want 0.3", edge.Weight)
	}
	if len(edge.Provenance) != 1 || edge.Provenance[0] != id {
		t.Errorf("provenance = %v, want [%s]", edge.Provenance, id)
	}

	linked, err := e.DB.MemoryEntityIDs(id)
	if err != nil {
		t.Fatalf("MemoryEntityIDs: %v", err)
	}
	// john, google, ai, research
	if len(linked) != 4 {
		t.Errorf("linked entities = %d, want 4", len(linked))
	}
}

func TestEntityIdentityAcrossMemories(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	if _, err := e.AddMemory(ctx, "John works at Google.", nil); err != nil {
		t.Fatalf("first AddMemory: %v", err)
	}
	if _, err := e.AddMemory(ctx, "John works at Microsoft.", nil); err != nil {
		t.Fatalf("second AddMemory: %v", err)
	}

	john, err := e.DB.GetEntityByKey("john", analyzer.TypePerson)
	if err != nil {
		t.Fatalf("GetEntityByKey: %v", err)
	}
	if john == nil {
		t.Fatal("john not woven")
	}
	if john.MentionCount != 2 {
		t.Errorf("MentionCount = %d, want 2", john.MentionCount)
	}

	stats, err := e.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	// john, google, microsoft
	if stats.Entities != 3 {
		t.Errorf("Entities = %d, want 3", stats.Entities)
	}
	if stats.Memories != 2 {
		t.Errorf("Memories = %d, want 2", stats.Memories)
	}
}

func TestEdgeReinforcedNotDuplicated(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	id1, err := e.AddMemory(ctx, "John works at Google.", nil)
	if err != nil {
		t.Fatalf("first AddMemory: %v", err)
	}
	id2, err := e.AddMemory(ctx, "John works at Google every day.", nil)
	if err != nil {
		t.Fatalf("second AddMemory: %v", err)
	}

	stats, err := e.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Relationships != 1 {
		t.Errorf("Relationships = %d, want 1 (same triple reinforced)", stats.Relationships)
	}

	john, _ := e.DB.GetEntityByKey("john", analyzer.TypePerson)
	google, _ := e.DB.GetEntityByKey("google", analyzer.TypeOrganization)
	edge, err := e.DB.GetEdge(john.ID, analyzer.LabelWorksAt, google.ID)
	if err != nil {
		t.Fatalf("GetEdge: %v", err)
	}
	if math.Abs(edge.Weight-0.6) > 1e-9 {
		t.Errorf("edge weight = %f, want 0.6", edge.Weight)
	}
	if len(edge.Provenance) != 2 || edge.Provenance[0] != id1 || edge.Provenance[1] != id2 {
		t.Errorf("provenance = %v, want [%s %s]", edge.Provenance, id1, id2)
	}
}

func TestAddMemoryAtomic(t *testing.T) {
	e := testEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.AddMemory(ctx, "John works at Google.", nil)
	if err == nil {
		t.Fatal("expected error with canceled context")
	}

	stats, err := e.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Entities != 0 || stats.Relationships != 0 || stats.Memories != 0 {
		t.Errorf("Stats = %+v, want all zero after failed add", stats)
	}
}

func TestImportanceGrowsWithGraphMass(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	plainID, err := e.AddMemory(ctx, "nothing notable happened today", nil)
	if err != nil {
		t.Fatalf("AddMemory plain: %v", err)
	}
	richID, err := e.AddMemory(ctx, "John works at Google and specializes in AI research.", nil)
	if err != nil {
		t.Fatalf("AddMemory rich: %v", err)
	}

	plain, _ := e.DB.GetMemory(plainID)
	rich, _ := e.DB.GetMemory(richID)
	if rich.Importance <= plain.Importance {
		t.Errorf("rich importance %f <= plain importance %f", rich.Importance, plain.Importance)
	}
	// No entities, no relations: only the recency term remains.
	if math.Abs(plain.Importance-0.5) > 1e-9 {
		t.Errorf("plain importance = %f, want 0.5", plain.Importance)
	}
}

func TestStatsAfterDistinctMemories(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	contents := []string{
		"Alice works at Microsoft.",
		"Kubernetes is a cloud framework.",
		"Berlin has mild weather.",
	}
	for _, c := range contents {
		if _, err := e.AddMemory(ctx, c, nil); err != nil {
			t.Fatalf("AddMemory(%q): %v", c, err)
		}
	}

	stats, err := e.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Memories != 3 {
		t.Errorf("Memories = %d, want 3", stats.Memories)
	}
	// alice, microsoft, kubernetes, cloud, framework, berlin
	if stats.Entities != 6 {
		t.Errorf("Entities = %d, want 6", stats.Entities)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("content", 1000)
	b := Fingerprint("content", 1000)
	if a != b {
		t.Errorf("fingerprint not deterministic: %q vs %q", a, b)
	}
	if len(a) != 12 {
		t.Errorf("len = %d, want 12", len(a))
	}
	if Fingerprint("other", 1000) == a {
		t.Error("different content, same fingerprint")
	}
	if Fingerprint("content", 2000) == a {
		t.Error("different timestamp, same fingerprint")
	}
}
