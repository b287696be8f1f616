package engine

import (
	"context"
	"math"
	"testing"
	"time"
)

const dayMs = int64(24 * 60 * 60 * 1000)

// backdate shifts a memory's creation time into the past.
func backdate(t *testing.T, e *Engine, id string, days int64) {
	t.Helper()
	_, err := e.DB.Exec(
		"UPDATE memories SET created_at = created_at - ? WHERE id = ?",
		days*dayMs, id,
	)
	if err != nil {
		t.Fatalf("backdate: %v", err)
	}
}

// structuralImportance is the score floor with the recency term fully decayed.
func structuralImportance(e *Engine, mentionSum, relations int) float64 {
	return e.importance(mentionSum, relations, 0)
}

func TestRescoreDecaysStaleMemory(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	id, err := e.AddMemory(ctx, "John works at Google.", nil)
	if err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	before, _ := e.DB.GetMemory(id)

	// Three half-lives in the past: the recency term shrinks to ~12.5%.
	backdate(t, e, id, 90)

	updated, err := e.Rescore(ctx)
	if err != nil {
		t.Fatalf("Rescore: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}

	after, _ := e.DB.GetMemory(id)
	if after.Importance >= before.Importance {
		t.Errorf("importance %f did not decay from %f", after.Importance, before.Importance)
	}
	floor := structuralImportance(e, 2, 1)
	if after.Importance <= floor {
		t.Errorf("importance %f fell to or below structural floor %f", after.Importance, floor)
	}
}

func TestRescoreFreshMemoryStable(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	id, err := e.AddMemory(ctx, "John works at Google.", nil)
	if err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	before, _ := e.DB.GetMemory(id)

	if _, err := e.Rescore(ctx); err != nil {
		t.Fatalf("Rescore: %v", err)
	}

	after, _ := e.DB.GetMemory(id)
	if math.Abs(after.Importance-before.Importance) > 0.001 {
		t.Errorf("fresh memory importance moved %f -> %f", before.Importance, after.Importance)
	}
}

func TestRescoreAccessResetsRecency(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	id, err := e.AddMemory(ctx, "John works at Google.", nil)
	if err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	backdate(t, e, id, 90)

	// A retrieval event restarts the decay clock.
	if err := e.DB.TouchMemory(id, time.Now().UnixMilli()); err != nil {
		t.Fatalf("TouchMemory: %v", err)
	}

	if _, err := e.Rescore(ctx); err != nil {
		t.Fatalf("Rescore: %v", err)
	}

	after, _ := e.DB.GetMemory(id)
	full := e.importance(2, 1, 1.0)
	if math.Abs(after.Importance-full) > 0.001 {
		t.Errorf("importance = %f, want ~%f after recent access", after.Importance, full)
	}
}

func TestRescoreReflectsReinforcement(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	id, err := e.AddMemory(ctx, "John works at Google.", nil)
	if err != nil {
		t.Fatalf("first AddMemory: %v", err)
	}
	before, _ := e.DB.GetMemory(id)

	// A later memory re-mentions both entities; the first memory's mention
	// mass grows, and rescoring has to pick that up.
	if _, err := e.AddMemory(ctx, "John works at Google on weekends.", nil); err != nil {
		t.Fatalf("second AddMemory: %v", err)
	}

	if _, err := e.Rescore(ctx); err != nil {
		t.Fatalf("Rescore: %v", err)
	}

	after, _ := e.DB.GetMemory(id)
	if after.Importance <= before.Importance {
		t.Errorf("importance %f did not grow from %f after reinforcement", after.Importance, before.Importance)
	}
}

func TestRescoreCanceledContext(t *testing.T) {
	e := testEngine(t)

	if _, err := e.AddMemory(context.Background(), "John works at Google.", nil); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Rescore(ctx); err == nil {
		t.Error("expected error with canceled context")
	}
}
