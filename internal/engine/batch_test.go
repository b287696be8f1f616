package engine

import (
	"context"
	"errors"
	"testing"
)

func TestAddBatchOrder(t *testing.T) {
	e := testEngine(t)

	inputs := []MemoryInput{
		{Content: "John works at Google.", Tags: []string{"work"}},
		{Content: "Alice created TensorFlow.", Tags: nil},
		{Content: "Kubernetes runs the cluster.", Tags: []string{"infra"}},
	}

	ids, err := e.AddBatch(context.Background(), inputs)
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
	if len(ids) != len(inputs) {
		t.Fatalf("len(ids) = %d, want %d", len(ids), len(inputs))
	}

	for i, id := range ids {
		m, err := e.DB.GetMemory(id)
		if err != nil {
			t.Fatalf("GetMemory(%s): %v", id, err)
		}
		if m == nil {
			t.Fatalf("memory %d not persisted", i)
		}
		if m.Content != inputs[i].Content {
			t.Errorf("ids[%d] content = %q, want %q", i, m.Content, inputs[i].Content)
		}
	}
}

func TestAddBatchEmptyInputRejectsAll(t *testing.T) {
	e := testEngine(t)

	ids, err := e.AddBatch(context.Background(), []MemoryInput{
		{Content: "John works at Google."},
		{Content: "   "},
	})
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("err = %v, want ErrEmptyContent", err)
	}
	if len(ids) != 0 {
		t.Errorf("ids = %v, want none", ids)
	}

	// Validation happens before any weaving.
	stats, err := e.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Memories != 0 {
		t.Errorf("Memories = %d, want 0", stats.Memories)
	}
}

func TestAddBatchSharedEntities(t *testing.T) {
	e := testEngine(t)

	_, err := e.AddBatch(context.Background(), []MemoryInput{
		{Content: "Google created TensorFlow."},
		{Content: "Google created Kubernetes."},
	})
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	google, err := e.DB.GetEntityByKey("google", "ORGANIZATION")
	if err != nil {
		t.Fatalf("GetEntityByKey: %v", err)
	}
	if google == nil {
		t.Fatal("google not woven")
	}
	if google.MentionCount != 2 {
		t.Errorf("MentionCount = %d, want 2", google.MentionCount)
	}

	stats, err := e.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	// google, tensorflow, kubernetes
	if stats.Entities != 3 {
		t.Errorf("Entities = %d, want 3", stats.Entities)
	}
	if stats.Relationships != 2 {
		t.Errorf("Relationships = %d, want 2", stats.Relationships)
	}
}
