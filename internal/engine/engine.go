package engine

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"github.com/graphweave/graphweave/internal/analyzer"
	"github.com/graphweave/graphweave/internal/config"
	"github.com/graphweave/graphweave/internal/store"
)

// ErrEmptyContent is returned when an operation receives blank text.
// No state is created or mutated in that case.
var ErrEmptyContent = errors.New("empty content")

// Engine orchestrates extraction, graph weaving, retrieval, and importance
// rescoring over one Graph Store. Single-writer: callers drive AddMemory
// sequentially; reads may run concurrently and observe committed state only.
type Engine struct {
	DB       *store.DB
	Analyzer *analyzer.Analyzer
	cfg      config.Config
	stopCh   chan struct{}
}

// New creates an Engine. The config is captured by value and treated as
// immutable for the engine's lifetime.
func New(db *store.DB, an *analyzer.Analyzer, cfg config.Config) *Engine {
	return &Engine{
		DB:       db,
		Analyzer: an,
		cfg:      cfg,
		stopCh:   make(chan struct{}),
	}
}

// AddMemory ingests one text unit: extracts entities and relations, weaves
// them into the graph, and persists the memory record atomically. Returns
// the memory's fingerprint id. Either everything commits or nothing does.
func (e *Engine) AddMemory(ctx context.Context, content string, tags []string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}
	entities, relations := e.Analyzer.Extract(content)
	return e.weave(ctx, content, entities, relations, tags, time.Now().UnixMilli())
}

// Stats returns entity/relationship/memory counts.
func (e *Engine) Stats() (store.Stats, error) {
	return e.DB.Stats()
}

// importance computes the memory importance score. Monotone in every input:
// more mentions, more relations, and a fresher recency factor never lower it.
func (e *Engine) importance(mentionSum, relations int, recencyFactor float64) float64 {
	s := e.cfg.Scoring
	return s.BaseWeight*math.Log1p(float64(mentionSum)) +
		s.ConnectivityWeight*float64(relations) +
		s.RecencyWeight*recencyFactor
}

// StartRescoreTimer runs an importance rescore at startup and then daily.
func (e *Engine) StartRescoreTimer() {
	if updated, err := e.Rescore(context.Background()); err != nil {
		log.Printf("rescore error: %v", err)
	} else if updated > 0 {
		log.Printf("rescore: updated %d memories", updated)
	}

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if updated, err := e.Rescore(context.Background()); err != nil {
					log.Printf("rescore error: %v", err)
				} else if updated > 0 {
					log.Printf("rescore: updated %d memories", updated)
				}
			case <-e.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down the engine's background goroutines.
func (e *Engine) Stop() {
	close(e.stopCh)
}
