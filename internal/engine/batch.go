package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/graphweave/graphweave/internal/analyzer"
)

// batchWorkers bounds concurrent extraction during batch ingestion.
// Extraction is pure and CPU-light; a small pool is plenty.
const batchWorkers = 4

// MemoryInput is one item of a batch ingestion.
type MemoryInput struct {
	Content string
	Tags    []string
}

type extraction struct {
	entities  []analyzer.Entity
	relations []analyzer.Relation
}

// AddBatch ingests many texts. Extraction runs concurrently through a
// bounded worker pool; weaving consumes the results strictly in submission
// order, so returned ids line up with inputs. The first weave failure stops
// the batch; already-committed memories stay committed.
func (e *Engine) AddBatch(ctx context.Context, inputs []MemoryInput) ([]string, error) {
	results := make([]extraction, len(inputs))

	sem := make(chan struct{}, batchWorkers)
	var wg sync.WaitGroup
	for i := range inputs {
		if strings.TrimSpace(inputs[i].Content) == "" {
			return nil, fmt.Errorf("input %d: %w", i, ErrEmptyContent)
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			entities, relations := e.Analyzer.Extract(inputs[i].Content)
			results[i] = extraction{entities: entities, relations: relations}
		}(i)
	}
	wg.Wait()

	ids := make([]string, 0, len(inputs))
	for i, in := range inputs {
		id, err := e.weave(ctx, in.Content, results[i].entities, results[i].relations, in.Tags, time.Now().UnixMilli())
		if err != nil {
			return ids, fmt.Errorf("input %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
