package engine

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/graphweave/graphweave/internal/analyzer"
	"github.com/graphweave/graphweave/internal/store"
)

// ScoredMemory is one query result with its scoring breakdown.
type ScoredMemory struct {
	Memory          store.Memory `json:"memory"`
	Score           float64      `json:"score"`
	Lexical         float64      `json:"lexical"`
	EntityOverlap   float64      `json:"entity_overlap"`
	MatchedEntities []string     `json:"matched_entities"`
}

// QueryMemory scores stored memories against the query text and returns up
// to topK results ordered by descending score, newer-first on ties.
// Memories below the configured relevance threshold are excluded outright.
// Returned memories are touched: access count and last-access advance.
//
// topK <= 0 selects the configured default.
func (e *Engine) QueryMemory(ctx context.Context, query string, topK int) ([]ScoredMemory, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyContent
	}
	if topK <= 0 {
		topK = e.cfg.Retrieval.TopK
	}

	queryEntities, _ := e.Analyzer.Extract(query)

	// Distinct query entity forms, in extraction order.
	var queryForms []string
	seen := make(map[string]bool)
	for _, qe := range queryEntities {
		if !seen[qe.Normalized] {
			seen[qe.Normalized] = true
			queryForms = append(queryForms, qe.Normalized)
		}
	}

	// Resolve query entities against the graph.
	resolved := make(map[string]*store.Entity, len(queryForms))
	var resolvedIDs []int64
	for _, form := range queryForms {
		ent, err := e.DB.GetEntityByNormalized(form)
		if err != nil {
			return nil, err
		}
		if ent != nil {
			resolved[form] = ent
			resolvedIDs = append(resolvedIDs, ent.ID)
		}
	}

	// Candidate pruning: when query entities resolve, only memories sharing
	// one can score a non-zero overlap term; scan just those. Otherwise fall
	// back to the full set so purely lexical matches still surface.
	var candidates []store.Memory
	var err error
	if len(resolvedIDs) > 0 {
		candidates, err = e.DB.MemoriesByEntityIDs(resolvedIDs)
	} else {
		candidates, err = e.DB.ListMemories()
	}
	if err != nil {
		return nil, err
	}

	r := e.cfg.Retrieval
	var results []ScoredMemory
	for _, m := range candidates {
		ids, err := e.DB.MemoryEntityIDs(m.ID)
		if err != nil {
			return nil, err
		}
		idSet := make(map[int64]bool, len(ids))
		for _, id := range ids {
			idSet[id] = true
		}

		var matched []string
		for _, form := range queryForms {
			if ent, ok := resolved[form]; ok && idSet[ent.ID] {
				matched = append(matched, ent.Name)
			}
		}

		overlap := 0.0
		if len(queryForms) > 0 {
			overlap = float64(len(matched)) / float64(len(queryForms))
		}
		lexical := analyzer.Similarity(query, m.Content)

		score := r.Alpha*lexical + r.Beta*overlap + r.Gamma*m.Importance
		if score < r.Threshold {
			continue
		}

		results = append(results, ScoredMemory{
			Memory:          m,
			Score:           score,
			Lexical:         lexical,
			EntityOverlap:   overlap,
			MatchedEntities: matched,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Memory.CreatedAt > results[j].Memory.CreatedAt
	})
	if len(results) > topK {
		results = results[:topK]
	}

	// Retrieval is a durable access event for importance recency.
	now := time.Now().UnixMilli()
	for _, res := range results {
		if err := e.DB.TouchMemory(res.Memory.ID, now); err != nil {
			log.Printf("query: touch %s: %v", res.Memory.ID, err)
		}
	}

	return results, nil
}

// Neighbor is one edge endpoint adjacent to an explored entity.
type Neighbor struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Label    string  `json:"label"`
	Weight   float64 `json:"weight"`
	Outbound bool    `json:"outbound"` // true when the explored entity is the edge source
}

// EntityNetwork is the one-hop neighborhood of an entity. Entity is nil when
// the name resolved to nothing; that is an empty result, not an error.
type EntityNetwork struct {
	Entity    *store.Entity `json:"entity"`
	Neighbors []Neighbor    `json:"neighbors"`
}

// ExploreEntity resolves a name and returns its direct neighbors with edge
// labels and weights, strongest edges first.
func (e *Engine) ExploreEntity(ctx context.Context, name string) (*EntityNetwork, error) {
	normalized := analyzer.Normalize(name)
	if normalized == "" {
		return &EntityNetwork{}, nil
	}

	ent, err := e.DB.GetEntityByNormalized(normalized)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return &EntityNetwork{}, nil
	}

	edges, err := e.DB.EdgesTouching(ent.ID)
	if err != nil {
		return nil, err
	}

	network := &EntityNetwork{Entity: ent}
	for _, edge := range edges {
		n := Neighbor{Label: edge.Label, Weight: edge.Weight}
		if edge.SourceID == ent.ID {
			n.ID, n.Name, n.Type, n.Outbound = edge.TargetID, edge.TargetName, edge.TargetType, true
		} else {
			n.ID, n.Name, n.Type = edge.SourceID, edge.SourceName, edge.SourceType
		}
		network.Neighbors = append(network.Neighbors, n)
	}
	return network, nil
}
