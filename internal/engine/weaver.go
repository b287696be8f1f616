package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"

	"github.com/graphweave/graphweave/internal/analyzer"
	"github.com/graphweave/graphweave/internal/store"
)

// Fingerprint derives the deterministic memory id from content and creation
// time. Immutable once assigned.
func Fingerprint(content string, createdAt int64) string {
	h := sha256.New()
	h.Write([]byte(content))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(createdAt, 10)))
	return hex.EncodeToString(h.Sum(nil))[:12]
}

type entityKey struct {
	normalized string
	typ        string
}

// weave turns one extraction result into graph mutations inside a single
// store transaction: resolve-or-create entity nodes, reinforce edges,
// compute importance, persist the memory record. Any persistence error
// rolls the whole operation back.
func (e *Engine) weave(ctx context.Context, content string, entities []analyzer.Entity,
	relations []analyzer.Relation, tags []string, now int64) (string, error) {

	id := Fingerprint(content, now)

	tx, err := e.DB.BeginWeave(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	// Aggregate mentions per identity key, preserving first-occurrence order.
	var order []entityKey
	counts := make(map[entityKey]int)
	surfaces := make(map[entityKey]string)
	for _, en := range entities {
		k := entityKey{en.Normalized, en.Type}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
			surfaces[k] = en.Text
		}
		counts[k]++
	}

	byNormalized := make(map[string]*store.Entity)
	var woven []*store.Entity
	mentionSum := 0
	for _, k := range order {
		ent, err := tx.UpsertEntity(surfaces[k], k.normalized, k.typ, counts[k], now)
		if err != nil {
			return "", err
		}
		woven = append(woven, ent)
		mentionSum += ent.MentionCount
		if _, ok := byNormalized[k.normalized]; !ok {
			byNormalized[k.normalized] = ent
		}
	}

	// Reinforce one edge per resolvable relation candidate. Unresolvable
	// endpoints (pronouns, phrases that never became entities) are a
	// recoverable skip, not an error.
	touched := make(map[int64]bool)
	for _, r := range relations {
		src, err := resolveEndpoint(tx, byNormalized, r.Source)
		if err != nil {
			return "", err
		}
		dst, err := resolveEndpoint(tx, byNormalized, r.Target)
		if err != nil {
			return "", err
		}
		if src == nil || dst == nil {
			log.Printf("weave: skipping %s %q -> %q: unresolved endpoint", r.Label, r.Source, r.Target)
			continue
		}
		if src.ID == dst.ID {
			continue
		}
		edge, err := tx.ReinforceEdge(src.ID, r.Label, dst.ID, id, e.cfg.Scoring.EdgeIncrement, now)
		if err != nil {
			return "", err
		}
		touched[edge.ID] = true
	}

	mem := &store.Memory{
		ID:         id,
		Content:    content,
		Tags:       tags,
		Importance: e.importance(mentionSum, len(touched), 1.0),
		CreatedAt:  now,
	}
	if err := tx.InsertMemory(mem); err != nil {
		return "", err
	}
	for _, ent := range woven {
		if err := tx.LinkEntity(id, ent.ID); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("weave %s: %w", id, err)
	}
	return id, nil
}

// resolveEndpoint maps a relation endpoint's literal text to an entity:
// first against the entities woven in this call, then against the stored
// graph. Returns nil (no error) when the endpoint is unknown.
func resolveEndpoint(tx *store.Tx, local map[string]*store.Entity, text string) (*store.Entity, error) {
	normalized := analyzer.Normalize(text)
	if normalized == "" {
		return nil, nil
	}
	if ent, ok := local[normalized]; ok {
		return ent, nil
	}
	return tx.LookupNormalized(normalized)
}
