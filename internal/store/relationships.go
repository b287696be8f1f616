package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Relationship is a directed, labeled, weighted edge between two entities.
// At most one row exists per (source, label, target); repeated assertions
// grow the weight and extend the provenance list instead of duplicating.
type Relationship struct {
	ID             int64
	SourceID       int64
	Label          string
	TargetID       int64
	Weight         float64
	Provenance     []string // memory ids that asserted this edge
	CreatedAt      int64
	LastReinforced int64
}

// Edge is a relationship joined with its endpoint entities, as returned by
// traversal queries.
type Edge struct {
	Relationship
	SourceName string
	SourceType string
	TargetName string
	TargetType string
}

// ReinforceEdge upserts the (source, label, target) triple. A new edge
// starts at weight = increment; an existing edge grows by increment,
// saturating at 1.0. The asserting memory id joins the provenance list
// once. Returns the stored edge after the update.
func (t *Tx) ReinforceEdge(sourceID int64, label string, targetID int64, memoryID string, increment float64, now int64) (*Relationship, error) {
	var r Relationship
	var provJSON string
	err := t.tx.QueryRow(`
		SELECT id, source_id, label, target_id, weight, provenance, created_at, last_reinforced
		FROM relationships WHERE source_id = ? AND label = ? AND target_id = ?
	`, sourceID, label, targetID).Scan(
		&r.ID, &r.SourceID, &r.Label, &r.TargetID, &r.Weight, &provJSON, &r.CreatedAt, &r.LastReinforced,
	)

	switch {
	case err == sql.ErrNoRows:
		weight := capWeight(increment)
		prov, _ := json.Marshal([]string{memoryID})
		res, err := t.tx.Exec(`
			INSERT INTO relationships (source_id, label, target_id, weight, provenance, created_at, last_reinforced)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sourceID, label, targetID, weight, string(prov), now, now)
		if err != nil {
			return nil, fmt.Errorf("insert edge %d-[%s]->%d: %w", sourceID, label, targetID, err)
		}
		id, _ := res.LastInsertId()
		return &Relationship{
			ID: id, SourceID: sourceID, Label: label, TargetID: targetID,
			Weight: weight, Provenance: []string{memoryID},
			CreatedAt: now, LastReinforced: now,
		}, nil

	case err != nil:
		return nil, fmt.Errorf("lookup edge %d-[%s]->%d: %w", sourceID, label, targetID, err)
	}

	if err := json.Unmarshal([]byte(provJSON), &r.Provenance); err != nil {
		return nil, fmt.Errorf("decode provenance for edge %d: %w", r.ID, err)
	}

	r.Weight = capWeight(r.Weight + increment)
	r.LastReinforced = now
	if !containsString(r.Provenance, memoryID) {
		r.Provenance = append(r.Provenance, memoryID)
	}
	prov, _ := json.Marshal(r.Provenance)

	if _, err := t.tx.Exec(
		"UPDATE relationships SET weight = ?, provenance = ?, last_reinforced = ? WHERE id = ?",
		r.Weight, string(prov), r.LastReinforced, r.ID,
	); err != nil {
		return nil, fmt.Errorf("update edge %d: %w", r.ID, err)
	}
	return &r, nil
}

func capWeight(w float64) float64 {
	if w > 1.0 {
		return 1.0
	}
	return w
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// EdgesTouching returns all edges where the entity is either endpoint,
// joined with endpoint names, ordered by descending weight.
func (db *DB) EdgesTouching(entityID int64) ([]Edge, error) {
	rows, err := db.Query(`
		SELECT r.id, r.source_id, r.label, r.target_id, r.weight, r.provenance,
			r.created_at, r.last_reinforced,
			s.name, s.type, d.name, d.type
		FROM relationships r
		JOIN entities s ON r.source_id = s.id
		JOIN entities d ON r.target_id = d.id
		WHERE r.source_id = ? OR r.target_id = ?
		ORDER BY r.weight DESC, r.id
	`, entityID, entityID)
	if err != nil {
		return nil, fmt.Errorf("edges touching %d: %w", entityID, err)
	}
	defer rows.Close()

	var out []Edge
	for rows.Next() {
		var e Edge
		var provJSON string
		if err := rows.Scan(
			&e.ID, &e.SourceID, &e.Label, &e.TargetID, &e.Weight, &provJSON,
			&e.CreatedAt, &e.LastReinforced,
			&e.SourceName, &e.SourceType, &e.TargetName, &e.TargetType,
		); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		if err := json.Unmarshal([]byte(provJSON), &e.Provenance); err != nil {
			return nil, fmt.Errorf("decode provenance for edge %d: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetEdge returns the edge for an exact triple, or nil.
func (db *DB) GetEdge(sourceID int64, label string, targetID int64) (*Relationship, error) {
	var r Relationship
	var provJSON string
	err := db.QueryRow(`
		SELECT id, source_id, label, target_id, weight, provenance, created_at, last_reinforced
		FROM relationships WHERE source_id = ? AND label = ? AND target_id = ?
	`, sourceID, label, targetID).Scan(
		&r.ID, &r.SourceID, &r.Label, &r.TargetID, &r.Weight, &provJSON, &r.CreatedAt, &r.LastReinforced,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get edge: %w", err)
	}
	if err := json.Unmarshal([]byte(provJSON), &r.Provenance); err != nil {
		return nil, fmt.Errorf("decode provenance for edge %d: %w", r.ID, err)
	}
	return &r, nil
}

// RelationCount returns how many edges carry the memory id in their
// provenance list. Used by importance rescoring.
func (db *DB) RelationCount(memoryID string) (int, error) {
	// Provenance ids are hex fingerprints stored as JSON string array
	// members, so a quoted LIKE match cannot false-positive on substrings.
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM relationships WHERE provenance LIKE '%"' || ? || '"%'`,
		memoryID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("relation count for %s: %w", memoryID, err)
	}
	return n, nil
}
