package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// Entity is a deduplicated graph node. Identity key = (Normalized, Type);
// two mentions with the same key always resolve to the same row.
type Entity struct {
	ID           int64
	Name         string // first-seen surface form
	Normalized   string
	Type         string
	MentionCount int
	FirstSeen    int64
	LastSeen     int64
}

const entityCols = "id, name, normalized, type, mention_count, first_seen, last_seen"

// UpsertEntity resolves (normalized, type) to an existing row or inserts a
// new one. On hit, mention_count grows by mentions and last_seen advances;
// on miss, the row is created with mention_count = mentions. Returns the
// stored row after the update.
func (t *Tx) UpsertEntity(name, normalized, typ string, mentions int, now int64) (*Entity, error) {
	var e Entity
	err := t.tx.QueryRow(
		"SELECT "+entityCols+" FROM entities WHERE normalized = ? AND type = ?",
		normalized, typ,
	).Scan(&e.ID, &e.Name, &e.Normalized, &e.Type, &e.MentionCount, &e.FirstSeen, &e.LastSeen)

	switch {
	case err == sql.ErrNoRows:
		res, err := t.tx.Exec(`
			INSERT INTO entities (name, normalized, type, mention_count, first_seen, last_seen)
			VALUES (?, ?, ?, ?, ?, ?)
		`, name, normalized, typ, mentions, now, now)
		if err != nil {
			return nil, fmt.Errorf("insert entity %q: %w", normalized, err)
		}
		id, _ := res.LastInsertId()
		return &Entity{
			ID: id, Name: name, Normalized: normalized, Type: typ,
			MentionCount: mentions, FirstSeen: now, LastSeen: now,
		}, nil

	case err != nil:
		return nil, fmt.Errorf("lookup entity %q: %w", normalized, err)
	}

	e.MentionCount += mentions
	e.LastSeen = now
	if _, err := t.tx.Exec(
		"UPDATE entities SET mention_count = ?, last_seen = ? WHERE id = ?",
		e.MentionCount, e.LastSeen, e.ID,
	); err != nil {
		return nil, fmt.Errorf("update entity %q: %w", normalized, err)
	}
	return &e, nil
}

// LookupNormalized finds the best-known entity for a normalized form within
// the transaction, ignoring type. Ties go to the most-mentioned row.
// Returns nil when no entity matches.
func (t *Tx) LookupNormalized(normalized string) (*Entity, error) {
	var e Entity
	err := t.tx.QueryRow(
		"SELECT "+entityCols+" FROM entities WHERE normalized = ? ORDER BY mention_count DESC, id LIMIT 1",
		normalized,
	).Scan(&e.ID, &e.Name, &e.Normalized, &e.Type, &e.MentionCount, &e.FirstSeen, &e.LastSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup normalized %q: %w", normalized, err)
	}
	return &e, nil
}

// GetEntityByKey returns the entity with the exact identity key, or nil.
func (db *DB) GetEntityByKey(normalized, typ string) (*Entity, error) {
	var e Entity
	err := db.QueryRow(
		"SELECT "+entityCols+" FROM entities WHERE normalized = ? AND type = ?",
		normalized, typ,
	).Scan(&e.ID, &e.Name, &e.Normalized, &e.Type, &e.MentionCount, &e.FirstSeen, &e.LastSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entity by key: %w", err)
	}
	return &e, nil
}

// GetEntityByNormalized returns the most-mentioned entity for a normalized
// form regardless of type, or nil when unknown.
func (db *DB) GetEntityByNormalized(normalized string) (*Entity, error) {
	var e Entity
	err := db.QueryRow(
		"SELECT "+entityCols+" FROM entities WHERE normalized = ? ORDER BY mention_count DESC, id LIMIT 1",
		normalized,
	).Scan(&e.ID, &e.Name, &e.Normalized, &e.Type, &e.MentionCount, &e.FirstSeen, &e.LastSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entity by normalized: %w", err)
	}
	return &e, nil
}

// GetEntitiesByIDs returns entities for the given list of IDs.
func (db *DB) GetEntitiesByIDs(ids []int64) ([]Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := db.Query(
		"SELECT "+entityCols+" FROM entities WHERE id IN ("+strings.Join(placeholders, ",")+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("get entities by ids: %w", err)
	}
	defer rows.Close()

	var out []Entity
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.Normalized, &e.Type, &e.MentionCount, &e.FirstSeen, &e.LastSeen); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
