package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// Memory is one ingested text unit. Content is immutable after creation;
// access metadata and importance mutate over the memory's life.
type Memory struct {
	ID           string
	Content      string
	Tags         []string
	Importance   float64
	CreatedAt    int64
	LastAccessed *int64
	AccessCount  int
}

const memoryCols = "id, content, tags, importance, created_at, last_accessed, access_count"

// InsertMemory persists a new memory record within the weave transaction.
func (t *Tx) InsertMemory(m *Memory) error {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	_, err := t.tx.Exec(`
		INSERT INTO memories (id, content, tags, importance, created_at, last_accessed, access_count)
		VALUES (?, ?, ?, ?, ?, NULL, 0)
	`, m.ID, m.Content, string(tagsJSON), m.Importance, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert memory %s: %w", m.ID, err)
	}
	return nil
}

// LinkEntity records that a memory mentions an entity. Idempotent per pair.
func (t *Tx) LinkEntity(memoryID string, entityID int64) error {
	_, err := t.tx.Exec(
		"INSERT OR IGNORE INTO memory_entities (memory_id, entity_id) VALUES (?, ?)",
		memoryID, entityID,
	)
	if err != nil {
		return fmt.Errorf("link memory %s to entity %d: %w", memoryID, entityID, err)
	}
	return nil
}

// GetMemory returns a memory by id, or nil if not found.
func (db *DB) GetMemory(id string) (*Memory, error) {
	row := db.QueryRow("SELECT "+memoryCols+" FROM memories WHERE id = ?", id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory %s: %w", id, err)
	}
	return m, nil
}

// ListMemories returns all memories, newest first. The target data scale is
// on-device, so a full scan stays interactive.
func (db *DB) ListMemories() ([]Memory, error) {
	rows, err := db.Query("SELECT " + memoryCols + " FROM memories ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// MemoriesByEntityIDs returns the distinct memories mentioning any of the
// given entities, newest first.
func (db *DB) MemoriesByEntityIDs(ids []int64) ([]Memory, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := db.Query(`
		SELECT DISTINCT m.id, m.content, m.tags, m.importance, m.created_at, m.last_accessed, m.access_count
		FROM memories m
		JOIN memory_entities me ON me.memory_id = m.id
		WHERE me.entity_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY m.created_at DESC, m.id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("memories by entities: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// MemoryEntityIDs returns the ids of all entities a memory mentions.
func (db *DB) MemoryEntityIDs(memoryID string) ([]int64, error) {
	rows, err := db.Query(
		"SELECT entity_id FROM memory_entities WHERE memory_id = ? ORDER BY entity_id",
		memoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("memory entity ids for %s: %w", memoryID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan entity id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MentionSum returns the summed mention_count of a memory's entity set.
// Used by importance rescoring.
func (db *DB) MentionSum(memoryID string) (int, error) {
	var sum int
	err := db.QueryRow(`
		SELECT COALESCE(SUM(e.mention_count), 0)
		FROM memory_entities me
		JOIN entities e ON e.id = me.entity_id
		WHERE me.memory_id = ?
	`, memoryID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("mention sum for %s: %w", memoryID, err)
	}
	return sum, nil
}

// TouchMemory records a retrieval: last_accessed advances and access_count
// increments. Reads cause this durable side effect on purpose, since the
// importance recency term feeds off access history.
func (db *DB) TouchMemory(id string, now int64) error {
	_, err := db.Exec(
		"UPDATE memories SET last_accessed = ?, access_count = access_count + 1 WHERE id = ?",
		now, id,
	)
	if err != nil {
		return fmt.Errorf("touch memory %s: %w", id, err)
	}
	return nil
}

// UpdateImportance overwrites a memory's importance score.
func (db *DB) UpdateImportance(id string, importance float64) error {
	_, err := db.Exec("UPDATE memories SET importance = ? WHERE id = ?", importance, id)
	if err != nil {
		return fmt.Errorf("update importance for %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*Memory, error) {
	var m Memory
	var tagsJSON string
	var lastAccessed sql.NullInt64
	if err := row.Scan(&m.ID, &m.Content, &tagsJSON, &m.Importance, &m.CreatedAt, &lastAccessed, &m.AccessCount); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &m.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", m.ID, err)
	}
	if lastAccessed.Valid {
		m.LastAccessed = &lastAccessed.Int64
	}
	return &m, nil
}

func scanMemories(rows *sql.Rows) ([]Memory, error) {
	var out []Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}
