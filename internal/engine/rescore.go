package engine

import (
	"context"
	"math"
	"time"
)

// Rescore recomputes every memory's importance from the live graph. The
// structural terms (mention mass, relations touched) are re-derived so edge
// reinforcement and new mentions feed back into older memories, and the
// recency term decays with a configured half-life since last access
// (creation when never accessed). A retrieval resets the clock via
// TouchMemory, so recently-read memories stay near their full score.
//
// Runs at server startup and daily, plus explicitly via the rescore command.
// Returns the number of memories whose score changed.
func (e *Engine) Rescore(ctx context.Context) (int, error) {
	memories, err := e.DB.ListMemories()
	if err != nil {
		return 0, err
	}

	now := time.Now().UnixMilli()
	halfLifeMs := e.cfg.Scoring.RecencyHalfLifeDays * 24 * 60 * 60 * 1000
	updated := 0

	for _, m := range memories {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		mentionSum, err := e.DB.MentionSum(m.ID)
		if err != nil {
			return updated, err
		}
		relations, err := e.DB.RelationCount(m.ID)
		if err != nil {
			return updated, err
		}

		ref := m.CreatedAt
		if m.LastAccessed != nil {
			ref = *m.LastAccessed
		}
		elapsed := float64(now - ref)
		if elapsed < 0 {
			elapsed = 0
		}
		factor := math.Pow(0.5, elapsed/halfLifeMs)

		score := e.importance(mentionSum, relations, factor)
		if math.Abs(score-m.Importance) < 1e-9 {
			continue
		}
		if err := e.DB.UpdateImportance(m.ID, score); err != nil {
			return updated, err
		}
		updated++
	}

	return updated, nil
}
