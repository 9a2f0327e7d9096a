package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"envision/internal/lexicon"
	"envision/internal/vision"
)

// SaveScoredResponse appends the response, replaces the touched category
// states and stores the new completeness in a single transaction.
func (s *Store) SaveScoredResponse(ctx context.Context, scored vision.ScoredResponse) error {
	ctx = ensureContext(ctx)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM visions WHERE id = ?`, scored.VisionID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check vision: %w", err)
		}

		r := scored.Response
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO responses (id, vision_id, category, question, answer, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, scored.VisionID, string(r.Category), r.Question, r.Answer, formatTime(r.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert response: %w", err)
		}

		for _, category := range lexicon.Categories() {
			state, ok := scored.States[category]
			if !ok {
				continue
			}
			if err := upsertState(ctx, tx, scored.VisionID, category, state); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE visions SET overall_completeness = ?, updated_at = ? WHERE id = ?`,
			scored.OverallCompleteness, formatTime(scored.UpdatedAt), scored.VisionID,
		); err != nil {
			return fmt.Errorf("update completeness: %w", err)
		}
		return nil
	})
}

func upsertState(ctx context.Context, tx *sql.Tx, visionID string, category lexicon.Category, state vision.CategoryState) error {
	hits := state.Coverage.Hits
	if hits == nil {
		hits = []string{}
	}
	hitsJSON, err := encodeJSON(hits)
	if err != nil {
		return fmt.Errorf("encode coverage hits: %w", err)
	}
	subscoresJSON, err := encodeJSON(state.Subscores)
	if err != nil {
		return fmt.Errorf("encode subscores: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO category_states (`+stateColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(vision_id, category) DO UPDATE SET
			css = excluded.css,
			coverage_hits_json = excluded.coverage_hits_json,
			coverage_required = excluded.coverage_required,
			coverage_met = excluded.coverage_met,
			subscores_json = excluded.subscores_json,
			decision_band = excluded.decision_band,
			weakest_signal = excluded.weakest_signal,
			last_scored_at = excluded.last_scored_at`,
		visionID,
		string(category),
		state.CSS,
		hitsJSON,
		state.Coverage.Required,
		boolToInt(state.Coverage.Met),
		subscoresJSON,
		string(state.DecisionBand),
		string(state.WeakestSignal),
		nullableTime(state.LastScoredAt),
	)
	if err != nil {
		return fmt.Errorf("upsert %s state: %w", category, err)
	}
	return nil
}

func (s *Store) loadResponses(ctx context.Context, visionID string) ([]vision.Response, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, vision_id, category, question, answer, created_at FROM responses WHERE vision_id = ? ORDER BY seq`,
		visionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	defer rows.Close()

	responses := []vision.Response{}
	for rows.Next() {
		var (
			r          vision.Response
			category   string
			createdRaw string
		)
		if err := rows.Scan(&r.ID, &r.VisionID, &category, &r.Question, &r.Answer, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		r.Category = lexicon.Category(category)
		if created, err := parseTimeString(createdRaw); err == nil {
			r.CreatedAt = created
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

func (s *Store) loadStates(ctx context.Context, visionIDs []string) (map[string]map[lexicon.Category]vision.CategoryState, error) {
	args := make([]any, len(visionIDs))
	for i, id := range visionIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+stateColumns+` FROM category_states WHERE vision_id IN (`+makePlaceholders(len(visionIDs))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("load category states: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[lexicon.Category]vision.CategoryState, len(visionIDs))
	for rows.Next() {
		visionID, category, state, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category state: %w", err)
		}
		if out[visionID] == nil {
			out[visionID] = make(map[lexicon.Category]vision.CategoryState)
		}
		out[visionID][category] = state
	}
	return out, rows.Err()
}
