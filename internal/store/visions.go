package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"envision/internal/vision"
)

var _ vision.Repository = (*Store)(nil)

// CreateVision inserts a new session row.
func (s *Store) CreateVision(ctx context.Context, session *vision.Session) error {
	categories := session.Categories
	if categories == nil {
		categories = []string{}
	}
	categoriesJSON, err := encodeJSON(categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	_, err = s.execWithRetry(ctx,
		`INSERT INTO visions (`+visionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.Title,
		categoriesJSON,
		session.OverallCompleteness,
		nullableString(session.Summary),
		nullableString(session.Tagline),
		string(session.Status),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert vision: %w", err)
	}
	return nil
}

// GetVision loads a session with its ordered responses and category states.
// It returns (nil, nil) when the session does not exist.
func (s *Store) GetVision(ctx context.Context, id string) (*vision.Session, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+visionColumns+` FROM visions WHERE id = ?`, id)
	session, err := scanVision(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vision: %w", err)
	}

	responses, err := s.loadResponses(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Responses = responses
	session.ResponseCount = len(responses)

	states, err := s.loadStates(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	for category, state := range states[id] {
		session.CategoryStates[category] = state
	}
	return session, nil
}

// ListVisions returns sessions with at least one response, newest first.
// Category states are loaded; responses are only counted. An empty userID
// lists every user's sessions.
func (s *Store) ListVisions(ctx context.Context, userID string) ([]*vision.Session, error) {
	ctx = ensureContext(ctx)
	query := `SELECT v.id, v.user_id, v.title, v.categories_json, v.overall_completeness, v.summary, v.tagline,
		v.status, v.created_at, v.updated_at, COUNT(r.seq)
		FROM visions v JOIN responses r ON r.vision_id = v.id`
	var args []any
	if userID != "" {
		query += ` WHERE v.user_id = ?`
		args = append(args, userID)
	}
	query += ` GROUP BY v.id ORDER BY v.created_at DESC, v.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list visions: %w", err)
	}
	var (
		sessions []*vision.Session
		ids      []string
	)
	for rows.Next() {
		var count int
		session, err := scanVision(rows, &count)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan vision: %w", err)
		}
		session.ResponseCount = count
		sessions = append(sessions, session)
		ids = append(ids, session.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(ids) == 0 {
		return []*vision.Session{}, nil
	}
	states, err := s.loadStates(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		for category, state := range states[session.ID] {
			session.CategoryStates[category] = state
		}
	}
	return sessions, nil
}

// DeleteVision removes a session; responses and states cascade.
func (s *Store) DeleteVision(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM visions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete vision: %w", err)
	}
	return requireAffected(res)
}

// UpdateTitle stores a generated title and its category labels.
func (s *Store) UpdateTitle(ctx context.Context, id, title string, categories []string, now time.Time) error {
	if categories == nil {
		categories = []string{}
	}
	categoriesJSON, err := encodeJSON(categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE visions SET title = ?, categories_json = ?, updated_at = ? WHERE id = ?`,
		title, categoriesJSON, formatTime(now), id,
	)
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	return requireAffected(res)
}

// UpdateSummary stores a generated summary and tagline.
func (s *Store) UpdateSummary(ctx context.Context, id, summary, tagline string, now time.Time) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE visions SET summary = ?, tagline = ?, updated_at = ? WHERE id = ?`,
		summary, tagline, formatTime(now), id,
	)
	if err != nil {
		return fmt.Errorf("update summary: %w", err)
	}
	return requireAffected(res)
}

// UpdateStatus moves a session to status when the transition is allowed from
// its stored status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status vision.Status, now time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT status FROM visions WHERE id = ?`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read status: %w", err)
		}
		if !vision.CanTransition(vision.Status(current), status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE visions SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), formatTime(now), id,
		); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return nil
	})
}
