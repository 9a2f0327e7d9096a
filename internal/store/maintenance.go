package store

import (
	"context"
	"fmt"
	"time"

	"envision/internal/vision"
)

// Health summarizes the database for diagnostics.
type Health struct {
	Path          string
	SchemaVersion int
	Visions       int
	Responses     int
	ByStatus      map[vision.Status]int
}

// PruneEmpty deletes sessions without any response created before cutoff.
func (s *Store) PruneEmpty(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM visions WHERE created_at < ?
			AND NOT EXISTS (SELECT 1 FROM responses r WHERE r.vision_id = visions.id)`,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("prune empty visions: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

// Stats counts sessions grouped by status.
func (s *Store) Stats(ctx context.Context) (map[vision.Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM visions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("vision stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[vision.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[vision.Status(status)] = count
	}
	return stats, rows.Err()
}

// CheckHealth pings the database and gathers row counts.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	ctx = ensureContext(ctx)
	health := Health{Path: s.path}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(pingCtx); err != nil {
		return health, fmt.Errorf("ping database: %w", err)
	}
	if err := s.db.QueryRowContext(pingCtx, `SELECT version FROM schema_version LIMIT 1`).Scan(&health.SchemaVersion); err != nil {
		return health, fmt.Errorf("read schema version: %w", err)
	}
	if err := s.db.QueryRowContext(pingCtx, `SELECT COUNT(1) FROM visions`).Scan(&health.Visions); err != nil {
		return health, fmt.Errorf("count visions: %w", err)
	}
	if err := s.db.QueryRowContext(pingCtx, `SELECT COUNT(1) FROM responses`).Scan(&health.Responses); err != nil {
		return health, fmt.Errorf("count responses: %w", err)
	}
	stats, err := s.Stats(pingCtx)
	if err != nil {
		return health, err
	}
	health.ByStatus = stats
	return health, nil
}
