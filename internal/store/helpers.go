package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"envision/internal/css"
	"envision/internal/lexicon"
	"envision/internal/vision"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const visionColumns = "id, user_id, title, categories_json, overall_completeness, summary, tagline, status, created_at, updated_at"

const stateColumns = "vision_id, category, css, coverage_hits_json, coverage_required, coverage_met, subscores_json, decision_band, weakest_signal, last_scored_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVision(scanner rowScanner, extra ...any) (*vision.Session, error) {
	var (
		session        vision.Session
		categoriesJSON string
		summary        sql.NullString
		tagline        sql.NullString
		status         string
		createdRaw     string
		updatedRaw     string
	)
	dest := []any{
		&session.ID,
		&session.UserID,
		&session.Title,
		&categoriesJSON,
		&session.OverallCompleteness,
		&summary,
		&tagline,
		&status,
		&createdRaw,
		&updatedRaw,
	}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	session.Status = vision.Status(status)
	if summary.Valid {
		session.Summary = &summary.String
	}
	if tagline.Valid {
		session.Tagline = &tagline.String
	}
	session.Categories = []string{}
	if err := json.Unmarshal([]byte(categoriesJSON), &session.Categories); err != nil {
		return nil, fmt.Errorf("decode categories of %s: %w", session.ID, err)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		session.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		session.UpdatedAt = updated
	}
	session.CategoryStates = make(map[lexicon.Category]vision.CategoryState)
	session.Responses = []vision.Response{}
	return &session, nil
}

func scanState(scanner rowScanner) (string, lexicon.Category, vision.CategoryState, error) {
	var (
		visionID      string
		category      string
		state         vision.CategoryState
		hitsJSON      string
		met           int
		subscoresJSON string
		band          string
		weakest       string
		scoredRaw     sql.NullString
	)
	if err := scanner.Scan(
		&visionID,
		&category,
		&state.CSS,
		&hitsJSON,
		&state.Coverage.Required,
		&met,
		&subscoresJSON,
		&band,
		&weakest,
		&scoredRaw,
	); err != nil {
		return "", "", state, err
	}
	state.Coverage.Met = met != 0
	state.DecisionBand = css.Band(band)
	state.WeakestSignal = css.Signal(weakest)
	state.Coverage.Hits = []string{}
	if err := json.Unmarshal([]byte(hitsJSON), &state.Coverage.Hits); err != nil {
		return "", "", state, fmt.Errorf("decode coverage hits: %w", err)
	}
	if err := json.Unmarshal([]byte(subscoresJSON), &state.Subscores); err != nil {
		return "", "", state, fmt.Errorf("decode subscores: %w", err)
	}
	if scoredRaw.Valid {
		if scored, err := parseTimeString(scoredRaw.String); err == nil {
			state.LastScoredAt = &scored
		}
	}
	return visionID, lexicon.Category(category), state, nil
}

func encodeJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
