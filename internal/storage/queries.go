package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sungwon/notify-mailer/internal/metrics"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs the settings statements against a DBTX.
type Queries struct {
	db DBTX
}

// New returns Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Setting is one row of site_settings. Value is opaque JSON.
type Setting struct {
	ID        uuid.UUID
	Category  string
	Key       string
	Value     json.RawMessage
	UpdatedAt time.Time
}

const listSettings = `SELECT id, category, key, value, updated_at
FROM site_settings
WHERE category = $1 AND key = $2
ORDER BY updated_at, id`

// ListSettings returns every row stored under (category, key) in the order
// they were last written.
func (q *Queries) ListSettings(ctx context.Context, category, key string) ([]Setting, error) {
	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("list_settings").Observe(time.Since(start).Seconds())
	}()

	rows, err := q.db.Query(ctx, listSettings, category, key)
	if err != nil {
		metrics.DBErrorsTotal.WithLabelValues("list_settings").Inc()
		return nil, fmt.Errorf("query settings %s/%s: %w", category, key, err)
	}
	defer rows.Close()

	var out []Setting
	for rows.Next() {
		var s Setting
		var raw []byte
		if err := rows.Scan(&s.ID, &s.Category, &s.Key, &raw, &s.UpdatedAt); err != nil {
			metrics.DBErrorsTotal.WithLabelValues("list_settings").Inc()
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		s.Value = json.RawMessage(raw)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		metrics.DBErrorsTotal.WithLabelValues("list_settings").Inc()
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return out, nil
}

const insertSetting = `INSERT INTO site_settings (category, key, value)
VALUES ($1, $2, $3)
RETURNING id, category, key, value, updated_at`

// InsertSetting appends a row under (category, key).
func (q *Queries) InsertSetting(ctx context.Context, category, key string, value json.RawMessage) (Setting, error) {
	if !json.Valid(value) {
		return Setting{}, fmt.Errorf("insert setting %s/%s: value is not valid JSON", category, key)
	}

	var s Setting
	var raw []byte
	err := q.db.QueryRow(ctx, insertSetting, category, key, []byte(value)).
		Scan(&s.ID, &s.Category, &s.Key, &raw, &s.UpdatedAt)
	if err != nil {
		metrics.DBErrorsTotal.WithLabelValues("insert_setting").Inc()
		return Setting{}, fmt.Errorf("insert setting %s/%s: %w", category, key, err)
	}
	s.Value = json.RawMessage(raw)
	return s, nil
}

const deleteSettings = `DELETE FROM site_settings WHERE category = $1 AND key = $2`

// DeleteSettings removes every row under (category, key) and reports how
// many were deleted.
func (q *Queries) DeleteSettings(ctx context.Context, category, key string) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteSettings, category, key)
	if err != nil {
		metrics.DBErrorsTotal.WithLabelValues("delete_settings").Inc()
		return 0, fmt.Errorf("delete settings %s/%s: %w", category, key, err)
	}
	return tag.RowsAffected(), nil
}
