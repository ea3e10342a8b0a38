package profiles

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL statements of the profiles table.
type Queries struct {
	db DBTX
}

// NewQueries creates queries bound to db.
func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// ProfileRow is a row of the profiles table.
type ProfileRow struct {
	ID               string
	Name             string
	MediaType        string
	SearchProviderID string
	DefaultLocale    string
	SlotConfigs      string
	CreatedAt        string
	UpdatedAt        string
}

const profileColumns = `id, name, media_type, search_provider_id, default_locale, slot_configs, created_at, updated_at`

func scanProfile(row interface{ Scan(...interface{}) error }) (ProfileRow, error) {
	var r ProfileRow
	err := row.Scan(&r.ID, &r.Name, &r.MediaType, &r.SearchProviderID, &r.DefaultLocale, &r.SlotConfigs, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const getProfile = `SELECT ` + profileColumns + ` FROM profiles WHERE id = ?`

func (q *Queries) GetProfile(ctx context.Context, id string) (ProfileRow, error) {
	return scanProfile(q.db.QueryRowContext(ctx, getProfile, id))
}

const listProfiles = `SELECT ` + profileColumns + ` FROM profiles ORDER BY media_type, name, id`

func (q *Queries) ListProfiles(ctx context.Context) ([]ProfileRow, error) {
	return q.list(ctx, listProfiles)
}

const listProfilesByMediaType = `SELECT ` + profileColumns + ` FROM profiles WHERE media_type = ? ORDER BY name, id`

func (q *Queries) ListProfilesByMediaType(ctx context.Context, mediaType string) ([]ProfileRow, error) {
	return q.list(ctx, listProfilesByMediaType, mediaType)
}

func (q *Queries) list(ctx context.Context, query string, args ...interface{}) ([]ProfileRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ProfileRow
	for rows.Next() {
		r, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertProfile = `INSERT INTO profiles (` + profileColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    media_type = excluded.media_type,
    search_provider_id = excluded.search_provider_id,
    default_locale = excluded.default_locale,
    slot_configs = excluded.slot_configs,
    updated_at = excluded.updated_at`

func (q *Queries) UpsertProfile(ctx context.Context, r ProfileRow) error {
	_, err := q.db.ExecContext(ctx, upsertProfile,
		r.ID, r.Name, r.MediaType, r.SearchProviderID, r.DefaultLocale, r.SlotConfigs, r.CreatedAt, r.UpdatedAt)
	return err
}

const insertProfileIfAbsent = `INSERT INTO profiles (` + profileColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING`

// InsertProfileIfAbsent inserts the row unless the id exists and reports whether it inserted.
func (q *Queries) InsertProfileIfAbsent(ctx context.Context, r ProfileRow) (bool, error) {
	res, err := q.db.ExecContext(ctx, insertProfileIfAbsent,
		r.ID, r.Name, r.MediaType, r.SearchProviderID, r.DefaultLocale, r.SlotConfigs, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const deleteProfile = `DELETE FROM profiles WHERE id = ?`

// DeleteProfile deletes the row and reports whether it existed.
func (q *Queries) DeleteProfile(ctx context.Context, id string) (bool, error) {
	res, err := q.db.ExecContext(ctx, deleteProfile, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
