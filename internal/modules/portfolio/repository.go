package portfolio

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// SavedPortfolio is the metadata of a stored snapshot.
type SavedPortfolio struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository stores named portfolio snapshots in SQLite. The document is
// serialized with msgpack so nil cost bases survive the round trip
// untouched.
type Repository struct {
	db *sql.DB
}

// NewRepository creates the repository and its schema.
func NewRepository(db *sql.DB) (*Repository, error) {
	const schema = `
	CREATE TABLE IF NOT EXISTS portfolios (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		snapshot   BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create portfolios schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// Save stores the document under the given name, replacing any previous
// snapshot with that name. It returns the snapshot id.
func (r *Repository) Save(ctx context.Context, name string, doc Document) (string, error) {
	blob, err := msgpack.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode portfolio snapshot: %w", err)
	}

	now := time.Now().Unix()
	var id string
	err = r.db.QueryRowContext(ctx, `SELECT id FROM portfolios WHERE name = ?`, name).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		id = uuid.NewString()
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO portfolios (id, name, snapshot, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			id, name, blob, now, now)
	case err == nil:
		_, err = r.db.ExecContext(ctx,
			`UPDATE portfolios SET snapshot = ?, updated_at = ? WHERE id = ?`,
			blob, now, id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to save portfolio %s: %w", name, err)
	}
	return id, nil
}

// Load fetches a stored snapshot by name.
func (r *Repository) Load(ctx context.Context, name string) (Document, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx, `SELECT snapshot FROM portfolios WHERE name = ?`, name).Scan(&blob)
	if err == sql.ErrNoRows {
		return Document{}, fmt.Errorf("portfolio %s not found", name)
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to load portfolio %s: %w", name, err)
	}

	var doc Document
	if err := msgpack.Unmarshal(blob, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode portfolio snapshot %s: %w", name, err)
	}
	return doc, nil
}

// List returns the stored snapshots' metadata, newest first.
func (r *Repository) List(ctx context.Context) ([]SavedPortfolio, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM portfolios ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	var out []SavedPortfolio
	for rows.Next() {
		var sp SavedPortfolio
		var created, updated int64
		if err := rows.Scan(&sp.ID, &sp.Name, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio row: %w", err)
		}
		sp.CreatedAt = time.Unix(created, 0).UTC()
		sp.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, sp)
	}
	return out, rows.Err()
}

// Delete removes a stored snapshot by name.
func (r *Repository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM portfolios WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("portfolio %s not found", name)
	}
	return nil
}
