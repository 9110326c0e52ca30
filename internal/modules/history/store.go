// Package history persists daily bars in SQLite and serves price
// resolution out of the stored data.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ysncmn/borsapy/internal/domain"
)

// Store persists daily bars keyed by symbol, asset class and date.
// Re-saving a date overwrites the stored bar, so refresh jobs can replay
// overlapping windows.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates the store and its schema.
func NewStore(db *sql.DB, log zerolog.Logger) (*Store, error) {
	const schema = `
	CREATE TABLE IF NOT EXISTS bars (
		symbol      TEXT NOT NULL,
		asset_class TEXT NOT NULL,
		date        INTEGER NOT NULL,
		open        REAL NOT NULL,
		high        REAL NOT NULL,
		low         REAL NOT NULL,
		close       REAL NOT NULL,
		volume      REAL,
		PRIMARY KEY (symbol, asset_class, date)
	);
	CREATE INDEX IF NOT EXISTS idx_bars_date ON bars(date);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create bars schema: %w", err)
	}
	return &Store{db: db, log: log.With().Str("store", "history").Logger()}, nil
}

// SaveSeries upserts every bar of the series in one transaction.
func (s *Store) SaveSeries(ctx context.Context, series domain.Series) error {
	if series.Empty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, asset_class, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare bar insert: %w", err)
	}
	defer stmt.Close()

	for _, bar := range series.Bars {
		var volume interface{}
		if bar.Volume != nil {
			volume = *bar.Volume
		}
		_, err := stmt.ExecContext(ctx,
			series.Symbol, string(series.AssetClass), bar.Time.UTC().Unix(),
			bar.Open, bar.High, bar.Low, bar.Close, volume)
		if err != nil {
			return fmt.Errorf("failed to insert bar for %s: %w", series.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bars for %s: %w", series.Symbol, err)
	}

	s.log.Debug().Str("symbol", series.Symbol).Int("bars", series.Len()).Msg("Saved series")
	return nil
}

// GetSeries returns the stored bars for the symbol over the period, in
// ascending date order.
func (s *Store) GetSeries(ctx context.Context, symbol string, class domain.AssetClass, period domain.Period) (domain.Series, error) {
	series := domain.Series{Symbol: symbol, AssetClass: class, Interval: domain.Interval1d}

	query := `SELECT date, open, high, low, close, volume FROM bars
		WHERE symbol = ? AND asset_class = ?`
	args := []interface{}{symbol, string(class)}
	if start, bounded := period.Start(time.Now().UTC()); bounded {
		query += ` AND date >= ?`
		args = append(args, start.Unix())
	}
	query += ` ORDER BY date ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return series, fmt.Errorf("failed to query bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ts int64
		var bar domain.Bar
		var volume sql.NullFloat64
		if err := rows.Scan(&ts, &bar.Open, &bar.High, &bar.Low, &bar.Close, &volume); err != nil {
			return series, fmt.Errorf("failed to scan bar for %s: %w", symbol, err)
		}
		bar.Time = time.Unix(ts, 0).UTC()
		if volume.Valid {
			bar.Volume = &volume.Float64
		}
		series.Bars = append(series.Bars, bar)
	}
	return series, rows.Err()
}

// LastDate returns the most recent stored bar date for the symbol, or
// false when nothing is stored.
func (s *Store) LastDate(ctx context.Context, symbol string, class domain.AssetClass) (time.Time, bool, error) {
	var ts sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(date) FROM bars WHERE symbol = ? AND asset_class = ?`,
		symbol, string(class)).Scan(&ts)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query last date for %s: %w", symbol, err)
	}
	if !ts.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(ts.Int64, 0).UTC(), true, nil
}

// DeleteOlderThan removes bars before the cutoff and returns the count.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bars WHERE date < ?`, cutoff.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune bars: %w", err)
	}
	return res.RowsAffected()
}
