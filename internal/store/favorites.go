package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// FavoritesStore persists per-event favorite flags in SQLite so they
// survive restarts. SQLite access is serialized over one connection.
type FavoritesStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenFavorites opens (creating if needed) the favorites database at
// the given path. Use ":memory:" for an ephemeral store.
func OpenFavorites(ctx context.Context, path string, logger *slog.Logger) (*FavoritesStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open favorites database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	const schema = `
CREATE TABLE IF NOT EXISTS favorites (
	event_id   TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create favorites schema: %w", err)
	}
	return &FavoritesStore{db: db, logger: logger}, nil
}

// Close releases the underlying database.
func (s *FavoritesStore) Close() error { return s.db.Close() }

// Set records or clears the favorite flag for an event.
func (s *FavoritesStore) Set(ctx context.Context, eventID string, favorite bool) error {
	var err error
	if favorite {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO favorites (event_id) VALUES (?) ON CONFLICT (event_id) DO NOTHING`, eventID)
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM favorites WHERE event_id = ?`, eventID)
	}
	if err != nil {
		return fmt.Errorf("failed to update favorite for %s: %w", eventID, err)
	}
	s.logger.Debug("favorite updated", "event_id", eventID, "favorite", favorite)
	return nil
}

// IsFavorite reports whether an event is flagged.
func (s *FavoritesStore) IsFavorite(ctx context.Context, eventID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM favorites WHERE event_id = ?`, eventID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query favorite for %s: %w", eventID, err)
	}
	return true, nil
}

// All returns the ids of every flagged event.
func (s *FavoritesStore) All(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event_id FROM favorites ORDER BY event_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}
	return ids, nil
}
