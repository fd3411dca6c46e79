// Package store persists board descriptors so games survive a restart.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benbeisheim/chessrules-backend/internal/model"
	_ "github.com/mattn/go-sqlite3"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and prepares the snapshot table.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer; sqlite serialises writes anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS board_snapshots (
			game_id TEXT PRIMARY KEY,
			descriptor TEXT NOT NULL,
			plies INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save upserts the snapshot. A snapshot with fewer plies than the stored one is ignored.
func (s *SQLiteStore) Save(ctx context.Context, snapshot model.Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO board_snapshots (game_id, descriptor, plies, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			descriptor = excluded.descriptor,
			plies = excluded.plies,
			updated_at = excluded.updated_at
		WHERE excluded.plies >= board_snapshots.plies
	`, snapshot.GameID, snapshot.Descriptor, snapshot.Plies, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snapshot.GameID, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, gameID string) (model.Snapshot, error) {
	snapshot := model.Snapshot{GameID: gameID}
	err := s.db.QueryRowContext(ctx, "SELECT descriptor, plies FROM board_snapshots WHERE game_id = ?", gameID).
		Scan(&snapshot.Descriptor, &snapshot.Plies)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, fmt.Errorf("game %s: %w", gameID, ErrSnapshotNotFound)
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load snapshot %s: %w", gameID, err)
	}
	return snapshot, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
