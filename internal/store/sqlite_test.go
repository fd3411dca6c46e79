package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/benbeisheim/chessrules-backend/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadSnapshot(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	saves := []model.Snapshot{
		{GameID: "g1", Descriptor: "first", Plies: 0},
		{GameID: "g1", Descriptor: "second", Plies: 1},
		{GameID: "g2", Descriptor: "other", Plies: 4},
	}
	for _, snap := range saves {
		if err := s.Save(ctx, snap); err != nil {
			t.Fatalf("Save(%+v): %v", snap, err)
		}
	}

	got, err := s.Load(ctx, "g1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != saves[1] {
		t.Fatalf("Load(g1) = %+v, want %+v", got, saves[1])
	}
	if got, _ := s.Load(ctx, "g2"); got != saves[2] {
		t.Fatalf("Load(g2) = %+v, want %+v", got, saves[2])
	}
}

func TestSaveIgnoresOlderSnapshot(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	newer := model.Snapshot{GameID: "g1", Descriptor: "after two moves", Plies: 2}
	if err := s.Save(ctx, newer); err != nil {
		t.Fatalf("Save newer: %v", err)
	}
	if err := s.Save(ctx, model.Snapshot{GameID: "g1", Descriptor: "after one move", Plies: 1}); err != nil {
		t.Fatalf("Save older: %v", err)
	}
	if got, err := s.Load(ctx, "g1"); err != nil || got != newer {
		t.Fatalf("Load = %+v, %v, want %+v", got, err, newer)
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Load(context.Background(), "nope"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("Load error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestSnapshotsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshots.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	snap := model.Snapshot{GameID: "g1", Descriptor: "board", Plies: 3}
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if got, err := reopened.Load(ctx, "g1"); err != nil || got != snap {
		t.Fatalf("Load after reopen = %+v, %v", got, err)
	}
}
