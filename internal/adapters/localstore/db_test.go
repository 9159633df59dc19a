package localstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/senpai-bg/senpai-client/internal/adapters/memorybus"
)

// Rouvrir la même base ne doit ni rejouer le schéma ni perdre les clés.
func TestOpen_SchemaSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "senpai.db")

	db, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store := NewStore(db.SQL, memorybus.New(), zerolog.Nop())
	if err := store.SetWatchSessionID(ctx, "s1"); err != nil {
		t.Fatalf("SetWatchSessionID: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var version int
	if err := db.SQL.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		t.Fatalf("user_version: %v", err)
	}
	if version != schemaVersion {
		t.Fatalf("user_version: want %d, got %d", schemaVersion, version)
	}
	store = NewStore(db.SQL, memorybus.New(), zerolog.Nop())
	if id, err := store.WatchSessionID(ctx); err != nil || id != "s1" {
		t.Fatalf("persisted key lost across reopen: %q %v", id, err)
	}
}
