package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Le schéma se résume à une table clé/valeur: l'équivalent du localStorage.
// La version est suivie via PRAGMA user_version, pas besoin d'un vrai moteur
// de migrations pour un kv.
const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS storage (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

type DB struct {
	SQL *sql.DB
}

func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Une seule connexion: sqlite n'aime pas les écrivains concurrents.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctxPing, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctxPing); err != nil {
		_ = db.Close()
		return nil, err
	}

	wrapper := &DB{SQL: db}
	if err := wrapper.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return wrapper, nil
}

func (d *DB) Close() error {
	return d.SQL.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	var current int
	if err := d.SQL.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}
	if _, err := d.SQL.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("storage schema: %w", err)
	}
	// PRAGMA n'accepte pas de placeholder.
	if _, err := d.SQL.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return err
	}
	return nil
}
