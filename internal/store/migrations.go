package store

import (
	"context"
	"database/sql"
	"fmt"

	"taskforge/internal/domain"
)

// Migration describes one idempotent ALTER TABLE ADD COLUMN step. Grounded
// on the teacher's internal/store/migrations.go Migration{Table, Column,
// Def} pattern: guarded by tableExists/columnExists so repeated runs never
// fail or duplicate work.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations is empty for schema version 1 (the initial schema
// already carries every column InitSchema needs); it is the landing place
// for future ALTER TABLE steps as CurrentSchemaVersion advances.
var pendingMigrations = []Migration{}

// RunMigrations applies pendingMigrations idempotently, then records
// CurrentSchemaVersion in schema_meta.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	for _, m := range pendingMigrations {
		exists, err := tableExists(ctx, db, m.Table)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		has, err := columnExists(ctx, db, m.Table, m.Column)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: migrating %s.%s: %v", domain.ErrPersistence, m.Table, m.Column, err)
		}
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_meta`).Scan(&count); err != nil {
		return fmt.Errorf("%w: reading schema_meta: %v", domain.ErrPersistence, err)
	}
	if count == 0 {
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_meta(version) VALUES (?)`, CurrentSchemaVersion); err != nil {
			return fmt.Errorf("%w: seeding schema_meta: %v", domain.ErrPersistence, err)
		}
	} else {
		if _, err := db.ExecContext(ctx, `UPDATE schema_meta SET version = ?`, CurrentSchemaVersion); err != nil {
			return fmt.Errorf("%w: updating schema_meta: %v", domain.ErrPersistence, err)
		}
	}
	return nil
}

func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%w: checking table %s: %v", domain.ErrPersistence, name, err)
	}
	return n > 0, nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("%w: checking column %s.%s: %v", domain.ErrPersistence, table, column, err)
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, fmt.Errorf("%w: scanning column info: %v", domain.ErrPersistence, err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
