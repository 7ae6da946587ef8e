package store

import (
	"context"
	"database/sql"
	"strings"
)

// schema contains the DDL for all tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS builds (
		id                TEXT PRIMARY KEY,
		app_guid          TEXT NOT NULL DEFAULT '',
		package_guid      TEXT NOT NULL DEFAULT '',
		lifecycle_type    TEXT NOT NULL,
		state             TEXT NOT NULL DEFAULT 'STAGING',
		error_id          TEXT NOT NULL DEFAULT '',
		error_description TEXT NOT NULL DEFAULT '',
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS droplets (
		id                 TEXT PRIMARY KEY,
		build_id           TEXT NOT NULL UNIQUE REFERENCES builds(id),
		app_guid           TEXT NOT NULL DEFAULT '',
		state              TEXT NOT NULL DEFAULT 'STAGING',
		lifecycle_type     TEXT NOT NULL,
		execution_metadata TEXT NOT NULL DEFAULT '',
		process_types      TEXT NOT NULL DEFAULT '{}',
		buildpack_key      TEXT NOT NULL DEFAULT '',
		detected_buildpack TEXT NOT NULL DEFAULT '',
		buildpacks         TEXT NOT NULL DEFAULT '[]',
		error_description  TEXT NOT NULL DEFAULT '',
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id             TEXT PRIMARY KEY,
		app_guid       TEXT NOT NULL DEFAULT '',
		name           TEXT NOT NULL DEFAULT '',
		command        TEXT NOT NULL DEFAULT '',
		droplet_guid   TEXT NOT NULL DEFAULT '',
		state          TEXT NOT NULL DEFAULT 'PENDING',
		memory_mb      INTEGER NOT NULL DEFAULT 0,
		disk_mb        INTEGER NOT NULL DEFAULT 0,
		result         TEXT NOT NULL DEFAULT '',
		failure_reason TEXT NOT NULL DEFAULT '',
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL,
		completed_at   TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_builds_state ON builds(state)`,
	`CREATE INDEX IF NOT EXISTS idx_builds_app ON builds(app_guid)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_state ON tasks(state)`,
}

// alterStatements add columns introduced after the initial schema.
var alterStatements = []struct {
	table    string
	column   string
	alterSQL string
	indexSQL string
}{
	{
		table:    "builds",
		column:   "stack",
		alterSQL: "ALTER TABLE builds ADD COLUMN stack TEXT NOT NULL DEFAULT ''",
	},
}

// migrate executes all schema DDL statements and alter migrations.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for _, alter := range alterStatements {
		if err := addColumnIfNotExists(ctx, db, alter.table, alter.column, alter.alterSQL); err != nil {
			return err
		}
		if alter.indexSQL != "" {
			if _, err := db.ExecContext(ctx, alter.indexSQL); err != nil {
				return err
			}
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(ctx context.Context, db *sql.DB, table, column, alterSQL string) error {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue *string
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if strings.EqualFold(name, column) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = db.ExecContext(ctx, alterSQL)
	return err
}
