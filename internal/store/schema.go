// Package store implements the relational persistence layer: schema
// initialization, repositories for every domain entity, and the artifact
// vector index. Dual SQLite driver support is grounded on the teacher's
// internal/store package: mattn/go-sqlite3 + asg017/sqlite-vec-go-bindings
// under the sqlite_vec,cgo build tag for the native cosine distance function
// (init_vec.go, kept verbatim), and modernc.org/sqlite + an in-process
// vector_distance_cos compatibility shim (vec_compat.go, kept and exercised
// here) for the default no-cgo path.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"taskforge/internal/domain"
)

// CurrentSchemaVersion is bumped whenever a migration in migrations.go adds
// a table or column.
const CurrentSchemaVersion = 1

const schemaDDL = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS prds (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	title TEXT NOT NULL,
	objectives_json TEXT NOT NULL,
	tech_stack_json TEXT NOT NULL,
	constraints_json TEXT NOT NULL,
	raw_content TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	assignee TEXT,
	due_date TEXT,
	status TEXT NOT NULL,
	source_prd_id TEXT,
	parent_task_id TEXT,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	enhancements_json TEXT,
	comprehension_tests_json TEXT,
	subtask_ids_json TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS task_revisions (
	revision_id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL REFERENCES tasks(id),
	timestamp TEXT NOT NULL,
	change_description TEXT NOT NULL,
	previous_state_json TEXT
);

CREATE TABLE IF NOT EXISTS personas (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	role TEXT NOT NULL,
	description TEXT NOT NULL,
	is_default INTEGER NOT NULL DEFAULT 0,
	project_id TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS agent_tools (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	risk_level TEXT NOT NULL,
	is_default INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS persona_tools (
	persona_id TEXT NOT NULL REFERENCES personas(id),
	tool_id TEXT NOT NULL REFERENCES agent_tools(id),
	enabled INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (persona_id, tool_id)
);

CREATE TABLE IF NOT EXISTS artifacts (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	source_id TEXT NOT NULL,
	source_type TEXT NOT NULL,
	content TEXT NOT NULL,
	metadata_json TEXT,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS artifacts_vec (
	artifact_id TEXT PRIMARY KEY,
	embedding BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
`

// InitSchema creates every table if absent and seeds default rows.
// Idempotent: repeated calls on the same store never duplicate seed rows
// (spec §4.1, §8 invariant 8).
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("%w: creating schema: %v", domain.ErrPersistence, err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		return err
	}
	if err := seedAgentTools(ctx, db); err != nil {
		return err
	}
	return nil
}
