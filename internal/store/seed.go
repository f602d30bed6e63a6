package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"taskforge/internal/domain"
)

// seedTool is one row of the fixed agent_tools seed set.
type seedTool struct {
	Name      string
	Category  domain.ToolCategory
	RiskLevel domain.RiskLevel
	IsDefault bool
}

// agentToolSeeds is the fixed 15-row seed set required by spec §6: exactly
// 15 rows across categories {Development:6, Research:3, FileSystem:3,
// Database:2, Network:1} and risk levels {Safe:6, Moderate:5, High:4}, with
// 6 rows carrying is_default=true.
var agentToolSeeds = []seedTool{
	{"code_search", domain.CategoryDevelopment, domain.RiskSafe, true},
	{"lint_code", domain.CategoryDevelopment, domain.RiskSafe, true},
	{"format_code", domain.CategoryDevelopment, domain.RiskSafe, false},
	{"run_tests", domain.CategoryDevelopment, domain.RiskModerate, true},
	{"build_project", domain.CategoryDevelopment, domain.RiskModerate, false},
	{"git_commit", domain.CategoryDevelopment, domain.RiskHigh, false},

	{"web_search", domain.CategoryResearch, domain.RiskSafe, true},
	{"fetch_url", domain.CategoryResearch, domain.RiskModerate, false},
	{"scrape_page", domain.CategoryResearch, domain.RiskHigh, false},

	{"list_directory", domain.CategoryFileSystem, domain.RiskSafe, true},
	{"read_file", domain.CategoryFileSystem, domain.RiskModerate, false},
	{"write_file", domain.CategoryFileSystem, domain.RiskModerate, false},

	{"query_database", domain.CategoryDatabase, domain.RiskSafe, true},
	{"migrate_schema", domain.CategoryDatabase, domain.RiskHigh, false},

	{"open_socket", domain.CategoryNetwork, domain.RiskHigh, false},
}

// seedAgentTools inserts the fixed tool set if the table is empty. Idempotent
// by construction: a non-zero row count short-circuits the insert.
func seedAgentTools(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM agent_tools`).Scan(&count); err != nil {
		return fmt.Errorf("%w: counting agent_tools: %v", domain.ErrPersistence, err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin seed tx: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback()

	for _, s := range agentToolSeeds {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO agent_tools(id, name, category, risk_level, is_default) VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), s.Name, string(s.Category), string(s.RiskLevel), s.IsDefault)
		if err != nil {
			return fmt.Errorf("%w: seeding agent_tool %s: %v", domain.ErrPersistence, s.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing seed tx: %v", domain.ErrPersistence, err)
	}
	return nil
}
