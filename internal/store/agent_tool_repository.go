package store

import (
	"context"
	"fmt"

	"taskforge/internal/domain"
)

// FindAgentTools returns AgentTools matching filter, ordered by name.
func (s *LocalStore) FindAgentTools(ctx context.Context, filter domain.AgentToolFilter) ([]domain.AgentTool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, name, category, risk_level, is_default FROM agent_tools`
	var args []any
	switch filter.Kind {
	case domain.AgentToolFilterByID:
		query += " WHERE id = ?"
		args = append(args, filter.ID)
	case domain.AgentToolFilterByCategory:
		query += " WHERE category = ?"
		args = append(args, string(filter.Category))
	case domain.AgentToolFilterByRiskLevel:
		query += " WHERE risk_level = ?"
		args = append(args, string(filter.RiskLevel))
	case domain.AgentToolFilterDefaultOnly:
		query += " WHERE is_default = 1"
	}
	query += " ORDER BY name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: finding agent_tools: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var out []domain.AgentTool
	for rows.Next() {
		var t domain.AgentTool
		var category, riskLevel string
		if err := rows.Scan(&t.ID, &t.Name, &category, &riskLevel, &t.IsDefault); err != nil {
			return nil, fmt.Errorf("%w: scanning agent_tool row: %v", domain.ErrPersistence, err)
		}
		t.Category = domain.ToolCategory(category)
		t.RiskLevel = domain.RiskLevel(riskLevel)
		out = append(out, t)
	}
	return out, rows.Err()
}
