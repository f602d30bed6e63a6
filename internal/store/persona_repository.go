package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskforge/internal/domain"
)

// SavePersona upserts a Persona by primary key.
func (s *LocalStore) SavePersona(ctx context.Context, p *domain.Persona) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	var projectID sql.NullString
	if p.ProjectID != nil {
		projectID = sql.NullString{String: *p.ProjectID, Valid: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO personas(id, name, role, description, is_default, project_id, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, role=excluded.role, description=excluded.description,
			is_default=excluded.is_default, project_id=excluded.project_id, updated_at=excluded.updated_at`,
		p.ID, p.Name, p.Role, p.Description, p.IsDefault, projectID,
		p.CreatedAt.Format(time.RFC3339Nano), p.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: saving persona %s: %v", domain.ErrPersistence, p.ID, err)
	}
	return nil
}

// FindPersonas returns Personas matching filter.
func (s *LocalStore) FindPersonas(ctx context.Context, filter domain.PersonaFilter) ([]domain.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findPersonasLocked(ctx, filter)
}

func (s *LocalStore) findPersonasLocked(ctx context.Context, filter domain.PersonaFilter) ([]domain.Persona, error) {
	query := `SELECT id, name, role, description, is_default, project_id, created_at, updated_at FROM personas`
	var args []any
	switch filter.Kind {
	case domain.PersonaFilterByID:
		query += " WHERE id = ?"
		args = append(args, filter.ID)
	case domain.PersonaFilterByName:
		query += " WHERE name = ?"
		args = append(args, filter.Name)
	case domain.PersonaFilterByProject:
		query += " WHERE project_id = ?"
		args = append(args, filter.ProjectID)
	case domain.PersonaFilterDefaultOnly:
		query += " WHERE is_default = 1"
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: finding personas: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var out []domain.Persona
	for rows.Next() {
		var p domain.Persona
		var projectID sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Role, &p.Description, &p.IsDefault, &projectID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning persona row: %v", domain.ErrPersistence, err)
		}
		if projectID.Valid {
			p.ProjectID = &projectID.String
		}
		if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("%w: parsing persona created_at: %v", domain.ErrPersistence, err)
		}
		if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("%w: parsing persona updated_at: %v", domain.ErrPersistence, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindDefaultPersona returns the persona carrying is_default=true. Spec §8
// invariant: at most one persona is default at any time.
func (s *LocalStore) FindDefaultPersona(ctx context.Context) (*domain.Persona, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	personas, err := s.findPersonasLocked(ctx, domain.PersonaFilter{Kind: domain.PersonaFilterDefaultOnly})
	if err != nil {
		return nil, false, err
	}
	if len(personas) == 0 {
		return nil, false, nil
	}
	return &personas[0], true, nil
}

// SetDefaultPersona atomically clears is_default on every other persona and
// sets it on id, preserving the "at most one default" invariant even under
// concurrent callers (serialized by LocalStore's mutex plus a single tx).
func (s *LocalStore) SetDefaultPersona(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin set-default tx: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE personas SET is_default = 0`); err != nil {
		return fmt.Errorf("%w: clearing default personas: %v", domain.ErrPersistence, err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE personas SET is_default = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: setting default persona %s: %v", domain.ErrPersistence, id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("%w: checking set-default result: %v", domain.ErrPersistence, err)
	} else if n == 0 {
		return fmt.Errorf("%w: persona %s not found", domain.ErrPersistence, id)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing set-default: %v", domain.ErrPersistence, err)
	}
	return nil
}

// DeletePersona removes a Persona and its tool bindings. Idempotent.
func (s *LocalStore) DeletePersona(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin delete persona tx: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM persona_tools WHERE persona_id = ?`, id); err != nil {
		return fmt.Errorf("%w: deleting persona_tools for %s: %v", domain.ErrPersistence, id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM personas WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: deleting persona %s: %v", domain.ErrPersistence, id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing delete persona: %v", domain.ErrPersistence, err)
	}
	return nil
}

// GetEnabledTools returns the AgentTools enabled for a persona.
func (s *LocalStore) GetEnabledTools(ctx context.Context, personaID string) ([]domain.AgentTool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT t.id, t.name, t.category, t.risk_level, t.is_default
		FROM agent_tools t JOIN persona_tools pt ON pt.tool_id = t.id
		WHERE pt.persona_id = ? AND pt.enabled = 1 ORDER BY t.name ASC`, personaID)
	if err != nil {
		return nil, fmt.Errorf("%w: finding enabled tools for persona %s: %v", domain.ErrPersistence, personaID, err)
	}
	defer rows.Close()

	var out []domain.AgentTool
	for rows.Next() {
		var t domain.AgentTool
		var category, riskLevel string
		if err := rows.Scan(&t.ID, &t.Name, &category, &riskLevel, &t.IsDefault); err != nil {
			return nil, fmt.Errorf("%w: scanning enabled tool row: %v", domain.ErrPersistence, err)
		}
		t.Category = domain.ToolCategory(category)
		t.RiskLevel = domain.RiskLevel(riskLevel)
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetToolEnabled upserts the persona_tools binding for (personaID, toolID).
func (s *LocalStore) SetToolEnabled(ctx context.Context, personaID, toolID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO persona_tools(persona_id, tool_id, enabled) VALUES (?,?,?)
		ON CONFLICT(persona_id, tool_id) DO UPDATE SET enabled=excluded.enabled`,
		personaID, toolID, enabled)
	if err != nil {
		return fmt.Errorf("%w: setting tool %s enabled=%v for persona %s: %v", domain.ErrPersistence, toolID, enabled, personaID, err)
	}
	return nil
}
