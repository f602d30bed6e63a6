package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskforge/internal/domain"
)

// SaveProject upserts a Project by primary key.
func (s *LocalStore) SaveProject(ctx context.Context, p *domain.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO projects(id, name, created_at) VALUES (?,?,?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name`,
		p.ID, p.Name, p.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: saving project %s: %v", domain.ErrPersistence, p.ID, err)
	}
	return nil
}

// FindProjects returns the Projects matching filter. Only ById and ByName are
// meaningful for a single-row lookup; All returns every project sorted by
// created_at then id.
func (s *LocalStore) FindProjects(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, name, created_at FROM projects`
	var args []any
	switch filter.Kind {
	case domain.ProjectFilterByID:
		query += " WHERE id = ?"
		args = append(args, filter.ID)
	case domain.ProjectFilterByName:
		query += " WHERE name = ?"
		args = append(args, filter.Name)
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: finding projects: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		var p domain.Project
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scanning project row: %v", domain.ErrPersistence, err)
		}
		if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("%w: parsing project created_at: %v", domain.ErrPersistence, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteProject removes a Project by id. Idempotent.
func (s *LocalStore) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: deleting project %s: %v", domain.ErrPersistence, id, err)
	}
	return nil
}

// SavePRD upserts a PRD by primary key.
func (s *LocalStore) SavePRD(ctx context.Context, p *domain.PRD) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	objectives, err := marshalJSON(p.Objectives)
	if err != nil {
		return err
	}
	techStack, err := marshalJSON(p.TechStack)
	if err != nil {
		return err
	}
	constraints, err := marshalJSON(p.Constraints)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `INSERT INTO prds(
		id, project_id, title, objectives_json, tech_stack_json, constraints_json, raw_content, created_at
	) VALUES (?,?,?,?,?,?,?,?)
	ON CONFLICT(id) DO UPDATE SET title=excluded.title, objectives_json=excluded.objectives_json,
		tech_stack_json=excluded.tech_stack_json, constraints_json=excluded.constraints_json,
		raw_content=excluded.raw_content`,
		p.ID, p.ProjectID, p.Title, objectives, techStack, constraints, p.RawContent, p.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: saving prd %s: %v", domain.ErrPersistence, p.ID, err)
	}
	return nil
}

// FindPRDByID returns a PRD by id, or (nil, false, nil) if absent.
func (s *LocalStore) FindPRDByID(ctx context.Context, id string) (*domain.PRD, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var p domain.PRD
	var objectives, techStack, constraints, createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT id, project_id, title, objectives_json, tech_stack_json, constraints_json, raw_content, created_at FROM prds WHERE id = ?`, id).
		Scan(&p.ID, &p.ProjectID, &p.Title, &objectives, &techStack, &constraints, &p.RawContent, &createdAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: loading prd %s: %v", domain.ErrPersistence, id, err)
	}
	if err := unmarshalJSON(objectives, &p.Objectives); err != nil {
		return nil, false, err
	}
	if err := unmarshalJSON(techStack, &p.TechStack); err != nil {
		return nil, false, err
	}
	if err := unmarshalJSON(constraints, &p.Constraints); err != nil {
		return nil, false, err
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, false, fmt.Errorf("%w: parsing prd created_at: %v", domain.ErrPersistence, err)
	}
	return &p, true, nil
}

// FindPRDsByProject returns every PRD for a project, ordered by created_at.
func (s *LocalStore) FindPRDsByProject(ctx context.Context, projectID string) ([]domain.PRD, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT id, project_id, title, objectives_json, tech_stack_json, constraints_json, raw_content, created_at FROM prds WHERE project_id = ? ORDER BY created_at ASC, id ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: finding prds for project %s: %v", domain.ErrPersistence, projectID, err)
	}
	defer rows.Close()

	var out []domain.PRD
	for rows.Next() {
		var p domain.PRD
		var objectives, techStack, constraints, createdAt string
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Title, &objectives, &techStack, &constraints, &p.RawContent, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scanning prd row: %v", domain.ErrPersistence, err)
		}
		if err := unmarshalJSON(objectives, &p.Objectives); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(techStack, &p.TechStack); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(constraints, &p.Constraints); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("%w: parsing prd created_at: %v", domain.ErrPersistence, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
