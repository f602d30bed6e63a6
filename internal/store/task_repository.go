package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"taskforge/internal/domain"
)

type taskRow struct {
	ID                     string
	Title                  string
	Assignee               sql.NullString
	DueDate                sql.NullString
	Status                 string
	SourcePRDID            sql.NullString
	ParentTaskID           sql.NullString
	SortOrder              int
	CreatedAt              string
	UpdatedAt              string
	EnhancementsJSON       sql.NullString
	ComprehensionTestsJSON sql.NullString
	SubtaskIDsJSON         string
}

// Save upserts a Task by primary key and, when any field changed relative
// to the stored row (or the row is new), appends a TaskRevision in the same
// transaction. Rejects writes that would introduce a cycle in the
// parent/subtask forest (spec §9).
func (s *LocalStore) Save(ctx context.Context, t *domain.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.checkAcyclic(ctx, t); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin save tx: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback()

	prevRow, found, err := loadTaskRowTx(ctx, tx, t.ID)
	if err != nil {
		return err
	}

	newRow, err := taskToRow(t)
	if err != nil {
		return err
	}

	if found {
		prev := domain.TaskStatus(prevRow.Status)
		next := domain.TaskStatus(newRow.Status)
		if prev != next && !prev.CanTransition(next) {
			return fmt.Errorf("%w: task %s cannot move from %s to %s", domain.ErrIllegalTransition, t.ID, prev, next)
		}
	}

	changed := !found || rowsDiffer(prevRow, newRow)

	_, err = tx.ExecContext(ctx, `INSERT INTO tasks(
		id, title, assignee, due_date, status, source_prd_id, parent_task_id,
		sort_order, created_at, updated_at, enhancements_json, comprehension_tests_json, subtask_ids_json
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
	ON CONFLICT(id) DO UPDATE SET
		title=excluded.title, assignee=excluded.assignee, due_date=excluded.due_date,
		status=excluded.status, source_prd_id=excluded.source_prd_id, parent_task_id=excluded.parent_task_id,
		sort_order=excluded.sort_order, updated_at=excluded.updated_at,
		enhancements_json=excluded.enhancements_json, comprehension_tests_json=excluded.comprehension_tests_json,
		subtask_ids_json=excluded.subtask_ids_json`,
		newRow.ID, newRow.Title, newRow.Assignee, newRow.DueDate, newRow.Status,
		newRow.SourcePRDID, newRow.ParentTaskID, newRow.SortOrder, newRow.CreatedAt, newRow.UpdatedAt,
		newRow.EnhancementsJSON, newRow.ComprehensionTestsJSON, newRow.SubtaskIDsJSON,
	)
	if err != nil {
		return fmt.Errorf("%w: saving task %s: %v", domain.ErrPersistence, t.ID, err)
	}

	if changed {
		var prevStateJSON *string
		if found {
			b, _ := json.Marshal(prevRow)
			s := string(b)
			prevStateJSON = &s
		}
		desc := "created"
		if found {
			desc = "updated"
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO task_revisions(revision_id, task_id, timestamp, change_description, previous_state_json) VALUES (?,?,?,?,?)`,
			uuid.NewString(), t.ID, time.Now().UTC().Format(time.RFC3339Nano), desc, prevStateJSON)
		if err != nil {
			return fmt.Errorf("%w: recording revision for task %s: %v", domain.ErrPersistence, t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing task save: %v", domain.ErrPersistence, err)
	}
	return nil
}

// checkAcyclic walks upward from t.ParentTaskID (if set) to ensure t.ID does
// not appear among its own ancestors, and rejects subtask_ids containing an
// ancestor.
func (s *LocalStore) checkAcyclic(ctx context.Context, t *domain.Task) error {
	if t.ParentTaskID == nil {
		return nil
	}
	visited := map[string]bool{t.ID: true}
	current := *t.ParentTaskID
	for current != "" {
		if visited[current] {
			return fmt.Errorf("%w: task %s ancestry cycles back through %s", domain.ErrCycleDetected, t.ID, current)
		}
		visited[current] = true
		var parent sql.NullString
		err := s.db.QueryRowContext(ctx, `SELECT parent_task_id FROM tasks WHERE id = ?`, current).Scan(&parent)
		if err == sql.ErrNoRows {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: walking ancestry: %v", domain.ErrPersistence, err)
		}
		if !parent.Valid {
			break
		}
		current = parent.String
	}
	for _, id := range t.SubtaskIDs {
		if visited[id] {
			return fmt.Errorf("%w: task %s lists ancestor %s as a subtask", domain.ErrCycleDetected, t.ID, id)
		}
	}
	return nil
}

// FindByID returns a Task by id, or (nil, false, nil) if absent.
func (s *LocalStore) FindByID(ctx context.Context, id string) (*domain.Task, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, found, err := loadTaskRow(ctx, s.db, id)
	if err != nil || !found {
		return nil, found, err
	}
	t, err := rowToTask(row)
	return t, true, err
}

// Find returns Tasks matching filter, ordered and paginated per options.
// Ordering is deterministic: ties are broken by id.
func (s *LocalStore) Find(ctx context.Context, filter domain.TaskFilter, opts domain.QueryOptions) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, title, assignee, due_date, status, source_prd_id, parent_task_id, sort_order, created_at, updated_at, enhancements_json, comprehension_tests_json, subtask_ids_json FROM tasks`
	var args []any
	switch filter.Kind {
	case domain.TaskFilterByID:
		query += " WHERE id = ?"
		args = append(args, filter.ID)
	case domain.TaskFilterByStatus:
		query += " WHERE status = ?"
		args = append(args, string(filter.Status))
	case domain.TaskFilterByAgentPersona:
		query += " WHERE assignee = ?"
		args = append(args, filter.Assignee)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: finding tasks: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		var r taskRow
		if err := rows.Scan(&r.ID, &r.Title, &r.Assignee, &r.DueDate, &r.Status, &r.SourcePRDID, &r.ParentTaskID, &r.SortOrder, &r.CreatedAt, &r.UpdatedAt, &r.EnhancementsJSON, &r.ComprehensionTestsJSON, &r.SubtaskIDsJSON); err != nil {
			return nil, fmt.Errorf("%w: scanning task row: %v", domain.ErrPersistence, err)
		}
		t, err := rowToTask(&r)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating task rows: %v", domain.ErrPersistence, err)
	}

	sortTasks(out, opts.Sort)
	return paginate(out, opts), nil
}

// DeleteTask removes a Task by id. Idempotent: deleting an absent id succeeds.
func (s *LocalStore) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: deleting task %s: %v", domain.ErrPersistence, id, err)
	}
	return nil
}

func sortTasks(tasks []domain.Task, terms []domain.SortTerm) {
	sort.SliceStable(tasks, func(i, j int) bool {
		for _, term := range terms {
			cmp := compareTasksBy(tasks[i], tasks[j], domain.TaskSortKey(term.Key))
			if cmp == 0 {
				continue
			}
			if term.Direction == domain.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return tasks[i].ID < tasks[j].ID // stable tie-break by id
	})
}

func compareTasksBy(a, b domain.Task, key domain.TaskSortKey) int {
	switch key {
	case domain.TaskSortCreatedAt:
		return timeCompare(a.CreatedAt, b.CreatedAt)
	case domain.TaskSortUpdatedAt:
		return timeCompare(a.UpdatedAt, b.UpdatedAt)
	case domain.TaskSortStatus:
		return stringCompare(string(a.Status), string(b.Status))
	case domain.TaskSortTitle:
		return stringCompare(a.Title, b.Title)
	case domain.TaskSortDueDate:
		return stringCompare(derefOr(a.DueDate, ""), derefOr(b.DueDate, ""))
	case domain.TaskSortOrder:
		return a.SortOrder - b.SortOrder
	default:
		return 0
	}
}

func timeCompare(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func stringCompare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func derefOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func paginate[T any](items []T, opts domain.QueryOptions) []T {
	start := 0
	if opts.Offset != nil && *opts.Offset > 0 {
		start = *opts.Offset
		if start > len(items) {
			start = len(items)
		}
	}
	end := len(items)
	if opts.Limit != nil {
		if start+*opts.Limit < end {
			end = start + *opts.Limit
		}
	}
	return items[start:end]
}

func loadTaskRow(ctx context.Context, db *sql.DB, id string) (*taskRow, bool, error) {
	var r taskRow
	err := db.QueryRowContext(ctx, `SELECT id, title, assignee, due_date, status, source_prd_id, parent_task_id, sort_order, created_at, updated_at, enhancements_json, comprehension_tests_json, subtask_ids_json FROM tasks WHERE id = ?`, id).
		Scan(&r.ID, &r.Title, &r.Assignee, &r.DueDate, &r.Status, &r.SourcePRDID, &r.ParentTaskID, &r.SortOrder, &r.CreatedAt, &r.UpdatedAt, &r.EnhancementsJSON, &r.ComprehensionTestsJSON, &r.SubtaskIDsJSON)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: loading task %s: %v", domain.ErrPersistence, id, err)
	}
	return &r, true, nil
}

func loadTaskRowTx(ctx context.Context, tx *sql.Tx, id string) (*taskRow, bool, error) {
	var r taskRow
	err := tx.QueryRowContext(ctx, `SELECT id, title, assignee, due_date, status, source_prd_id, parent_task_id, sort_order, created_at, updated_at, enhancements_json, comprehension_tests_json, subtask_ids_json FROM tasks WHERE id = ?`, id).
		Scan(&r.ID, &r.Title, &r.Assignee, &r.DueDate, &r.Status, &r.SourcePRDID, &r.ParentTaskID, &r.SortOrder, &r.CreatedAt, &r.UpdatedAt, &r.EnhancementsJSON, &r.ComprehensionTestsJSON, &r.SubtaskIDsJSON)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: loading task %s: %v", domain.ErrPersistence, id, err)
	}
	return &r, true, nil
}

func rowsDiffer(a, b *taskRow) bool {
	if a == nil {
		return true
	}
	return a.Title != b.Title || a.Assignee != b.Assignee || a.DueDate != b.DueDate ||
		a.Status != b.Status || a.SourcePRDID != b.SourcePRDID || a.ParentTaskID != b.ParentTaskID ||
		a.SortOrder != b.SortOrder || a.EnhancementsJSON != b.EnhancementsJSON ||
		a.ComprehensionTestsJSON != b.ComprehensionTestsJSON || a.SubtaskIDsJSON != b.SubtaskIDsJSON
}

func taskToRow(t *domain.Task) (*taskRow, error) {
	subtaskIDs, err := json.Marshal(t.SubtaskIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal subtask_ids: %v", domain.ErrPersistence, err)
	}
	row := &taskRow{
		ID:             t.ID,
		Title:          t.Title,
		Status:         string(t.Status),
		SortOrder:      t.SortOrder,
		CreatedAt:      t.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      t.UpdatedAt.UTC().Format(time.RFC3339Nano),
		SubtaskIDsJSON: string(subtaskIDs),
	}
	if t.Assignee != nil {
		row.Assignee = sql.NullString{String: *t.Assignee, Valid: true}
	}
	if t.DueDate != nil {
		row.DueDate = sql.NullString{String: *t.DueDate, Valid: true}
	}
	if t.SourcePRDID != nil {
		row.SourcePRDID = sql.NullString{String: *t.SourcePRDID, Valid: true}
	}
	if t.ParentTaskID != nil {
		row.ParentTaskID = sql.NullString{String: *t.ParentTaskID, Valid: true}
	}
	if len(t.Enhancements) > 0 {
		b, err := json.Marshal(t.Enhancements)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal enhancements: %v", domain.ErrPersistence, err)
		}
		row.EnhancementsJSON = sql.NullString{String: string(b), Valid: true}
	}
	if len(t.ComprehensionTests) > 0 {
		b, err := json.Marshal(t.ComprehensionTests)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal comprehension_tests: %v", domain.ErrPersistence, err)
		}
		row.ComprehensionTestsJSON = sql.NullString{String: string(b), Valid: true}
	}
	return row, nil
}

func rowToTask(r *taskRow) (*domain.Task, error) {
	t := &domain.Task{
		ID:        r.ID,
		Title:     r.Title,
		Status:    domain.TaskStatus(r.Status),
		SortOrder: r.SortOrder,
	}
	var err error
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, r.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: parsing created_at: %v", domain.ErrPersistence, err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%w: parsing updated_at: %v", domain.ErrPersistence, err)
	}
	if r.Assignee.Valid {
		t.Assignee = &r.Assignee.String
	}
	if r.DueDate.Valid {
		t.DueDate = &r.DueDate.String
	}
	if r.SourcePRDID.Valid {
		t.SourcePRDID = &r.SourcePRDID.String
	}
	if r.ParentTaskID.Valid {
		t.ParentTaskID = &r.ParentTaskID.String
	}
	if err := json.Unmarshal([]byte(r.SubtaskIDsJSON), &t.SubtaskIDs); err != nil {
		return nil, fmt.Errorf("%w: unmarshal subtask_ids: %v", domain.ErrPersistence, err)
	}
	if r.EnhancementsJSON.Valid {
		if err := json.Unmarshal([]byte(r.EnhancementsJSON.String), &t.Enhancements); err != nil {
			return nil, fmt.Errorf("%w: unmarshal enhancements: %v", domain.ErrPersistence, err)
		}
	}
	if r.ComprehensionTestsJSON.Valid {
		if err := json.Unmarshal([]byte(r.ComprehensionTestsJSON.String), &t.ComprehensionTests); err != nil {
			return nil, fmt.Errorf("%w: unmarshal comprehension_tests: %v", domain.ErrPersistence, err)
		}
	}
	return t, nil
}
