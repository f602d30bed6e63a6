package domain

import (
	"fmt"
	"time"
)

// TaskStatus is the closed status lattice a Task moves through.
type TaskStatus string

const (
	StatusTodo                     TaskStatus = "Todo"
	StatusInProgress               TaskStatus = "InProgress"
	StatusPendingEnhancement       TaskStatus = "PendingEnhancement"
	StatusPendingComprehensionTest TaskStatus = "PendingComprehensionTest"
	StatusPendingFollowOn          TaskStatus = "PendingFollowOn"
	StatusPendingDecomposition     TaskStatus = "PendingDecomposition"
	StatusDecomposed               TaskStatus = "Decomposed"
	StatusOrchestrationComplete    TaskStatus = "OrchestrationComplete"
	StatusCompleted                TaskStatus = "Completed"
	StatusArchived                 TaskStatus = "Archived"
	StatusErrored                  TaskStatus = "Errored"
)

// legalTransitions enumerates the forward edges of the status lattice.
// Any non-terminal status may also transition to StatusErrored; that edge
// is checked separately in CanTransition.
var legalTransitions = map[TaskStatus][]TaskStatus{
	StatusTodo:                     {StatusInProgress, StatusPendingEnhancement, StatusPendingDecomposition},
	StatusPendingEnhancement:       {StatusPendingComprehensionTest},
	StatusPendingComprehensionTest: {StatusPendingFollowOn},
	StatusPendingFollowOn:          {StatusPendingEnhancement, StatusOrchestrationComplete},
	StatusPendingDecomposition:     {StatusDecomposed},
	StatusDecomposed:               {StatusOrchestrationComplete},
	StatusOrchestrationComplete:    {StatusCompleted},
	StatusCompleted:                {StatusArchived},
}

func (s TaskStatus) Terminal() bool {
	return s == StatusArchived || s == StatusErrored
}

// CanTransition reports whether a transition from s to next is legal per the
// status lattice. Errored is reachable from any non-terminal status.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	if next == StatusErrored {
		return !s.Terminal()
	}
	for _, candidate := range legalTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Task is the unit of work driven through the orchestration graph.
type Task struct {
	ID                 string
	Title               string
	Assignee            *string
	DueDate              *string
	Status               TaskStatus
	SourcePRDID          *string
	ParentTaskID         *string
	SubtaskIDs           []string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	SortOrder            int
	Enhancements         []Enhancement
	ComprehensionTests   []ComprehensionTest
}

// NewTaskFromTitle builds a zero-value Task seeded with Todo status and
// current timestamps, used by PRD ingestion and ad-hoc task creation alike.
func NewTaskFromTitle(title string) *Task {
	now := time.Now().UTC()
	return &Task{
		Title:     title,
		Status:    StatusTodo,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks invariants (a) and (b) from spec §3: updated_at >= created_at,
// and no task appears twice in its own subtask chain (acyclic).
func (t *Task) Validate() error {
	if t.UpdatedAt.Before(t.CreatedAt) {
		return fmt.Errorf("%w: task %s updated_at before created_at", ErrPersistence, t.ID)
	}
	seen := make(map[string]bool, len(t.SubtaskIDs))
	for _, id := range t.SubtaskIDs {
		if id == t.ID || seen[id] {
			return fmt.Errorf("%w: task %s subtask chain contains a cycle", ErrCycleDetected, t.ID)
		}
		seen[id] = true
	}
	return nil
}

// TaskRevision is an append-only history row, one per Task mutation.
type TaskRevision struct {
	RevisionID         string
	TaskID             string
	Timestamp          time.Time
	ChangeDescription  string
	PreviousStateJSON  *string
}

// Enhancement is a model-generated improvement appended to a Task.
type Enhancement struct {
	EnhancementID   string
	TaskID          string
	Timestamp       time.Time
	EnhancementType string
	Content         string
}

// ComprehensionTest checks a task's understanding.
type ComprehensionTest struct {
	TestID        string
	TaskID        string
	Timestamp     time.Time
	TestType      string
	Question      string
	Options       []string
	CorrectAnswer string
}
