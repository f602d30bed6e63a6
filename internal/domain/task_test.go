package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatusLattice_LegalForwardTransitions(t *testing.T) {
	cases := []struct {
		from, to TaskStatus
		want     bool
	}{
		{StatusTodo, StatusInProgress, true},
		{StatusTodo, StatusPendingEnhancement, true},
		{StatusTodo, StatusPendingDecomposition, true},
		{StatusTodo, StatusDecomposed, false},
		{StatusPendingEnhancement, StatusPendingComprehensionTest, true},
		{StatusPendingComprehensionTest, StatusPendingFollowOn, true},
		{StatusPendingFollowOn, StatusPendingEnhancement, true},
		{StatusPendingFollowOn, StatusOrchestrationComplete, true},
		{StatusPendingDecomposition, StatusDecomposed, true},
		{StatusDecomposed, StatusOrchestrationComplete, true},
		{StatusOrchestrationComplete, StatusCompleted, true},
		{StatusCompleted, StatusArchived, true},
		{StatusCompleted, StatusTodo, false},
	}
	for _, c := range cases {
		require.Equalf(t, c.want, c.from.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestStatusLattice_ErroredFromAnyNonTerminal(t *testing.T) {
	for _, s := range []TaskStatus{StatusTodo, StatusInProgress, StatusPendingEnhancement, StatusDecomposed, StatusOrchestrationComplete, StatusCompleted} {
		require.True(t, s.CanTransition(StatusErrored), s)
	}
	require.False(t, StatusArchived.CanTransition(StatusErrored))
	require.False(t, StatusErrored.CanTransition(StatusErrored))
}

func TestTaskValidate_UpdatedBeforeCreated(t *testing.T) {
	now := time.Now().UTC()
	task := &Task{ID: "t1", CreatedAt: now, UpdatedAt: now.Add(-time.Hour)}
	err := task.Validate()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrPersistence))
}

func TestTaskValidate_CycleDetected(t *testing.T) {
	task := &Task{ID: "t1", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(), SubtaskIDs: []string{"t2", "t1"}}
	err := task.Validate()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCycleDetected))
}
