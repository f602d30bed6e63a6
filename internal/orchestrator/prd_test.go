package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"taskforge/internal/domain"
)

type fakePRDParser struct{}

func (fakePRDParser) ParsePRDToTasks(_ context.Context, prd *domain.PRD) ([]domain.Task, error) {
	return []domain.Task{
		{Title: "Fix typo in README", Status: domain.StatusTodo},
		{Title: "Fix another typo in CHANGELOG", Status: domain.StatusTodo},
	}, nil
}

func TestOrchestrator_RunPRD_RunsOneSessionPerTask(t *testing.T) {
	tasks := newFakeTaskStore()
	o := New(Deps{
		Tasks:          tasks,
		Enhancer:       fakeEnhancer{},
		Comprehender:   fakeComprehender{questionLen: 20},
		Decomposer:     fakeDecomposer{},
		PRDParser:      fakePRDParser{},
		ComprehendType: "short_answer",
		MaxCycles:      3,
	})

	prd := &domain.PRD{ID: "prd-1", Title: "Docs cleanup"}
	final, err := o.RunPRD(context.Background(), prd)
	require.NoError(t, err)
	require.Len(t, final, 2)
	for _, task := range final {
		require.Equal(t, domain.StatusOrchestrationComplete, task.Status)
		require.NotNil(t, task.SourcePRDID)
		require.Equal(t, "prd-1", *task.SourcePRDID)
	}
}
