package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"taskforge/internal/domain"
)

type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: map[string]*domain.Task{}}
}

func (f *fakeTaskStore) Save(_ context.Context, t *domain.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeTaskStore) FindByID(_ context.Context, id string) (*domain.Task, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	return t, ok, nil
}

type fakeEnhancer struct{}

func (fakeEnhancer) GenerateEnhancement(_ context.Context, task *domain.Task) (domain.Enhancement, error) {
	return domain.Enhancement{TaskID: task.ID, EnhancementType: "clarity", Content: "clarified"}, nil
}

type fakeComprehender struct{ questionLen int }

func (f fakeComprehender) GenerateComprehensionTest(_ context.Context, task *domain.Task, testType string) (domain.ComprehensionTest, error) {
	return domain.ComprehensionTest{TaskID: task.ID, TestType: testType, Question: strings.Repeat("q", f.questionLen)}, nil
}

type fakeDecomposer struct{}

func (fakeDecomposer) DecomposeTask(_ context.Context, task *domain.Task) ([]domain.Task, error) {
	return []domain.Task{
		{Title: "sub 1", Status: domain.StatusTodo},
		{Title: "sub 2", Status: domain.StatusTodo},
		{Title: "sub 3", Status: domain.StatusTodo},
	}, nil
}

func TestOrchestrator_RunTask_SimpleEnhancePath(t *testing.T) {
	tasks := newFakeTaskStore()
	o := New(Deps{
		Tasks:          tasks,
		Enhancer:       fakeEnhancer{},
		Comprehender:   fakeComprehender{questionLen: 20},
		Decomposer:     fakeDecomposer{},
		ComprehendType: "short_answer",
		MaxCycles:      3,
	})

	assignee := "Alice"
	due := "2025-12-01"
	task := &domain.Task{ID: "t1", Title: "Fix typo in README", Assignee: &assignee, DueDate: &due, Status: domain.StatusTodo}

	final, err := o.RunTask(context.Background(), task)
	require.NoError(t, err)
	require.Equal(t, domain.StatusOrchestrationComplete, final.Status)
	require.Len(t, final.Enhancements, 1)
}

func TestOrchestrator_RunTask_DecompositionPath(t *testing.T) {
	tasks := newFakeTaskStore()
	o := New(Deps{
		Tasks:          tasks,
		Enhancer:       fakeEnhancer{},
		Comprehender:   fakeComprehender{questionLen: 20},
		Decomposer:     fakeDecomposer{},
		ComprehendType: "short_answer",
		MaxCycles:      3,
	})

	task := &domain.Task{ID: "p1", Title: "Refactor entire authentication system to support OAuth2 and SAML with multi-region deployment", Status: domain.StatusTodo}

	final, err := o.RunTask(context.Background(), task)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDecomposed, final.Status)
	require.GreaterOrEqual(t, len(final.SubtaskIDs), 3)
}
