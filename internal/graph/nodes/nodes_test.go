package nodes

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"taskforge/internal/domain"
	"taskforge/internal/graph"
	"taskforge/internal/llmport"
)

type fakeTaskRepo struct{ saved []*domain.Task }

func (f *fakeTaskRepo) Save(_ context.Context, t *domain.Task) error {
	f.saved = append(f.saved, t)
	return nil
}

type fakeEnhancementPort struct{}

func (fakeEnhancementPort) GenerateEnhancement(_ context.Context, task *domain.Task) (domain.Enhancement, error) {
	return domain.Enhancement{TaskID: task.ID, EnhancementType: "clarity", Content: "add acceptance criteria"}, nil
}

type fakeComprehensionPort struct{ questionLen int }

func (f fakeComprehensionPort) GenerateComprehensionTest(_ context.Context, task *domain.Task, testType string) (domain.ComprehensionTest, error) {
	return domain.ComprehensionTest{TaskID: task.ID, TestType: testType, Question: strings.Repeat("a", f.questionLen)}, nil
}

type fakeDecompositionPort struct{}

func (fakeDecompositionPort) DecomposeTask(_ context.Context, task *domain.Task) ([]domain.Task, error) {
	return []domain.Task{
		{Title: "sub 1", Status: domain.StatusTodo},
		{Title: "sub 2", Status: domain.StatusTodo},
		{Title: "sub 3", Status: domain.StatusTodo},
	}, nil
}

var _ llmport.TaskEnhancementPort = fakeEnhancementPort{}
var _ llmport.ComprehensionTestPort = fakeComprehensionPort{}
var _ llmport.TaskDecompositionPort = fakeDecompositionPort{}

func TestE1_SimpleEnhancePass(t *testing.T) {
	tasks := &fakeTaskRepo{}
	router := NewRouterNode()
	enhance := &EnhanceNode{Port: fakeEnhancementPort{}, Tasks: tasks}
	comprehend := &ComprehendNode{Port: fakeComprehensionPort{questionLen: 20}, TestType: "short_answer", Tasks: tasks}
	check := NewCheckNode(tasks, 3)
	decompose := &DecomposeNode{Port: fakeDecompositionPort{}, Tasks: tasks}
	g := BuildGraph(router, decompose, enhance, comprehend, check)
	runner := graph.NewFlowRunner(g, graph.NewMemorySessionStorage())

	assignee := "Alice"
	due := "2025-12-01"
	task := &domain.Task{ID: "t1", Title: "Fix typo in README", Assignee: &assignee, DueDate: &due, Status: domain.StatusTodo}

	sess := graph.NewSession(router.Name())
	sess.Context.Set("task", task)
	ctx := context.Background()
	require.NoError(t, runner.Storage.Save(ctx, sess))

	for i := 0; i < 10; i++ {
		status, err := runner.Run(ctx, sess.ID)
		require.NoError(t, err)
		if status.Kind == graph.StatusCompleted {
			break
		}
		require.Equal(t, graph.StatusRunning, status.Kind)
	}

	require.Equal(t, domain.StatusOrchestrationComplete, task.Status)
	require.Len(t, task.Enhancements, 1)
	require.Len(t, task.ComprehensionTests, 1)
	require.Empty(t, task.SubtaskIDs)
}

func TestE2_Decomposition(t *testing.T) {
	tasks := &fakeTaskRepo{}
	router := NewRouterNode()
	enhance := &EnhanceNode{Port: fakeEnhancementPort{}, Tasks: tasks}
	comprehend := &ComprehendNode{Port: fakeComprehensionPort{questionLen: 20}, Tasks: tasks}
	check := NewCheckNode(tasks, 3)
	decompose := &DecomposeNode{Port: fakeDecompositionPort{}, Tasks: tasks}
	g := BuildGraph(router, decompose, enhance, comprehend, check)
	runner := graph.NewFlowRunner(g, graph.NewMemorySessionStorage())

	task := &domain.Task{ID: "p1", Title: "Refactor entire authentication system to support OAuth2 and SAML with multi-region deployment", Status: domain.StatusTodo}
	sess := graph.NewSession(router.Name())
	sess.Context.Set("task", task)
	ctx := context.Background()
	require.NoError(t, runner.Storage.Save(ctx, sess))

	for i := 0; i < 5; i++ {
		status, err := runner.Run(ctx, sess.ID)
		require.NoError(t, err)
		if status.Kind == graph.StatusCompleted {
			break
		}
	}

	require.Equal(t, domain.StatusDecomposed, task.Status)
	require.GreaterOrEqual(t, len(task.SubtaskIDs), 3)
	require.LessOrEqual(t, len(task.SubtaskIDs), 5)
}

func TestE3_MaxCyclesExceeded(t *testing.T) {
	tasks := &fakeTaskRepo{}
	router := NewRouterNode()
	enhance := &EnhanceNode{Port: fakeEnhancementPort{}, Tasks: tasks}
	comprehend := &ComprehendNode{Port: fakeComprehensionPort{questionLen: 200}, Tasks: tasks}
	maxCycles := 2
	check := NewCheckNode(tasks, maxCycles)
	decompose := &DecomposeNode{Port: fakeDecompositionPort{}, Tasks: tasks}
	g := BuildGraph(router, decompose, enhance, comprehend, check)
	runner := graph.NewFlowRunner(g, graph.NewMemorySessionStorage())

	task := &domain.Task{ID: "t1", Title: "Fix typo", Status: domain.StatusTodo}
	sess := graph.NewSession(router.Name())
	sess.Context.Set("task", task)
	ctx := context.Background()
	require.NoError(t, runner.Storage.Save(ctx, sess))

	for i := 0; i < 20; i++ {
		status, err := runner.Run(ctx, sess.ID)
		require.NoError(t, err)
		if status.Kind == graph.StatusCompleted {
			break
		}
	}

	require.Equal(t, domain.StatusErrored, task.Status)
	require.Equal(t, maxCycles+1, len(task.Enhancements))
	require.Equal(t, maxCycles+1, len(task.ComprehensionTests))
}
