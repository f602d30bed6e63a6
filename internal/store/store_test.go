package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"taskforge/internal/domain"
)

// openTestStore opens a private, uniquely-named in-memory database per call
// so parallel/sequential tests never share state even under a driver whose
// ":memory:" DSN defaults to shared cache.
func openTestStore(t *testing.T) *LocalStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=private", uuid.NewString())
	s, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInitSchema_SeedsExactlyFifteenAgentToolsIdempotently(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tools, err := s.FindAgentTools(ctx, domain.AgentToolFilter{Kind: domain.AgentToolFilterAll})
	require.NoError(t, err)
	require.Len(t, tools, 15)

	byCategory := map[domain.ToolCategory]int{}
	byRisk := map[domain.RiskLevel]int{}
	defaults := 0
	for _, tool := range tools {
		byCategory[tool.Category]++
		byRisk[tool.RiskLevel]++
		if tool.IsDefault {
			defaults++
		}
	}
	require.Equal(t, 6, byCategory[domain.CategoryDevelopment])
	require.Equal(t, 3, byCategory[domain.CategoryResearch])
	require.Equal(t, 3, byCategory[domain.CategoryFileSystem])
	require.Equal(t, 2, byCategory[domain.CategoryDatabase])
	require.Equal(t, 1, byCategory[domain.CategoryNetwork])
	require.Equal(t, 6, byRisk[domain.RiskSafe])
	require.Equal(t, 5, byRisk[domain.RiskModerate])
	require.Equal(t, 4, byRisk[domain.RiskHigh])
	require.Equal(t, 6, defaults)

	// Re-running InitSchema against the same db must not duplicate rows.
	require.NoError(t, InitSchema(ctx, s.DB()))
	tools, err = s.FindAgentTools(ctx, domain.AgentToolFilter{Kind: domain.AgentToolFilterAll})
	require.NoError(t, err)
	require.Len(t, tools, 15)
}

func TestTaskRepository_SaveCreatesRevisionOnlyWhenChanged(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	task := domain.NewTaskFromTitle("Fix typo in README")
	require.NoError(t, s.Save(ctx, task))

	var revisionCount int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM task_revisions WHERE task_id = ?`, task.ID).Scan(&revisionCount))
	require.Equal(t, 1, revisionCount)

	// Saving identical state again must not append another revision.
	require.NoError(t, s.Save(ctx, task))
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM task_revisions WHERE task_id = ?`, task.ID).Scan(&revisionCount))
	require.Equal(t, 1, revisionCount)

	task.Status = domain.StatusInProgress
	require.NoError(t, s.Save(ctx, task))
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM task_revisions WHERE task_id = ?`, task.ID).Scan(&revisionCount))
	require.Equal(t, 2, revisionCount)
}

func TestTaskRepository_RejectsIllegalStatusTransition(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	task := domain.NewTaskFromTitle("Fix typo in README")
	require.NoError(t, s.Save(ctx, task))

	// Todo -> Completed skips the entire lattice; must be rejected.
	task.Status = domain.StatusCompleted
	err := s.Save(ctx, task)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)

	// A legal transition still succeeds.
	task.Status = domain.StatusPendingEnhancement
	require.NoError(t, s.Save(ctx, task))
}

func TestTaskRepository_RejectsCycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	parent := domain.NewTaskFromTitle("parent")
	require.NoError(t, s.Save(ctx, parent))

	child := domain.NewTaskFromTitle("child")
	child.ParentTaskID = &parent.ID
	require.NoError(t, s.Save(ctx, child))

	// parent now claims child as its own parent -> cycle
	parent.ParentTaskID = &child.ID
	err := s.Save(ctx, parent)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestTaskRepository_FindByStatusSortedDeterministically(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	titles := []string{"Charlie task", "Alpha task", "Bravo task"}
	for _, title := range titles {
		task := domain.NewTaskFromTitle(title)
		require.NoError(t, s.Save(ctx, task))
	}

	found, err := s.Find(ctx, domain.TaskFilter{Kind: domain.TaskFilterByStatus, Status: domain.StatusTodo},
		domain.QueryOptions{Sort: []domain.SortTerm{{Key: "Title", Direction: domain.Ascending}}})
	require.NoError(t, err)
	require.Len(t, found, 3)
	require.Equal(t, "Alpha task", found[0].Title)
	require.Equal(t, "Bravo task", found[1].Title)
	require.Equal(t, "Charlie task", found[2].Title)
}

func TestPersonaRepository_SetDefaultIsExclusive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p1 := &domain.Persona{Name: "Reviewer", Role: "review", Description: "reviews code", IsDefault: true}
	p2 := &domain.Persona{Name: "Builder", Role: "build", Description: "builds features"}
	require.NoError(t, s.SavePersona(ctx, p1))
	require.NoError(t, s.SavePersona(ctx, p2))

	require.NoError(t, s.SetDefaultPersona(ctx, p2.ID))

	def, ok, err := s.FindDefaultPersona(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, p2.ID, def.ID)

	all, err := s.FindPersonas(ctx, domain.PersonaFilter{Kind: domain.PersonaFilterDefaultOnly})
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestArtifactRepository_FindSimilarOrdersByAscendingDistance(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mk := func(id string, vec []float32) domain.Artifact {
		return domain.Artifact{ID: id, ProjectID: "proj-1", SourceID: "doc", SourceType: domain.SourceTypeFile, Content: id, Embedding: vec}
	}
	require.NoError(t, s.SaveArtifact(ctx, ptr(mk("close", []float32{1, 1, 0}))))
	require.NoError(t, s.SaveArtifact(ctx, ptr(mk("far", []float32{0, 1, 0}))))
	require.NoError(t, s.SaveArtifact(ctx, ptr(mk("exact", []float32{1, 0, 0}))))

	proj := "proj-1"
	results, err := s.FindSimilar(ctx, []float32{1, 0, 0}, 3, nil, &proj)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "exact", results[0].Artifact.ID)
	require.InDelta(t, 0.0, results[0].Distance, 1e-6)
	require.Equal(t, "close", results[1].Artifact.ID)
	require.Equal(t, "far", results[2].Artifact.ID)
	require.Less(t, results[1].Distance, results[2].Distance)
}

func TestArtifactRepository_FindSimilarAppliesThreshold(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mk := func(id string, vec []float32) domain.Artifact {
		return domain.Artifact{ID: id, ProjectID: "proj-3", SourceID: "doc", SourceType: domain.SourceTypeFile, Content: id, Embedding: vec}
	}
	require.NoError(t, s.SaveArtifact(ctx, ptr(mk("near", []float32{1, 0, 0}))))
	require.NoError(t, s.SaveArtifact(ctx, ptr(mk("orthogonal", []float32{0, 1, 0}))))

	proj := "proj-3"
	threshold := 0.5
	results, err := s.FindSimilar(ctx, []float32{1, 0, 0}, 5, &threshold, &proj)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "near", results[0].Artifact.ID)
}

func TestArtifactRepository_FindSimilarWithoutProjectSearchesAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveArtifact(ctx, &domain.Artifact{ID: "p4a", ProjectID: "proj-4", SourceID: "doc", SourceType: domain.SourceTypeFile, Content: "a", Embedding: []float32{1, 0}}))
	require.NoError(t, s.SaveArtifact(ctx, &domain.Artifact{ID: "p4b", ProjectID: "proj-5", SourceID: "doc", SourceType: domain.SourceTypeFile, Content: "b", Embedding: []float32{1, 0}}))

	results, err := s.FindSimilar(ctx, []float32{1, 0}, 10, nil, nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(results), 2)
}

func TestArtifactRepository_RejectsDimensionMismatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := domain.Artifact{ID: "a1", ProjectID: "proj-2", SourceID: "doc", SourceType: domain.SourceTypeFile, Content: "x", Embedding: []float32{1, 2, 3}}
	require.NoError(t, s.SaveArtifact(ctx, &a))

	b := domain.Artifact{ID: "a2", ProjectID: "proj-2", SourceID: "doc2", SourceType: domain.SourceTypeFile, Content: "y", Embedding: []float32{1, 2}}
	err := s.SaveArtifact(ctx, &b)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func ptr(a domain.Artifact) *domain.Artifact { return &a }
