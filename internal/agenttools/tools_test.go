package agenttools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"taskforge/internal/domain"
)

type fakeTasks struct {
	byID map[string]*domain.Task
	all  []domain.Task
}

func (f *fakeTasks) Find(ctx context.Context, filter domain.TaskFilter, opts domain.QueryOptions) ([]domain.Task, error) {
	return f.all, nil
}

func (f *fakeTasks) FindByID(ctx context.Context, id string) (*domain.Task, bool, error) {
	t, ok := f.byID[id]
	return t, ok, nil
}

type fakeArtifacts struct{ items []domain.Artifact }

func (f *fakeArtifacts) FindArtifacts(ctx context.Context, filter domain.ArtifactFilter) ([]domain.Artifact, error) {
	return f.items, nil
}

type fakePRDs struct{ byID map[string]*domain.PRD }

func (f *fakePRDs) FindPRDByID(ctx context.Context, id string) (*domain.PRD, bool, error) {
	p, ok := f.byID[id]
	return p, ok, nil
}

type fakeSearch struct{ results []domain.ScoredArtifact }

func (f *fakeSearch) Search(ctx context.Context, query string, k int, threshold *float64, projectID *string) ([]domain.ScoredArtifact, error) {
	return f.results, nil
}

func TestBuildAll_ReturnsSixNamedTools(t *testing.T) {
	tools := BuildAll(Deps{})
	require.Len(t, tools, 6)
	names := map[string]bool{}
	for _, tool := range tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"search_artifacts", "search_tasks", "get_task_details", "list_project_artifacts", "get_prd_summary", "file_system"} {
		require.True(t, names[want], "missing tool %s", want)
	}
}

func TestGetTaskDetailsTool_ReturnsTask(t *testing.T) {
	task := &domain.Task{ID: "t1", Title: "Fix bug", Status: domain.StatusTodo}
	deps := Deps{Tasks: &fakeTasks{byID: map[string]*domain.Task{"t1": task}}}
	tools := BuildAll(deps)
	var call func(context.Context, map[string]any) (string, error)
	for _, tl := range tools {
		if tl.Name == "get_task_details" {
			call = tl.Call
		}
	}
	require.NotNil(t, call)

	out, err := call(context.Background(), map[string]any{"task_id": "t1"})
	require.NoError(t, err)
	var got domain.Task
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "Fix bug", got.Title)
}

func TestGetTaskDetailsTool_MissingTaskErrors(t *testing.T) {
	deps := Deps{Tasks: &fakeTasks{byID: map[string]*domain.Task{}}}
	tools := BuildAll(deps)
	var call func(context.Context, map[string]any) (string, error)
	for _, tl := range tools {
		if tl.Name == "get_task_details" {
			call = tl.Call
		}
	}
	_, err := call(context.Background(), map[string]any{"task_id": "missing"})
	require.Error(t, err)
}

func TestSearchArtifactsTool_DelegatesToSearcher(t *testing.T) {
	deps := Deps{Search: &fakeSearch{results: []domain.ScoredArtifact{
		{Artifact: domain.Artifact{ID: "a1", Content: "red apple"}, Distance: 0.1},
	}}}
	tools := BuildAll(deps)
	var call func(context.Context, map[string]any) (string, error)
	for _, tl := range tools {
		if tl.Name == "search_artifacts" {
			call = tl.Call
		}
	}
	out, err := call(context.Background(), map[string]any{"query": "fruit", "project_id": "p1"})
	require.NoError(t, err)
	require.Contains(t, out, "red apple")
}

func TestFileSystemTool_ReadsUnderRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("hello"), 0o644))

	deps := Deps{FileSystemRoot: dir}
	tools := BuildAll(deps)
	var call func(context.Context, map[string]any) (string, error)
	for _, tl := range tools {
		if tl.Name == "file_system" {
			call = tl.Call
		}
	}
	out, err := call(context.Background(), map[string]any{"op": "read", "path": "note.txt"})
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

func TestFileSystemTool_RejectsEscapingPath(t *testing.T) {
	dir := t.TempDir()
	deps := Deps{FileSystemRoot: dir}
	tools := BuildAll(deps)
	var call func(context.Context, map[string]any) (string, error)
	for _, tl := range tools {
		if tl.Name == "file_system" {
			call = tl.Call
		}
	}
	_, err := call(context.Background(), map[string]any{"op": "read", "path": "../../etc/passwd"})
	require.Error(t, err)
}
