package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"taskforge/internal/domain"
)

type fakeEmbedder struct {
	dim       int
	failAfter int
	calls     int
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		f.calls++
		if f.failAfter > 0 && f.calls > f.failAfter {
			return nil, errors.New("embedder unavailable")
		}
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbeddingDimension() int { return f.dim }

type fakeArtifactRepo struct {
	saved     map[string]domain.Artifact
	deleted   []string
	failOnNth int
}

func newFakeArtifactRepo() *fakeArtifactRepo {
	return &fakeArtifactRepo{saved: map[string]domain.Artifact{}}
}

func (r *fakeArtifactRepo) SaveArtifact(ctx context.Context, a *domain.Artifact) error {
	if r.failOnNth > 0 && len(r.saved)+1 == r.failOnNth {
		return errors.New("save failed")
	}
	r.saved[a.ID] = *a
	return nil
}

func (r *fakeArtifactRepo) FindArtifacts(ctx context.Context, filter domain.ArtifactFilter) ([]domain.Artifact, error) {
	var out []domain.Artifact
	for _, a := range r.saved {
		if filter.Kind == domain.ArtifactFilterByProjectID && a.ProjectID != filter.ProjectID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeArtifactRepo) FindSimilar(ctx context.Context, query []float32, k int, threshold *float64, projectID *string) ([]domain.ScoredArtifact, error) {
	var out []domain.ScoredArtifact
	for _, a := range r.saved {
		if projectID != nil && a.ProjectID != *projectID {
			continue
		}
		out = append(out, domain.ScoredArtifact{Artifact: a, Distance: 0})
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (r *fakeArtifactRepo) DeleteArtifact(ctx context.Context, id string) error {
	delete(r.saved, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func TestIngest_SavesOneArtifactPerChunk(t *testing.T) {
	repo := newFakeArtifactRepo()
	svc := NewService(repo, &fakeEmbedder{dim: 4}, ChunkOptions{Strategy: ChunkByParagraph})

	artifacts, err := svc.Ingest(context.Background(), "proj-1", "src-1", domain.SourceTypeFile, "first.\n\nsecond.", nil)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	require.Len(t, repo.saved, 2)
}

func TestIngest_RollsBackOnMidstreamFailure(t *testing.T) {
	repo := newFakeArtifactRepo()
	repo.failOnNth = 3 // third chunk's save fails; the first two must be rolled back
	svc := NewService(repo, &fakeEmbedder{dim: 4}, ChunkOptions{Strategy: ChunkByParagraph})

	_, err := svc.Ingest(context.Background(), "proj-1", "src-1", domain.SourceTypeFile, "first.\n\nsecond.\n\nthird.", nil)
	require.Error(t, err)
	require.Empty(t, repo.saved)
	require.Len(t, repo.deleted, 2)
}

func TestList_FiltersBySourceTypeAndAppliesLimit(t *testing.T) {
	repo := newFakeArtifactRepo()
	repo.saved["a1"] = domain.Artifact{ID: "a1", ProjectID: "proj-1", SourceType: domain.SourceTypeFile}
	repo.saved["a2"] = domain.Artifact{ID: "a2", ProjectID: "proj-1", SourceType: domain.SourceTypeFile}
	repo.saved["a3"] = domain.Artifact{ID: "a3", ProjectID: "proj-1", SourceType: domain.SourceTypePRD}
	repo.saved["a4"] = domain.Artifact{ID: "a4", ProjectID: "proj-2", SourceType: domain.SourceTypeFile}
	svc := NewService(repo, &fakeEmbedder{dim: 4}, ChunkOptions{Strategy: ChunkWholeFile})

	all, err := svc.List(context.Background(), "proj-1", nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)

	fileType := domain.SourceTypeFile
	filesOnly, err := svc.List(context.Background(), "proj-1", &fileType, nil)
	require.NoError(t, err)
	require.Len(t, filesOnly, 2)

	limit := 1
	limited, err := svc.List(context.Background(), "proj-1", &fileType, &limit)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestSearch_EmbedsQueryAndDelegatesToRepo(t *testing.T) {
	repo := newFakeArtifactRepo()
	repo.saved["a1"] = domain.Artifact{ID: "a1", ProjectID: "proj-1"}
	svc := NewService(repo, &fakeEmbedder{dim: 4}, ChunkOptions{Strategy: ChunkWholeFile})

	proj := "proj-1"
	results, err := svc.Search(context.Background(), "query text", 5, nil, &proj)
	require.NoError(t, err)
	require.Len(t, results, 1)
}
