package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskforge/internal/domain"
	"taskforge/internal/llmport"
	"taskforge/internal/logging"
)

// ArtifactRepository is the subset of store.LocalStore the RAG service
// depends on. Declared here (consumer side) per the teacher's
// interfaces-live-with-the-caller convention.
type ArtifactRepository interface {
	SaveArtifact(ctx context.Context, a *domain.Artifact) error
	FindArtifacts(ctx context.Context, filter domain.ArtifactFilter) ([]domain.Artifact, error)
	FindSimilar(ctx context.Context, query []float32, limit int, threshold *float64, projectID *string) ([]domain.ScoredArtifact, error)
	DeleteArtifact(ctx context.Context, id string) error
}

// Service ingests source text into Artifacts and serves semantic search
// over them, scoped per project.
type Service struct {
	Repo      ArtifactRepository
	Embedder  llmport.EmbeddingPort
	ChunkOpts ChunkOptions
}

// NewService builds a Service with the given dependencies and chunk options.
func NewService(repo ArtifactRepository, embedder llmport.EmbeddingPort, chunkOpts ChunkOptions) *Service {
	return &Service{Repo: repo, Embedder: embedder, ChunkOpts: chunkOpts}
}

// Ingest chunks content, embeds every chunk, and saves one Artifact per
// chunk. All-or-nothing per source: if any chunk fails to embed or save,
// already-saved chunks for this call are rolled back by deletion so a
// partial ingest never leaves a half-indexed source (spec §4.7 "atomic
// per-source ingest").
func (s *Service) Ingest(ctx context.Context, projectID, sourceID string, sourceType domain.ArtifactSourceType, content string, metadata map[string]string) ([]domain.Artifact, error) {
	chunks := Chunk(content, s.ChunkOpts)
	if len(chunks) == 0 {
		return nil, nil
	}

	embeddings, err := s.Embedder.GenerateEmbeddings(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embedding source %s: %w", sourceID, err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", domain.ErrDimensionMismatch, len(chunks), len(embeddings))
	}

	saved := make([]domain.Artifact, 0, len(chunks))
	for i, chunk := range chunks {
		a := domain.Artifact{
			ID:         uuid.NewString(),
			ProjectID:  projectID,
			SourceID:   sourceID,
			SourceType: sourceType,
			Content:    chunk,
			Embedding:  embeddings[i],
			Metadata:   metadata,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.Repo.SaveArtifact(ctx, &a); err != nil {
			s.rollback(ctx, saved)
			return nil, fmt.Errorf("saving artifact %d/%d for source %s: %w", i+1, len(chunks), sourceID, err)
		}
		saved = append(saved, a)
	}

	logging.RAG().Info("ingested source",
		zap.String("project_id", projectID),
		zap.String("source_id", sourceID),
		zap.Int("chunks", len(saved)))
	return saved, nil
}

func (s *Service) rollback(ctx context.Context, saved []domain.Artifact) {
	for _, a := range saved {
		_ = s.Repo.DeleteArtifact(ctx, a.ID)
	}
}

// Search embeds query and returns the k nearest Artifacts by cosine
// distance, ascending. threshold, if non-nil, drops results whose distance
// exceeds it; projectID, if non-nil, restricts candidates to that project
// (spec §4.7 search).
func (s *Service) Search(ctx context.Context, query string, k int, threshold *float64, projectID *string) ([]domain.ScoredArtifact, error) {
	embedding, err := s.Embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return s.Repo.FindSimilar(ctx, embedding, k, threshold, projectID)
}

// List returns a project's Artifacts, unscored, optionally narrowed to a
// single sourceType and capped at limit (spec §4.7 "list(project_id,
// optional source_type, limit)"). sourceType and limit are both optional;
// a nil/zero limit returns every matching Artifact.
func (s *Service) List(ctx context.Context, projectID string, sourceType *domain.ArtifactSourceType, limit *int) ([]domain.Artifact, error) {
	artifacts, err := s.Repo.FindArtifacts(ctx, domain.ArtifactFilter{Kind: domain.ArtifactFilterByProjectID, ProjectID: projectID})
	if err != nil {
		return nil, err
	}

	if sourceType != nil {
		filtered := artifacts[:0]
		for _, a := range artifacts {
			if a.SourceType == *sourceType {
				filtered = append(filtered, a)
			}
		}
		artifacts = filtered
	}

	if limit != nil && *limit >= 0 && *limit < len(artifacts) {
		artifacts = artifacts[:*limit]
	}
	return artifacts, nil
}
