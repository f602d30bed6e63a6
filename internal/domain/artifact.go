package domain

import "time"

// ArtifactSourceType is the closed set of artifact provenance kinds.
type ArtifactSourceType string

const (
	SourceTypePRD         ArtifactSourceType = "PRD"
	SourceTypeFile        ArtifactSourceType = "File"
	SourceTypeWebResearch ArtifactSourceType = "WebResearch"
	SourceTypeUserInput   ArtifactSourceType = "UserInput"
)

// Artifact is a RAG knowledge unit: a chunk of text plus its embedding.
// All embeddings within one collection (see store.ArtifactRepository) must
// share the same dimension; the repository enforces this at insert time.
type Artifact struct {
	ID         string
	ProjectID  string
	SourceID   string
	SourceType ArtifactSourceType
	Content    string
	Embedding  []float32
	Metadata   map[string]string
	CreatedAt  time.Time
}

// ScoredArtifact pairs an Artifact with its cosine distance from a query
// vector, as returned by find_similar / search.
type ScoredArtifact struct {
	Artifact Artifact
	Distance float64
}
