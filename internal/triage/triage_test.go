package triage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"taskforge/internal/domain"
)

func strp(s string) *string { return &s }

func TestComplexityScorer_E1SimpleEnhance(t *testing.T) {
	assignee := "Alice"
	due := "2025-12-01"
	task := &domain.Task{Title: "Fix typo in README", Assignee: &assignee, DueDate: &due}
	require.Equal(t, 3, ComplexityScorer{}.Score(task))
}

func TestComplexityScorer_E2Decomposition(t *testing.T) {
	task := &domain.Task{Title: "Refactor entire authentication system to support OAuth2 and SAML with multi-region deployment"}
	score := ComplexityScorer{}.Score(task)
	require.GreaterOrEqual(t, score, 7)
}

func TestComplexityScorer_CapsAtTen(t *testing.T) {
	longTitle := "refactor " + string(make([]byte, 120))
	task := &domain.Task{Title: longTitle}
	require.LessOrEqual(t, ComplexityScorer{}.Score(task), 10)
}

func TestService_ScoreExactlySevenRoutesDecompose(t *testing.T) {
	// 3 base + 2 keyword + 1 title>50 + 1 no assignee = 7, due_date present.
	due := "2025-12-01"
	title := "migrate the legacy billing subsystem to new cloud infra" // > 50 chars
	task := &domain.Task{Title: title, DueDate: &due}
	svc := NewService()
	require.Equal(t, 7, svc.Scorer.Score(task))
	require.Equal(t, DecisionDecompose, svc.Classify(task))
}

func TestService_Classify_Deterministic(t *testing.T) {
	task := &domain.Task{Title: "Write docs"}
	svc := NewService()
	first := svc.Classify(task)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, svc.Classify(task))
	}
}
