// Package triage implements the deterministic, non-LLM routing heuristic
// that decides whether a Task should be enhanced or decomposed. Kept
// heuristic rather than model-backed so routing is bounded-latency and
// reproducible across restarts and test replays (spec §4.4, §9; grounded on
// original_source task_manager domain services and the teacher's
// semantic_router_node.rs doc-comment rationale).
package triage

import (
	"strings"

	"taskforge/internal/domain"
)

var complexityKeywords = []string{"refactor", "migrate", "redesign", "rearchitect"}

// ComplexityScorer assigns an integer complexity score to a Task.
type ComplexityScorer struct{}

// Score implements the scoring rule from spec §4.4 exactly: start at 3, add
// 1 if title length > 50, add 2 if the title contains a complexity keyword,
// add 1 if assignee is absent, add 1 if due_date is absent, add 1 if title
// length > 100. Capped at 10.
func (ComplexityScorer) Score(t *domain.Task) int {
	score := 3
	title := strings.ToLower(t.Title)
	if len(t.Title) > 50 {
		score++
	}
	for _, kw := range complexityKeywords {
		if strings.Contains(title, kw) {
			score += 2
			break
		}
	}
	if t.Assignee == nil || *t.Assignee == "" {
		score++
	}
	if t.DueDate == nil || *t.DueDate == "" {
		score++
	}
	if len(t.Title) > 100 {
		score++
	}
	if score > 10 {
		score = 10
	}
	return score
}

// Decision is the routing_decision string written into the graph Context.
type Decision string

const (
	DecisionEnhance   Decision = "enhance"
	DecisionDecompose Decision = "decompose"
)

// Service classifies a Task as a pure function of its fields: identical
// inputs yield identical outputs on every process (spec §8 invariant 5).
type Service struct {
	Scorer ComplexityScorer
}

// NewService constructs a triage Service with the default scorer.
func NewService() *Service {
	return &Service{Scorer: ComplexityScorer{}}
}

// Classify returns DecisionDecompose for score >= 7, DecisionEnhance
// otherwise. A score of exactly 7 routes to decompose (spec §8 boundary).
func (s *Service) Classify(t *domain.Task) Decision {
	if s.Scorer.Score(t) >= 7 {
		return DecisionDecompose
	}
	return DecisionEnhance
}
