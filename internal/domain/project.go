package domain

import "time"

// Project is the top-level namespace owning PRDs, Tasks, Personas, Artifacts.
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// PRD is a parsed product document, immutable after creation.
type PRD struct {
	ID          string
	ProjectID   string
	Title       string
	Objectives  []string
	TechStack   []string
	Constraints []string
	RawContent  string
	CreatedAt   time.Time
}
