package domain

import "time"

// Persona is an agent role binding a curated set of AgentTools.
type Persona struct {
	ID        string
	Name      string
	Role      string
	Description string
	IsDefault bool
	ProjectID *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ToolCategory is the closed set of AgentTool categories.
type ToolCategory string

const (
	CategoryDevelopment ToolCategory = "Development"
	CategoryResearch    ToolCategory = "Research"
	CategoryFileSystem  ToolCategory = "FileSystem"
	CategoryDatabase    ToolCategory = "Database"
	CategoryNetwork     ToolCategory = "Network"
)

// RiskLevel is the closed set of AgentTool risk levels.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "Safe"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// AgentTool is a declared capability a Persona may enable.
type AgentTool struct {
	ID        string
	Name      string
	Category  ToolCategory
	RiskLevel RiskLevel
	IsDefault bool
}

// PersonaTool is the persona<->tool junction row.
type PersonaTool struct {
	PersonaID string
	ToolID    string
	Enabled   bool
}
