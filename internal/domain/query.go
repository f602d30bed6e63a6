package domain

// SortDirection is the closed {Ascending, Descending} pair.
// Grounded on original_source transcript_processor/src/domain/sort_order.rs.
type SortDirection string

const (
	Ascending  SortDirection = "Ascending"
	Descending SortDirection = "Descending"
)

// TaskSortKey enumerates the fields task list/browse surfaces may sort by.
type TaskSortKey string

const (
	TaskSortCreatedAt TaskSortKey = "CreatedAt"
	TaskSortUpdatedAt TaskSortKey = "UpdatedAt"
	TaskSortStatus    TaskSortKey = "Status"
	TaskSortTitle     TaskSortKey = "Title"
	TaskSortDueDate   TaskSortKey = "DueDate"
	TaskSortOrder     TaskSortKey = "SortOrder"
)

// SortTerm is one (key, direction) pair. Repositories accept an ordered
// sequence of these; ties are always broken by id.
type SortTerm struct {
	Key       string
	Direction SortDirection
}

// QueryOptions carries an ordered sort sequence plus optional limit/offset.
type QueryOptions struct {
	Sort   []SortTerm
	Limit  *int
	Offset *int
}

// TaskFilterKind is the closed set of Task filter variants.
type TaskFilterKind string

const (
	TaskFilterByID          TaskFilterKind = "ById"
	TaskFilterByStatus      TaskFilterKind = "ByStatus"
	TaskFilterByAgentPersona TaskFilterKind = "ByAgentPersona"
	TaskFilterAll           TaskFilterKind = "All"
)

// TaskFilter is a tagged variant: exactly one field is meaningful for a
// given Kind.
type TaskFilter struct {
	Kind      TaskFilterKind
	ID        string
	Status    TaskStatus
	Assignee  string
}

type ProjectFilterKind string

const (
	ProjectFilterByID   ProjectFilterKind = "ById"
	ProjectFilterByName ProjectFilterKind = "ByName"
	ProjectFilterAll    ProjectFilterKind = "All"
)

type ProjectFilter struct {
	Kind ProjectFilterKind
	ID   string
	Name string
}

type PersonaFilterKind string

const (
	PersonaFilterByID        PersonaFilterKind = "ById"
	PersonaFilterByName      PersonaFilterKind = "ByName"
	PersonaFilterByProject   PersonaFilterKind = "ByProject"
	PersonaFilterDefaultOnly PersonaFilterKind = "DefaultOnly"
	PersonaFilterAll         PersonaFilterKind = "All"
)

type PersonaFilter struct {
	Kind      PersonaFilterKind
	ID        string
	Name      string
	ProjectID string
}

type AgentToolFilterKind string

const (
	AgentToolFilterByID        AgentToolFilterKind = "ById"
	AgentToolFilterByCategory  AgentToolFilterKind = "ByCategory"
	AgentToolFilterByRiskLevel AgentToolFilterKind = "ByRiskLevel"
	AgentToolFilterDefaultOnly AgentToolFilterKind = "DefaultOnly"
	AgentToolFilterAll         AgentToolFilterKind = "All"
)

type AgentToolFilter struct {
	Kind      AgentToolFilterKind
	ID        string
	Category  ToolCategory
	RiskLevel RiskLevel
}

type ArtifactFilterKind string

const (
	ArtifactFilterByID         ArtifactFilterKind = "ById"
	ArtifactFilterByProjectID  ArtifactFilterKind = "ByProjectId"
	ArtifactFilterBySourceID   ArtifactFilterKind = "BySourceId"
	ArtifactFilterBySourceType ArtifactFilterKind = "BySourceType"
	ArtifactFilterAll          ArtifactFilterKind = "All"
)

type ArtifactFilter struct {
	Kind       ArtifactFilterKind
	ID         string
	ProjectID  string
	SourceID   string
	SourceType ArtifactSourceType
}
