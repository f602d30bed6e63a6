// Package agenttools builds the concrete llmport.ToolDefinition values the
// agent chat loop offers to an LLMAgentPort: search_artifacts, search_tasks,
// get_task_details, list_project_artifacts, get_prd_summary, and
// file_system. Grounded on spec §4.2's tool-calling contract and the
// teacher's ToolDefinition/Call idiom (internal/types/interfaces.go).
package agenttools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"taskforge/internal/domain"
	"taskforge/internal/llmport"
)

// TaskFinder is the subset of the store's task repository the tools need.
type TaskFinder interface {
	Find(ctx context.Context, filter domain.TaskFilter, opts domain.QueryOptions) ([]domain.Task, error)
	FindByID(ctx context.Context, id string) (*domain.Task, bool, error)
}

// ArtifactLister is the subset of the store's artifact repository the
// list_project_artifacts tool needs.
type ArtifactLister interface {
	FindArtifacts(ctx context.Context, filter domain.ArtifactFilter) ([]domain.Artifact, error)
}

// PRDFinder is the subset of the store's project repository the
// get_prd_summary tool needs.
type PRDFinder interface {
	FindPRDByID(ctx context.Context, id string) (*domain.PRD, bool, error)
}

// Searcher is the subset of the RAG service the search_artifacts tool needs.
type Searcher interface {
	Search(ctx context.Context, query string, k int, threshold *float64, projectID *string) ([]domain.ScoredArtifact, error)
}

// Deps wires every repository/service a tool may call. Nil fields are
// tolerated; the tool built from them errors clearly when invoked instead of
// panicking.
type Deps struct {
	Tasks     TaskFinder
	Artifacts ArtifactLister
	PRDs      PRDFinder
	Search    Searcher
	// FileSystemRoot bounds the file_system tool to one directory; reads and
	// lists outside this root are rejected.
	FileSystemRoot string
}

// BuildAll returns the six named tools from spec §4.2, each bound to the
// repositories in deps.
func BuildAll(deps Deps) []llmport.ToolDefinition {
	return []llmport.ToolDefinition{
		searchArtifactsTool(deps),
		searchTasksTool(deps),
		getTaskDetailsTool(deps),
		listProjectArtifactsTool(deps),
		getPRDSummaryTool(deps),
		fileSystemTool(deps),
	}
}

func argString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	return s, nil
}

func argInt(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func marshalResult(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshaling tool result: %w", err)
	}
	return string(b), nil
}

func searchArtifactsTool(deps Deps) llmport.ToolDefinition {
	return llmport.ToolDefinition{
		Name:        "search_artifacts",
		Description: "Semantic search over ingested project knowledge (PRDs, files, web research, user input). Returns the closest matches by cosine distance.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":      map[string]any{"type": "string", "description": "Natural-language search query"},
				"project_id": map[string]any{"type": "string", "description": "Restrict results to this project"},
				"limit":      map[string]any{"type": "integer", "description": "Maximum results to return (default 5)"},
			},
			"required": []string{"query", "project_id"},
		},
		Call: func(ctx context.Context, args map[string]any) (string, error) {
			if deps.Search == nil {
				return "", fmt.Errorf("search_artifacts: no search service configured")
			}
			query, err := argString(args, "query")
			if err != nil {
				return "", err
			}
			projectID, err := argString(args, "project_id")
			if err != nil {
				return "", err
			}
			limit := argInt(args, "limit", 5)
			results, err := deps.Search.Search(ctx, query, limit, nil, &projectID)
			if err != nil {
				return "", fmt.Errorf("search_artifacts: %w", err)
			}
			return marshalResult(results)
		},
	}
}

func searchTasksTool(deps Deps) llmport.ToolDefinition {
	return llmport.ToolDefinition{
		Name:        "search_tasks",
		Description: "Find tasks by status or assigned persona.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status":   map[string]any{"type": "string", "description": "Filter by exact Task status, e.g. Todo, InProgress"},
				"assignee": map[string]any{"type": "string", "description": "Filter by persona name"},
				"limit":    map[string]any{"type": "integer", "description": "Maximum results to return (default 20)"},
			},
		},
		Call: func(ctx context.Context, args map[string]any) (string, error) {
			if deps.Tasks == nil {
				return "", fmt.Errorf("search_tasks: no task repository configured")
			}
			filter := domain.TaskFilter{Kind: domain.TaskFilterAll}
			if status, ok := args["status"].(string); ok && status != "" {
				filter = domain.TaskFilter{Kind: domain.TaskFilterByStatus, Status: domain.TaskStatus(status)}
			} else if assignee, ok := args["assignee"].(string); ok && assignee != "" {
				filter = domain.TaskFilter{Kind: domain.TaskFilterByAgentPersona, Assignee: assignee}
			}
			limit := argInt(args, "limit", 20)
			tasks, err := deps.Tasks.Find(ctx, filter, domain.QueryOptions{
				Sort:  []domain.SortTerm{{Key: string(domain.TaskSortCreatedAt), Direction: domain.Descending}},
				Limit: &limit,
			})
			if err != nil {
				return "", fmt.Errorf("search_tasks: %w", err)
			}
			return marshalResult(tasks)
		},
	}
}

func getTaskDetailsTool(deps Deps) llmport.ToolDefinition {
	return llmport.ToolDefinition{
		Name:        "get_task_details",
		Description: "Fetch one task's full record by id, including its enhancements and comprehension tests.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"task_id": map[string]any{"type": "string"}},
			"required":   []string{"task_id"},
		},
		Call: func(ctx context.Context, args map[string]any) (string, error) {
			if deps.Tasks == nil {
				return "", fmt.Errorf("get_task_details: no task repository configured")
			}
			taskID, err := argString(args, "task_id")
			if err != nil {
				return "", err
			}
			task, found, err := deps.Tasks.FindByID(ctx, taskID)
			if err != nil {
				return "", fmt.Errorf("get_task_details: %w", err)
			}
			if !found {
				return "", fmt.Errorf("get_task_details: no task with id %s", taskID)
			}
			return marshalResult(task)
		},
	}
}

func listProjectArtifactsTool(deps Deps) llmport.ToolDefinition {
	return llmport.ToolDefinition{
		Name:        "list_project_artifacts",
		Description: "List every ingested artifact under a project, optionally filtered by source type.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"project_id":  map[string]any{"type": "string"},
				"source_type": map[string]any{"type": "string", "description": "PRD, File, WebResearch, or UserInput"},
			},
			"required": []string{"project_id"},
		},
		Call: func(ctx context.Context, args map[string]any) (string, error) {
			if deps.Artifacts == nil {
				return "", fmt.Errorf("list_project_artifacts: no artifact repository configured")
			}
			projectID, err := argString(args, "project_id")
			if err != nil {
				return "", err
			}
			filter := domain.ArtifactFilter{Kind: domain.ArtifactFilterByProjectID, ProjectID: projectID}
			if st, ok := args["source_type"].(string); ok && st != "" {
				filter = domain.ArtifactFilter{Kind: domain.ArtifactFilterBySourceType, SourceType: domain.ArtifactSourceType(st)}
			}
			artifacts, err := deps.Artifacts.FindArtifacts(ctx, filter)
			if err != nil {
				return "", fmt.Errorf("list_project_artifacts: %w", err)
			}
			if filter.Kind == domain.ArtifactFilterBySourceType {
				filtered := artifacts[:0]
				for _, a := range artifacts {
					if a.ProjectID == projectID {
						filtered = append(filtered, a)
					}
				}
				artifacts = filtered
			}
			return marshalResult(artifacts)
		},
	}
}

func getPRDSummaryTool(deps Deps) llmport.ToolDefinition {
	return llmport.ToolDefinition{
		Name:        "get_prd_summary",
		Description: "Fetch a PRD's title, objectives, tech stack, and constraints by id.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"prd_id": map[string]any{"type": "string"}},
			"required":   []string{"prd_id"},
		},
		Call: func(ctx context.Context, args map[string]any) (string, error) {
			if deps.PRDs == nil {
				return "", fmt.Errorf("get_prd_summary: no PRD repository configured")
			}
			prdID, err := argString(args, "prd_id")
			if err != nil {
				return "", err
			}
			prd, found, err := deps.PRDs.FindPRDByID(ctx, prdID)
			if err != nil {
				return "", fmt.Errorf("get_prd_summary: %w", err)
			}
			if !found {
				return "", fmt.Errorf("get_prd_summary: no prd with id %s", prdID)
			}
			return marshalResult(struct {
				Title       string   `json:"title"`
				Objectives  []string `json:"objectives"`
				TechStack   []string `json:"tech_stack"`
				Constraints []string `json:"constraints"`
			}{prd.Title, prd.Objectives, prd.TechStack, prd.Constraints})
		},
	}
}

// fileSystemTool exposes read/list under a single configured root. Paths
// are resolved relative to the root and rejected if they would escape it,
// mirroring the sandboxing a FileSystem-category AgentTool declares (spec
// §4.2, §6's AgentTool category/risk taxonomy).
func fileSystemTool(deps Deps) llmport.ToolDefinition {
	return llmport.ToolDefinition{
		Name:        "file_system",
		Description: "Read a file or list a directory under the configured project root. op is 'read' or 'list'.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"op":   map[string]any{"type": "string", "description": "'read' or 'list'"},
				"path": map[string]any{"type": "string", "description": "Path relative to the configured root"},
			},
			"required": []string{"op", "path"},
		},
		Call: func(ctx context.Context, args map[string]any) (string, error) {
			if deps.FileSystemRoot == "" {
				return "", fmt.Errorf("file_system: no root configured")
			}
			op, err := argString(args, "op")
			if err != nil {
				return "", err
			}
			relPath, err := argString(args, "path")
			if err != nil {
				return "", err
			}
			resolved, err := resolveUnderRoot(deps.FileSystemRoot, relPath)
			if err != nil {
				return "", fmt.Errorf("file_system: %w", err)
			}
			switch op {
			case "read":
				b, err := os.ReadFile(resolved)
				if err != nil {
					return "", fmt.Errorf("file_system: reading %s: %w", relPath, err)
				}
				return string(b), nil
			case "list":
				entries, err := os.ReadDir(resolved)
				if err != nil {
					return "", fmt.Errorf("file_system: listing %s: %w", relPath, err)
				}
				names := make([]string, 0, len(entries))
				for _, e := range entries {
					name := e.Name()
					if e.IsDir() {
						name += "/"
					}
					names = append(names, name)
				}
				return marshalResult(names)
			default:
				return "", fmt.Errorf("file_system: unknown op %q (want 'read' or 'list')", op)
			}
		},
	}
}

// resolveUnderRoot joins root and relPath, rejecting any result that would
// escape root via ".." components or an absolute path override.
func resolveUnderRoot(root, relPath string) (string, error) {
	cleanRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	joined := filepath.Join(cleanRoot, relPath)
	if joined != cleanRoot && !strings.HasPrefix(joined, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes configured root", relPath)
	}
	return joined, nil
}
