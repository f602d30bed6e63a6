// Package llmport declares the abstract LLM operation contracts ("ports" in
// the hexagonal sense) that graph nodes and the RAG service depend on.
// Concrete adapters live in internal/provider. Grounded on the teacher's
// LLMClient interface and optional-capability type-assertion idiom
// (internal/types/interfaces.go).
package llmport

import (
	"context"

	"taskforge/internal/domain"
)

// TaskEnhancementPort generates a model-authored improvement for a Task.
type TaskEnhancementPort interface {
	GenerateEnhancement(ctx context.Context, task *domain.Task) (domain.Enhancement, error)
}

// ComprehensionTestPort generates a check of a Task's understanding.
type ComprehensionTestPort interface {
	GenerateComprehensionTest(ctx context.Context, task *domain.Task, testType string) (domain.ComprehensionTest, error)
}

// TaskDecompositionPort explodes a complex Task into 3..5 subtasks.
type TaskDecompositionPort interface {
	DecomposeTask(ctx context.Context, task *domain.Task) ([]domain.Task, error)
}

// PRDParserPort turns a parsed PRD into a sequence of Tasks.
type PRDParserPort interface {
	ParsePRDToTasks(ctx context.Context, prd *domain.PRD) ([]domain.Task, error)
}

// EmbeddingPort produces fixed-dimension embeddings for text.
type EmbeddingPort interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	EmbeddingDimension() int
}

// VisionResult is the outcome of describing an image or page.
type VisionResult struct {
	Description  string
	ProcessingMs int64
}

// VisionPort describes images/pages via a multimodal model.
type VisionPort interface {
	DescribeImage(ctx context.Context, base64Data, mimeType string, hint string) (VisionResult, error)
	DescribePage(ctx context.Context, base64Data, mimeType string, hint string) (VisionResult, error)
}

// StreamTokenKind tags the variant of a streamed agent token.
type StreamTokenKind string

const (
	TokenContent       StreamTokenKind = "Content"
	TokenToolCallStart StreamTokenKind = "ToolCallStart"
	TokenToolCallEnd   StreamTokenKind = "ToolCallEnd"
	TokenDone          StreamTokenKind = "Done"
	TokenError         StreamTokenKind = "Error"
)

// ToolCall describes one invocation of a named tool with JSON arguments.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// StreamToken is one element of the FIFO agent token stream. Exactly one
// field set is meaningful per Kind.
type StreamToken struct {
	Kind         StreamTokenKind
	Content      string
	ToolCall     ToolCall
	ToolCallName string
	ToolResult   string
	ErrMsg       string
}

// Message is one turn in a chat history passed to LLMAgentPort.
type Message struct {
	Role    string
	Content string
}

// ToolDefinition describes a callable tool: its name, JSON-schema
// parameters, and human description. Call() executes it.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
	Call        func(ctx context.Context, args map[string]any) (string, error)
}

// AgentStream is the single-producer/single-consumer channel pair returned
// by LLMAgentPort.ChatWithTools. Tokens arrive in strict producer order and
// the stream terminates with exactly one Done or Error token.
type AgentStream struct {
	Tokens <-chan StreamToken
	Cancel func()
}

// LLMAgentPort drives a tool-calling chat completion as a token stream.
type LLMAgentPort interface {
	ChatWithTools(ctx context.Context, messages []Message, tools []ToolDefinition) (AgentStream, error)
}
