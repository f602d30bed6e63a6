package provider

import (
	"time"

	"taskforge/internal/config"
)

// Role is the closed set of logical LLM capability slots (spec §4.3).
type Role string

const (
	RoleEnhancer   Role = "Enhancer"
	RoleDecomposer Role = "Decomposer"
	RoleRouter     Role = "Router"
	RoleEmbedder   Role = "Embedder"
	RoleVision     Role = "Vision"
	RoleAgent      Role = "Agent"
	RoleGeneralist Role = "Generalist"
)

// httpMessage is the wire shape shared by the Anthropic- and OpenAI-style
// hand-rolled adapters, grounded on the teacher's AnthropicMessage /
// OpenAIMessage structs (internal/perception/client_types.go).
type httpMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// defaultHTTPTimeout mirrors the teacher's 10-minute client timeout
// ceiling; actual per-call timeouts are bounded tighter by config.
const defaultHTTPTimeout = 10 * time.Minute

func timeoutFor(prov config.ProviderConfig) time.Duration {
	if prov.TimeoutSeconds <= 0 {
		return defaultHTTPTimeout
	}
	return time.Duration(prov.TimeoutSeconds) * time.Second
}
