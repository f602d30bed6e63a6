// Package provider implements role-based construction of LLM port adapters
// from configuration, plus the hand-rolled/SDK-backed adapters themselves.
// Grounded on original_source rigger_core/src/config/{provider.rs,
// task_slots.rs} and the teacher's client_factory.go env-priority pattern.
package provider

import (
	"context"
	"fmt"
	"os"

	"taskforge/internal/config"
	"taskforge/internal/domain"
	"taskforge/internal/llmport"
)

// envProviderPriority mirrors the teacher's DetectProvider() priority list
// (client_factory.go), trimmed to this repo's three supported provider
// types.
var envProviderPriority = []struct {
	EnvVar   string
	Provider string
}{
	{"ANTHROPIC_API_KEY", "anthropic"},
	{"OPENAI_API_KEY", "openai"},
	{"GEMINI_API_KEY", "gemini"},
}

// Factory constructs role-bound adapters from a loaded Config.
type Factory struct {
	cfg *config.Config
}

// New constructs a Factory around an already-validated Config.
func New(cfg *config.Config) (*Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", domain.ErrConfigInvalid)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Factory{cfg: cfg}, nil
}

// FromEnv builds a Factory from DefaultConfig() overridden by whichever
// provider env var is set first in envProviderPriority, mirroring
// Orchestrator::from_env in original_source task_orchestrator.
func FromEnv() (*Factory, error) {
	cfg := config.DefaultConfig()
	for _, candidate := range envProviderPriority {
		if os.Getenv(candidate.EnvVar) != "" {
			for role, slot := range cfg.TaskSlots {
				if _, ok := cfg.Providers[candidate.Provider]; ok {
					slot.ProviderName = candidate.Provider
					cfg.TaskSlots[role] = slot
				}
			}
			break
		}
	}
	return New(cfg)
}

func (f *Factory) slotFor(role Role) (config.SlotConfig, config.ProviderConfig, error) {
	slot, ok := f.cfg.TaskSlots[string(role)]
	if !ok || !slot.Enabled {
		return config.SlotConfig{}, config.ProviderConfig{}, fmt.Errorf("%w: role %s has no enabled slot", domain.ErrConfigInvalid, role)
	}
	prov, ok := f.cfg.Providers[slot.ProviderName]
	if !ok {
		return config.SlotConfig{}, config.ProviderConfig{}, fmt.Errorf("%w: role %s references unknown provider %s", domain.ErrConfigInvalid, role, slot.ProviderName)
	}
	return slot, prov, nil
}

func (f *Factory) apiKey(providerName string) (string, error) {
	return f.cfg.APIKeyFor(providerName)
}

// CreateEnhancerAdapter returns an adapter satisfying TaskEnhancementPort
// for the role-bound provider.
func (f *Factory) CreateEnhancerAdapter() (llmport.TaskEnhancementPort, error) {
	slot, prov, err := f.slotFor(RoleEnhancer)
	if err != nil {
		return nil, err
	}
	return f.textAdapterFor(slot, prov)
}

// CreateGeneralistAdapter returns an adapter satisfying
// ComprehensionTestPort, used both for generic comprehension-test
// generation and free-form generalist prompts.
func (f *Factory) CreateGeneralistAdapter() (llmport.ComprehensionTestPort, error) {
	slot, prov, err := f.slotFor(RoleGeneralist)
	if err != nil {
		return nil, err
	}
	return f.textAdapterFor(slot, prov)
}

// CreateDecomposerAdapter returns an adapter satisfying
// TaskDecompositionPort.
func (f *Factory) CreateDecomposerAdapter() (llmport.TaskDecompositionPort, error) {
	slot, prov, err := f.slotFor(RoleDecomposer)
	if err != nil {
		return nil, err
	}
	a, err := f.textAdapterFor(slot, prov)
	if err != nil {
		return nil, err
	}
	decomposer, ok := a.(llmport.TaskDecompositionPort)
	if !ok {
		return nil, fmt.Errorf("%w: provider %s has no decomposition adapter", domain.ErrProviderUnimplemented, slot.ProviderName)
	}
	return decomposer, nil
}

// CreateRouterAdapter returns an adapter satisfying PRDParserPort. The
// "Router" role is reserved for routing-adjacent LLM work (PRD intake);
// the deterministic Router graph node itself never calls an LLM (see
// internal/triage), matching spec §4.4's bounded-latency rationale.
func (f *Factory) CreateRouterAdapter() (llmport.PRDParserPort, error) {
	slot, prov, err := f.slotFor(RoleRouter)
	if err != nil {
		return nil, err
	}
	a, err := f.textAdapterFor(slot, prov)
	if err != nil {
		return nil, err
	}
	parser, ok := a.(llmport.PRDParserPort)
	if !ok {
		return nil, fmt.Errorf("%w: provider %s has no PRD parser adapter", domain.ErrProviderUnimplemented, slot.ProviderName)
	}
	return parser, nil
}

// CreateAgentAdapter returns an adapter satisfying LLMAgentPort.
func (f *Factory) CreateAgentAdapter() (llmport.LLMAgentPort, error) {
	slot, prov, err := f.slotFor(RoleAgent)
	if err != nil {
		return nil, err
	}
	if prov.Type != "anthropic" {
		return nil, fmt.Errorf("%w: streaming agent adapter only implemented for anthropic provider type, got %s", domain.ErrProviderUnimplemented, prov.Type)
	}
	key, err := f.apiKey(slot.ProviderName)
	if err != nil {
		return nil, err
	}
	return NewAnthropicAdapter(key, prov.BaseURL, slot.Model, timeoutFor(prov), prov.MaxRetries), nil
}

// CreateEmbedderAdapter returns an adapter satisfying EmbeddingPort. Only
// the Gemini provider type implements embeddings in this repo.
func (f *Factory) CreateEmbedderAdapter(ctx context.Context, dimension int) (llmport.EmbeddingPort, error) {
	slot, prov, err := f.slotFor(RoleEmbedder)
	if err != nil {
		return nil, err
	}
	if prov.Type != "gemini" {
		return nil, fmt.Errorf("%w: embedding adapter only implemented for gemini provider type, got %s", domain.ErrProviderUnimplemented, prov.Type)
	}
	key, err := f.apiKey(slot.ProviderName)
	if err != nil {
		return nil, err
	}
	return NewGeminiAdapter(ctx, key, slot.Model, dimension)
}

// CreateVisionAdapter returns an adapter satisfying VisionPort. Only the
// Gemini provider type implements vision in this repo.
func (f *Factory) CreateVisionAdapter(ctx context.Context) (llmport.VisionPort, error) {
	slot, prov, err := f.slotFor(RoleVision)
	if err != nil {
		return nil, err
	}
	if prov.Type != "gemini" {
		return nil, fmt.Errorf("%w: vision adapter only implemented for gemini provider type, got %s", domain.ErrProviderUnimplemented, prov.Type)
	}
	key, err := f.apiKey(slot.ProviderName)
	if err != nil {
		return nil, err
	}
	return NewGeminiAdapter(ctx, key, slot.Model, 0)
}

// textAdapter is the union of the text-generation ports a hand-rolled HTTP
// adapter can satisfy; used internally to keep Create*Adapter methods
// type-assertion-based, matching the teacher's optional-capability idiom
// (internal/types/interfaces.go).
type textAdapter interface {
	llmport.TaskEnhancementPort
	llmport.ComprehensionTestPort
	llmport.TaskDecompositionPort
	llmport.PRDParserPort
}

func (f *Factory) textAdapterFor(slot config.SlotConfig, prov config.ProviderConfig) (textAdapter, error) {
	key, err := f.apiKey(slot.ProviderName)
	if err != nil {
		return nil, err
	}
	timeout := timeoutFor(prov)
	switch prov.Type {
	case "anthropic":
		return NewAnthropicAdapter(key, prov.BaseURL, slot.Model, timeout, prov.MaxRetries), nil
	case "openai":
		return &openAITextAdapter{OpenAIAdapter: NewOpenAIAdapter(key, prov.BaseURL, slot.Model, timeout, prov.MaxRetries)}, nil
	default:
		return nil, fmt.Errorf("%w: provider type %s has no text adapter", domain.ErrProviderUnimplemented, prov.Type)
	}
}
