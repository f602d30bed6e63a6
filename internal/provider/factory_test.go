package provider

import (
	"testing"

	"github.com/stretchr/testify/require"

	"taskforge/internal/config"
	"taskforge/internal/domain"
)

func TestFactory_New_RejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxComprehensionCycles = 0
	_, err := New(cfg)
	require.Error(t, err)
}

func TestFactory_CreateEnhancerAdapter_ConfigInvalidWithoutAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := config.DefaultConfig()
	f, err := New(cfg)
	require.NoError(t, err)
	_, err = f.CreateEnhancerAdapter()
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestFactory_CreateEmbedderAdapter_RejectsNonGeminiProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	slot := cfg.TaskSlots["Embedder"]
	slot.ProviderName = "anthropic"
	cfg.TaskSlots["Embedder"] = slot
	f, err := New(cfg)
	require.NoError(t, err)
	_, err = f.CreateEmbedderAdapter(nil, 768) //nolint:staticcheck // nil ctx acceptable: call fails before ctx use
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrProviderUnimplemented)
}

func TestMaskedAPIKeyFor(t *testing.T) {
	require.Equal(t, "****", config.MaskedAPIKeyFor("short"))
	require.Equal(t, "sk-a****1234", config.MaskedAPIKeyFor("sk-abcdefgh1234"))
}
