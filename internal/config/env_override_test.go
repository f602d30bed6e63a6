package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvOverrides_DatabaseURL(t *testing.T) {
	t.Setenv("TASKFORGE_DATABASE_URL", "file:override.db")
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	require.Equal(t, "file:override.db", cfg.DatabaseURL)
}

func TestEnvOverrides_RoleProviderAndModel(t *testing.T) {
	t.Setenv("TASKFORGE_ENHANCER_PROVIDER", "openai")
	t.Setenv("TASKFORGE_ENHANCER_MODEL", "gpt-4o")
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	slot := cfg.TaskSlots["Enhancer"]
	require.Equal(t, "openai", slot.ProviderName)
	require.Equal(t, "gpt-4o", slot.Model)
}

func TestMigrate_V1DefaultsMaxCycles(t *testing.T) {
	cfg := &Config{Version: 1}
	Migrate(cfg)
	require.Equal(t, CurrentVersion, cfg.Version)
	require.Equal(t, 3, cfg.MaxComprehensionCycles)
}

func TestValidate_UnknownProviderReference(t *testing.T) {
	cfg := DefaultConfig()
	slot := cfg.TaskSlots["Enhancer"]
	slot.ProviderName = "does-not-exist"
	cfg.TaskSlots["Enhancer"] = slot
	err := cfg.Validate()
	require.Error(t, err)
}
