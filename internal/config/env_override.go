package config

import (
	"os"
	"strings"
)

// applyEnvOverrides layers environment variables over the parsed document.
// Precedence, highest first: TASKFORGE_<ROLE>_PROVIDER / _MODEL env vars,
// then TASKFORGE_DATABASE_URL, then whatever was loaded from file.
// Grounded on the teacher's applyEnvOverrides precedence-chain test style
// (internal/config/env_override_test.go).
func applyEnvOverrides(cfg *Config) {
	if url := os.Getenv("TASKFORGE_DATABASE_URL"); url != "" {
		cfg.DatabaseURL = url
	}
	for role, slot := range cfg.TaskSlots {
		envRole := strings.ToUpper(role)
		if p := os.Getenv("TASKFORGE_" + envRole + "_PROVIDER"); p != "" {
			slot.ProviderName = p
		}
		if m := os.Getenv("TASKFORGE_" + envRole + "_MODEL"); m != "" {
			slot.Model = m
		}
		cfg.TaskSlots[role] = slot
	}
}

// Migrate upgrades older config document versions in place. Migration is
// pure: identical input produces identical output, and existing slot
// bindings are preserved wherever the target schema still has a home for
// them (spec §9 "Configuration migration").
func Migrate(cfg *Config) {
	if cfg.Version < 1 {
		cfg.Version = 1
	}
	if cfg.Version == 1 {
		// v1 -> v2: introduced MaxComprehensionCycles; default it rather
		// than leaving a zero value that would fail Validate.
		if cfg.MaxComprehensionCycles == 0 {
			cfg.MaxComprehensionCycles = 3
		}
		cfg.Version = 2
	}
}
