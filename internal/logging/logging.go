// Package logging wraps zap with category helpers and a structured audit
// event type, matching the teacher's category-based logging idiom
// (internal/logging/audit.go, cmd/nerd/main.go bootstrap).
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	base *zap.Logger
)

// Initialize installs the process-wide base logger. verbose enables debug
// level, matching teacher's cmd/nerd/main.go PersistentPreRunE.
func Initialize(verbose bool) error {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	mu.Lock()
	base = l
	mu.Unlock()
	return nil
}

// logger returns the process logger, defaulting to a no-op development
// logger if Initialize was never called (keeps library code safe to call
// from tests without bootstrapping zap).
func logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if base == nil {
		l, _ := zap.NewDevelopment()
		return l
	}
	return base
}

// Category returns a named child logger, e.g. logging.Category("graph").
func Category(name string) *zap.Logger {
	return logger().Named(name)
}

var (
	Store      = func() *zap.Logger { return Category("store") }
	Graph      = func() *zap.Logger { return Category("graph") }
	Provider   = func() *zap.Logger { return Category("provider") }
	Orchestrator = func() *zap.Logger { return Category("orchestrator") }
	RAG        = func() *zap.Logger { return Category("rag") }
)
