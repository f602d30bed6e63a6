// Package graph implements the task orchestration graph runtime: a
// concurrency-safe Context, a durable Session, pluggable SessionStorage, and
// a FlowRunner that executes nodes one at a time per session. Grounded on
// original_source task_orchestrator/src/use_cases/flow_runner.rs and the
// spec §9 "graph-as-interpreter" design note: nodes are pure
// (Context) -> TaskResult steps, so the entire resumable state is
// Context + current_task_id.
package graph

import "sync"

// Context is a process-local, concurrency-safe string-keyed map of typed
// values that graph nodes read and write.
type Context struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{data: make(map[string]any)}
}

// Get reads a value by key.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// Set writes a value by key.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// GetString is a convenience accessor for string-valued keys such as
// routing_decision.
func (c *Context) GetString(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt is a convenience accessor for int-valued keys such as cycles.
func (c *Context) GetInt(key string) (int, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	i, ok := v.(int)
	return i, ok
}

// Snapshot returns a shallow copy of the Context's key/value pairs, taken as
// of the completion of the just-executed node (spec §4.5 predicate
// evaluation contract).
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.data))
	for k, v := range c.data {
		out[k] = v
	}
	return out
}
