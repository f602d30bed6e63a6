package graph

import "context"

// NextAction is the closed set of outcomes a node's execution may report.
type NextAction string

const (
	ActionContinue     NextAction = "Continue"
	ActionWaitForInput NextAction = "WaitForInput"
	ActionEnd          NextAction = "End"
	ActionError        NextAction = "Error"
)

// TaskResult is what a node returns after reading/writing the Context.
type TaskResult struct {
	Output     any
	NextAction NextAction
	ErrMsg     string
}

// Node is a single step in the orchestration graph: a pure
// (Context) -> TaskResult function, per spec §9's graph-as-interpreter
// design note.
type Node interface {
	Name() string
	Execute(ctx context.Context, gctx *Context) (TaskResult, error)
}

// Predicate evaluates a conditional edge over a Context snapshot taken as of
// the completion of the just-executed node.
type Predicate func(snapshot map[string]any) bool

// Edge describes node A's outgoing transition(s). Unconditional is used
// when Predicate is nil; otherwise Predicate picks between Then and Else.
type Edge struct {
	Predicate Predicate
	Then      string
	Else      string

	Unconditional string
}

// Resolve picks the next node name given a Context snapshot.
func (e Edge) Resolve(snapshot map[string]any) string {
	if e.Predicate == nil {
		return e.Unconditional
	}
	if e.Predicate(snapshot) {
		return e.Then
	}
	return e.Else
}

// Graph is a directed multigraph of named nodes plus their outgoing edges.
type Graph struct {
	Nodes map[string]Node
	Edges map[string]Edge
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{Nodes: make(map[string]Node), Edges: make(map[string]Edge)}
}

// AddNode registers a node and its outgoing edge.
func (g *Graph) AddNode(n Node, edge Edge) {
	g.Nodes[n.Name()] = n
	g.Edges[n.Name()] = edge
}
