package graph

import (
	"context"
	"fmt"

	"taskforge/internal/domain"
	"taskforge/internal/logging"
)

// StatusKind is the closed set of outcomes FlowRunner.Run can report.
// "Running" is not one of the spec's externally-observed terminal states;
// it signals the orchestration facade to call Run again (spec §4.5 step 7:
// "The orchestration facade loops the runner until Completed,
// WaitingForInput, or Error").
type StatusKind string

const (
	StatusRunning         StatusKind = "Running"
	StatusCompleted       StatusKind = "Completed"
	StatusPaused          StatusKind = "Paused"
	StatusWaitingForInput StatusKind = "WaitingForInput"
	StatusError           StatusKind = "Error"
)

// Status is the outcome of one FlowRunner.Run call.
type Status struct {
	Kind       StatusKind
	NextTaskID string
	Reason     string
	ErrMsg     string
}

// FlowRunner drives one node of a Graph per Run call for a given session,
// persisting the session afterward. Grounded on original_source
// task_orchestrator/src/use_cases/flow_runner.rs.
type FlowRunner struct {
	Graph   *Graph
	Storage SessionStorage
}

// NewFlowRunner constructs a FlowRunner bound to a Graph and SessionStorage.
func NewFlowRunner(g *Graph, storage SessionStorage) *FlowRunner {
	return &FlowRunner{Graph: g, Storage: storage}
}

// Run executes exactly the current node of sessionID's graph position, then
// persists the updated session and reports status, per spec §4.5's 7-step
// execution contract.
func (r *FlowRunner) Run(ctx context.Context, sessionID string) (Status, error) {
	sess, ok, err := r.Storage.Get(ctx, sessionID)
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{}, fmt.Errorf("%w: session %s", domain.ErrSessionMissing, sessionID)
	}

	node, ok := r.Graph.Nodes[sess.CurrentTaskID]
	if !ok {
		return Status{Kind: StatusCompleted}, nil
	}

	result, err := node.Execute(ctx, sess.Context)
	if err != nil {
		logging.Audit(logging.AuditEvent{EventType: logging.AuditNodeExit, SessionID: sessionID, Node: node.Name(), Success: false, Message: err.Error()})
		return Status{Kind: StatusError, ErrMsg: err.Error()}, nil
	}
	logging.Audit(logging.AuditEvent{EventType: logging.AuditNodeExit, SessionID: sessionID, Node: node.Name(), Success: true})

	switch result.NextAction {
	case ActionWaitForInput:
		if err := r.Storage.Save(ctx, sess); err != nil {
			return Status{}, err
		}
		return Status{Kind: StatusWaitingForInput}, nil
	case ActionError:
		if err := r.Storage.Save(ctx, sess); err != nil {
			return Status{}, err
		}
		return Status{Kind: StatusError, ErrMsg: result.ErrMsg}, nil
	case ActionEnd:
		sess.CurrentTaskID = ""
		if err := r.Storage.Save(ctx, sess); err != nil {
			return Status{}, err
		}
		return Status{Kind: StatusCompleted}, nil
	case ActionContinue:
		edge, hasEdge := r.Graph.Edges[node.Name()]
		var next string
		if hasEdge {
			next = edge.Resolve(sess.Context.Snapshot())
		}
		if next == "" {
			sess.CurrentTaskID = ""
			if err := r.Storage.Save(ctx, sess); err != nil {
				return Status{}, err
			}
			return Status{Kind: StatusCompleted}, nil
		}
		sess.CurrentTaskID = next
		if err := r.Storage.Save(ctx, sess); err != nil {
			return Status{}, err
		}
		return Status{Kind: StatusRunning, NextTaskID: next}, nil
	default:
		return Status{}, fmt.Errorf("unknown next_action %q from node %s", result.NextAction, node.Name())
	}
}
