// Package orchestrator assembles the graph runtime into a single facade:
// seed a Session from a Task (or a PRD), drive FlowRunner to completion, and
// return the resulting Task(s). Grounded on original_source
// task_orchestrator/src/use_cases/orchestrator.rs (from_env/new/run).
package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"taskforge/internal/domain"
	"taskforge/internal/graph"
	"taskforge/internal/graph/nodes"
	"taskforge/internal/llmport"
	"taskforge/internal/logging"
)

// maxRunnerSteps bounds FlowRunner.Run iterations per session as a runaway
// backstop independent of the graph's own cycles counter.
const maxRunnerSteps = 64

// Orchestrator assembles the orchestration graph once and drives sessions
// through it.
type Orchestrator struct {
	graph      *graph.Graph
	runner     *graph.FlowRunner
	tasks      nodes.TaskRepository
	storage    graph.SessionStorage
	prdParser  llmport.PRDParserPort
	maxParallel int
}

// Deps bundles the ports the graph's nodes need.
type Deps struct {
	Tasks          nodes.TaskRepository
	Enhancer       llmport.TaskEnhancementPort
	Comprehender   llmport.ComprehensionTestPort
	Decomposer     llmport.TaskDecompositionPort
	PRDParser      llmport.PRDParserPort
	Storage        graph.SessionStorage
	ComprehendType string
	MaxCycles      int
	// MaxParallelSessions bounds concurrent sessions in RunPRD. Defaults to 4.
	MaxParallelSessions int
}

// New builds an Orchestrator wired with deps, matching spec §4.6's fixed
// Router->Decompose/Enhance->Comprehend->Check topology.
func New(deps Deps) *Orchestrator {
	router := nodes.NewRouterNode()
	decompose := &nodes.DecomposeNode{Port: deps.Decomposer, Tasks: deps.Tasks}
	enhance := &nodes.EnhanceNode{Port: deps.Enhancer, Tasks: deps.Tasks}
	comprehend := &nodes.ComprehendNode{Port: deps.Comprehender, TestType: deps.ComprehendType, Tasks: deps.Tasks}
	check := nodes.NewCheckNode(deps.Tasks, deps.MaxCycles)

	g := nodes.BuildGraph(router, decompose, enhance, comprehend, check)

	storage := deps.Storage
	if storage == nil {
		storage = graph.NewMemorySessionStorage()
	}

	maxParallel := deps.MaxParallelSessions
	if maxParallel <= 0 {
		maxParallel = 4
	}

	return &Orchestrator{
		graph:       g,
		runner:      graph.NewFlowRunner(g, storage),
		tasks:       deps.Tasks,
		storage:     storage,
		prdParser:   deps.PRDParser,
		maxParallel: maxParallel,
	}
}

// RunPRD parses prd into Tasks via the PRD parser port, then drives one
// session per Task concurrently (spec §5: "different sessions may execute
// in parallel"), bounded by maxParallel via errgroup.SetLimit. Returns the
// final Tasks in the same order as the parser produced them. The first
// session to fail cancels the context shared by the others, and RunPRD
// returns that first error with no Tasks.
func (o *Orchestrator) RunPRD(ctx context.Context, prd *domain.PRD) ([]domain.Task, error) {
	if o.prdParser == nil {
		return nil, fmt.Errorf("orchestrator: no PRD parser port configured")
	}
	seeds, err := o.prdParser.ParsePRDToTasks(ctx, prd)
	if err != nil {
		return nil, fmt.Errorf("parsing prd %s: %w", prd.ID, err)
	}

	results := make([]domain.Task, len(seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxParallel)

	for i := range seeds {
		i := i
		seed := seeds[i]
		seed.SourcePRDID = &prd.ID
		g.Go(func() error {
			final, err := o.RunTask(gctx, &seed)
			if err != nil {
				return fmt.Errorf("running task %q from prd %s: %w", seed.Title, prd.ID, err)
			}
			results[i] = *final
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunTask seeds a fresh Session at Router for task, drives it to completion,
// pause, or error, and returns the final persisted Task.
func (o *Orchestrator) RunTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := o.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	sess := graph.NewSession("Router")
	sess.Context.Set("task", task)
	if err := o.storage.Save(ctx, sess); err != nil {
		return nil, err
	}

	if err := o.drive(ctx, sess.ID); err != nil {
		return nil, err
	}

	final, ok, err := o.findTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: task %s vanished mid-run", domain.ErrPersistence, task.ID)
	}
	return final, nil
}

// drive loops FlowRunner.Run until it reports a terminal status, per spec
// §4.5 step 7.
func (o *Orchestrator) drive(ctx context.Context, sessionID string) error {
	for i := 0; i < maxRunnerSteps; i++ {
		status, err := o.runner.Run(ctx, sessionID)
		if err != nil {
			return err
		}
		switch status.Kind {
		case graph.StatusRunning:
			continue
		case graph.StatusCompleted, graph.StatusWaitingForInput:
			return nil
		case graph.StatusError:
			logging.Orchestrator().Error("session ended in error", zap.String("session_id", sessionID), zap.String("reason", status.ErrMsg))
			return nil
		default:
			return fmt.Errorf("orchestrator: unexpected status %q", status.Kind)
		}
	}
	return fmt.Errorf("orchestrator: session %s exceeded %d runner steps without reaching a terminal status", sessionID, maxRunnerSteps)
}

func (o *Orchestrator) findTask(ctx context.Context, id string) (*domain.Task, bool, error) {
	type finder interface {
		FindByID(ctx context.Context, id string) (*domain.Task, bool, error)
	}
	f, ok := o.tasks.(finder)
	if !ok {
		return nil, false, fmt.Errorf("task repository does not support FindByID")
	}
	return f.FindByID(ctx, id)
}
