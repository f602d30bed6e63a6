// Package nodes implements the standard orchestration graph's named steps:
// Router, Decompose, Enhance, Comprehend, Check, End. Grounded on
// original_source task_orchestrator/src/graph/nodes/*.rs (exact heuristics,
// routing_decision contract, cycles counter).
package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskforge/internal/domain"
	"taskforge/internal/graph"
	"taskforge/internal/llmport"
	"taskforge/internal/triage"
)

// TaskRepository is the subset of the store's task repository the graph
// nodes depend on: upsert-with-revision persistence.
type TaskRepository interface {
	Save(ctx context.Context, t *domain.Task) error
}

// taskFromContext reads the in-flight Task pointer out of the shared
// Context; nodes mutate it in place and persist via TaskRepository.
func taskFromContext(gctx *graph.Context) (*domain.Task, error) {
	v, ok := gctx.Get("task")
	if !ok {
		return nil, fmt.Errorf("context missing \"task\"")
	}
	t, ok := v.(*domain.Task)
	if !ok {
		return nil, fmt.Errorf("context \"task\" has unexpected type %T", v)
	}
	return t, nil
}

// RouterNode classifies a Task via the deterministic TriageService and
// writes routing_decision into the Context. It never calls an LLM port
// (spec §4.4's bounded-latency rationale).
type RouterNode struct {
	Triage *triage.Service
}

func NewRouterNode() *RouterNode { return &RouterNode{Triage: triage.NewService()} }

func (n *RouterNode) Name() string { return "Router" }

func (n *RouterNode) Execute(_ context.Context, gctx *graph.Context) (graph.TaskResult, error) {
	task, err := taskFromContext(gctx)
	if err != nil {
		return graph.TaskResult{}, err
	}
	decision := n.Triage.Classify(task)
	gctx.Set("routing_decision", string(decision))
	return graph.TaskResult{NextAction: graph.ActionContinue}, nil
}

// DecomposeNode explodes a complex Task into 3..5 subtasks via
// TaskDecompositionPort.
type DecomposeNode struct {
	Port  llmport.TaskDecompositionPort
	Tasks TaskRepository
}

func (n *DecomposeNode) Name() string { return "Decompose" }

func (n *DecomposeNode) Execute(ctx context.Context, gctx *graph.Context) (graph.TaskResult, error) {
	task, err := taskFromContext(gctx)
	if err != nil {
		return graph.TaskResult{}, err
	}
	task.Status = domain.StatusPendingDecomposition
	task.UpdatedAt = time.Now().UTC()
	if err := n.Tasks.Save(ctx, task); err != nil {
		return graph.TaskResult{NextAction: graph.ActionError, ErrMsg: err.Error()}, nil
	}
	subtasks, err := n.Port.DecomposeTask(ctx, task)
	if err != nil {
		return graph.TaskResult{NextAction: graph.ActionError, ErrMsg: err.Error()}, nil
	}
	ids := make([]string, 0, len(subtasks))
	for i := range subtasks {
		st := subtasks[i]
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		if err := n.Tasks.Save(ctx, &st); err != nil {
			return graph.TaskResult{NextAction: graph.ActionError, ErrMsg: err.Error()}, nil
		}
		ids = append(ids, st.ID)
	}
	task.SubtaskIDs = append(task.SubtaskIDs, ids...)
	task.Status = domain.StatusDecomposed
	task.UpdatedAt = time.Now().UTC()
	if err := task.Validate(); err != nil {
		return graph.TaskResult{NextAction: graph.ActionError, ErrMsg: err.Error()}, nil
	}
	if err := n.Tasks.Save(ctx, task); err != nil {
		return graph.TaskResult{NextAction: graph.ActionError, ErrMsg: err.Error()}, nil
	}
	gctx.Set("task", task)
	return graph.TaskResult{NextAction: graph.ActionEnd}, nil
}

// EnhanceNode appends a model-generated Enhancement via
// TaskEnhancementPort, then transitions to PendingComprehensionTest.
// Increments the Context's loop-safety "cycles" counter.
type EnhanceNode struct {
	Port  llmport.TaskEnhancementPort
	Tasks TaskRepository
}

func (n *EnhanceNode) Name() string { return "Enhance" }

func (n *EnhanceNode) Execute(ctx context.Context, gctx *graph.Context) (graph.TaskResult, error) {
	task, err := taskFromContext(gctx)
	if err != nil {
		return graph.TaskResult{}, err
	}
	task.Status = domain.StatusPendingEnhancement
	task.UpdatedAt = time.Now().UTC()
	if err := n.Tasks.Save(ctx, task); err != nil {
		return graph.TaskResult{NextAction: graph.ActionError, ErrMsg: err.Error()}, nil
	}
	enhancement, err := n.Port.GenerateEnhancement(ctx, task)
	if err != nil {
		return graph.TaskResult{NextAction: graph.ActionError, ErrMsg: err.Error()}, nil
	}
	if enhancement.EnhancementID == "" {
		enhancement.EnhancementID = uuid.NewString()
	}
	task.Enhancements = append(task.Enhancements, enhancement)
	task.Status = domain.StatusPendingComprehensionTest
	task.UpdatedAt = time.Now().UTC()
	if err := n.Tasks.Save(ctx, task); err != nil {
		return graph.TaskResult{NextAction: graph.ActionError, ErrMsg: err.Error()}, nil
	}
	gctx.Set("task", task)

	cycles, _ := gctx.GetInt("cycles")
	gctx.Set("cycles", cycles+1)

	return graph.TaskResult{NextAction: graph.ActionContinue}, nil
}

// ComprehendNode appends a ComprehensionTest via ComprehensionTestPort,
// configured with a fixed test_type, then transitions to PendingFollowOn.
type ComprehendNode struct {
	Port     llmport.ComprehensionTestPort
	TestType string
	Tasks    TaskRepository
}

func (n *ComprehendNode) Name() string { return "Comprehend" }

func (n *ComprehendNode) Execute(ctx context.Context, gctx *graph.Context) (graph.TaskResult, error) {
	task, err := taskFromContext(gctx)
	if err != nil {
		return graph.TaskResult{}, err
	}
	testType := n.TestType
	if testType == "" {
		testType = "short_answer"
	}
	test, err := n.Port.GenerateComprehensionTest(ctx, task, testType)
	if err != nil {
		return graph.TaskResult{NextAction: graph.ActionError, ErrMsg: err.Error()}, nil
	}
	if test.TestID == "" {
		test.TestID = uuid.NewString()
	}
	task.ComprehensionTests = append(task.ComprehensionTests, test)
	task.Status = domain.StatusPendingFollowOn
	task.UpdatedAt = time.Now().UTC()
	if err := n.Tasks.Save(ctx, task); err != nil {
		return graph.TaskResult{NextAction: graph.ActionError, ErrMsg: err.Error()}, nil
	}
	gctx.Set("task", task)
	return graph.TaskResult{NextAction: graph.ActionContinue}, nil
}

// PassPredicate decides whether the most recent ComprehensionTest passes.
// Exposed as a configurable field per spec §9's open question (default:
// question length <= 80, matching original_source
// check_test_result_node.rs exactly).
type PassPredicate func(test *domain.ComprehensionTest) bool

// DefaultPassPredicate is the spec's provisional heuristic.
func DefaultPassPredicate(test *domain.ComprehensionTest) bool {
	return len(test.Question) <= 80
}

// CheckNode evaluates the most recent ComprehensionTest and decides pass or
// fail, bounding the Enhance<->Comprehend loop with the Context's "cycles"
// counter.
type CheckNode struct {
	Pass       PassPredicate
	MaxCycles  int
	Tasks      TaskRepository
}

func NewCheckNode(tasks TaskRepository, maxCycles int) *CheckNode {
	return &CheckNode{Pass: DefaultPassPredicate, MaxCycles: maxCycles, Tasks: tasks}
}

func (n *CheckNode) Name() string { return "Check" }

func (n *CheckNode) Execute(ctx context.Context, gctx *graph.Context) (graph.TaskResult, error) {
	task, err := taskFromContext(gctx)
	if err != nil {
		return graph.TaskResult{}, err
	}

	cycles, _ := gctx.GetInt("cycles")
	if n.MaxCycles > 0 && cycles > n.MaxCycles {
		task.Status = domain.StatusErrored
		task.UpdatedAt = time.Now().UTC()
		if err := n.Tasks.Save(ctx, task); err != nil {
			return graph.TaskResult{NextAction: graph.ActionError, ErrMsg: err.Error()}, nil
		}
		gctx.Set("task", task)
		gctx.Set("routing_decision", "fail")
		// Task is marked Errored above; the node itself takes the End edge
		// directly rather than the normal pass/fail conditional, per spec
		// §4.6's loop-safety note ("Check forces status Errored ... and
		// transitions to End").
		return graph.TaskResult{NextAction: graph.ActionEnd, ErrMsg: domain.ErrMaxCyclesExceeded.Error()}, nil
	}

	pass := n.Pass
	if pass == nil {
		pass = DefaultPassPredicate
	}

	var ok bool
	if len(task.ComprehensionTests) == 0 {
		ok = false // fail-safe: empty test list never passes
	} else {
		last := task.ComprehensionTests[len(task.ComprehensionTests)-1]
		ok = pass(&last)
	}

	if ok {
		task.Status = domain.StatusOrchestrationComplete
		task.UpdatedAt = time.Now().UTC()
		if err := n.Tasks.Save(ctx, task); err != nil {
			return graph.TaskResult{NextAction: graph.ActionError, ErrMsg: err.Error()}, nil
		}
		gctx.Set("task", task)
		gctx.Set("routing_decision", "pass")
	} else {
		gctx.Set("routing_decision", "fail")
	}
	return graph.TaskResult{NextAction: graph.ActionContinue}, nil
}

// EndNode is the terminal node; it always yields End.
type EndNode struct{}

func (EndNode) Name() string { return "End" }

func (EndNode) Execute(_ context.Context, _ *graph.Context) (graph.TaskResult, error) {
	return graph.TaskResult{NextAction: graph.ActionEnd}, nil
}

// BuildGraph wires the standard graph's nodes and edges exactly per spec
// §4.6: Router -[decompose]-> Decompose -> End; Router -[else]-> Enhance ->
// Comprehend -> Check -[pass]-> End; Check -[fail]-> Enhance (loop).
func BuildGraph(router *RouterNode, decompose *DecomposeNode, enhance *EnhanceNode, comprehend *ComprehendNode, check *CheckNode) *graph.Graph {
	g := graph.NewGraph()
	end := EndNode{}

	g.AddNode(router, graph.Edge{
		Predicate: func(snap map[string]any) bool { return snap["routing_decision"] == "decompose" },
		Then:      decompose.Name(),
		Else:      enhance.Name(),
	})
	g.AddNode(decompose, graph.Edge{Unconditional: end.Name()})
	g.AddNode(enhance, graph.Edge{Unconditional: comprehend.Name()})
	g.AddNode(comprehend, graph.Edge{Unconditional: check.Name()})
	g.AddNode(check, graph.Edge{
		Predicate: func(snap map[string]any) bool { return snap["routing_decision"] == "pass" },
		Then:      end.Name(),
		Else:      enhance.Name(),
	})
	g.AddNode(end, graph.Edge{})
	return g
}
