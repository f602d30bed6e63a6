package provider

import (
	"context"
	"fmt"
	"time"

	"taskforge/internal/domain"
)

// openAITextAdapter extends OpenAIAdapter with the decomposition and
// PRD-parsing operations, kept in a wrapper rather than on OpenAIAdapter
// itself so the base adapter stays focused on simple completions
// (enhancement and comprehension tests). The Factory hands this wrapper to
// every text role, since its textAdapter interface requires the fuller set.
type openAITextAdapter struct {
	*OpenAIAdapter
}

// DecomposeTask implements llmport.TaskDecompositionPort.
func (o *openAITextAdapter) DecomposeTask(ctx context.Context, task *domain.Task) ([]domain.Task, error) {
	prompt := fmt.Sprintf("Break the task titled %q into 3 to 5 short subtask titles, one per line, no numbering.", task.Title)
	raw, err := o.complete(ctx, decompositionSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	titles := parseLines(raw, 3, 5)
	if len(titles) < 3 {
		return nil, fmt.Errorf("%w: decomposition produced %d subtasks, need 3..5", domain.ErrParse, len(titles))
	}
	now := time.Now().UTC()
	subtasks := make([]domain.Task, 0, len(titles))
	for _, title := range titles {
		subtasks = append(subtasks, domain.Task{
			Title: title, Status: domain.StatusTodo, ParentTaskID: &task.ID,
			Assignee: task.Assignee, DueDate: task.DueDate, CreatedAt: now, UpdatedAt: now,
		})
	}
	return subtasks, nil
}

// ParsePRDToTasks implements llmport.PRDParserPort.
func (o *openAITextAdapter) ParsePRDToTasks(ctx context.Context, prd *domain.PRD) ([]domain.Task, error) {
	prompt := fmt.Sprintf("Given the PRD %q with objectives %v, list one task title per line that implements the objectives.", prd.Title, prd.Objectives)
	raw, err := o.complete(ctx, prdParserSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	titles := parseLines(raw, 1, 50)
	if len(titles) == 0 {
		return nil, fmt.Errorf("%w: PRD parse produced zero tasks", domain.ErrParse)
	}
	now := time.Now().UTC()
	tasks := make([]domain.Task, 0, len(titles))
	for _, title := range titles {
		tasks = append(tasks, domain.Task{Title: title, Status: domain.StatusTodo, SourcePRDID: &prd.ID, CreatedAt: now, UpdatedAt: now})
	}
	return tasks, nil
}
