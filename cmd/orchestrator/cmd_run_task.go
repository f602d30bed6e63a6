package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"taskforge/internal/domain"
	"taskforge/internal/graph"
	"taskforge/internal/orchestrator"
	"taskforge/internal/provider"
)

var (
	runTaskTitle    string
	runTaskAssignee string
)

var runTaskCmd = &cobra.Command{
	Use:   "run-task",
	Short: "Create a Task from --title and drive it through the orchestration graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		if runTaskTitle == "" {
			return fmt.Errorf("--title is required")
		}

		factory, err := provider.New(cfg)
		if err != nil {
			return fmt.Errorf("building provider factory: %w", err)
		}

		enhancer, err := factory.CreateEnhancerAdapter()
		if err != nil {
			return err
		}
		comprehender, err := factory.CreateGeneralistAdapter()
		if err != nil {
			return err
		}
		decomposer, err := factory.CreateDecomposerAdapter()
		if err != nil {
			return err
		}

		o := orchestrator.New(orchestrator.Deps{
			Tasks:          st,
			Enhancer:       enhancer,
			Comprehender:   comprehender,
			Decomposer:     decomposer,
			Storage:        graph.NewSQLSessionStorage(st.DB()),
			ComprehendType: "short_answer",
			MaxCycles:      cfg.MaxComprehensionCycles,
		})

		task := domain.NewTaskFromTitle(runTaskTitle)
		if runTaskAssignee != "" {
			task.Assignee = &runTaskAssignee
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		final, err := o.RunTask(ctx, task)
		if err != nil {
			return fmt.Errorf("running task: %w", err)
		}

		fmt.Printf("task %s finished with status %s\n", final.ID, final.Status)
		fmt.Printf("  enhancements: %d, comprehension tests: %d, subtasks: %d\n",
			len(final.Enhancements), len(final.ComprehensionTests), len(final.SubtaskIDs))
		return nil
	},
}

func init() {
	runTaskCmd.Flags().StringVar(&runTaskTitle, "title", "", "Title of the task to create and run (required)")
	runTaskCmd.Flags().StringVar(&runTaskAssignee, "assignee", "", "Optional assignee name")
}
