package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/diegobridge/internal/recipe"
	"github.com/me/diegobridge/pkg/model"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Run and inspect one-off tasks",
	}
	cmd.AddCommand(newTaskRunCmd(a), newTaskGetCmd(a), newTaskCancelCmd(a), newTaskListCmd(a))
	return cmd
}

func newTaskRunCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "run <request.yaml>",
		Short: "Build a task definition and desire it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var f taskFile
			if err := readRequest(args[0], &f); err != nil {
				return err
			}
			if f.Stack == "" {
				f.Stack = a.cfg.DefaultStack
			}
			blobs, err := a.blobstore()
			if err != nil {
				return err
			}
			details, err := taskDetails(ctx, &f, blobs)
			if err != nil {
				return err
			}
			req, err := a.builder().TaskRecipe(details)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), req); err != nil {
				return err
			}
			if dryRun {
				return nil
			}

			c, err := a.client()
			if err != nil {
				return err
			}
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			now := time.Now().UTC()
			task := &model.Task{
				ID:          f.TaskGUID,
				AppGUID:     f.AppGUID,
				Name:        f.Name,
				Command:     f.Command,
				DropletGUID: f.DropletGUID,
				State:       model.TaskStatePending,
				MemoryMB:    req.TaskDefinition.MemoryMb,
				DiskMB:      req.TaskDefinition.DiskMb,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := st.CreateTask(ctx, task); err != nil {
				return fmt.Errorf("record task: %w", err)
			}

			if err := c.DesireTask(ctx, req); err != nil {
				failed := model.TaskCompletion{Failed: true, FailureReason: err.Error()}
				if cerr := st.CompleteTask(ctx, task.ID, failed); cerr != nil {
					return errors.Join(err, cerr)
				}
				return err
			}
			a.logger.Info("task desired", "task_id", task.ID, "domain", recipe.TaskDomain)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the task definition without desiring it")
	return cmd
}

func newTaskGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <guid>",
		Short: "Show a task as the BBS sees it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			task, err := c.TaskByGUID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), task)
		},
	}
}

func newTaskCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <guid>",
		Short: "Cancel a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.CancelTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s cancelled.\n", args[0])
			return nil
		},
	}
}

func newTaskListCmd(a *app) *cobra.Command {
	var domain, cell string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			tasks, err := c.Tasks(cmd.Context(), domain, cell)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(w, "No tasks found.")
				return nil
			}
			fmt.Fprintf(w, "%-40s  %-10s  %-16s  %-8s  %s\n", "GUID", "STATE", "DOMAIN", "MEMORY", "CREATED")
			fmt.Fprintf(w, "%-40s  %-10s  %-16s  %-8s  %s\n", "----", "-----", "------", "------", "-------")
			for _, t := range tasks {
				state := t.State.String()
				if t.Failed {
					state = "Failed"
				}
				var mem string
				if t.TaskDefinition != nil {
					mem = megabytes(t.TaskDefinition.MemoryMb)
				}
				fmt.Fprintf(w, "%-40s  %-10s  %-16s  %-8s  %s\n", t.TaskGuid, state, t.Domain, mem, since(t.CreatedAt))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&domain, "domain", "", "Only tasks in this domain")
	cmd.Flags().StringVar(&cell, "cell", "", "Only tasks on this cell")
	return cmd
}
