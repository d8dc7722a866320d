package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskcamp/taskcamp/pkg/apiclient"
	"github.com/taskcamp/taskcamp/pkg/model"
	"github.com/taskcamp/taskcamp/pkg/permission"
)

func newTaskCmd(a *app) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks and subtasks",
	}

	boardCmd := &cobra.Command{
		Use:   "board <project-id>",
		Short: "Show the kanban board of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireUser(cmd.Context()); err != nil {
				return err
			}
			if _, err := a.stores.Tasks.FetchTasks(cmd.Context(), args[0]); err != nil {
				return err
			}
			for _, status := range model.AllTaskStatuses {
				tasks := a.stores.Tasks.TasksByStatus(status)
				fmt.Printf("== %s (%d)\n", status.Label(), len(tasks))
				for _, task := range tasks {
					assignee := task.AssignedToID()
					if assignee == "" {
						assignee = "unassigned"
					}
					fmt.Printf("   %s  %s  [%s]\n", task.ID, task.Title, assignee)
				}
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List the tasks of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireUser(cmd.Context()); err != nil {
				return err
			}
			tasks, err := a.stores.Tasks.FetchTasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tSUBTASKS")
			for _, task := range tasks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", task.ID, task.Title, task.Status, len(task.Subtasks))
			}
			return w.Flush()
		},
	}

	var title, description, assignedTo string
	var attachments []string
	createCmd := &cobra.Command{
		Use:   "create <project-id>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			members, err := a.membersFor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !permission.CanCreateTask(user, members) {
				return denied("create tasks")
			}
			form := apiclient.TaskForm{
				Title:       title,
				Description: description,
				Status:      model.TaskStatusTodo,
				AssignedTo:  assignedTo,
			}
			for _, path := range attachments {
				content, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				form.Attachments = append(form.Attachments, apiclient.FileAttachment{
					Name:    filepath.Base(path),
					Content: content,
				})
			}
			task, err := a.stores.Tasks.CreateTask(cmd.Context(), args[0], form)
			if err != nil {
				return err
			}
			fmt.Println("Created task", task.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&title, "title", "", "task title")
	createCmd.Flags().StringVar(&description, "description", "", "task description")
	createCmd.Flags().StringVar(&assignedTo, "assign", "", "assignee user id")
	createCmd.Flags().StringSliceVar(&attachments, "attach", nil, "file(s) to attach")
	_ = createCmd.MarkFlagRequired("title")

	var status string
	statusCmd := &cobra.Command{
		Use:   "status <project-id> <task-id>",
		Short: "Move a task to another board column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			members, err := a.membersFor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !permission.CanEditTask(user, members) {
				return denied("edit tasks")
			}
			next := model.TaskStatus(status)
			if !next.Valid() {
				return fmt.Errorf("invalid status %q, want todo, in_progress or done", status)
			}
			// Warm the cache; ChangeTaskStatus only touches cached tasks.
			if _, err := a.stores.Tasks.FetchTasks(cmd.Context(), args[0]); err != nil {
				return err
			}
			task, err := a.stores.Tasks.ChangeTaskStatus(cmd.Context(), args[0], args[1], next)
			if err != nil {
				return err
			}
			fmt.Printf("%s is now %s\n", task.Title, task.Status.Label())
			return nil
		},
	}
	statusCmd.Flags().StringVar(&status, "to", "", "target status: todo, in_progress or done")
	_ = statusCmd.MarkFlagRequired("to")

	deleteCmd := &cobra.Command{
		Use:   "delete <project-id> <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			members, err := a.membersFor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !permission.CanEditTask(user, members) {
				return denied("edit tasks")
			}
			return a.stores.Tasks.DeleteTask(cmd.Context(), args[0], args[1])
		},
	}

	subtaskCmd := newSubtaskCmd(a)

	taskCmd.AddCommand(boardCmd, listCmd, createCmd, statusCmd, deleteCmd, subtaskCmd)
	return taskCmd
}

func newSubtaskCmd(a *app) *cobra.Command {
	subtaskCmd := &cobra.Command{
		Use:   "subtask",
		Short: "Manage the subtasks of a task",
	}

	var title string
	addCmd := &cobra.Command{
		Use:   "add <project-id> <task-id>",
		Short: "Add a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			members, err := a.membersFor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !permission.CanCreateSubtask(user, members) {
				return denied("create subtasks")
			}
			subtask, err := a.stores.Tasks.CreateSubtask(cmd.Context(), args[0], args[1], title)
			if err != nil {
				return err
			}
			fmt.Println("Created subtask", subtask.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&title, "title", "", "subtask title")
	_ = addCmd.MarkFlagRequired("title")

	toggleCmd := &cobra.Command{
		Use:   "toggle <project-id> <task-id> <subtask-id>",
		Short: "Flip a subtask's completion",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			members, err := a.membersFor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !permission.CanUpdateSubtask(user, members) {
				return denied("update subtasks")
			}
			// Load the parent so the subtask cache is populated.
			if _, err := a.stores.Tasks.FetchTask(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			subtask, err := a.stores.Tasks.ToggleSubtask(cmd.Context(), args[0], args[2])
			if err != nil {
				return err
			}
			if subtask.IsCompleted {
				fmt.Println("Completed:", subtask.Title)
			} else {
				fmt.Println("Reopened:", subtask.Title)
			}
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <project-id> <subtask-id>",
		Short: "Delete a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			members, err := a.membersFor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !permission.CanDeleteSubtask(user, members) {
				return denied("delete subtasks")
			}
			return a.stores.Tasks.DeleteSubtask(cmd.Context(), args[0], args[1])
		},
	}

	subtaskCmd.AddCommand(addCmd, toggleCmd, removeCmd)
	return subtaskCmd
}
