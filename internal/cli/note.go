package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskcamp/taskcamp/pkg/permission"
)

func newNoteCmd(a *app) *cobra.Command {
	noteCmd := &cobra.Command{
		Use:   "note",
		Short: "Manage project notes",
	}

	listCmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List the notes of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireUser(cmd.Context()); err != nil {
				return err
			}
			notes, err := a.stores.Notes.FetchNotes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, note := range notes {
				fmt.Printf("%s  %s\n    %s\n", note.ID,
					note.CreatedAt.Format("2006-01-02 15:04"), note.Content)
			}
			return nil
		},
	}

	var content string
	createCmd := &cobra.Command{
		Use:   "create <project-id>",
		Short: "Create a note",
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
			if !permission.CanCreateNote(user, members) {
				return denied("create notes")
			}
			note, err := a.stores.Notes.CreateNote(cmd.Context(), args[0], content)
			if err != nil {
				return err
			}
			fmt.Println("Created note", note.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&content, "content", "", "note content")
	_ = createCmd.MarkFlagRequired("content")

	updateCmd := &cobra.Command{
		Use:   "update <project-id> <note-id>",
		Short: "Rewrite a note",
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
			if !permission.CanEditNote(user, members) {
				return denied("edit notes")
			}
			_, err = a.stores.Notes.UpdateNote(cmd.Context(), args[0], args[1], content)
			return err
		},
	}
	updateCmd.Flags().StringVar(&content, "content", "", "note content")
	_ = updateCmd.MarkFlagRequired("content")

	deleteCmd := &cobra.Command{
		Use:   "delete <project-id> <note-id>",
		Short: "Delete a note",
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
			if !permission.CanDeleteNote(user, members) {
				return denied("delete notes")
			}
			return a.stores.Notes.DeleteNote(cmd.Context(), args[0], args[1])
		},
	}

	noteCmd.AddCommand(listCmd, createCmd, updateCmd, deleteCmd)
	return noteCmd
}
