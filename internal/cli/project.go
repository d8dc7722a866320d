package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskcamp/taskcamp/pkg/apiclient"
	"github.com/taskcamp/taskcamp/pkg/model"
	"github.com/taskcamp/taskcamp/pkg/permission"
)

func newProjectCmd(a *app) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects and their members",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your projects and your role in each",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.requireUser(cmd.Context()); err != nil {
				return err
			}
			projects, err := a.stores.Projects.FetchProjects(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tROLE\tMEMBERS")
			for _, item := range projects {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
					item.Project.ID, item.Project.Name, item.Role, item.Project.Members)
			}
			return w.Flush()
		},
	}

	var name, description string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project (you become its admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := a.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			if !permission.CanCreateProject(user) {
				return denied("create projects")
			}
			project, err := a.stores.Projects.CreateProject(cmd.Context(), apiclient.ProjectData{
				Name:        name,
				Description: description,
			})
			if err != nil {
				return err
			}
			fmt.Println("Created project", project.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "project name")
	createCmd.Flags().StringVar(&description, "description", "", "project description")
	_ = createCmd.MarkFlagRequired("name")

	updateCmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Rename or re-describe a project",
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
			if !permission.CanEditProject(user, members) {
				return denied("edit this project")
			}
			_, err = a.stores.Projects.UpdateProject(cmd.Context(), args[0], apiclient.ProjectData{
				Name:        name,
				Description: description,
			})
			return err
		},
	}
	updateCmd.Flags().StringVar(&name, "name", "", "project name")
	updateCmd.Flags().StringVar(&description, "description", "", "project description")

	deleteCmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project",
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
			if !permission.CanDeleteProject(user, members) {
				return denied("delete this project")
			}
			return a.stores.Projects.DeleteProject(cmd.Context(), args[0])
		},
	}

	membersCmd := &cobra.Command{
		Use:   "members <project-id>",
		Short: "List the members of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireUser(cmd.Context()); err != nil {
				return err
			}
			project, members, err := a.stores.Projects.FetchProjectWithMembers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s (%d members)\n", project.Name, len(members))
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tEMAIL\tROLE\tJOINED")
			for _, member := range members {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					member.User.Username, member.User.Email, member.Role,
					member.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}

	var email, role string
	memberAddCmd := &cobra.Command{
		Use:   "member-add <project-id>",
		Short: "Invite a user to a project",
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
			if !permission.CanManageMembers(user, members) {
				return denied("manage members")
			}
			return a.stores.Projects.AddMember(cmd.Context(), args[0], apiclient.MemberData{
				Email: email,
				Role:  model.Role(role),
			})
		},
	}
	memberAddCmd.Flags().StringVar(&email, "email", "", "invitee email")
	memberAddCmd.Flags().StringVar(&role, "role", string(model.RoleMember), "role: admin, project_admin or member")
	_ = memberAddCmd.MarkFlagRequired("email")

	memberRoleCmd := &cobra.Command{
		Use:   "member-role <project-id> <user-id>",
		Short: "Change a member's role",
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
			if !permission.CanManageMembers(user, members) {
				return denied("manage members")
			}
			return a.stores.Projects.UpdateMemberRole(cmd.Context(), args[0], args[1], model.Role(role))
		},
	}
	memberRoleCmd.Flags().StringVar(&role, "role", "", "new role: admin, project_admin or member")
	_ = memberRoleCmd.MarkFlagRequired("role")

	memberRemoveCmd := &cobra.Command{
		Use:   "member-remove <project-id> <user-id>",
		Short: "Remove a member from a project",
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
			var target *model.User
			for i := range members {
				if members[i].User.ID == args[1] {
					target = &members[i].User
					break
				}
			}
			if decision := permission.CanRemoveMember(user, target, members); !decision.Allowed {
				return fmt.Errorf("%s", decision.Message)
			}
			return a.stores.Projects.RemoveMember(cmd.Context(), args[0], args[1])
		},
	}

	projectCmd.AddCommand(listCmd, createCmd, updateCmd, deleteCmd,
		membersCmd, memberAddCmd, memberRoleCmd, memberRemoveCmd)
	return projectCmd
}
