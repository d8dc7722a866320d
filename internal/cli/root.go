// Package cli is the command-line front end over the stores. It is a
// thin view layer: commands read store state, invoke store mutations,
// and consult the permission evaluator to fail fast on actions the
// server would reject anyway.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/taskcamp/taskcamp/pkg/apiclient"
	"github.com/taskcamp/taskcamp/pkg/config"
	"github.com/taskcamp/taskcamp/pkg/logutils"
	"github.com/taskcamp/taskcamp/pkg/model"
	"github.com/taskcamp/taskcamp/pkg/store"
)

// app wires the config, the API client and the stores together once
// per invocation. Commands receive it instead of reaching for globals.
type app struct {
	config *config.Config
	stores *store.Stores
}

func newApp() *app {
	cfg := config.GetConfig()
	tokens := apiclient.NewFileTokenStore(cfg.CredentialsFile)
	api := apiclient.New(cfg, tokens)
	return &app{config: cfg, stores: store.New(api, cfg)}
}

func NewRootCmd() *cobra.Command {
	application := &app{}

	rootCmd := &cobra.Command{
		Use:           "taskcamp",
		Short:         "taskcamp is a project management client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if err := godotenv.Load(); err != nil {
				logutils.Log.Debug("no .env file, skipping")
			}
			*application = *newApp()
		},
	}

	rootCmd.AddCommand(newAuthCommands(application)...)
	rootCmd.AddCommand(
		newProjectCmd(application),
		newTaskCmd(application),
		newNoteCmd(application),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if errors.Is(err, apiclient.ErrSessionExpired) {
			fmt.Fprintln(os.Stderr, "Your session has expired. Please log in again.")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// requireUser initializes the auth store and returns the current user,
// failing when no session is active.
func (a *app) requireUser(ctx context.Context) (*model.User, error) {
	if err := a.stores.Auth.Initialize(ctx); err != nil {
		return nil, err
	}
	user := a.stores.Auth.User()
	if user == nil {
		return nil, errors.New("not logged in, run `taskcamp login` first")
	}
	return user, nil
}

// membersFor loads the member list the permission evaluator needs.
func (a *app) membersFor(ctx context.Context, projectID string) ([]model.ProjectMember, error) {
	return a.stores.Projects.FetchProjectMembers(ctx, projectID, false)
}

// denied is the locally synthesized permission error: it never enters
// the network path.
func denied(action string) error {
	return fmt.Errorf("you do not have permission to %s in this project", action)
}
