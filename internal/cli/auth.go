package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskcamp/taskcamp/pkg/apiclient"
)

func newAuthCommands(a *app) []*cobra.Command {
	var email, username, password, fullName string

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and persist the session tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := a.stores.Auth.Login(cmd.Context(), apiclient.Credentials{
				Email:    email,
				Username: username,
				Password: password,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Logged in as %s <%s>\n", user.Username, user.Email)
			return nil
		},
	}
	loginCmd.Flags().StringVar(&email, "email", "", "account email")
	loginCmd.Flags().StringVar(&username, "username", "", "account username")
	loginCmd.Flags().StringVar(&password, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("password")

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := a.stores.Auth.Register(cmd.Context(), apiclient.RegisterData{
				Email:    email,
				Username: username,
				Password: password,
				FullName: fullName,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Registered %s, check %s for a verification mail\n", user.Username, user.Email)
			return nil
		},
	}
	registerCmd.Flags().StringVar(&email, "email", "", "account email")
	registerCmd.Flags().StringVar(&username, "username", "", "account username")
	registerCmd.Flags().StringVar(&password, "password", "", "account password")
	registerCmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("username")
	_ = registerCmd.MarkFlagRequired("password")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear cached state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := a.stores.Auth.Logout(cmd.Context())
			a.stores.Reset()
			if err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := a.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s>\n", user.Username, user.Email)
			if user.FullName != "" {
				fmt.Println("Name:", user.FullName)
			}
			fmt.Println("Avatar:", a.stores.Auth.UserAvatar())
			if !a.stores.Auth.EmailVerified() {
				fmt.Println("Email not verified, run `taskcamp resend-verification`")
			}
			access := apiclient.NewFileTokenStore(a.config.CredentialsFile).Access()
			if expiry, ok := apiclient.TokenExpiresAt(access); ok {
				fmt.Println("Session expires:", expiry.Local().Format(time.RFC1123))
			}
			return nil
		},
	}

	resendCmd := &cobra.Command{
		Use:   "resend-verification",
		Short: "Resend the email verification mail",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.requireUser(cmd.Context()); err != nil {
				return err
			}
			return a.stores.Auth.ResendEmailVerification(cmd.Context())
		},
	}

	return []*cobra.Command{loginCmd, registerCmd, logoutCmd, whoamiCmd, resendCmd}
}
