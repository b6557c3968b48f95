package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// signinCmd authenticates against the identity service and persists
// the refresh token locally.
var signinCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in and store the session",
	Long: `Sign in with your email and password.

On success the session token is written to local storage and reused
by later commands until you sign out.

Examples:
  teamdeck signin
  teamdeck signin --email user@example.com --password mypass`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if email == "" || password == "" {
			if err := promptCredentials(&email, &password); err != nil {
				return err
			}
		}

		client, err := getIdentityClient()
		if err != nil {
			return err
		}
		result, err := client.SignIn(cmd.Context(), email, password)
		if err != nil {
			return err
		}

		store, err := getSessionStore()
		if err != nil {
			return err
		}
		if err := store.SetToken(result.Token); err != nil {
			return err
		}

		fmt.Println("Signed in.")
		fmt.Println("Run 'teamdeck dashboard' to open the directory.")
		return nil
	},
}

// promptCredentials collects whichever of email and password are
// still empty.
func promptCredentials(email, password *string) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("user@example.com").
			Value(email))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password))
	}

	form := huh.NewForm(huh.NewGroup(fields...))
	if err := form.Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	if *email == "" {
		return fmt.Errorf("email is required")
	}
	if *password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

func init() {
	signinCmd.Flags().String("email", "", "account email")
	signinCmd.Flags().String("password", "", "account password")
	rootCmd.AddCommand(signinCmd)
}
