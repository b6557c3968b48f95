package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamdeck/teamdeck/internal/log"
)

// signoutCmd revokes the session server-side and clears local
// storage. Local state is cleared even when the server call fails so
// a dead backend can never pin a session to the machine.
var signoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out and clear the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getSessionStore()
		if err != nil {
			return err
		}

		token := store.Snapshot().Token
		if token == "" {
			fmt.Println("Not signed in.")
			return nil
		}

		client, err := getIdentityClient()
		if err != nil {
			return err
		}
		if err := client.SignOut(cmd.Context(), token); err != nil {
			log.DefaultLogger().WithError(err).Warn("server-side sign-out failed")
			fmt.Println("Warning: could not revoke the session server-side.")
		}

		if err := store.Logout(); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signoutCmd)
}
