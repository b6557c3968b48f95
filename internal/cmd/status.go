package cmd

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/teamdeck/teamdeck/internal/directory"
)

// statusCmd shows the stored session and, when the server is
// reachable, the account behind it.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session status",
	Long: `Show whether a session is stored locally, when its token expires,
and which account it belongs to.

Examples:
  teamdeck status`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getSessionStore()
		if err != nil {
			return err
		}

		snap := store.Snapshot()
		if snap.Token == "" {
			fmt.Println("Not signed in.")
			fmt.Println("Use 'teamdeck signin' to authenticate.")
			return nil
		}

		fmt.Println("Session stored")
		if snap.UserID != "" {
			fmt.Printf("User ID:  %s\n", snap.UserID)
		}
		printTokenExpiry(snap.Token)

		client, err := getIdentityClient()
		if err != nil {
			return err
		}
		profile, err := client.GetProfile(cmd.Context(), snap.Token)
		if err != nil {
			fmt.Println("Token may be expired or invalid.")
			fmt.Println("Use 'teamdeck signin' to re-authenticate.")
			return nil
		}

		fmt.Printf("Email:    %s\n", profile.Email)
		fmt.Printf("Name:     %s\n", profile.Name)
		fmt.Printf("Role:     %s\n", directory.NormalizeRole(profile.Role))
		return nil
	},
}

// printTokenExpiry reads the expiry claim without verifying the
// signature. Verification is the server's job; this is display only.
func printTokenExpiry(raw string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	if time.Now().After(exp.Time) {
		fmt.Printf("Expired:  %s\n", exp.Time.Format(time.RFC3339))
	} else {
		fmt.Printf("Expires:  %s\n", exp.Time.Format(time.RFC3339))
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
