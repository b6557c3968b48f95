package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/teamdeck/teamdeck/internal/directory"
	"github.com/teamdeck/teamdeck/internal/guard"
	"github.com/teamdeck/teamdeck/internal/log"
	"github.com/teamdeck/teamdeck/internal/session"
	"github.com/teamdeck/teamdeck/internal/tui"
)

// dashboardCmd opens the interactive directory dashboard. The session
// guard re-verifies the stored token before anything protected
// renders.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the team directory dashboard",
	Long: `Open the interactive dashboard.

The stored session is verified first; on failure the session is
cleared and the dashboard closes back to sign-in. Once admitted you
can browse members by role, inspect your profile, and reassign roles.

Examples:
  teamdeck dashboard`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getSessionStore()
		if err != nil {
			return err
		}
		identityClient, err := getIdentityClient()
		if err != nil {
			return err
		}
		directoryClient, err := getDirectoryClient()
		if err != nil {
			return err
		}

		// Logs go to a file while the TUI owns the terminal.
		logger := log.DefaultLogger()
		if path, err := session.DefaultPath(); err == nil {
			if out, err := log.OutputFile(filepath.Join(filepath.Dir(path), "teamdeck.log")); err == nil {
				cfg := log.DefaultConfig()
				cfg.Output = out
				logger = log.New(cfg)
			}
		}

		controller := directory.NewController(store, directoryClient, logger)
		defer controller.Close()

		relay := tui.NewStatusRelay()
		sessionGuard := guard.New(store,
			guard.VerifierFunc(func(ctx context.Context, token string) (string, error) {
				result, err := identityClient.Verify(ctx, token)
				return result.UserID, err
			}),
			guard.WithLogger(logger),
			guard.WithNotify(relay.Notify),
		)
		sessionGuard.Start(cmd.Context())
		defer sessionGuard.Close()

		model := tui.NewDashboard(cmd.Context(), store, identityClient, controller, relay)
		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("dashboard failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
