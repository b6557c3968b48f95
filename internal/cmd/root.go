package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/teamdeck/teamdeck/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "teamdeck",
	Short: "Team directory and session client",
	Long: `teamdeck is a terminal client for the team directory service.
It signs users in and out, keeps the session on disk across runs,
and opens a dashboard where administrators can browse members by
role and reassign roles.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		logCfg := log.DefaultConfig()
		logCfg.Level = log.ParseLevel(cfg.LogLevel)
		logCfg.Format = log.ParseFormat(cfg.LogFormat)
		log.SetDefaultLogger(log.New(logCfg))
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "session storage path (default is the user config dir)")
}
