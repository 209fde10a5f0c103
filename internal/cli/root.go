package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// state is shared by every subcommand of one root command
type state struct {
	cfg    *Config
	client *Client
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	s := &state{cfg: DefaultConfig()}

	rootCmd := &cobra.Command{
		Use:   "taskauth",
		Short: "CLI tool for the taskauth API",
		Long: `taskauth is a CLI tool for the taskauth authentication API.

It registers accounts, logs in and keeps the session token in a local
file, and shows the identity the server sees for that token. A session
the server rejects is discarded and must be replaced by logging in again.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load token from file if not provided via flag/env
			if err := s.cfg.LoadToken(); err != nil {
				return err
			}

			// Create HTTP client
			s.client = NewClient(s.cfg.ServerURL, s.cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&s.cfg.ServerURL, "server", s.cfg.ServerURL, "Server URL (env: TASKAUTH_SERVER)")
	rootCmd.PersistentFlags().StringVar(&s.cfg.Token, "token", s.cfg.Token, "Session token (env: TASKAUTH_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&s.cfg.TokenFile, "token-file", s.cfg.TokenFile, "Token file path (env: TASKAUTH_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&s.cfg.Output, "output", "o", s.cfg.Output, "Output format: text, json")

	// Add subcommands
	rootCmd.AddCommand(newRegisterCmd(s))
	rootCmd.AddCommand(newLoginCmd(s))
	rootCmd.AddCommand(newMeCmd(s))
	rootCmd.AddCommand(newLogoutCmd(s))
	rootCmd.AddCommand(newHealthCmd(s))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
