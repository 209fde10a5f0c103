package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			if err := s.client.Get(cmd.Context(), "/api/health", &result); err != nil {
				return err
			}

			out := NewOutput(s.cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
