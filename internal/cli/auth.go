package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	// ErrNotLoggedIn is returned by commands that need a session when no
	// token is stored
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrSessionEnded is returned when the server rejected the stored token.
	// The token has been discarded by the time it is returned.
	ErrSessionEnded = errors.New("session ended, log in again")
)

func newRegisterCmd(s *state) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		Long:  "Register a new account. This does not log in; run login afterwards.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := readPassword(cmd)
				if err != nil {
					return err
				}
				password = pw
			}

			req := map[string]string{
				"username": username,
				"email":    email,
				"password": password,
			}
			var result RegisterResult

			if err := s.client.Post(cmd.Context(), "/api/auth/register", req, &result); err != nil {
				return err
			}

			out := NewOutput(s.cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted for if omitted)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLoginCmd(s *state) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := readPassword(cmd)
				if err != nil {
					return err
				}
				password = pw
			}

			req := map[string]string{
				"email":    email,
				"password": password,
			}
			var result LoginResult

			// Never send a stale token with a login attempt
			s.client.SetToken("")
			if err := s.client.Post(cmd.Context(), "/api/auth/login", req, &result); err != nil {
				return err
			}

			// Save token
			if err := s.cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			s.client.SetToken(result.Token)

			out := NewOutput(s.cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted for if omitted)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newMeCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the identity of the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MeResult

			err := s.authenticated(func() error {
				return s.client.Get(cmd.Context(), "/api/auth/me", &result)
			})
			if err != nil {
				return err
			}

			out := NewOutput(s.cfg.Output, cmd.OutOrStdout())
			out.Print(result.User)
			return nil
		},
	}
}

func newLogoutCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			out := NewOutput(s.cfg.Output, cmd.OutOrStdout())
			out.PrintMessage("Logged out")
			return nil
		},
	}
}

// authenticated runs call with the stored session. A 401 from the server
// discards the token and ends the session; there is no retry.
func (s *state) authenticated(call func() error) error {
	if s.cfg.Token == "" {
		return ErrNotLoggedIn
	}

	err := call()
	if err == nil {
		return nil
	}

	var he *HTTPError
	if errors.As(err, &he) && he.Status == http.StatusUnauthorized {
		if clearErr := s.cfg.ClearToken(); clearErr != nil {
			return errors.Join(ErrSessionEnded, clearErr)
		}
		s.client.SetToken("")
		return fmt.Errorf("%w: %s", ErrSessionEnded, he.API.Message)
	}
	return err
}
