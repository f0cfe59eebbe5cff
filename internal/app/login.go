package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/blackwell-systems/shelfview/internal/events"
	"github.com/blackwell-systems/shelfview/internal/session"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var (
		token string
		user  string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API token for authenticated commands",
		Long: `Store an API token for authenticated commands.

The token is written to the session file (mode 0600). When --token is
omitted it is read from stdin. A token in the environment variable named by
api.token_env takes precedence over the stored one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				fmt.Fprint(os.Stderr, "Token: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading token: %w", err)
				}
				token = line
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("empty token")
			}

			if err := sess.Set(session.KeyToken, token); err != nil {
				return fmt.Errorf("saving session: %w", err)
			}
			if user != "" {
				if err := sess.Set(session.KeyUser, user); err != nil {
					return fmt.Errorf("saving session: %w", err)
				}
			}
			bus.Publish(events.Event{Kind: events.SessionChanged})

			// Verify the token against an authenticated endpoint.
			if _, err := client.Library(cmd.Context()); err != nil {
				warn("Token saved, but the server did not accept it: %v", err)
				return nil
			}
			ok("Logged in (session: %s)", cfg.Session.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "API bearer token")
	cmd.Flags().StringVar(&user, "user", "", "User name to remember with the token")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sess.Clear(); err != nil {
				return fmt.Errorf("clearing session: %w", err)
			}
			bus.Publish(events.Event{Kind: events.SessionChanged})
			ok("Logged out")
			if cfg.API.TokenEnv != "" && os.Getenv(cfg.API.TokenEnv) != "" {
				warn("%s is still set in the environment", cfg.API.TokenEnv)
			}
			return nil
		},
	}
}
