package auth

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/crucial707/geo-catalog/cmd/cli/config"
)

// InitAuth registers login, logout and whoami on the root command. Tokens are
// issued by the OIDC provider; the CLI only stores and presents them.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), logoutCmd(), whoamiCmd())
}

func loginCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a bearer token for later commands",
		Long:  "Store an access token obtained from the identity provider. Pass --token or pipe the token on stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("token is required")
				}
				token = line
			}
			token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
			if token == "" {
				return fmt.Errorf("token is required")
			}
			if _, err := peek(token); err != nil {
				return fmt.Errorf("not a JWT: %w", err)
			}
			if err := config.SaveToken(token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token stored locally.")
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token from the identity provider")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// whoamiCmd shows the claims of the current token. The signature is not checked
// here; only the API can do that.
func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity in the current token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := config.Token()
			if token == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "anonymous (no token)")
				return nil
			}
			claims, err := peek(token)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			user, _ := claims["preferred_username"].(string)
			if user == "" {
				user, _ = claims.GetSubject()
			}
			iss, _ := claims.GetIssuer()
			fmt.Fprintf(out, "user:   %s\n", user)
			fmt.Fprintf(out, "issuer: %s\n", iss)
			if exp, _ := claims.GetExpirationTime(); exp != nil {
				state := "valid"
				if exp.Before(time.Now()) {
					state = "expired"
				}
				fmt.Fprintf(out, "expiry: %s (%s)\n", exp.Format(time.RFC3339), state)
			}
			return nil
		},
	}
}

func peek(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
