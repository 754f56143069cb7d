// Package accounts holds the user and identity provider commands.
package accounts

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/crucial707/geo-catalog/cmd/cli/client"
	"github.com/crucial707/geo-catalog/cmd/cli/output"
	"github.com/crucial707/geo-catalog/internal/models"
)

// ==========================
// CLI Command Init
// ==========================
func InitAccounts(rootCmd *cobra.Command) {
	rootCmd.AddCommand(UsersCmd(), IDPCmd())
}

func UsersCmd() *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage catalog users",
	}
	usersCmd.AddCommand(
		listUsersCmd(),
		createUserCmd(),
		setUserActiveCmd("activate", true),
		setUserActiveCmd("deactivate", false),
		deleteUserCmd(),
	)
	return usersCmd
}

func IDPCmd() *cobra.Command {
	idpCmd := &cobra.Command{
		Use:   "idp",
		Short: "Manage identity providers",
	}
	idpCmd.AddCommand(
		listIDPCmd(),
		createIDPCmd(),
		setIDPActiveCmd("activate", true),
		setIDPActiveCmd("deactivate", false),
		deleteIDPCmd(),
	)
	return idpCmd
}

func renderUsers(cmd *cobra.Command, users []models.User) {
	rows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		rows = append(rows, []interface{}{u.UserID, u.Username, output.Deref(u.IDP), output.Deref(u.Email), u.Active})
	}
	output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Username", "IDP", "Email", "Active"}, rows)
}

func renderIDPs(cmd *cobra.Command, idps []models.IdentityProvider) {
	rows := make([][]interface{}, 0, len(idps))
	for _, p := range idps {
		rows = append(rows, []interface{}{p.IDP, p.Active, p.CreatedBy})
	}
	output.RenderTable(cmd.OutOrStdout(), []string{"IDP", "Active", "Created By"}, rows)
}

// ==========================
// Users
// ==========================
func listUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			var users []models.User
			if err := client.Do(http.MethodGet, "/v1/user", nil, &users); err != nil {
				return err
			}
			renderUsers(cmd, users)
			return nil
		},
	}
}

func createUserCmd() *cobra.Command {
	var username, idp, email string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{"username": username}
			if idp != "" {
				payload["idp"] = idp
			}
			if email != "" {
				payload["email"] = email
			}
			var u models.User
			if err := client.Do(http.MethodPut, "/v1/user", payload, &u); err != nil {
				return err
			}
			renderUsers(cmd, []models.User{u})
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&idp, "idp", "", "identity provider code")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.MarkFlagRequired("username")
	return cmd
}

func setUserActiveCmd(verb string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <user-id>",
		Short: fmt.Sprintf("Mark a user %sd", verb),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			var u models.User
			if err := client.Do(http.MethodPatch, "/v1/user/"+id.String(), map[string]bool{"active": active}, &u); err != nil {
				return err
			}
			renderUsers(cmd, []models.User{u})
			return nil
		},
	}
}

func deleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			var u models.User
			if err := client.Do(http.MethodDelete, "/v1/user/"+id.String(), nil, &u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s (%s)\n", u.UserID, u.Username)
			return nil
		},
	}
}

// ==========================
// Identity providers
// ==========================
func listIDPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List identity providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			var idps []models.IdentityProvider
			if err := client.Do(http.MethodGet, "/v1/identityProvider", nil, &idps); err != nil {
				return err
			}
			renderIDPs(cmd, idps)
			return nil
		},
	}
}

func createIDPCmd() *cobra.Command {
	var inactive bool
	cmd := &cobra.Command{
		Use:   "create <idp>",
		Short: "Register an identity provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p models.IdentityProvider
			payload := map[string]any{"idp": args[0], "active": !inactive}
			if err := client.Do(http.MethodPut, "/v1/identityProvider", payload, &p); err != nil {
				return err
			}
			renderIDPs(cmd, []models.IdentityProvider{p})
			return nil
		},
	}
	cmd.Flags().BoolVar(&inactive, "inactive", false, "register the provider as inactive")
	return cmd
}

func setIDPActiveCmd(verb string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <idp>",
		Short: fmt.Sprintf("Mark an identity provider %sd", verb),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p models.IdentityProvider
			if err := client.Do(http.MethodPatch, "/v1/identityProvider/"+url.PathEscape(args[0]), map[string]bool{"active": active}, &p); err != nil {
				return err
			}
			renderIDPs(cmd, []models.IdentityProvider{p})
			return nil
		},
	}
}

func deleteIDPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <idp>",
		Short: "Delete an identity provider and its users",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p models.IdentityProvider
			if err := client.Do(http.MethodDelete, "/v1/identityProvider/"+url.PathEscape(args[0]), nil, &p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted identity provider %s\n", p.IDP)
			return nil
		},
	}
}
