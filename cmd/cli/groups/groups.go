package groups

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crucial707/geo-catalog/cmd/cli/client"
	"github.com/crucial707/geo-catalog/cmd/cli/output"
	"github.com/crucial707/geo-catalog/internal/models"
)

func InitGroups(rootCmd *cobra.Command) {
	rootCmd.AddCommand(NewCmd())
}

func NewCmd() *cobra.Command {
	groupsCmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"feature-groups"},
		Short:   "Manage feature groups",
	}
	groupsCmd.AddCommand(listCmd(), createCmd(), renameCmd(), deleteCmd())
	return groupsCmd
}

func render(cmd *cobra.Command, groups []models.FeatureGroup, asJSON bool) error {
	if asJSON {
		return output.RenderJSON(cmd.OutOrStdout(), groups)
	}
	rows := make([][]interface{}, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []interface{}{g.FeatureGroupID, g.Name, g.CreatedBy, output.Deref(g.UpdatedBy)})
	}
	output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Created By", "Updated By"}, rows)
	return nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid feature group id %q", s)
	}
	return id, nil
}

func listCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List feature groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			var groups []models.FeatureGroup
			if err := client.Do(http.MethodGet, "/v1/featureGroup", nil, &groups); err != nil {
				return err
			}
			return render(cmd, groups, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func createCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a feature group",
		RunE: func(cmd *cobra.Command, args []string) error {
			var g models.FeatureGroup
			if err := client.Do(http.MethodPut, "/v1/featureGroup", map[string]string{"name": name}, &g); err != nil {
				return err
			}
			return render(cmd, []models.FeatureGroup{g}, false)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "group name")
	cmd.MarkFlagRequired("name")
	return cmd
}

func renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a feature group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var g models.FeatureGroup
			if err := client.Do(http.MethodPatch, "/v1/featureGroup/"+strconv.Itoa(id), map[string]string{"name": args[1]}, &g); err != nil {
				return err
			}
			return render(cmd, []models.FeatureGroup{g}, false)
		},
	}
}

// Features in the group are kept; the server clears their featureGroupId.
func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a feature group, detaching its features",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var g models.FeatureGroup
			if err := client.Do(http.MethodDelete, "/v1/featureGroup/"+strconv.Itoa(id), nil, &g); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted feature group %d (%s)\n", g.FeatureGroupID, g.Name)
			return nil
		},
	}
}
