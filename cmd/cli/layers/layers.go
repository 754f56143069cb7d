package layers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crucial707/geo-catalog/cmd/cli/client"
	"github.com/crucial707/geo-catalog/cmd/cli/output"
	"github.com/crucial707/geo-catalog/internal/models"
)

// ==========================
// Init Layers
// ==========================
func InitLayers(rootCmd *cobra.Command) {
	rootCmd.AddCommand(NewCmd())
}

func NewCmd() *cobra.Command {
	layersCmd := &cobra.Command{
		Use:   "layers",
		Short: "Manage map layers",
	}
	layersCmd.AddCommand(
		listLayersCmd(),
		createLayerCmd(),
		renameLayerCmd(),
		deleteLayerCmd(),
	)
	return layersCmd
}

func renderLayers(cmd *cobra.Command, layers []models.Layer, asJSON bool) error {
	if asJSON {
		return output.RenderJSON(cmd.OutOrStdout(), layers)
	}
	rows := make([][]interface{}, 0, len(layers))
	for _, l := range layers {
		rows = append(rows, []interface{}{l.LayerID, l.Name, l.CreatedBy, output.Deref(l.UpdatedBy)})
	}
	output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Created By", "Updated By"}, rows)
	return nil
}

// ==========================
// LIST
// ==========================
func listLayersCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List layers",
		RunE: func(cmd *cobra.Command, args []string) error {
			var layers []models.Layer
			if err := client.Do(http.MethodGet, "/v1/layer", nil, &layers); err != nil {
				return err
			}
			return renderLayers(cmd, layers, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// ==========================
// CREATE
// ==========================
func createLayerCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a layer",
		RunE: func(cmd *cobra.Command, args []string) error {
			var l models.Layer
			if err := client.Do(http.MethodPut, "/v1/layer", map[string]string{"name": name}, &l); err != nil {
				return err
			}
			return renderLayers(cmd, []models.Layer{l}, false)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "layer name")
	cmd.MarkFlagRequired("name")
	return cmd
}

// ==========================
// RENAME
// ==========================
func renameLayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a layer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid layer id %q", args[0])
			}
			var l models.Layer
			if err := client.Do(http.MethodPatch, "/v1/layer/"+strconv.Itoa(id), map[string]string{"name": args[1]}, &l); err != nil {
				return err
			}
			return renderLayers(cmd, []models.Layer{l}, false)
		},
	}
}

// ==========================
// DELETE
// ==========================
func deleteLayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a layer and its features",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid layer id %q", args[0])
			}
			var l models.Layer
			if err := client.Do(http.MethodDelete, "/v1/layer/"+strconv.Itoa(id), nil, &l); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted layer %d (%s)\n", l.LayerID, l.Name)
			return nil
		},
	}
}
