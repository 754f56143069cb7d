package features

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crucial707/geo-catalog/cmd/cli/client"
	"github.com/crucial707/geo-catalog/cmd/cli/output"
	"github.com/crucial707/geo-catalog/internal/models"
)

func InitFeatures(rootCmd *cobra.Command) {
	rootCmd.AddCommand(NewCmd())
}

func NewCmd() *cobra.Command {
	featuresCmd := &cobra.Command{
		Use:   "features",
		Short: "Manage GeoJSON features",
	}
	featuresCmd.AddCommand(listCmd(), createCmd(), updateCmd(), deleteCmd())
	return featuresCmd
}

// readDoc reads a GeoJSON Feature from path, or stdin when path is "-".
func readDoc(cmd *cobra.Command, path string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s is not valid JSON", path)
	}
	return json.RawMessage(data), nil
}

func idCell(id *int) string {
	if id == nil {
		return "-"
	}
	return strconv.Itoa(*id)
}

func render(cmd *cobra.Command, features []models.Feature) {
	rows := make([][]interface{}, 0, len(features))
	for _, f := range features {
		rows = append(rows, []interface{}{f.FeatureID, idCell(f.LayerID), idCell(f.FeatureGroupID), f.GeoType, f.CreatedBy, output.Deref(f.UpdatedBy)})
	}
	output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Layer", "Group", "Geometry", "Created By", "Updated By"}, rows)
}

func listCmd() *cobra.Command {
	var (
		layer  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List features",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/v1/feature"
			if cmd.Flags().Changed("layer") {
				path += "?layerId=" + strconv.Itoa(layer)
			}
			var features []models.Feature
			if err := client.Do(http.MethodGet, path, nil, &features); err != nil {
				return err
			}
			if asJSON {
				return output.RenderJSON(cmd.OutOrStdout(), features)
			}
			render(cmd, features)
			return nil
		},
	}
	cmd.Flags().IntVar(&layer, "layer", 0, "only features of this layer")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func createCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a feature from a GeoJSON Feature document",
		Long:  "Create a feature. The layer is taken from properties.layerId and properties.featureGroupId in the document.",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDoc(cmd, file)
			if err != nil {
				return err
			}
			var f models.Feature
			if err := client.Do(http.MethodPut, "/v1/feature", doc, &f); err != nil {
				return err
			}
			render(cmd, []models.Feature{f})
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "GeoJSON file, - for stdin")
	return cmd
}

func updateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a feature's GeoJSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid feature id %q", args[0])
			}
			doc, err := readDoc(cmd, file)
			if err != nil {
				return err
			}
			var f models.Feature
			if err := client.Do(http.MethodPatch, "/v1/feature/"+strconv.Itoa(id), doc, &f); err != nil {
				return err
			}
			render(cmd, []models.Feature{f})
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "GeoJSON file, - for stdin")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a feature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid feature id %q", args[0])
			}
			var f models.Feature
			if err := client.Do(http.MethodDelete, "/v1/feature/"+strconv.Itoa(id), nil, &f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted feature %d\n", f.FeatureID)
			return nil
		},
	}
}
