package root

import (
	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:           "geo",
	Short:         "Geo catalog CLI",
	Long:          "Command line interface for the geo catalog API: layers, features, accounts and the audit ledger.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Optional helper to return the RootCmd
func GetRoot() *cobra.Command {
	return RootCmd
}
