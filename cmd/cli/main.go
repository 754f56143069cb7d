package main

import (
	"fmt"
	"os"

	"github.com/crucial707/geo-catalog/cmd/cli/accounts"
	"github.com/crucial707/geo-catalog/cmd/cli/audit"
	"github.com/crucial707/geo-catalog/cmd/cli/auth"
	"github.com/crucial707/geo-catalog/cmd/cli/dbcmd"
	"github.com/crucial707/geo-catalog/cmd/cli/features"
	"github.com/crucial707/geo-catalog/cmd/cli/groups"
	"github.com/crucial707/geo-catalog/cmd/cli/layers"
	"github.com/crucial707/geo-catalog/cmd/cli/root"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	layers.InitLayers(rootCmd)
	features.InitFeatures(rootCmd)
	groups.InitGroups(rootCmd)
	accounts.InitAccounts(rootCmd)
	audit.InitAudit(rootCmd)
	dbcmd.InitDB(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
