package audit

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crucial707/geo-catalog/cmd/cli/client"
	"github.com/crucial707/geo-catalog/cmd/cli/output"
	"github.com/crucial707/geo-catalog/internal/models"
)

func InitAudit(rootCmd *cobra.Command) {
	rootCmd.AddCommand(NewCmd())
}

// NewCmd builds "audit", which lists ledger entries newest first.
func NewCmd() *cobra.Command {
	var (
		schema, table, action, principal, from, to string
		limit, offset                      int
		asJSON                             bool
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the audit ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			for k, v := range map[string]string{"schema": schema, "table": table, "action": action, "principal": principal, "from": from, "to": to} {
				if v != "" {
					q.Set(k, v)
				}
			}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var entries []models.LedgerEntry
			if err := client.Do(http.MethodGet, "/v1/audit?"+q.Encode(), nil, &entries); err != nil {
				return err
			}
			if asJSON {
				return output.RenderJSON(cmd.OutOrStdout(), entries)
			}
			rows := make([][]interface{}, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []interface{}{
					e.ID,
					e.ActionTimestamp.Format("2006-01-02 15:04:05Z07:00"),
					e.Action,
					e.SchemaName + "." + e.TableName,
					output.Deref(e.UpdatedByUsername),
					e.DBUser,
				})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "When", "Action", "Table", "Principal", "DB User"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "schema name")
	cmd.Flags().StringVar(&table, "table", "", "table name (layer, feature, user, identity_provider)")
	cmd.Flags().StringVar(&action, "action", "", "UPDATE or DELETE")
	cmd.Flags().StringVar(&principal, "principal", "", "acting username")
	cmd.Flags().StringVar(&from, "from", "", "earliest timestamp (RFC 3339)")
	cmd.Flags().StringVar(&to, "to", "", "latest timestamp, exclusive (RFC 3339)")
	cmd.Flags().IntVar(&limit, "limit", 50, "max entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON including row images")
	return cmd
}
