package models

import (
	"encoding/json"
	"time"
)

// LedgerEntry is one row of audit.logged_actions.
type LedgerEntry struct {
	ID                int             `json:"id"`
	SchemaName        string          `json:"schemaName"`
	TableName         string          `json:"tableName"`
	DBUser            string          `json:"dbUser"`
	UpdatedByUsername *string         `json:"updatedByUsername"`
	ActionTimestamp   time.Time       `json:"actionTimestamp"`
	Action            string          `json:"action"` // UPDATE or DELETE
	OriginalData      json.RawMessage `json:"originalData"`
	NewData           json.RawMessage `json:"newData"`
}
