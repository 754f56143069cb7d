package audit

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/crucial707/geo-catalog/internal/models"
)

// Filter narrows a ledger listing. Zero fields are ignored.
type Filter struct {
	Schema    string
	Table     string
	Action    string
	Principal string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Stat is the ledger row count for one table and action.
type Stat struct {
	Table  string
	Action string
	Count  int
}

// Ledger is the read side of audit.logged_actions. Rows only arrive through
// Recorder.Capture.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

const selectEntries = `SELECT id, schema_name, table_name, db_user, updated_by_username,
	action_timestamp, action, original_data, new_data
	FROM audit.logged_actions`

// List returns matching entries, newest first.
func (l *Ledger) List(ctx context.Context, f Filter) ([]models.LedgerEntry, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.Schema != "" {
		add("schema_name = ?", f.Schema)
	}
	if f.Table != "" {
		add("table_name = ?", f.Table)
	}
	if f.Action != "" {
		add("action = ?", strings.ToUpper(f.Action))
	}
	if f.Principal != "" {
		add("updated_by_username = ?", f.Principal)
	}
	if f.From != nil {
		add("action_timestamp >= ?", *f.From)
	}
	if f.To != nil {
		add("action_timestamp < ?", *f.To)
	}

	query := selectEntries
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	query += " ORDER BY action_timestamp DESC, id DESC LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var (
			e         models.LedgerEntry
			updatedBy sql.NullString
			orig, nw  []byte
		)
		if err := rows.Scan(&e.ID, &e.SchemaName, &e.TableName, &e.DBUser, &updatedBy,
			&e.ActionTimestamp, &e.Action, &orig, &nw); err != nil {
			return nil, err
		}
		if updatedBy.Valid {
			e.UpdatedByUsername = &updatedBy.String
		}
		e.OriginalData = orig
		e.NewData = nw
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats counts ledger rows per table and action.
func (l *Ledger) Stats(ctx context.Context) ([]Stat, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT table_name, action, COUNT(*) FROM audit.logged_actions GROUP BY table_name, action ORDER BY table_name, action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []Stat
	for rows.Next() {
		var s Stat
		if err := rows.Scan(&s.Table, &s.Action, &s.Count); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
