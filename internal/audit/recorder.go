package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/crucial707/geo-catalog/internal/metrics"
)

// Op is the kind of row mutation being recorded.
type Op string

const (
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Mutation describes one changed row of a watched table.
type Mutation struct {
	Op     Op
	Schema string
	Table  string
	// Before is the row image prior to the statement (row_to_json).
	Before json.RawMessage
	// After is the row image after an UPDATE; nil for DELETE.
	After json.RawMessage
	// Actor is the caller's username. UPDATEs take the principal from After's
	// updated_by column instead; Actor is only written for DELETEs.
	Actor string
}

// Execer is satisfied by *sql.Tx and *sql.DB.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Failure classes used in warnings and metrics.
const (
	ClassDataException   = "data_exception"
	ClassUniqueViolation = "unique_violation"
	ClassOther           = "other"
)

// CaptureError wraps any failure to build or insert a ledger row.
type CaptureError struct {
	Class string
	Err   error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("audit capture [%s]: %v", e.Class, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

const savepoint = "audit_capture"

const insertEntry = `INSERT INTO audit.logged_actions
	(schema_name, table_name, db_user, updated_by_username, action_timestamp, action, original_data, new_data)
	VALUES ($1, $2, session_user, $3, now(), $4, $5, $6)`

// Recorder appends ledger rows. It is stateless apart from its logger.
type Recorder struct {
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{logger: logger}
}

// Capture appends one ledger row for m using tx. It never returns an error and
// never leaves tx in a failed state: a failed insert is rolled back to a savepoint.
func (r *Recorder) Capture(ctx context.Context, tx Execer, m Mutation) {
	if m.Op != OpUpdate && m.Op != OpDelete {
		r.logger.WarnContext(ctx, "[AUDIT] other action occurred",
			"action", string(m.Op),
			"schema", m.Schema,
			"table", m.Table)
		metrics.IncLedgerSkipped(m.Table)
		return
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
		r.warn(ctx, m, capture(err))
		return
	}

	if err := r.insert(ctx, tx, m); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
			r.logger.WarnContext(ctx, "[AUDIT] rollback to savepoint failed", "error", rbErr)
		}
		r.warn(ctx, m, err)
		return
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
		r.warn(ctx, m, capture(err))
		return
	}
	metrics.IncLedgerEntries(m.Table, string(m.Op))
}

func (r *Recorder) insert(ctx context.Context, tx Execer, m Mutation) error {
	if !json.Valid(m.Before) {
		return &CaptureError{Class: ClassDataException, Err: errors.New("original row image is not valid JSON")}
	}

	var newData, updatedBy sql.NullString
	switch m.Op {
	case OpUpdate:
		if !json.Valid(m.After) {
			return &CaptureError{Class: ClassDataException, Err: errors.New("new row image is not valid JSON")}
		}
		var stamp struct {
			UpdatedBy *string `json:"updated_by"`
		}
		if err := json.Unmarshal(m.After, &stamp); err != nil {
			return &CaptureError{Class: ClassDataException, Err: err}
		}
		newData = sql.NullString{String: string(m.After), Valid: true}
		if stamp.UpdatedBy != nil {
			updatedBy = sql.NullString{String: *stamp.UpdatedBy, Valid: true}
		}
	case OpDelete:
		if m.Actor != "" {
			updatedBy = sql.NullString{String: m.Actor, Valid: true}
		}
	}

	_, err := tx.ExecContext(ctx, insertEntry,
		m.Schema, m.Table, updatedBy, string(m.Op), string(m.Before), newData)
	if err != nil {
		return capture(err)
	}
	return nil
}

func (r *Recorder) warn(ctx context.Context, m Mutation, err error) {
	class := ClassOther
	var ce *CaptureError
	if errors.As(err, &ce) {
		class = ce.Class
	}
	attrs := []any{
		"class", class,
		"action", string(m.Op),
		"schema", m.Schema,
		"table", m.Table,
		"error", err,
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		attrs = append(attrs, "sqlstate", string(pqErr.Code))
	}
	r.logger.WarnContext(ctx, "[AUDIT] capture failed", attrs...)
	metrics.IncLedgerCaptureFailures(m.Table, class)
}

// capture classifies a database error the way the ledger warnings report it.
func capture(err error) *CaptureError {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return &CaptureError{Class: ClassUniqueViolation, Err: err}
		case pqErr.Code.Class() == "22":
			return &CaptureError{Class: ClassDataException, Err: err}
		}
	}
	return &CaptureError{Class: ClassOther, Err: err}
}
