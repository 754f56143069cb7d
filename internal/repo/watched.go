package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crucial707/geo-catalog/internal/audit"
)

// Schema holds every watched table.
const Schema = "public"

var (
	// ErrNotFound is returned when the target row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoActor is returned when a mutation is attempted without a principal to stamp.
	ErrNoActor = errors.New("mutation requires an authenticated principal")
)

// Interceptor observes every UPDATE and DELETE on a watched table, inside the
// transaction that performs it. *audit.Recorder implements it.
type Interceptor interface {
	Capture(ctx context.Context, tx audit.Execer, m audit.Mutation)
}

// watchedTable names a table whose updates and deletes are audited.
type watchedTable struct {
	name  string // unquoted, as recorded in the ledger
	ident string // SQL identifier
	key   string // primary key column
}

var (
	identityProviderTable = watchedTable{name: "identity_provider", ident: "identity_provider", key: "idp"}
	userTable             = watchedTable{name: "user", ident: `"user"`, key: "user_id"}
	layerTable            = watchedTable{name: "layer", ident: "layer", key: "layer_id"}
	featureTable          = watchedTable{name: "feature", ident: "feature", key: "feature_id"}
	featureGroupTable     = watchedTable{name: "feature_group", ident: "feature_group", key: "feature_group_id"}
)

// stampRow is the lifecycle column set as it appears in row_to_json output.
type stampRow struct {
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedBy *string    `json:"updated_by"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// watchedUpdate locks the row, applies set (a "col = $n, ..." fragment numbered
// from $1 over args), stamps updated_by/updated_at and hands both row images to ic
// before commit. It returns the post-image.
func watchedUpdate(ctx context.Context, db *sql.DB, ic Interceptor, t watchedTable, id any, actor, set string, args ...any) ([]byte, error) {
	if actor == "" {
		return nil, ErrNoActor
	}

	var after []byte
	err := runInTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		after, err = updateRow(ctx, tx, ic, t, id, actor, set, args...)
		return err
	})
	return after, err
}

func updateRow(ctx context.Context, tx *sql.Tx, ic Interceptor, t watchedTable, id any, actor, set string, args ...any) ([]byte, error) {
	var before, after []byte
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT row_to_json(t.*) FROM %s AS t WHERE t.%s = $1 FOR UPDATE`, t.ident, t.key),
		id,
	).Scan(&before)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	n := len(args)
	query := fmt.Sprintf(
		`UPDATE %s AS t SET %s, updated_by = $%d, updated_at = now() WHERE t.%s = $%d RETURNING row_to_json(t.*)`,
		t.ident, set, n+1, t.key, n+2,
	)
	if err := tx.QueryRowContext(ctx, query, append(args, actor, id)...).Scan(&after); err != nil {
		return nil, err
	}

	ic.Capture(ctx, tx, audit.Mutation{
		Op:     audit.OpUpdate,
		Schema: Schema,
		Table:  t.name,
		Before: json.RawMessage(before),
		After:  json.RawMessage(after),
	})
	return after, nil
}

// cascade names a child table whose rows reference the parent through fk. The
// schema declares ON DELETE CASCADE (or SET NULL when detach is set); handling the
// children first keeps every touched row visible to the interceptor.
type cascade struct {
	child  watchedTable
	fk     string
	detach bool // clear fk instead of deleting the child
}

// watchedDelete removes the row (after any cascaded children) and hands each
// pre-image to ic before commit. It returns the parent's pre-image.
//
// With cascades the parent is locked FOR UPDATE first: a concurrent child insert
// then waits on its FK check until this transaction ends.
func watchedDelete(ctx context.Context, db *sql.DB, ic Interceptor, t watchedTable, id any, actor string, cascades ...cascade) ([]byte, error) {
	if actor == "" {
		return nil, ErrNoActor
	}

	var before []byte
	err := runInTx(ctx, db, func(tx *sql.Tx) error {
		if len(cascades) > 0 {
			var one int
			err := tx.QueryRowContext(ctx,
				fmt.Sprintf(`SELECT 1 FROM %s AS t WHERE t.%s = $1 FOR UPDATE`, t.ident, t.key),
				id,
			).Scan(&one)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
		}

		for _, c := range cascades {
			var err error
			if c.detach {
				err = detachRows(ctx, tx, ic, c.child, c.fk, id, actor)
			} else {
				_, err = deleteRows(ctx, tx, ic, c.child, c.fk, id, actor)
			}
			if err != nil {
				return err
			}
		}

		images, err := deleteRows(ctx, tx, ic, t, t.key, id, actor)
		if err != nil {
			return err
		}
		if len(images) == 0 {
			return ErrNotFound
		}
		before = images[0]
		return nil
	})
	return before, err
}

// detachRows sets col to NULL on every row of t that references v, one audited
// update per row.
func detachRows(ctx context.Context, tx *sql.Tx, ic Interceptor, t watchedTable, col string, v any, actor string) error {
	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf(`SELECT t.%s FROM %s AS t WHERE t.%s = $1 ORDER BY t.%s`, t.key, t.ident, col, t.key),
		v,
	)
	if err != nil {
		return err
	}
	var keys []any
	for rows.Next() {
		var k any
		if err := rows.Scan(&k); err != nil {
			rows.Close()
			return err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, k := range keys {
		if _, err := updateRow(ctx, tx, ic, t, k, actor, col+` = NULL`); err != nil {
			return err
		}
	}
	return nil
}

// deleteRows deletes every row of t where col = v and captures each pre-image.
func deleteRows(ctx context.Context, tx *sql.Tx, ic Interceptor, t watchedTable, col string, v any, actor string) ([][]byte, error) {
	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf(`DELETE FROM %s AS t WHERE t.%s = $1 RETURNING row_to_json(t.*)`, t.ident, col),
		v,
	)
	if err != nil {
		return nil, err
	}

	var images [][]byte
	for rows.Next() {
		var img []byte
		if err := rows.Scan(&img); err != nil {
			rows.Close()
			return nil, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// the result set must be drained before the ledger inserts reuse the connection
	for _, img := range images {
		ic.Capture(ctx, tx, audit.Mutation{
			Op:     audit.OpDelete,
			Schema: Schema,
			Table:  t.name,
			Before: json.RawMessage(img),
			Actor:  actor,
		})
	}
	return images, nil
}
