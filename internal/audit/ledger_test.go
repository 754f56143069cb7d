package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var ledgerColumns = []string{"id", "schema_name", "table_name", "db_user", "updated_by_username",
	"action_timestamp", "action", "original_data", "new_data"}

func TestLedger_List_NoFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM audit\.logged_actions ORDER BY action_timestamp DESC, id DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(ledgerColumns).
			AddRow(2, "public", "layer", "geouser", nil, now, "DELETE", `{"layer_id":7}`, nil).
			AddRow(1, "public", "feature", "geouser", "alice", now, "UPDATE", `{"feature_id":3}`, `{"feature_id":3}`))

	entries, err := NewLedger(db).List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Action != "DELETE" || entries[0].NewData != nil || entries[0].UpdatedByUsername != nil {
		t.Errorf("unexpected delete entry: %+v", entries[0])
	}
	if entries[1].UpdatedByUsername == nil || *entries[1].UpdatedByUsername != "alice" || string(entries[1].NewData) != `{"feature_id":3}` {
		t.Errorf("unexpected update entry: %+v", entries[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestLedger_List_Filters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	mock.ExpectQuery(`WHERE schema_name = \$1 AND table_name = \$2 AND action = \$3 AND updated_by_username = \$4 AND action_timestamp >= \$5 AND action_timestamp < \$6 ORDER BY action_timestamp DESC, id DESC LIMIT \$7 OFFSET \$8`).
		WithArgs("public", "feature", "UPDATE", "alice", from, to, 10, 20).
		WillReturnRows(sqlmock.NewRows(ledgerColumns))

	entries, err := NewLedger(db).List(context.Background(), Filter{
		Schema: "public", Table: "feature", Action: "update", Principal: "alice",
		From: &from, To: &to, Limit: 10, Offset: 20,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", entries)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestLedger_Stats(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT table_name, action, COUNT\(\*\) FROM audit\.logged_actions GROUP BY table_name, action`).
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "action", "count"}).
			AddRow("feature", "UPDATE", 4).
			AddRow("layer", "DELETE", 1))

	stats, err := NewLedger(db).Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 2 || stats[0].Count != 4 || stats[1].Table != "layer" {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
