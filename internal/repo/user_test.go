package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/crucial707/geo-catalog/internal/audit"
)

// captured records every mutation handed to it.
type captured struct {
	mutations []audit.Mutation
}

func (c *captured) Capture(_ context.Context, _ audit.Execer, m audit.Mutation) {
	c.mutations = append(c.mutations, m)
}

var userCols = []string{"user_id", "identity_id", "idp", "username", "email", "first_name", "full_name", "last_name", "active",
	"created_by", "created_at", "updated_by", "updated_at"}

func TestUserRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	id := uuid.MustParse("5f0c1a7e-9d43-4c55-8a8e-3b1b8f2a6c10")
	idp := "keycloak"
	email := "alice@example.com"
	mock.ExpectQuery(`INSERT INTO "user" \(user_id, identity_id, idp, username`).
		WithArgs(sqlmock.AnyArg(), nil, &idp, "alice", &email, nil, nil, nil, "system").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(id.String(), nil, idp, "alice", email, nil, nil, nil, true, "system", time.Now(), nil, nil))

	ic := &captured{}
	user, err := NewUserRepo(db, ic).Create(context.Background(), NewUser{IDP: &idp, Username: "alice", Email: &email}, "system")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.UserID != id || user.Username != "alice" || !user.Active || user.IdentityID != nil {
		t.Errorf("unexpected user: %+v", user)
	}
	if len(ic.mutations) != 0 {
		t.Errorf("inserts must not be captured, got %d", len(ic.mutations))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	identity := uuid.New()
	mock.ExpectQuery(`SELECT user_id, identity_id, idp, username, .* FROM "user" ORDER BY username`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(uuid.Nil.String(), nil, nil, "system", nil, nil, nil, nil, true, "system", time.Now(), nil, nil).
			AddRow(uuid.New().String(), identity.String(), "keycloak", "zed", nil, nil, nil, nil, false, "system", time.Now(), nil, nil))

	users, err := NewUserRepo(db, &captured{}).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].UserID != uuid.Nil {
		t.Errorf("expected system user first, got %+v", users[0])
	}
	if users[1].IdentityID == nil || *users[1].IdentityID != identity || users[1].Active {
		t.Errorf("unexpected user: %+v", users[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_SetActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	id := uuid.MustParse("5f0c1a7e-9d43-4c55-8a8e-3b1b8f2a6c10")
	before := `{"user_id":"5f0c1a7e-9d43-4c55-8a8e-3b1b8f2a6c10","username":"alice","active":true,"created_by":"system","created_at":"2026-10-01T09:00:00+00:00","updated_by":null,"updated_at":null}`
	after := `{"user_id":"5f0c1a7e-9d43-4c55-8a8e-3b1b8f2a6c10","username":"alice","active":false,"created_by":"system","created_at":"2026-10-01T09:00:00+00:00","updated_by":"bob","updated_at":"2026-10-17T08:00:00+00:00"}`

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT row_to_json\(t\.\*\) FROM "user" AS t WHERE t\.user_id = \$1 FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"row_to_json"}).AddRow(before))
	mock.ExpectQuery(`UPDATE "user" AS t SET active = \$1, updated_by = \$2, updated_at = now\(\) WHERE t\.user_id = \$3`).
		WithArgs(false, "bob", id).
		WillReturnRows(sqlmock.NewRows([]string{"row_to_json"}).AddRow(after))
	mock.ExpectCommit()

	ic := &captured{}
	user, err := NewUserRepo(db, ic).SetActive(context.Background(), id, false, "bob")
	if err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if user.Active || user.UpdatedBy == nil || *user.UpdatedBy != "bob" {
		t.Errorf("unexpected user: %+v", user)
	}
	if len(ic.mutations) != 1 {
		t.Fatalf("expected 1 captured mutation, got %d", len(ic.mutations))
	}
	m := ic.mutations[0]
	if m.Op != audit.OpUpdate || m.Schema != "public" || m.Table != "user" {
		t.Errorf("unexpected mutation: %+v", m)
	}
	if string(m.Before) != before || string(m.After) != after {
		t.Errorf("row images not passed through: before=%s after=%s", m.Before, m.After)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	id := uuid.MustParse("5f0c1a7e-9d43-4c55-8a8e-3b1b8f2a6c10")
	img := `{"user_id":"5f0c1a7e-9d43-4c55-8a8e-3b1b8f2a6c10","username":"alice","active":true,"created_by":"system","created_at":"2026-10-01T09:00:00+00:00"}`

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM "user" AS t WHERE t\.user_id = \$1 RETURNING row_to_json\(t\.\*\)`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"row_to_json"}).AddRow(img))
	mock.ExpectCommit()

	ic := &captured{}
	user, err := NewUserRepo(db, ic).Delete(context.Background(), id, "bob")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if user.UserID != id || user.Username != "alice" {
		t.Errorf("unexpected user: %+v", user)
	}
	if len(ic.mutations) != 1 || ic.mutations[0].Op != audit.OpDelete || ic.mutations[0].Actor != "bob" || ic.mutations[0].After != nil {
		t.Errorf("unexpected mutations: %+v", ic.mutations)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_Delete_NoActor(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	if _, err := NewUserRepo(db, &captured{}).Delete(context.Background(), uuid.New(), ""); !errors.Is(err, ErrNoActor) {
		t.Fatalf("expected ErrNoActor, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
