package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/crucial707/geo-catalog/internal/models"
)

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB    *sql.DB
	Audit Interceptor
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(db *sql.DB, audit Interceptor) *UserRepo {
	return &UserRepo{DB: db, Audit: audit}
}

// NewUser carries the fields a caller may set on creation.
type NewUser struct {
	IdentityID *uuid.UUID
	IDP        *string
	Username   string
	Email      *string
	FirstName  *string
	FullName   *string
	LastName   *string
}

type userRow struct {
	UserID     uuid.UUID  `json:"user_id"`
	IdentityID *uuid.UUID `json:"identity_id"`
	IDP        *string    `json:"idp"`
	Username   string     `json:"username"`
	Email      *string    `json:"email"`
	FirstName  *string    `json:"first_name"`
	FullName   *string    `json:"full_name"`
	LastName   *string    `json:"last_name"`
	Active     bool       `json:"active"`
	stampRow
}

const userColumns = `user_id, identity_id, idp, username, email, first_name, full_name, last_name, active,
	created_by, created_at, updated_by, updated_at`

func scanUser(s interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := s.Scan(&u.UserID, &u.IdentityID, &u.IDP, &u.Username, &u.Email, &u.FirstName, &u.FullName,
		&u.LastName, &u.Active, &u.CreatedBy, &u.CreatedAt, &u.UpdatedBy, &u.UpdatedAt)
	return u, err
}

// ==========================
// Create User
// ==========================
func (r *UserRepo) Create(ctx context.Context, in NewUser, actor string) (models.User, error) {
	if actor == "" {
		return models.User{}, ErrNoActor
	}
	query := `
		INSERT INTO "user" (user_id, identity_id, idp, username, email, first_name, full_name, last_name, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + userColumns

	return scanUser(r.DB.QueryRowContext(ctx, query,
		uuid.New(), in.IdentityID, in.IDP, in.Username, in.Email, in.FirstName, in.FullName, in.LastName, actor))
}

// ==========================
// List Users
// ==========================
func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM "user" ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ==========================
// Activate / Deactivate User
// ==========================
func (r *UserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool, actor string) (models.User, error) {
	img, err := watchedUpdate(ctx, r.DB, r.Audit, userTable, id, actor, `active = $1`, active)
	if err != nil {
		return models.User{}, err
	}
	return decodeUser(img)
}

// ==========================
// Delete User
// ==========================
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID, actor string) (models.User, error) {
	img, err := watchedDelete(ctx, r.DB, r.Audit, userTable, id, actor)
	if err != nil {
		return models.User{}, err
	}
	return decodeUser(img)
}

func decodeUser(img []byte) (models.User, error) {
	var row userRow
	if err := json.Unmarshal(img, &row); err != nil {
		return models.User{}, err
	}
	return models.User{
		UserID:     row.UserID,
		IdentityID: row.IdentityID,
		IDP:        row.IDP,
		Username:   row.Username,
		Email:      row.Email,
		FirstName:  row.FirstName,
		FullName:   row.FullName,
		LastName:   row.LastName,
		Active:     row.Active,
		Stamps:     models.Stamps(row.stampRow),
	}, nil
}
