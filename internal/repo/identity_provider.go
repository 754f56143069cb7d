package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/crucial707/geo-catalog/internal/models"
)

// IdentityProviderRepo persists identity_provider rows, keyed by their idp code.
type IdentityProviderRepo struct {
	DB    *sql.DB
	Audit Interceptor
}

func NewIdentityProviderRepo(db *sql.DB, audit Interceptor) *IdentityProviderRepo {
	return &IdentityProviderRepo{DB: db, Audit: audit}
}

type identityProviderRow struct {
	IDP    string `json:"idp"`
	Active bool   `json:"active"`
	stampRow
}

const identityProviderColumns = `idp, active, created_by, created_at, updated_by, updated_at`

func scanIdentityProvider(s interface{ Scan(...any) error }) (models.IdentityProvider, error) {
	var p models.IdentityProvider
	err := s.Scan(&p.IDP, &p.Active, &p.CreatedBy, &p.CreatedAt, &p.UpdatedBy, &p.UpdatedAt)
	return p, err
}

func (r *IdentityProviderRepo) Create(ctx context.Context, idp string, active bool, actor string) (models.IdentityProvider, error) {
	if actor == "" {
		return models.IdentityProvider{}, ErrNoActor
	}
	return scanIdentityProvider(r.DB.QueryRowContext(ctx,
		`INSERT INTO identity_provider (idp, active, created_by)
		 VALUES ($1, $2, $3)
		 RETURNING `+identityProviderColumns,
		idp, active, actor,
	))
}

func (r *IdentityProviderRepo) List(ctx context.Context) ([]models.IdentityProvider, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+identityProviderColumns+` FROM identity_provider ORDER BY idp`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	providers := []models.IdentityProvider{}
	for rows.Next() {
		p, err := scanIdentityProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

func (r *IdentityProviderRepo) SetActive(ctx context.Context, idp string, active bool, actor string) (models.IdentityProvider, error) {
	img, err := watchedUpdate(ctx, r.DB, r.Audit, identityProviderTable, idp, actor, `active = $1`, active)
	if err != nil {
		return models.IdentityProvider{}, err
	}
	return decodeIdentityProvider(img)
}

// Delete removes the provider and every user attached to it.
func (r *IdentityProviderRepo) Delete(ctx context.Context, idp, actor string) (models.IdentityProvider, error) {
	img, err := watchedDelete(ctx, r.DB, r.Audit, identityProviderTable, idp, actor,
		cascade{child: userTable, fk: "idp"})
	if err != nil {
		return models.IdentityProvider{}, err
	}
	return decodeIdentityProvider(img)
}

func decodeIdentityProvider(img []byte) (models.IdentityProvider, error) {
	var row identityProviderRow
	if err := json.Unmarshal(img, &row); err != nil {
		return models.IdentityProvider{}, err
	}
	return models.IdentityProvider{IDP: row.IDP, Active: row.Active, Stamps: models.Stamps(row.stampRow)}, nil
}
