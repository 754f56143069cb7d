package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/crucial707/geo-catalog/internal/models"
)

type FeatureGroupRepo struct {
	DB    *sql.DB
	Audit Interceptor
}

func NewFeatureGroupRepo(db *sql.DB, audit Interceptor) *FeatureGroupRepo {
	return &FeatureGroupRepo{DB: db, Audit: audit}
}

type featureGroupRow struct {
	FeatureGroupID int    `json:"feature_group_id"`
	Name           string `json:"name"`
	stampRow
}

const featureGroupColumns = `feature_group_id, name, created_by, created_at, updated_by, updated_at`

func scanFeatureGroup(s interface{ Scan(...any) error }) (models.FeatureGroup, error) {
	var g models.FeatureGroup
	err := s.Scan(&g.FeatureGroupID, &g.Name, &g.CreatedBy, &g.CreatedAt, &g.UpdatedBy, &g.UpdatedAt)
	return g, err
}

func (r *FeatureGroupRepo) Create(ctx context.Context, name, actor string) (models.FeatureGroup, error) {
	if actor == "" {
		return models.FeatureGroup{}, ErrNoActor
	}
	return scanFeatureGroup(r.DB.QueryRowContext(ctx,
		`INSERT INTO feature_group (name, created_by)
		 VALUES ($1, $2)
		 RETURNING `+featureGroupColumns,
		name, actor,
	))
}

func (r *FeatureGroupRepo) List(ctx context.Context) ([]models.FeatureGroup, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+featureGroupColumns+` FROM feature_group ORDER BY feature_group_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []models.FeatureGroup{}
	for rows.Next() {
		g, err := scanFeatureGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *FeatureGroupRepo) Rename(ctx context.Context, id int, name, actor string) (models.FeatureGroup, error) {
	img, err := watchedUpdate(ctx, r.DB, r.Audit, featureGroupTable, id, actor, `name = $1`, name)
	if err != nil {
		return models.FeatureGroup{}, err
	}
	return decodeFeatureGroup(img)
}

// Delete removes the group. Its features stay, with feature_group_id cleared
// through one audited update each.
func (r *FeatureGroupRepo) Delete(ctx context.Context, id int, actor string) (models.FeatureGroup, error) {
	img, err := watchedDelete(ctx, r.DB, r.Audit, featureGroupTable, id, actor,
		cascade{child: featureTable, fk: "feature_group_id", detach: true})
	if err != nil {
		return models.FeatureGroup{}, err
	}
	return decodeFeatureGroup(img)
}

func decodeFeatureGroup(img []byte) (models.FeatureGroup, error) {
	var row featureGroupRow
	if err := json.Unmarshal(img, &row); err != nil {
		return models.FeatureGroup{}, err
	}
	return models.FeatureGroup{
		FeatureGroupID: row.FeatureGroupID,
		Name:           row.Name,
		Stamps:         models.Stamps(row.stampRow),
	}, nil
}
