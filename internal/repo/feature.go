package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/crucial707/geo-catalog/internal/models"
)

type FeatureRepo struct {
	DB    *sql.DB
	Audit Interceptor
}

func NewFeatureRepo(db *sql.DB, audit Interceptor) *FeatureRepo {
	return &FeatureRepo{DB: db, Audit: audit}
}

// NewFeature is the input to FeatureRepo.Create. LayerID and FeatureGroupID may be nil.
type NewFeature struct {
	LayerID        *int
	FeatureGroupID *int
	GeoType        string
	Doc            json.RawMessage
}

type featureRow struct {
	FeatureID      int             `json:"feature_id"`
	LayerID        *int            `json:"layer_id"`
	FeatureGroupID *int            `json:"feature_group_id"`
	GeoType        string          `json:"geo_type"`
	GeoJSON        json.RawMessage `json:"geo_json"`
	stampRow
}

const featureColumns = `feature_id, layer_id, feature_group_id, geo_type, geo_json, created_by, created_at, updated_by, updated_at`

func scanFeature(s interface{ Scan(...any) error }) (models.Feature, error) {
	var (
		f   models.Feature
		doc []byte
	)
	err := s.Scan(&f.FeatureID, &f.LayerID, &f.FeatureGroupID, &f.GeoType, &doc, &f.CreatedBy, &f.CreatedAt, &f.UpdatedBy, &f.UpdatedAt)
	f.GeoJSON = doc
	return f, err
}

// Create stores a GeoJSON document as-is.
func (r *FeatureRepo) Create(ctx context.Context, in NewFeature, actor string) (models.Feature, error) {
	if actor == "" {
		return models.Feature{}, ErrNoActor
	}
	return scanFeature(r.DB.QueryRowContext(ctx,
		`INSERT INTO feature (layer_id, feature_group_id, geo_type, geo_json, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+featureColumns,
		in.LayerID, in.FeatureGroupID, in.GeoType, string(in.Doc), actor,
	))
}

// List returns all features, or only those of one layer when layerID is non-nil.
func (r *FeatureRepo) List(ctx context.Context, layerID *int) ([]models.Feature, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if layerID != nil {
		rows, err = r.DB.QueryContext(ctx,
			`SELECT `+featureColumns+` FROM feature WHERE layer_id = $1 ORDER BY feature_id`, *layerID)
	} else {
		rows, err = r.DB.QueryContext(ctx, `SELECT `+featureColumns+` FROM feature ORDER BY feature_id`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	features := []models.Feature{}
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

// UpdateGeometry replaces the stored document and its geometry type.
func (r *FeatureRepo) UpdateGeometry(ctx context.Context, id int, geoType string, doc json.RawMessage, actor string) (models.Feature, error) {
	img, err := watchedUpdate(ctx, r.DB, r.Audit, featureTable, id, actor,
		`geo_type = $1, geo_json = $2`, geoType, string(doc))
	if err != nil {
		return models.Feature{}, err
	}
	return decodeFeature(img)
}

// Delete removes the feature and returns it.
func (r *FeatureRepo) Delete(ctx context.Context, id int, actor string) (models.Feature, error) {
	img, err := watchedDelete(ctx, r.DB, r.Audit, featureTable, id, actor)
	if err != nil {
		return models.Feature{}, err
	}
	return decodeFeature(img)
}

func decodeFeature(img []byte) (models.Feature, error) {
	var row featureRow
	if err := json.Unmarshal(img, &row); err != nil {
		return models.Feature{}, err
	}
	return models.Feature{
		FeatureID:      row.FeatureID,
		LayerID:        row.LayerID,
		FeatureGroupID: row.FeatureGroupID,
		GeoType:        row.GeoType,
		GeoJSON:        row.GeoJSON,
		Stamps:         models.Stamps(row.stampRow),
	}, nil
}
