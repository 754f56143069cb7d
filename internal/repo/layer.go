package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/crucial707/geo-catalog/internal/models"
)

// ========================
// REPOSITORY STRUCT
// ========================

type LayerRepo struct {
	DB    *sql.DB
	Audit Interceptor
}

func NewLayerRepo(db *sql.DB, audit Interceptor) *LayerRepo {
	return &LayerRepo{DB: db, Audit: audit}
}

type layerRow struct {
	LayerID int    `json:"layer_id"`
	Name    string `json:"name"`
	stampRow
}

func (r layerRow) model() models.Layer {
	return models.Layer{LayerID: r.LayerID, Name: r.Name, Stamps: models.Stamps(r.stampRow)}
}

const layerColumns = `layer_id, name, created_by, created_at, updated_by, updated_at`

func scanLayer(s interface{ Scan(...any) error }) (models.Layer, error) {
	var l models.Layer
	err := s.Scan(&l.LayerID, &l.Name, &l.CreatedBy, &l.CreatedAt, &l.UpdatedBy, &l.UpdatedAt)
	return l, err
}

// ========================
// CREATE LAYER
// ========================

// Create inserts a layer. Inserts are not audited.
func (r *LayerRepo) Create(ctx context.Context, name, actor string) (models.Layer, error) {
	if actor == "" {
		return models.Layer{}, ErrNoActor
	}
	return scanLayer(r.DB.QueryRowContext(ctx,
		`INSERT INTO layer (name, created_by)
		 VALUES ($1, $2)
		 RETURNING `+layerColumns,
		name, actor,
	))
}

// ========================
// LIST LAYERS
// ========================

func (r *LayerRepo) List(ctx context.Context) ([]models.Layer, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+layerColumns+` FROM layer ORDER BY layer_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	layers := []models.Layer{}
	for rows.Next() {
		l, err := scanLayer(rows)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}
	return layers, rows.Err()
}

// ========================
// RENAME LAYER
// ========================

func (r *LayerRepo) Rename(ctx context.Context, id int, name, actor string) (models.Layer, error) {
	img, err := watchedUpdate(ctx, r.DB, r.Audit, layerTable, id, actor, `name = $1`, name)
	if err != nil {
		return models.Layer{}, err
	}
	return decodeLayer(img)
}

// ========================
// DELETE LAYER
// ========================

// Delete removes the layer and its features, returning the deleted layer.
func (r *LayerRepo) Delete(ctx context.Context, id int, actor string) (models.Layer, error) {
	img, err := watchedDelete(ctx, r.DB, r.Audit, layerTable, id, actor,
		cascade{child: featureTable, fk: "layer_id"})
	if err != nil {
		return models.Layer{}, err
	}
	return decodeLayer(img)
}

func decodeLayer(img []byte) (models.Layer, error) {
	var row layerRow
	if err := json.Unmarshal(img, &row); err != nil {
		return models.Layer{}, err
	}
	return row.model(), nil
}
