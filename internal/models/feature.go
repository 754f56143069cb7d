package models

import "encoding/json"

// Feature is a stored GeoJSON document. GeoJSON is kept as raw bytes and is
// never validated here.
type Feature struct {
	FeatureID      int             `json:"featureId"`
	LayerID        *int            `json:"layerId"`
	FeatureGroupID *int            `json:"featureGroupId"`
	GeoType        string          `json:"geoType"`
	GeoJSON        json.RawMessage `json:"geoJson"`
	Stamps
}
