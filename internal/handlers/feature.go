package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/geo-catalog/internal/auth"
	"github.com/crucial707/geo-catalog/internal/models"
	"github.com/crucial707/geo-catalog/internal/repo"
)

type FeatureHandler struct {
	Repo *repo.FeatureRepo
}

// featureDoc is the part of a GeoJSON Feature the catalog reads. The document
// itself is stored untouched; geometry is not validated.
type featureDoc struct {
	Type     string `json:"type"`
	Geometry struct {
		Type string `json:"type"`
	} `json:"geometry"`
	Properties struct {
		LayerID        *int `json:"layerId"`
		FeatureGroupID *int `json:"featureGroupId"`
	} `json:"properties"`
}

// readFeature reads the body, checks it is a GeoJSON Feature with a geometry type
// and returns the raw bytes alongside the parsed header.
func readFeature(w http.ResponseWriter, r *http.Request) (json.RawMessage, featureDoc, bool) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			JSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
		} else {
			JSONError(w, "invalid JSON", http.StatusBadRequest)
		}
		return nil, featureDoc{}, false
	}
	var doc featureDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		JSONError(w, "invalid GeoJSON feature", http.StatusBadRequest)
		return nil, featureDoc{}, false
	}
	fields := map[string]string{}
	if doc.Type != "Feature" {
		fields["type"] = "must be Feature"
	}
	if doc.Geometry.Type == "" {
		fields["geometry.type"] = "required"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return nil, featureDoc{}, false
	}
	return raw, doc, true
}

// stampFeatureID copies the feature id into geoJson.properties.featureId so map
// clients can tie rendered shapes back to catalog rows.
func stampFeatureID(f models.Feature) models.Feature {
	var doc map[string]any
	if err := json.Unmarshal(f.GeoJSON, &doc); err != nil || doc == nil {
		return f
	}
	props, ok := doc["properties"].(map[string]any)
	if !ok {
		props = map[string]any{}
	}
	props["featureId"] = f.FeatureID
	doc["properties"] = props
	if b, err := json.Marshal(doc); err == nil {
		f.GeoJSON = b
	}
	return f
}

//
// ==========================
// List Features
// ==========================
//

// ListFeatures returns every feature, or those of ?layerId= when given.
func (h *FeatureHandler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	var layerID *int
	if l := r.URL.Query().Get("layerId"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil {
			JSONError(w, "invalid layerId", http.StatusBadRequest)
			return
		}
		layerID = &v
	}

	features, err := h.Repo.List(r.Context(), layerID)
	if err != nil {
		repoError(w, r, err, "feature not found")
		return
	}
	for i := range features {
		features[i] = stampFeatureID(features[i])
	}
	writeJSON(w, features)
}

//
// ==========================
// Create Feature
// ==========================
//

func (h *FeatureHandler) CreateFeature(w http.ResponseWriter, r *http.Request) {
	raw, doc, ok := readFeature(w, r)
	if !ok {
		return
	}

	f, err := h.Repo.Create(r.Context(), repo.NewFeature{
		LayerID:        doc.Properties.LayerID,
		FeatureGroupID: doc.Properties.FeatureGroupID,
		GeoType:        doc.Geometry.Type,
		Doc:            raw,
	}, auth.FromContext(r.Context()).Username())
	if err != nil {
		repoError(w, r, err, "feature not found")
		return
	}
	writeJSON(w, stampFeatureID(f))
}

//
// ==========================
// Update Feature Geometry
// ==========================
//

func (h *FeatureHandler) UpdateFeature(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid feature id", http.StatusBadRequest)
		return
	}
	raw, doc, ok := readFeature(w, r)
	if !ok {
		return
	}

	f, err := h.Repo.UpdateGeometry(r.Context(), id, doc.Geometry.Type, raw, auth.FromContext(r.Context()).Username())
	if err != nil {
		repoError(w, r, err, "feature not found")
		return
	}
	writeJSON(w, stampFeatureID(f))
}

//
// ==========================
// Delete Feature
// ==========================
//

func (h *FeatureHandler) DeleteFeature(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid feature id", http.StatusBadRequest)
		return
	}

	f, err := h.Repo.Delete(r.Context(), id, auth.FromContext(r.Context()).Username())
	if err != nil {
		repoError(w, r, err, "feature not found")
		return
	}
	writeJSON(w, f)
}
