package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/geo-catalog/internal/auth"
	"github.com/crucial707/geo-catalog/internal/repo"
)

type LayerHandler struct {
	Repo *repo.LayerRepo
}

type layerInput struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

//
// ==========================
// List Layers
// ==========================
//

func (h *LayerHandler) ListLayers(w http.ResponseWriter, r *http.Request) {
	layers, err := h.Repo.List(r.Context())
	if err != nil {
		repoError(w, r, err, "layer not found")
		return
	}
	writeJSON(w, layers)
}

//
// ==========================
// Create Layer
// ==========================
//

func (h *LayerHandler) CreateLayer(w http.ResponseWriter, r *http.Request) {
	var input layerInput
	if !decodeValid(w, r, &input) {
		return
	}

	layer, err := h.Repo.Create(r.Context(), input.Name, auth.FromContext(r.Context()).Username())
	if err != nil {
		repoError(w, r, err, "layer not found")
		return
	}
	writeJSON(w, layer)
}

//
// ==========================
// Rename Layer
// ==========================
//

func (h *LayerHandler) UpdateLayer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid layer id", http.StatusBadRequest)
		return
	}
	var input layerInput
	if !decodeValid(w, r, &input) {
		return
	}

	layer, err := h.Repo.Rename(r.Context(), id, input.Name, auth.FromContext(r.Context()).Username())
	if err != nil {
		repoError(w, r, err, "layer not found")
		return
	}
	writeJSON(w, layer)
}

//
// ==========================
// Delete Layer
// ==========================
//

// DeleteLayer removes the layer with its features and returns the deleted layer.
func (h *LayerHandler) DeleteLayer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid layer id", http.StatusBadRequest)
		return
	}

	layer, err := h.Repo.Delete(r.Context(), id, auth.FromContext(r.Context()).Username())
	if err != nil {
		repoError(w, r, err, "layer not found")
		return
	}
	writeJSON(w, layer)
}
