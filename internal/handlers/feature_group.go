package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/geo-catalog/internal/auth"
	"github.com/crucial707/geo-catalog/internal/repo"
)

type FeatureGroupHandler struct {
	Repo *repo.FeatureGroupRepo
}

type featureGroupInput struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

func (h *FeatureGroupHandler) ListFeatureGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Repo.List(r.Context())
	if err != nil {
		repoError(w, r, err, "feature group not found")
		return
	}
	writeJSON(w, groups)
}

func (h *FeatureGroupHandler) CreateFeatureGroup(w http.ResponseWriter, r *http.Request) {
	var input featureGroupInput
	if !decodeValid(w, r, &input) {
		return
	}

	g, err := h.Repo.Create(r.Context(), input.Name, auth.FromContext(r.Context()).Username())
	if err != nil {
		repoError(w, r, err, "feature group not found")
		return
	}
	writeJSON(w, g)
}

func (h *FeatureGroupHandler) UpdateFeatureGroup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid feature group id", http.StatusBadRequest)
		return
	}
	var input featureGroupInput
	if !decodeValid(w, r, &input) {
		return
	}

	g, err := h.Repo.Rename(r.Context(), id, input.Name, auth.FromContext(r.Context()).Username())
	if err != nil {
		repoError(w, r, err, "feature group not found")
		return
	}
	writeJSON(w, g)
}

// DeleteFeatureGroup removes the group and returns it. Member features are kept
// and become ungrouped.
func (h *FeatureGroupHandler) DeleteFeatureGroup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid feature group id", http.StatusBadRequest)
		return
	}

	g, err := h.Repo.Delete(r.Context(), id, auth.FromContext(r.Context()).Username())
	if err != nil {
		repoError(w, r, err, "feature group not found")
		return
	}
	writeJSON(w, g)
}
