package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/geo-catalog/internal/auth"
	"github.com/crucial707/geo-catalog/internal/repo"
)

// IdentityProviderHandler serves /v1/identityProvider. Providers are keyed by their idp code.
type IdentityProviderHandler struct {
	Repo *repo.IdentityProviderRepo
}

func (h *IdentityProviderHandler) ListIdentityProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.Repo.List(r.Context())
	if err != nil {
		repoError(w, r, err, "identity provider not found")
		return
	}
	writeJSON(w, providers)
}

// CreateIdentityProvider registers a provider; active defaults to true.
func (h *IdentityProviderHandler) CreateIdentityProvider(w http.ResponseWriter, r *http.Request) {
	var input struct {
		IDP    string `json:"idp" validate:"required,max=64"`
		Active *bool  `json:"active"`
	}
	if !decodeValid(w, r, &input) {
		return
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}

	p, err := h.Repo.Create(r.Context(), input.IDP, active, auth.FromContext(r.Context()).Username())
	if err != nil {
		repoError(w, r, err, "identity provider not found")
		return
	}
	writeJSON(w, p)
}

func (h *IdentityProviderHandler) UpdateIdentityProvider(w http.ResponseWriter, r *http.Request) {
	var input activeInput
	if !decodeValid(w, r, &input) {
		return
	}

	p, err := h.Repo.SetActive(r.Context(), chi.URLParam(r, "id"), *input.Active, auth.FromContext(r.Context()).Username())
	if err != nil {
		repoError(w, r, err, "identity provider not found")
		return
	}
	writeJSON(w, p)
}

// DeleteIdentityProvider removes the provider and every user attached to it.
func (h *IdentityProviderHandler) DeleteIdentityProvider(w http.ResponseWriter, r *http.Request) {
	p, err := h.Repo.Delete(r.Context(), chi.URLParam(r, "id"), auth.FromContext(r.Context()).Username())
	if err != nil {
		repoError(w, r, err, "identity provider not found")
		return
	}
	writeJSON(w, p)
}
