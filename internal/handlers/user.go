package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crucial707/geo-catalog/internal/auth"
	"github.com/crucial707/geo-catalog/internal/repo"
)

// ==========================
// UserHandler
// ==========================
type UserHandler struct {
	Repo *repo.UserRepo
}

type activeInput struct {
	Active *bool `json:"active" validate:"required"`
}

// ==========================
// List Users
// ==========================
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Repo.List(r.Context())
	if err != nil {
		repoError(w, r, err, "user not found")
		return
	}
	writeJSON(w, users)
}

// ==========================
// Create User
// ==========================
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		IdentityID *uuid.UUID `json:"identityId"`
		IDP        *string    `json:"idp"`
		Username   string     `json:"username" validate:"required,max=255"`
		Email      *string    `json:"email" validate:"omitempty,email"`
		FirstName  *string    `json:"firstName"`
		FullName   *string    `json:"fullName"`
		LastName   *string    `json:"lastName"`
	}
	if !decodeValid(w, r, &input) {
		return
	}

	user, err := h.Repo.Create(r.Context(), repo.NewUser{
		IdentityID: input.IdentityID,
		IDP:        input.IDP,
		Username:   input.Username,
		Email:      input.Email,
		FirstName:  input.FirstName,
		FullName:   input.FullName,
		LastName:   input.LastName,
	}, auth.FromContext(r.Context()).Username())
	if err != nil {
		repoError(w, r, err, "user not found")
		return
	}
	writeJSON(w, user)
}

// ==========================
// Activate / Deactivate User
// ==========================
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}
	var input activeInput
	if !decodeValid(w, r, &input) {
		return
	}

	user, err := h.Repo.SetActive(r.Context(), id, *input.Active, auth.FromContext(r.Context()).Username())
	if err != nil {
		repoError(w, r, err, "user not found")
		return
	}
	writeJSON(w, user)
}

// ==========================
// Delete User
// ==========================
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	user, err := h.Repo.Delete(r.Context(), id, auth.FromContext(r.Context()).Username())
	if err != nil {
		repoError(w, r, err, "user not found")
		return
	}
	writeJSON(w, user)
}
