package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"ingestion-api/internal/user"
)

type CreateUserRequest struct {
	Name  *string `json:"name" validate:"required"`
	Email *string `json:"email" validate:"required"`
}

// UpdateUserRequest is a sparse payload: the keys actually present in the
// body are tracked separately from their values, so "not supplied" and
// "explicitly null" stay distinguishable.
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`

	supplied map[string]bool
}

func (r *UpdateUserRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateUserRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	*r = UpdateUserRequest(p)
	r.supplied = make(map[string]bool, len(keys))
	for key := range keys {
		r.supplied[key] = true
	}

	return nil
}

// Fields returns the field-name to new-value mapping for the keys present in
// the payload. A key supplied as null maps to nil.
func (r *UpdateUserRequest) Fields() map[string]any {
	fields := make(map[string]any, 2)
	if r.supplied["name"] {
		fields["name"] = optString(r.Name)
	}
	if r.supplied["email"] {
		fields["email"] = optString(r.Email)
	}
	return fields
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type UserHandler struct {
	service  user.Service
	validate *validator.Validate
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Post("/", h.handleCreate)
	router.Get("/", h.handleList)
	router.Get("/{id}", h.handleGetByID)
	router.Put("/{id}", h.handleUpdate)
	router.Delete("/{id}", h.handleDelete)
}

func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode create user payload")
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		respondWithValidationError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), *payload.Name, *payload.Email)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create user via service")

		message := "Failed to create user"
		if errors.Is(err, user.ErrEmailExists) {
			message = "Email already exists"
		}

		respondWithError(w, mapErrorToStatusCode(err), message)
		return
	}

	respondWithJSON(w, http.StatusOK, newUserResponse(created))
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := parseListParams(r)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid skip or limit parameter")
		return
	}

	users, err := h.service.List(r.Context(), skip, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, newUserResponse(&users[i]))
	}

	respondWithJSON(w, http.StatusOK, responses)
}

func (h *UserHandler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid id parameter")
		return
	}

	found, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		message := "Failed to get user"
		if errors.Is(err, user.ErrNotFound) {
			message = "User not found"
		} else {
			log.Error().Err(err).Msg("Failed to get user via service")
		}

		respondWithError(w, mapErrorToStatusCode(err), message)
		return
	}

	respondWithJSON(w, http.StatusOK, newUserResponse(found))
}

func (h *UserHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid id parameter")
		return
	}

	var payload UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode update user payload")
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid request payload")
		return
	}

	updated, err := h.service.Update(r.Context(), id, payload.Fields())
	if err != nil {
		message := "Failed to update user"
		switch {
		case errors.Is(err, user.ErrNotFound):
			message = "User not found"
		case errors.Is(err, user.ErrEmailExists):
			message = "Email already exists"
		default:
			log.Error().Err(err).Msg("Failed to update user via service")
		}

		respondWithError(w, mapErrorToStatusCode(err), message)
		return
	}

	respondWithJSON(w, http.StatusOK, newUserResponse(updated))
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid id parameter")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		message := "Failed to delete user"
		if errors.Is(err, user.ErrNotFound) {
			message = "User not found"
		} else {
			log.Error().Err(err).Msg("Failed to delete user via service")
		}

		respondWithError(w, mapErrorToStatusCode(err), message)
		return
	}

	respondWithJSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully"})
}
