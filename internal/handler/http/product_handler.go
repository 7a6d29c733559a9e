package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"ingestion-api/internal/product"
)

type CreateProductRequest struct {
	Name        *string          `json:"name" validate:"required"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Description *string          `json:"description"`
}

// UpdateProductRequest is a sparse payload; see UpdateUserRequest. A
// description supplied as null clears the column.
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`

	supplied map[string]bool
}

func (r *UpdateProductRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateProductRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	*r = UpdateProductRequest(p)
	r.supplied = make(map[string]bool, len(keys))
	for key := range keys {
		r.supplied[key] = true
	}

	return nil
}

func (r *UpdateProductRequest) Fields() map[string]any {
	fields := make(map[string]any, 3)
	if r.supplied["name"] {
		fields["name"] = optString(r.Name)
	}
	if r.supplied["price"] {
		if r.Price != nil {
			fields["price"] = *r.Price
		} else {
			fields["price"] = nil
		}
	}
	if r.supplied["description"] {
		fields["description"] = optString(r.Description)
	}
	return fields
}

type ProductResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description *string         `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func newProductResponse(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type ProductHandler struct {
	service  product.Service
	validate *validator.Validate
}

func NewProductHandler(service product.Service) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Post("/", h.handleCreate)
	router.Get("/", h.handleList)
	router.Get("/{id}", h.handleGetByID)
	router.Put("/{id}", h.handleUpdate)
	router.Delete("/{id}", h.handleDelete)
}

func (h *ProductHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode create product payload")
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		respondWithValidationError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), *payload.Name, *payload.Price, payload.Description)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create product via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create product")
		return
	}

	respondWithJSON(w, http.StatusOK, newProductResponse(created))
}

func (h *ProductHandler) handleList(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := parseListParams(r)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid skip or limit parameter")
		return
	}

	products, err := h.service.List(r.Context(), skip, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, newProductResponse(&products[i]))
	}

	respondWithJSON(w, http.StatusOK, responses)
}

func (h *ProductHandler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid id parameter")
		return
	}

	found, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		message := "Failed to get product"
		if errors.Is(err, product.ErrNotFound) {
			message = "Product not found"
		} else {
			log.Error().Err(err).Msg("Failed to get product via service")
		}

		respondWithError(w, mapErrorToStatusCode(err), message)
		return
	}

	respondWithJSON(w, http.StatusOK, newProductResponse(found))
}

func (h *ProductHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid id parameter")
		return
	}

	var payload UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode update product payload")
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid request payload")
		return
	}

	updated, err := h.service.Update(r.Context(), id, payload.Fields())
	if err != nil {
		message := "Failed to update product"
		if errors.Is(err, product.ErrNotFound) {
			message = "Product not found"
		} else {
			log.Error().Err(err).Msg("Failed to update product via service")
		}

		respondWithError(w, mapErrorToStatusCode(err), message)
		return
	}

	respondWithJSON(w, http.StatusOK, newProductResponse(updated))
}

func (h *ProductHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid id parameter")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		message := "Failed to delete product"
		if errors.Is(err, product.ErrNotFound) {
			message = "Product not found"
		} else {
			log.Error().Err(err).Msg("Failed to delete product via service")
		}

		respondWithError(w, mapErrorToStatusCode(err), message)
		return
	}

	respondWithJSON(w, http.StatusOK, messageResponse{Message: "Product deleted successfully"})
}
