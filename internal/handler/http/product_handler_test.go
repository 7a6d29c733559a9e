package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apphttp "ingestion-api/internal/handler/http"
	"ingestion-api/internal/product"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, name string, price decimal.Decimal, description *string) (*product.Product, error) {
	args := m.Called(ctx, name, price, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, skip, limit int) ([]product.Product, error) {
	args := m.Called(ctx, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id int64, fields map[string]any) (*product.Product, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newProductRouter(service product.Service) *chi.Mux {
	router := chi.NewRouter()
	router.Route("/products", apphttp.NewProductHandler(service).RegisterRoutes)
	return router
}

func TestProductHandler_Create_Success(t *testing.T) {
	mockService := new(MockProductService)
	router := newProductRouter(mockService)

	price := decimal.RequireFromString("19.99")
	mockService.On("Create", mock.Anything, "Widget",
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(price) }),
		(*string)(nil)).
		Return(&product.Product{ID: 1, Name: "Widget", Price: price}, nil).
		Once()

	body := `{"name": "Widget", "price": 19.99}`
	req := httptest.NewRequest(http.MethodPost, "/products/", strings.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response apphttp.ProductResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, int64(1), response.ID)
	assert.True(t, response.Price.Equal(price))
	assert.Nil(t, response.Description)
	mockService.AssertExpectations(t)
}

func TestProductHandler_Create_MissingPrice(t *testing.T) {
	mockService := new(MockProductService)
	router := newProductRouter(mockService)

	req := httptest.NewRequest(http.MethodPost, "/products/", strings.NewReader(`{"name": "Widget"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProductHandler_Create_NonNumericPrice(t *testing.T) {
	mockService := new(MockProductService)
	router := newProductRouter(mockService)

	body := `{"name": "Widget", "price": "not-a-number"}`
	req := httptest.NewRequest(http.MethodPost, "/products/", strings.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProductHandler_Update_ExplicitNullClearsDescription(t *testing.T) {
	mockService := new(MockProductService)
	router := newProductRouter(mockService)

	mockService.On("Update", mock.Anything, int64(3), map[string]any{"description": nil}).
		Return(&product.Product{ID: 3, Name: "Widget", Price: decimal.NewFromInt(5)}, nil).
		Once()

	req := httptest.NewRequest(http.MethodPut, "/products/3", strings.NewReader(`{"description": null}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}

func TestProductHandler_Update_OmittedFieldsNotForwarded(t *testing.T) {
	mockService := new(MockProductService)
	router := newProductRouter(mockService)

	mockService.On("Update", mock.Anything, int64(3), mock.MatchedBy(func(fields map[string]any) bool {
		_, hasName := fields["name"]
		_, hasPrice := fields["price"]
		_, hasDescription := fields["description"]
		return hasName && !hasPrice && !hasDescription
	})).
		Return(&product.Product{ID: 3, Name: "Renamed", Price: decimal.NewFromInt(5)}, nil).
		Once()

	req := httptest.NewRequest(http.MethodPut, "/products/3", strings.NewReader(`{"name": "Renamed"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}

func TestProductHandler_GetByID_NotFound(t *testing.T) {
	mockService := new(MockProductService)
	router := newProductRouter(mockService)

	mockService.On("GetByID", mock.Anything, int64(42)).
		Return(nil, product.ErrNotFound).
		Once()

	req := httptest.NewRequest(http.MethodGet, "/products/42", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"detail": "Product not found"}`, rr.Body.String())
	mockService.AssertExpectations(t)
}

func TestProductHandler_Delete_Success(t *testing.T) {
	mockService := new(MockProductService)
	router := newProductRouter(mockService)

	mockService.On("Delete", mock.Anything, int64(7)).
		Return(nil).
		Once()

	req := httptest.NewRequest(http.MethodDelete, "/products/7", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message": "Product deleted successfully"}`, rr.Body.String())
	mockService.AssertExpectations(t)
}
