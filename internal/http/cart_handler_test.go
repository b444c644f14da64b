package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartFixture(t *testing.T) (*CartHandler, *memCartRepo) {
	t.Helper()
	carts, repo := newTestCartService()
	products := &catalogMock{products: map[int64]*domain.Product{
		1: {ID: 1, Title: "Classic Cotton Shirt", Price: 1299.00},
		3: {ID: 3, Title: "Floral Summer Dress", Price: 1799.50},
	}}
	return NewCartHandler(carts, products, 5*time.Second), repo
}

func withRouteParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetCart_NewSession_ReturnsEmptyCart(t *testing.T) {
	handler, _ := newCartFixture(t)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/cart", nil), "s1")

	handler.GetCart(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	var response CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Empty(t, response.Items)
	assert.Equal(t, 0.0, response.Total)
}

func TestGetCart_MissingSession(t *testing.T) {
	handler, _ := newCartFixture(t)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/cart", nil)

	handler.GetCart(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAddItem_Success_UsesCatalogPrice(t *testing.T) {
	handler, repo := newCartFixture(t)

	// Client only says which product; the price comes from the catalog
	reqBytes, _ := json.Marshal(AddItemRequestDTO{ProductID: 1})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/cart/items", bytes.NewReader(reqBytes)), "s1")

	handler.AddItem(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)
	var response CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	require.Len(t, response.Items, 1)
	assert.Equal(t, 1299.00, response.Items[0].Price)
	assert.Equal(t, 1, response.Items[0].Quantity)
	assert.Equal(t, 1299.00, response.Total)

	require.NotNil(t, repo.getCart("s1"))
}

func TestAddItem_TwiceMerges(t *testing.T) {
	handler, _ := newCartFixture(t)

	for i := 0; i < 2; i++ {
		reqBytes, _ := json.Marshal(AddItemRequestDTO{ProductID: 1})
		recorder := httptest.NewRecorder()
		request := withSession(httptest.NewRequest("POST", "/cart/items", bytes.NewReader(reqBytes)), "s1")
		handler.AddItem(recorder, request)
		require.Equal(t, http.StatusCreated, recorder.Code)
	}

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/cart", nil), "s1")
	handler.GetCart(recorder, request)

	var response CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	require.Len(t, response.Items, 1)
	assert.Equal(t, 2, response.Items[0].Quantity)
	assert.Equal(t, 2598.00, response.Total)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	handler, _ := newCartFixture(t)

	reqBytes, _ := json.Marshal(AddItemRequestDTO{ProductID: 999})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/cart/items", bytes.NewReader(reqBytes)), "s1")

	handler.AddItem(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestAddItem_InvalidProductID(t *testing.T) {
	handler, _ := newCartFixture(t)

	reqBytes, _ := json.Marshal(AddItemRequestDTO{ProductID: -1})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/cart/items", bytes.NewReader(reqBytes)), "s1")

	handler.AddItem(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	var response ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	assert.Equal(t, "invalid_product_id", response.Code)
}

func TestUpdateQuantity_Success(t *testing.T) {
	handler, _ := newCartFixture(t)

	reqBytes, _ := json.Marshal(AddItemRequestDTO{ProductID: 1})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/cart/items", bytes.NewReader(reqBytes)), "s1")
	handler.AddItem(recorder, request)
	require.Equal(t, http.StatusCreated, recorder.Code)

	reqBytes, _ = json.Marshal(UpdateQuantityRequestDTO{Quantity: 10})
	recorder = httptest.NewRecorder()
	request = withSession(httptest.NewRequest("PUT", "/cart/items/1", bytes.NewReader(reqBytes)), "s1")
	request = withRouteParam(request, "product_id", "1")

	handler.UpdateQuantity(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	var response CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, 10, response.Items[0].Quantity)
}

func TestUpdateQuantity_InvalidQuantity(t *testing.T) {
	handler, repo := newCartFixture(t)

	reqBytes, _ := json.Marshal(AddItemRequestDTO{ProductID: 1})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/cart/items", bytes.NewReader(reqBytes)), "s1")
	handler.AddItem(recorder, request)
	require.Equal(t, http.StatusCreated, recorder.Code)

	tests := []struct {
		name     string
		quantity int
	}{
		{"zero quantity", 0},
		{"negative quantity", -1},
		{"quantity too high", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqBytes, _ := json.Marshal(UpdateQuantityRequestDTO{Quantity: tt.quantity})
			recorder := httptest.NewRecorder()
			request := withSession(httptest.NewRequest("PUT", "/cart/items/1", bytes.NewReader(reqBytes)), "s1")
			request = withRouteParam(request, "product_id", "1")

			handler.UpdateQuantity(recorder, request)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			var response ErrorResponse
			json.NewDecoder(recorder.Body).Decode(&response)
			assert.Equal(t, "invalid_quantity", response.Code)

			// Stored quantity unchanged
			assert.Equal(t, 1, repo.getCart("s1").Items[0].Quantity)
		})
	}
}

func TestUpdateQuantity_ItemNotInCart(t *testing.T) {
	handler, _ := newCartFixture(t)

	reqBytes, _ := json.Marshal(UpdateQuantityRequestDTO{Quantity: 5})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("PUT", "/cart/items/3", bytes.NewReader(reqBytes)), "s1")
	request = withRouteParam(request, "product_id", "3")

	handler.UpdateQuantity(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	var response ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	assert.Equal(t, "item_not_found", response.Code)
}

func TestRemoveItem_Success(t *testing.T) {
	handler, repo := newCartFixture(t)

	reqBytes, _ := json.Marshal(AddItemRequestDTO{ProductID: 1})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/cart/items", bytes.NewReader(reqBytes)), "s1")
	handler.AddItem(recorder, request)
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = httptest.NewRecorder()
	request = withSession(httptest.NewRequest("DELETE", "/cart/items/1", nil), "s1")
	request = withRouteParam(request, "product_id", "1")

	handler.RemoveItem(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	var response CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Empty(t, response.Items)
	assert.Empty(t, repo.getCart("s1").Items)
}

func TestRemoveItem_AbsentItem_IsOK(t *testing.T) {
	handler, _ := newCartFixture(t)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("DELETE", "/cart/items/42", nil), "s1")
	request = withRouteParam(request, "product_id", "42")

	handler.RemoveItem(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
}
