package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-crm/internal/catalog"
	"github.com/noah-isme/backend-crm/internal/crm"
)

type stubLister struct {
	products []crm.Product
	err      error
	calls    int
}

func (s *stubLister) ListProducts(_ context.Context, _ string) ([]crm.Product, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

func sampleProducts() []crm.Product {
	return []crm.Product{
		{ID: "p-1", Name: "Laptop Pro", Description: "Workstation grade", ListPrice: 1500},
		{ID: "p-2", Name: "Desk Lamp", Description: "LED lamp", ListPrice: 35},
		{ID: "p-3", Name: "Laptop Stand", Description: "Aluminium", ListPrice: 60},
	}
}

func newHandler(t *testing.T, lister *stubLister) *catalog.Handler {
	t.Helper()
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Client:       lister,
		Cache:        catalog.NewCache(time.Minute),
		DefaultLimit: 20,
		MaxLimit:     100,
	})
	require.NoError(t, err)
	return catalog.NewHandler(catalog.HandlerConfig{Service: svc})
}

func decodeProducts(t *testing.T, body []byte) []crm.Product {
	t.Helper()
	var envelope struct {
		Data []crm.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Data
}

func TestProductsFiltersBySubstring(t *testing.T) {
	handler := newHandler(t, &stubLister{products: sampleProducts()})

	rr := httptest.NewRecorder()
	handler.Products(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products?q=laptop", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	products := decodeProducts(t, rr.Body.Bytes())
	require.Len(t, products, 2)
	require.Equal(t, "Laptop Pro", products[0].Name)
	require.Equal(t, "Laptop Stand", products[1].Name)
}

func TestProductsMatchesDescription(t *testing.T) {
	handler := newHandler(t, &stubLister{products: sampleProducts()})

	rr := httptest.NewRecorder()
	handler.Products(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products?q=led", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	products := decodeProducts(t, rr.Body.Bytes())
	require.Len(t, products, 1)
	require.Equal(t, "Desk Lamp", products[0].Name)
}

func TestProductsHonoursLimit(t *testing.T) {
	handler := newHandler(t, &stubLister{products: sampleProducts()})

	rr := httptest.NewRecorder()
	handler.Products(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products?limit=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decodeProducts(t, rr.Body.Bytes()), 2)
}

func TestProductsRejectsInvalidLimit(t *testing.T) {
	handler := newHandler(t, &stubLister{products: sampleProducts()})

	rr := httptest.NewRecorder()
	handler.Products(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products?limit=abc", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProductsUpstreamFailure(t *testing.T) {
	handler := newHandler(t, &stubLister{err: errors.New("connection refused")})

	rr := httptest.NewRecorder()
	handler.Products(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	require.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestProductsUsesCacheForUnfilteredList(t *testing.T) {
	lister := &stubLister{products: sampleProducts()}
	handler := newHandler(t, lister)

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.Products(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	require.Equal(t, 1, lister.calls)
}
