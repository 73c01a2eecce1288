package catalog

import (
	"net/http"

	"github.com/noah-isme/backend-crm/internal/common"
	"github.com/noah-isme/backend-crm/internal/obs"
)

// Handler exposes the product catalog proxy endpoint.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Products handles GET /api/v1/products with optional q and limit filters.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	params, err := h.service.ParseListParams(r.URL.Query())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	products, err := h.service.List(r.Context(), params)
	if err != nil {
		if obs.CatalogLookupTotal != nil {
			obs.CatalogLookupTotal.WithLabelValues("error").Inc()
		}
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM", "catalog lookup failed", nil)
		return
	}
	if obs.CatalogLookupTotal != nil {
		obs.CatalogLookupTotal.WithLabelValues("ok").Inc()
	}
	common.JSONData(w, http.StatusOK, products)
}
