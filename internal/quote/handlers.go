package quote

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-crm/internal/common"
	"github.com/noah-isme/backend-crm/internal/crm"
	"github.com/noah-isme/backend-crm/internal/obs"
	"github.com/noah-isme/backend-crm/internal/pricing"
)

// Handler exposes draft and pricing endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		service:  cfg.Service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Mount registers draft routes for both document kinds plus the stateless
// pricing preview.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/pricing/preview", h.Preview)
	r.Route("/quotes", h.kindRoutes(KindQuote))
	r.Route("/purchase-orders", h.kindRoutes(KindPurchaseOrder))
}

func (h *Handler) kindRoutes(kind Kind) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/", h.create(kind))
		r.Route("/{draftID}", func(r chi.Router) {
			r.Get("/", h.get(kind))
			r.Delete("/", h.delete(kind))
			r.Post("/lines", h.addLine(kind))
			r.Patch("/lines/{lineID}", h.updateLine(kind))
			r.Delete("/lines/{lineID}", h.removeLine(kind))
			r.Put("/tax", h.setTax(kind))
			r.Post("/submit", h.submit(kind))
		})
	}
}

type createDraftRequest struct {
	Subject   string `json:"subject" validate:"required,max=200"`
	PartyName string `json:"partyName" validate:"max=200"`
}

type previewRequest struct {
	Products     []pricing.LineItem `json:"products"`
	IsGstApplied bool               `json:"isGstApplied"`
	OtherTax     []pricing.OtherTax `json:"otherTax"`
}

type setTaxRequest struct {
	IsGstApplied bool               `json:"isGstApplied"`
	OtherTax     []pricing.OtherTax `json:"otherTax" validate:"dive"`
}

// Preview handles POST /api/v1/pricing/preview. The payload mirrors the
// draft shape; totals are computed and returned without creating state.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.BadRequest("invalid JSON payload", nil))
		return
	}
	totals := Preview(req.Products, pricing.TaxConfig{
		GSTEnabled: req.IsGstApplied,
		OtherTaxes: req.OtherTax,
	})
	if obs.PricingComputeTotal != nil {
		obs.PricingComputeTotal.WithLabelValues("preview").Inc()
	}
	common.JSONData(w, http.StatusOK, totals)
}

func (h *Handler) create(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createDraftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteError(w, common.BadRequest("invalid JSON payload", nil))
			return
		}
		if err := h.validate.Struct(req); err != nil {
			common.WriteError(w, common.BadRequest("validation failed", validationDetails(err)))
			return
		}
		d, err := h.service.Create(r.Context(), kind, req.Subject, req.PartyName)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.countMutation(kind, "create")
		common.JSONData(w, http.StatusCreated, View(d))
	}
}

func (h *Handler) get(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := h.service.Get(r.Context(), kind, chi.URLParam(r, "draftID"))
		if err != nil {
			h.writeError(w, err)
			return
		}
		if obs.PricingComputeTotal != nil {
			obs.PricingComputeTotal.WithLabelValues("read").Inc()
		}
		common.JSONData(w, http.StatusOK, View(d))
	}
}

func (h *Handler) delete(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.Delete(r.Context(), kind, chi.URLParam(r, "draftID")); err != nil {
			h.writeError(w, err)
			return
		}
		h.countMutation(kind, "delete")
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) addLine(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Start from form defaults so omitted fields behave like a fresh row.
		item := pricing.NewLineItem()
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			common.WriteError(w, common.BadRequest("invalid JSON payload", nil))
			return
		}
		d, err := h.service.AddLine(r.Context(), kind, chi.URLParam(r, "draftID"), item)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.countMutation(kind, "add_line")
		common.JSONData(w, http.StatusOK, View(d))
	}
}

func (h *Handler) updateLine(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch LinePatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			common.WriteError(w, common.BadRequest("invalid JSON payload", nil))
			return
		}
		d, err := h.service.UpdateLine(r.Context(), kind, chi.URLParam(r, "draftID"), chi.URLParam(r, "lineID"), patch)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.countMutation(kind, "update_line")
		common.JSONData(w, http.StatusOK, View(d))
	}
}

func (h *Handler) removeLine(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := h.service.RemoveLine(r.Context(), kind, chi.URLParam(r, "draftID"), chi.URLParam(r, "lineID"))
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.countMutation(kind, "remove_line")
		common.JSONData(w, http.StatusOK, View(d))
	}
}

func (h *Handler) setTax(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setTaxRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteError(w, common.BadRequest("invalid JSON payload", nil))
			return
		}
		d, err := h.service.SetTax(r.Context(), kind, chi.URLParam(r, "draftID"), pricing.TaxConfig{
			GSTEnabled: req.IsGstApplied,
			OtherTaxes: req.OtherTax,
		})
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.countMutation(kind, "set_tax")
		common.JSONData(w, http.StatusOK, View(d))
	}
}

func (h *Handler) submit(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receipt, view, err := h.service.Submit(r.Context(), kind, chi.URLParam(r, "draftID"))
		if err != nil {
			if obs.DraftSubmitTotal != nil {
				obs.DraftSubmitTotal.WithLabelValues(string(kind), "error").Inc()
			}
			h.writeError(w, err)
			return
		}
		if obs.DraftSubmitTotal != nil {
			obs.DraftSubmitTotal.WithLabelValues(string(kind), "ok").Inc()
		}
		common.JSONData(w, http.StatusCreated, map[string]any{
			"receipt": receipt,
			"totals":  view.Totals,
		})
	}
}

func (h *Handler) countMutation(kind Kind, op string) {
	if obs.DraftMutationTotal != nil {
		obs.DraftMutationTotal.WithLabelValues(string(kind), op).Inc()
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.WriteError(w, common.NotFound(err.Error()))
	case errors.Is(err, ErrInvalidKind), errors.Is(err, ErrEmptyDraft):
		common.WriteError(w, common.BadRequest(err.Error(), nil))
	case errors.Is(err, crm.ErrRejected):
		common.WriteError(w, common.NewAppError("UPSTREAM_REJECTED", err.Error(), http.StatusUnprocessableEntity, err))
	case errors.Is(err, crm.ErrUnavailable):
		common.WriteError(w, common.NewAppError("UPSTREAM", "crm backend unavailable", http.StatusBadGateway, err))
	default:
		common.WriteError(w, err)
	}
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
