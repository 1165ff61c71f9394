package payments

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tavern-pos/tavern/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the payments module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs payments handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/tabs/{tabID}/payments", h.recordPayment)
	r.Get("/tabs/{tabID}/payments", h.listByTab)
	r.Get("/payments/{paymentID}", h.getPayment)
}

type recordPaymentRequest struct {
	Amount           float64 `json:"amount" validate:"gte=0"`
	Method           string  `json:"method,omitempty" validate:"max=32"`
	ByCredit         bool    `json:"by_credit,omitempty"`
	CreditCustomerID int64   `json:"credit_customer_id,omitempty" validate:"gte=0"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	tabID, err := strconv.ParseInt(chi.URLParam(r, "tabID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tab id")
		return
	}
	var req recordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.RecordPayment(r.Context(), RecordPaymentInput{
		TabID:            tabID,
		Amount:           req.Amount,
		Method:           Method(req.Method),
		ByCredit:         req.ByCredit,
		CreditCustomerID: req.CreditCustomerID,
	})
	if err != nil {
		h.logger.Error("record payment failed", slog.Any("error", err), slog.Int64("tab_id", tabID))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("payment recorded",
		slog.Int64("tab_id", tabID),
		slog.Float64("amount", req.Amount),
		slog.String("status", string(result.Payment.Status)))
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) listByTab(w http.ResponseWriter, r *http.Request) {
	tabID, err := strconv.ParseInt(chi.URLParam(r, "tabID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tab id")
		return
	}
	payments, err := h.service.ListByTab(r.Context(), tabID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payments)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := strconv.ParseInt(chi.URLParam(r, "paymentID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payment id")
		return
	}
	payment, err := h.service.Get(r.Context(), paymentID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}
