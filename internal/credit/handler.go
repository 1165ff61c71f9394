package credit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tavern-pos/tavern/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the credit module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs credit handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers credit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/credit/customers", h.createCustomer)
	r.Get("/credit/customers", h.listCustomers)
	r.Get("/credit/customers/{customerID}", h.getCustomer)
	r.Put("/credit/customers/{customerID}", h.updateCustomer)
	r.Get("/credit/customers/{customerID}/extensions", h.listExtensions)
	r.Get("/credit/extensions/{extensionID}/history", h.listHistory)
	r.Post("/credit/extensions/{extensionID}/repayments", h.repay)
}

type customerRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Phone       string  `json:"phone,omitempty" validate:"max=32"`
	CreditLimit float64 `json:"credit_limit" validate:"gte=0"`
}

type repayRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	customer, err := h.service.CreateCustomer(r.Context(), NewCustomerInput{
		Name:        req.Name,
		Phone:       req.Phone,
		CreditLimit: req.CreditLimit,
	})
	if err != nil {
		h.logger.Error("create credit customer failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid customer id")
		return
	}
	var req customerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	customer, err := h.service.UpdateCustomer(r.Context(), CreditCustomer{
		ID:          customerID,
		Name:        req.Name,
		Phone:       req.Phone,
		CreditLimit: req.CreditLimit,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid customer id")
		return
	}
	customer, err := h.service.GetCustomer(r.Context(), customerID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		h.logger.Error("list credit customers failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customers)
}

func (h *Handler) listExtensions(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid customer id")
		return
	}
	outstandingOnly := r.URL.Query().Get("outstanding") == "true"
	extensions, err := h.service.ListExtensions(r.Context(), customerID, outstandingOnly)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, extensions)
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	extensionID, err := strconv.ParseInt(chi.URLParam(r, "extensionID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid extension id")
		return
	}
	history, err := h.service.ListHistory(r.Context(), extensionID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, history)
}

func (h *Handler) repay(w http.ResponseWriter, r *http.Request) {
	extensionID, err := strconv.ParseInt(chi.URLParam(r, "extensionID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid extension id")
		return
	}
	var req repayRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.Repay(r.Context(), RepayInput{ExtensionID: extensionID, Amount: req.Amount})
	if err != nil {
		h.logger.Error("repayment failed", slog.Any("error", err), slog.Int64("extension_id", extensionID))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("repayment recorded",
		slog.Int64("extension_id", extensionID),
		slog.Float64("amount", req.Amount),
		slog.String("payment_status", result.PaymentStatus))
	httpx.JSON(w, http.StatusCreated, result)
}
