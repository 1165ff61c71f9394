package payroll

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tavern-pos/tavern/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the payroll module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs payroll handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers payroll routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/payroll", h.recordEntry)
	r.Get("/payroll", h.listEntries)
	r.Get("/payroll/{entryID}", h.getEntry)
	r.Post("/expenditures", h.recordExpenditure)
	r.Get("/expenditures", h.listExpenditures)
	r.Get("/expenditures/{expenditureID}", h.getExpenditure)
}

type entryRequest struct {
	EmployeeName string  `json:"employee_name" validate:"required,max=255"`
	Role         string  `json:"role,omitempty" validate:"max=64"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	PaidAt       string  `json:"paid_at,omitempty"`
}

type expenditureRequest struct {
	Description string  `json:"description" validate:"required,max=255"`
	Category    string  `json:"category,omitempty" validate:"max=64"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	SpentAt     string  `json:"spent_at,omitempty"`
}

func parseWindow(r *http.Request) (time.Time, time.Time, bool) {
	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, false
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, false
		}
		to = t.Add(24 * time.Hour)
	}
	return from, to, true
}

func (h *Handler) recordEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var paidAt time.Time
	if req.PaidAt != "" {
		var err error
		paidAt, err = time.Parse("2006-01-02", req.PaidAt)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "paid_at must be YYYY-MM-DD")
			return
		}
	}

	entry, err := h.service.RecordEntry(r.Context(), NewEntryInput{
		EmployeeName: req.EmployeeName,
		Role:         req.Role,
		Amount:       req.Amount,
		PaidAt:       paidAt,
	})
	if err != nil {
		h.logger.Error("record payroll entry failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) recordExpenditure(w http.ResponseWriter, r *http.Request) {
	var req expenditureRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var spentAt time.Time
	if req.SpentAt != "" {
		var err error
		spentAt, err = time.Parse("2006-01-02", req.SpentAt)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "spent_at must be YYYY-MM-DD")
			return
		}
	}

	exp, err := h.service.RecordExpenditure(r.Context(), NewExpenditureInput{
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount,
		SpentAt:     spentAt,
	})
	if err != nil {
		h.logger.Error("record expenditure failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, exp)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseWindow(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from/to must be YYYY-MM-DD")
		return
	}
	entries, err := h.service.ListEntries(r.Context(), from, to)
	if err != nil {
		h.logger.Error("list payroll entries failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) listExpenditures(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseWindow(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from/to must be YYYY-MM-DD")
		return
	}
	expenditures, err := h.service.ListExpenditures(r.Context(), from, to)
	if err != nil {
		h.logger.Error("list expenditures failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, expenditures)
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	entry, err := h.service.GetEntry(r.Context(), entryID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) getExpenditure(w http.ResponseWriter, r *http.Request) {
	expenditureID, err := strconv.ParseInt(chi.URLParam(r, "expenditureID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid expenditure id")
		return
	}
	exp, err := h.service.GetExpenditure(r.Context(), expenditureID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, exp)
}
