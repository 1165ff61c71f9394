package orders

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tavern-pos/tavern/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the orders module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs orders handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/tabs", h.createTab)
	r.Get("/tabs", h.listTabs)
	r.Get("/tabs/{tabID}", h.getTab)
}

type lineRequest struct {
	ItemID            int64   `json:"item_id,omitempty" validate:"gte=0"`
	DishID            int64   `json:"dish_id,omitempty" validate:"gte=0"`
	Quantity          float64 `json:"quantity" validate:"required,gt=0"`
	ShotsPerContainer float64 `json:"shots_per_container,omitempty" validate:"gte=0"`
}

type createTabRequest struct {
	CustomerName  string        `json:"customer_name,omitempty" validate:"max=255"`
	CustomerPhone string        `json:"customer_phone,omitempty" validate:"max=32"`
	Lines         []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (h *Handler) createTab(w http.ResponseWriter, r *http.Request) {
	var req createTabRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := CreateTabInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Lines:         make([]LineInput, 0, len(req.Lines)),
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, LineInput{
			ItemID:            line.ItemID,
			DishID:            line.DishID,
			Quantity:          line.Quantity,
			ShotsPerContainer: line.ShotsPerContainer,
		})
	}

	tab, err := h.service.CreateTab(r.Context(), input)
	if err != nil {
		h.logger.Error("create tab failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("tab created", slog.String("number", tab.Number), slog.Int("lines", len(tab.Orders)))
	httpx.JSON(w, http.StatusCreated, tab)
}

func (h *Handler) getTab(w http.ResponseWriter, r *http.Request) {
	tabID, err := strconv.ParseInt(chi.URLParam(r, "tabID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tab id")
		return
	}
	tab, err := h.service.GetTab(r.Context(), tabID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tab)
}

func (h *Handler) listTabs(w http.ResponseWriter, r *http.Request) {
	filter := TabFilter{}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be YYYY-MM-DD")
			return
		}
		filter.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be YYYY-MM-DD")
			return
		}
		filter.To = t.Add(24 * time.Hour)
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	tabs, err := h.service.ListTabs(r.Context(), filter)
	if err != nil {
		h.logger.Error("list tabs failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tabs)
}
