package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tavern-pos/tavern/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the reports module.
type Handler struct {
	logger  *slog.Logger
	service *Service
	now     func() time.Time
}

// NewHandler constructs reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, now: func() time.Time { return time.Now().UTC() }}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/daily", h.daily)
	r.Get("/reports/monthly", h.monthly)
	r.Get("/reports/range", h.byRange)
	r.Post("/reports/invalidate", h.invalidate)
}

func (h *Handler) daily(w http.ResponseWriter, r *http.Request) {
	date := h.now()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}
	report, err := h.service.Daily(r.Context(), date)
	if err != nil {
		h.logger.Error("daily report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	month := h.now().Format("2006-01")
	if v := r.URL.Query().Get("month"); v != "" {
		month = v
	}
	parsed, err := time.Parse("2006-01", month)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "month must be YYYY-MM")
		return
	}
	report, err := h.service.Monthly(r.Context(), parsed.Year(), parsed.Month())
	if err != nil {
		h.logger.Error("monthly report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) byRange(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be YYYY-MM-DD")
		return
	}
	report, err := h.service.Range(r.Context(), from, to.Add(24*time.Hour))
	if err != nil {
		h.logger.Error("range report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) invalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Invalidate(r.Context()); err != nil {
		h.logger.Error("report cache invalidation failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
