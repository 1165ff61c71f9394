package stock

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tavern-pos/tavern/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the stock module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs stock handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trunks", h.listTrunks)
	r.Get("/items/{itemID}/trunk", h.getTrunk)
	r.Post("/items/{itemID}/stock-out", h.stockOut)
	r.Post("/batches", h.createBatch)
	r.Get("/batches/{batchID}", h.getBatch)
	r.Post("/batches/{batchID}/breakages", h.recordBreakage)
	r.Get("/batches/{batchID}/breakages", h.listBreakages)
}

type createBatchRequest struct {
	ItemID          int64   `json:"item_id" validate:"required,gt=0"`
	TotalQuantity   float64 `json:"total_quantity" validate:"required,gt=0"`
	PurchasingPrice float64 `json:"purchasing_price" validate:"gte=0"`
	SellingPrice    float64 `json:"selling_price" validate:"gte=0"`
	Threshold       float64 `json:"threshold" validate:"gte=0"`
	DatePurchased   string  `json:"date_purchased,omitempty"`
}

type stockOutRequest struct {
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	Reason   string  `json:"reason,omitempty" validate:"max=255"`
	Code     string  `json:"code,omitempty" validate:"max=64"`
}

type breakageRequest struct {
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	Reason   string  `json:"reason,omitempty" validate:"max=255"`
}

func (h *Handler) createBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var purchased time.Time
	if req.DatePurchased != "" {
		var err error
		purchased, err = time.Parse("2006-01-02", req.DatePurchased)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date_purchased must be YYYY-MM-DD")
			return
		}
	}

	batch, err := h.service.AddBatch(r.Context(), NewBatchInput{
		ItemID:          req.ItemID,
		TotalQuantity:   req.TotalQuantity,
		PurchasingPrice: req.PurchasingPrice,
		SellingPrice:    req.SellingPrice,
		Threshold:       req.Threshold,
		DatePurchased:   purchased,
	})
	if err != nil {
		h.logger.Error("create batch failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, batch)
}

func (h *Handler) stockOut(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return
	}
	var req stockOutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.StockOut(r.Context(), StockOutInput{
		ItemID:   itemID,
		Quantity: req.Quantity,
		Reason:   req.Reason,
		Code:     req.Code,
	})
	if err != nil {
		h.logger.Error("stock out failed", slog.Any("error", err), slog.Int64("item_id", itemID))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("stock out posted", slog.Int64("item_id", itemID), slog.String("code", result.Code))
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) recordBreakage(w http.ResponseWriter, r *http.Request) {
	batchID, err := strconv.ParseInt(chi.URLParam(r, "batchID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid batch id")
		return
	}
	var req breakageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	breakage, err := h.service.RecordBreakage(r.Context(), BreakageInput{
		BatchID:  batchID,
		Quantity: req.Quantity,
		Reason:   req.Reason,
	})
	if err != nil {
		h.logger.Error("record breakage failed", slog.Any("error", err), slog.Int64("batch_id", batchID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, breakage)
}

func (h *Handler) getTrunk(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return
	}
	trunk, err := h.service.GetTrunk(r.Context(), itemID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, trunk)
}

func (h *Handler) listTrunks(w http.ResponseWriter, r *http.Request) {
	trunks, err := h.service.ListTrunks(r.Context())
	if err != nil {
		h.logger.Error("list trunks failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, trunks)
}

func (h *Handler) getBatch(w http.ResponseWriter, r *http.Request) {
	batchID, err := strconv.ParseInt(chi.URLParam(r, "batchID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid batch id")
		return
	}
	batch, err := h.service.GetBatch(r.Context(), batchID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, batch)
}

func (h *Handler) listBreakages(w http.ResponseWriter, r *http.Request) {
	batchID, err := strconv.ParseInt(chi.URLParam(r, "batchID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid batch id")
		return
	}
	breakages, err := h.service.ListBreakages(r.Context(), batchID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, breakages)
}
