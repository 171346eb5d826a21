package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nutri/internal/food/models"
	id "nutri/pkg/domain"
	dErrors "nutri/pkg/domain-errors"
	"nutri/pkg/platform/httputil"
	"nutri/pkg/requestcontext"
	"nutri/pkg/result"
)

// Service defines the food use cases the handler drives.
type Service interface {
	CreateFood(ctx context.Context, req models.CreateFoodRequest) result.Result[models.Food, *dErrors.Error]
	GetFood(ctx context.Context, foodID id.FoodID) result.Result[models.Food, *dErrors.Error]
	ListFoods(ctx context.Context) result.Result[[]models.Food, *dErrors.Error]
	UpdateFood(ctx context.Context, foodID id.FoodID, req models.UpdateFoodRequest) result.Result[models.Food, *dErrors.Error]
	DeleteFood(ctx context.Context, foodID id.FoodID) result.Result[struct{}, *dErrors.Error]
}

// Handler serves the /foods endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the food routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/foods", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Patch("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateFoodRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res := h.service.CreateFood(ctx, req.ToModel())
	if respond(ctx, h, w, "create", http.StatusCreated, result.Map(res, ToResponse)) {
		h.logger.InfoContext(ctx, "food created",
			"request_id", requestID,
			"food_id", res.Value().ID().String(),
		)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	respond(ctx, h, w, "list", http.StatusOK, result.Map(h.service.ListFoods(ctx), ToResponseList))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	foodID, ok := h.foodID(w, r)
	if !ok {
		return
	}
	respond(ctx, h, w, "get", http.StatusOK, result.Map(h.service.GetFood(ctx, foodID), ToResponse))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	foodID, ok := h.foodID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateFoodRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res := h.service.UpdateFood(ctx, foodID, req.ToModel())
	respond(ctx, h, w, "update", http.StatusOK, result.Map(res, ToResponse))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	foodID, ok := h.foodID(w, r)
	if !ok {
		return
	}
	result.Match(h.service.DeleteFood(ctx, foodID),
		func(struct{}) bool {
			w.WriteHeader(http.StatusNoContent)
			return true
		},
		func(err *dErrors.Error) bool {
			h.writeFailure(ctx, w, "delete", err)
			return false
		},
	)
}

func (h *Handler) foodID(w http.ResponseWriter, r *http.Request) (id.FoodID, bool) {
	foodID, err := id.ParseFoodID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return foodID, true
}

// respond writes the success body with status, or the failure as an error
// envelope. It reports whether the result was a success.
func respond[T any](ctx context.Context, h *Handler, w http.ResponseWriter, op string, status int, res result.Result[T, *dErrors.Error]) bool {
	return result.Match(res,
		func(body T) bool {
			httputil.WriteJSON(w, status, body)
			return true
		},
		func(err *dErrors.Error) bool {
			h.writeFailure(ctx, w, op, err)
			return false
		},
	)
}

func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, op string, err *dErrors.Error) {
	if err.Code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "food request failed",
			"request_id", requestcontext.RequestID(ctx),
			"operation", op,
			"error", err.Message,
		)
	} else {
		h.logger.InfoContext(ctx, "food request rejected",
			"request_id", requestcontext.RequestID(ctx),
			"operation", op,
			"code", string(err.Code),
			"error", err.Message,
		)
	}
	httputil.WriteError(w, err)
}
