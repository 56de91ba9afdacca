package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mapproperties/internal/favorite"
	"mapproperties/internal/property"
	dErrors "mapproperties/pkg/domain-errors"
	"mapproperties/pkg/platform/httputil"
	"mapproperties/pkg/requestcontext"
)

// Service defines the favorites operations used by the handler.
type Service interface {
	Add(ctx context.Context, userEmail string, propertyID uuid.UUID) (*favorite.Favorite, error)
	Remove(ctx context.Context, userEmail string, propertyID uuid.UUID) error
	List(ctx context.Context, userEmail string) ([]*property.Property, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts favorites endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/favorites/add", h.HandleAdd)
	r.Delete("/favorites/remove/{property_id}", h.HandleRemove)
	r.Get("/favorites/list", h.HandleList)
}

// HandleAdd handles POST /favorites/add.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AddRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	fav, err := h.service.Add(ctx, req.UserEmail, req.propertyID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to add favorite",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toFavoriteResponse(fav))
}

// HandleRemove handles DELETE /favorites/remove/{property_id}?user_email=.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	email, err := userEmailParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	propertyID, err := uuid.Parse(chi.URLParam(r, "property_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Favorite not found"))
		return
	}

	if err := h.service.Remove(ctx, email, propertyID); err != nil {
		h.logger.WarnContext(ctx, "failed to remove favorite",
			"request_id", requestID,
			"property_id", propertyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &MessageResponse{Message: "Removed from favorites"})
}

// HandleList handles GET /favorites/list?user_email=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email, err := userEmailParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	props, err := h.service.List(ctx, email)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to list favorites",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toSummaries(props))
}

func userEmailParam(r *http.Request) (string, error) {
	email := strings.TrimSpace(r.URL.Query().Get("user_email"))
	if email == "" {
		return "", dErrors.New(dErrors.CodeValidation, "user_email is required")
	}
	return email, nil
}
