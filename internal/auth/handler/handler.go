package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mapproperties/internal/auth/service"
	"mapproperties/internal/user"
	"mapproperties/pkg/platform/httputil"
	"mapproperties/pkg/requestcontext"
)

// Service defines the sign-in operations used by the handler.
type Service interface {
	GoogleLogin(ctx context.Context, googleToken string) (*service.Session, error)
	Me(ctx context.Context) (*user.User, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public sign-in endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/google", h.HandleGoogleLogin)
}

// RegisterAuthenticated mounts endpoints that expect a user in the request
// context. The caller installs the auth middleware.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Get("/auth/me", h.HandleMe)
}

// HandleGoogleLogin handles POST /auth/google.
func (h *Handler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[GoogleLoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sess, err := h.service.GoogleLogin(ctx, req.Token)
	if err != nil {
		h.logger.WarnContext(ctx, "google sign-in failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toTokenResponse(sess))
}

// HandleMe handles GET /auth/me.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, err := h.service.Me(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to load current user",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toUserResponse(u))
}
