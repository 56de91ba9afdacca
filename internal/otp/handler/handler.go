package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mapproperties/internal/otp/service"
	"mapproperties/pkg/platform/httputil"
	"mapproperties/pkg/requestcontext"
)

// Service defines the interface for OTP challenge operations.
type Service interface {
	Send(ctx context.Context, aadhaarNumber string) (*service.SendResult, error)
	Verify(ctx context.Context, aadhaarNumber, code string) (*service.VerifyResult, error)
}

// Handler wires Aadhaar OTP endpoints to the OTP service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts OTP endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verification/send-aadhaar-otp", h.HandleSend)
	r.Post("/verification/verify-aadhaar-otp", h.HandleVerify)
}

// HandleSend handles POST /verification/send-aadhaar-otp.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SendRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Send(ctx, req.AadhaarNumber)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to send aadhaar otp",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &SendResponse{
		Status:  "success",
		Message: "OTP sent successfully to mobile number ending with " + res.MaskedMobile,
		DevHint: res.DevHint,
	})
}

// HandleVerify handles POST /verification/verify-aadhaar-otp.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Verify(ctx, req.AadhaarNumber, req.OTP)
	if err != nil {
		h.logger.WarnContext(ctx, "aadhaar otp verification failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &VerifyResponse{
		Status:            "verified",
		Message:           "Aadhaar Verified Successfully",
		VerificationToken: res.VerificationToken,
	})
}
