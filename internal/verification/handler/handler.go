package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mapproperties/internal/verification"
	dErrors "mapproperties/pkg/domain-errors"
	"mapproperties/pkg/platform/httputil"
	"mapproperties/pkg/requestcontext"
)

// MaxUploadBytes bounds a single document upload.
const MaxUploadBytes = 10 << 20

// Service defines the interface for document verification.
type Service interface {
	Verify(ctx context.Context, doc verification.IdentityDocument) (*verification.Result, error)
}

// StatusRecorder persists a decision onto the listing it was submitted for.
// It must refuse callers that do not own the listing.
type StatusRecorder interface {
	RecordVerification(ctx context.Context, propertyID uuid.UUID, status verification.Status) error
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service  Service
	recorder StatusRecorder
	logger   *slog.Logger
}

type Option func(*Handler)

// WithStatusRecorder applies decisions to listings named by the optional
// property_id form field. The field requires an authenticated caller. Without
// a recorder it is ignored.
func WithStatusRecorder(r StatusRecorder) Option {
	return func(h *Handler) {
		h.recorder = r
	}
}

// New constructs a verification handler.
func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		logger:  logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verification/upload", h.HandleUpload)
}

// HandleUpload handles POST /verification/upload. Rejections are reported in
// the body with 200; only malformed requests get an error status.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, err := h.parseUpload(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid verification upload",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	record := req.PropertyID != uuid.Nil && h.recorder != nil
	if record && requestcontext.UserID(ctx) == uuid.Nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication is required to update a listing"))
		return
	}

	result, err := h.service.Verify(ctx, req.ToDocument())
	if err != nil {
		h.logger.ErrorContext(ctx, "document verification failed",
			"request_id", requestID,
			"doc_type", req.DocType,
			"error", err,
		)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			err = dErrors.Wrap(err, dErrors.CodeTimeout, "verification cancelled")
		}
		httputil.WriteError(w, err)
		return
	}

	if record {
		if err := h.recorder.RecordVerification(ctx, req.PropertyID, result.Status); err != nil {
			h.logger.WarnContext(ctx, "failed to record verification status",
				"request_id", requestID,
				"property_id", req.PropertyID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
	}

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

func (h *Handler) parseUpload(w http.ResponseWriter, r *http.Request) (*UploadRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "file exceeds the 10 MiB upload limit")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form")
	}

	req := &UploadRequest{
		DocType:  r.FormValue("doc_type"),
		IDNumber: r.FormValue("id_number"),
	}
	req.Normalize()
	if raw := r.FormValue("property_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, "property_id must be a valid UUID")
		}
		req.PropertyID = id
	}

	file, _, err := r.FormFile("file")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid file part")
	}
	if file != nil {
		defer file.Close()
		if req.Image, err = io.ReadAll(file); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read file")
		}
	}

	if err := httputil.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}
