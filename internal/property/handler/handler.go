package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mapproperties/internal/property"
	"mapproperties/internal/property/service"
	dErrors "mapproperties/pkg/domain-errors"
	"mapproperties/pkg/platform/httputil"
	"mapproperties/pkg/requestcontext"
)

// Service defines the listing operations used by the handler.
type Service interface {
	Create(ctx context.Context, in property.NewProperty) (*property.Property, error)
	Listing(ctx context.Context, id uuid.UUID) (*property.Listing, error)
	Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]property.Listing, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts listing endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/properties", h.HandleCreate)
	r.Get("/properties/nearby", h.HandleNearby)
	r.Get("/properties/{id}", h.HandleGet)
	r.Get("/properties/{id}/insights", h.HandleInsights)
}

// HandleCreate handles POST /properties.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreatePropertyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.Create(ctx, req.ToNewProperty())
	if err != nil {
		h.logger.WarnContext(ctx, "failed to create property",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toPropertyResponse(p))
}

// HandleNearby handles GET /properties/nearby?lat=&long=&radius_km=.
func (h *Handler) HandleNearby(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	lat, lng, radius, err := parseNearbyQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	listings, err := h.service.Nearby(ctx, lat, lng, radius)
	if err != nil {
		h.logger.WarnContext(ctx, "nearby search failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toListingResponses(listings))
}

// HandleGet handles GET /properties/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	listing, ok := h.loadListing(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListingResponse(*listing, false))
}

// HandleInsights handles GET /properties/{id}/insights.
func (h *Handler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	listing, ok := h.loadListing(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toInsightResponse(listing.Insight))
}

func (h *Handler) loadListing(w http.ResponseWriter, r *http.Request) (*property.Listing, bool) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "property not found"))
		return nil, false
	}

	listing, err := h.service.Listing(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to load property",
			"request_id", requestcontext.RequestID(ctx),
			"property_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return nil, false
	}
	return listing, true
}

func parseNearbyQuery(r *http.Request) (lat, lng, radius float64, err error) {
	q := r.URL.Query()
	if lat, err = parseFloatParam(q.Get("lat"), "lat", true, 0); err != nil {
		return 0, 0, 0, err
	}
	if lng, err = parseFloatParam(q.Get("long"), "long", true, 0); err != nil {
		return 0, 0, 0, err
	}
	if radius, err = parseFloatParam(q.Get("radius_km"), "radius_km", false, service.DefaultRadiusKm); err != nil {
		return 0, 0, 0, err
	}
	return lat, lng, radius, nil
}

func parseFloatParam(raw, name string, required bool, fallback float64) (float64, error) {
	if raw == "" {
		if required {
			return 0, dErrors.New(dErrors.CodeBadRequest, name+" is required")
		}
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" must be a number")
	}
	return v, nil
}
