package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"mapproperties/internal/insight"
	"mapproperties/internal/property"
	"mapproperties/internal/property/metrics"
	"mapproperties/internal/user"
	"mapproperties/internal/verification"
	dErrors "mapproperties/pkg/domain-errors"
	audit "mapproperties/pkg/platform/audit"
	"mapproperties/pkg/platform/sentinel"
	"mapproperties/pkg/requestcontext"
)

const (
	DefaultRadiusKm = 5.0
	MaxRadiusKm     = 100.0

	// enrichConcurrency bounds parallel insight derivation per batch.
	enrichConcurrency = 8

	defaultPropertyType = "residential"

	demoOwnerEmail    = "test@example.com"
	demoOwnerFullName = "Test User"
)

// Store persists listings.
type Store interface {
	Save(ctx context.Context, p *property.Property) error
	FindByID(ctx context.Context, id uuid.UUID) (*property.Property, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*property.Property, error)
	ListInBounds(ctx context.Context, b property.Bounds) ([]*property.Property, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status verification.Status) error
}

// InsightGenerator derives the non-persisted attributes of a listing.
type InsightGenerator interface {
	Generate(propertyID string, price float64, propertyType string, now time.Time) (insight.Insight, error)
	ValidatePrice(price float64) error
}

// OwnerResolver supplies the owner of listings created without a session.
type OwnerResolver interface {
	GetOrCreateByEmail(ctx context.Context, email, fullName string) (*user.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages listings and composes them with their insights.
type Service struct {
	store    Store
	insights InsightGenerator
	owners   OwnerResolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  AuditPublisher
	tracer   trace.Tracer
}

type Option func(*Service)

func WithInsightGenerator(g InsightGenerator) Option {
	return func(s *Service) {
		if g != nil {
			s.insights = g
		}
	}
}

// WithOwnerResolver assigns anonymous listings to the demo account.
func WithOwnerResolver(r OwnerResolver) Option {
	return func(s *Service) {
		s.owners = r
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("property store is required")
	}
	s := &Service{
		store:    store,
		insights: insight.NewGenerator(),
		logger:   slog.Default(),
		tracer:   otel.Tracer("mapproperties/property"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Create stores a new listing in PENDING state owned by the caller.
func (s *Service) Create(ctx context.Context, in property.NewProperty) (*property.Property, error) {
	in.Normalize()
	if err := validateNew(in); err != nil {
		return nil, err
	}
	if err := s.insights.ValidatePrice(in.PriceFiat); err != nil {
		return nil, insightError(err, dErrors.CodeValidation)
	}

	owner, err := s.resolveOwner(ctx)
	if err != nil {
		return nil, err
	}

	p := &property.Property{
		ID:           uuid.New(),
		OwnerID:      owner,
		Title:        in.Title,
		Description:  in.Description,
		PriceFiat:    in.PriceFiat,
		PropertyType: in.PropertyType,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Area:         in.Area,
		AreaUnit:     in.AreaUnit,
		ImageURLs:    in.ImageURLs,
		Status:       verification.StatusPending,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if p.PropertyType == "" {
		p.PropertyType = defaultPropertyType
	}
	if err := s.store.Save(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save property")
	}

	s.metrics.IncrementCreated()
	s.emitCreated(ctx, p)
	s.logger.InfoContext(ctx, "property created",
		"request_id", requestcontext.RequestID(ctx),
		"property_id", p.ID,
		"owner_id", p.OwnerID,
	)
	return p, nil
}

// Get loads one listing.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "property not found")
	}
	return p, nil
}

// GetMany loads the listings that exist among ids, in order.
func (s *Service) GetMany(ctx context.Context, ids []uuid.UUID) ([]*property.Property, error) {
	props, err := s.store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, translate(err, "property not found")
	}
	return props, nil
}

// Listing returns one listing with its insight.
func (s *Service) Listing(ctx context.Context, id uuid.UUID) (*property.Listing, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err := s.deriveInsight(ctx, p)
	if err != nil {
		return nil, err
	}
	return &property.Listing{Property: p, Insight: in}, nil
}

// Nearby returns enriched listings within radiusKm of the point, nearest
// first.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]property.Listing, error) {
	if math.IsNaN(radiusKm) || radiusKm <= 0 || radiusKm > MaxRadiusKm {
		return nil, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("radius_km must be greater than 0 and at most %g", MaxRadiusKm))
	}
	if !property.ValidCoordinates(lat, lng) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lat must be within [-90, 90] and long within [-180, 180]")
	}

	candidates, err := s.store.ListInBounds(ctx, property.BoundsAround(lat, lng, radiusKm))
	if err != nil {
		return nil, translate(err, "")
	}

	var within []*property.Property
	distances := make(map[uuid.UUID]float64, len(candidates))
	for _, p := range candidates {
		d := property.DistanceKm(lat, lng, p.Latitude, p.Longitude)
		if d <= radiusKm {
			within = append(within, p)
			distances[p.ID] = d
		}
	}

	listings, err := s.Enrich(ctx, within)
	if err != nil {
		return nil, err
	}
	for i := range listings {
		listings[i].DistanceKm = distances[listings[i].Property.ID]
	}
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].DistanceKm < listings[j].DistanceKm
	})

	s.metrics.ObserveNearbyResults(len(listings))
	return listings, nil
}

// Enrich pairs each listing with its insight, preserving order.
func (s *Service) Enrich(ctx context.Context, props []*property.Property) ([]property.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "property.Enrich",
		trace.WithAttributes(attribute.Int("count", len(props))),
	)
	defer span.End()

	listings := make([]property.Listing, len(props))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i, p := range props {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			in, err := s.deriveInsight(gctx, p)
			if err != nil {
				return err
			}
			listings[i] = property.Listing{Property: p, Insight: in}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enrichment failed")
		return nil, err
	}
	return listings, nil
}

// UpdateStatus records a verification decision on a listing. Listings never
// move back to PENDING.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status verification.Status) error {
	if _, err := verification.ParseStatus(string(status)); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown verification status")
	}
	if status == verification.StatusPending {
		return dErrors.New(dErrors.CodeInvalidInput, "listings cannot return to PENDING")
	}
	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		return translate(err, "property not found")
	}

	s.metrics.IncrementStatusChange(string(status))
	s.logger.InfoContext(ctx, "property status updated",
		"request_id", requestcontext.RequestID(ctx),
		"property_id", id,
		"status", status,
	)
	return nil
}

// RecordVerification applies a verification decision on behalf of the
// authenticated caller, who must own the listing.
func (s *Service) RecordVerification(ctx context.Context, id uuid.UUID, status verification.Status) error {
	caller := requestcontext.UserID(ctx)
	if caller == uuid.Nil {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication is required to update a listing")
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.OwnerID != caller {
		s.logger.WarnContext(ctx, "verification status update refused",
			"request_id", requestcontext.RequestID(ctx),
			"property_id", id,
			"user_id", caller,
		)
		return dErrors.New(dErrors.CodeForbidden, "only the owner can update this listing")
	}
	return s.UpdateStatus(ctx, id, status)
}

func (s *Service) deriveInsight(ctx context.Context, p *property.Property) (insight.Insight, error) {
	in, err := s.insights.Generate(p.ID.String(), p.PriceFiat, p.PropertyType, requestcontext.Now(ctx))
	if err != nil {
		return insight.Insight{}, insightError(err, dErrors.CodeUnprocessable)
	}
	return in, nil
}

// insightError maps generator input errors to code and anything else to an
// internal failure.
func insightError(err error, code dErrors.Code) error {
	var verr *insight.ValidationError
	if errors.As(err, &verr) {
		return dErrors.Wrap(err, code, verr.Error())
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive property insight")
}

func (s *Service) resolveOwner(ctx context.Context) (uuid.UUID, error) {
	if id := requestcontext.UserID(ctx); id != uuid.Nil {
		return id, nil
	}
	if s.owners == nil {
		return uuid.Nil, nil
	}
	u, err := s.owners.GetOrCreateByEmail(ctx, demoOwnerEmail, demoOwnerFullName)
	if err != nil {
		return uuid.Nil, err
	}
	return u.ID, nil
}

func (s *Service) emitCreated(ctx context.Context, p *property.Property) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, audit.NewEvent(ctx, audit.EventPropertyCreated, p.ID.String())); err != nil {
		s.logger.WarnContext(ctx, "failed to emit property audit event",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func validateNew(in property.NewProperty) error {
	switch {
	case in.Title == "":
		return dErrors.New(dErrors.CodeValidation, "title is required")
	case math.IsNaN(in.PriceFiat) || math.IsInf(in.PriceFiat, 0) || in.PriceFiat < 0:
		return dErrors.New(dErrors.CodeValidation, "price must be a non-negative number")
	case !property.ValidCoordinates(in.Latitude, in.Longitude):
		return dErrors.New(dErrors.CodeValidation, "latitude must be within [-90, 90] and longitude within [-180, 180]")
	case math.IsNaN(in.Area) || in.Area < 0:
		return dErrors.New(dErrors.CodeValidation, "area must be non-negative")
	}
	switch in.AreaUnit {
	case property.AreaUnitSqft, property.AreaUnitSqm, property.AreaUnitAcre:
	default:
		return dErrors.New(dErrors.CodeValidation, "area_unit must be one of sqft, sqm, acre")
	}
	return nil
}

func translate(err error, notFoundMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) && notFoundMsg != "" {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "property store failure")
}
