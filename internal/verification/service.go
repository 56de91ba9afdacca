package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mapproperties/internal/verification/metrics"
	audit "mapproperties/pkg/platform/audit"
	"mapproperties/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mock_audit.go -package=mocks

// AuditPublisher receives one event per decision.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service scores identity documents. Every call is independent; nothing is
// persisted and no state is shared between submissions.
type Service struct {
	policy  Policy
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor AuditPublisher
	tracer  trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

func WithPolicy(p Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
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

func NewService(opts ...Option) *Service {
	s := &Service{
		policy: NewPolicy(),
		logger: slog.Default(),
		tracer: otel.Tracer("mapproperties/verification"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Verify runs analyzer, format check and policy over one submission. Low
// quality, bad formats, unreadable images and unsupported types are outcomes
// in the Result, not errors. The only error is a cancelled context.
func (s *Service) Verify(ctx context.Context, doc IdentityDocument) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "verification.Verify",
		trace.WithAttributes(attribute.String("doc_type", string(doc.DocType))),
	)
	defer span.End()
	start := time.Now()

	result := &Result{
		DocType:     doc.DocType,
		MaskedID:    ObscureID(doc.IDNumber),
		EvaluatedAt: requestcontext.Now(ctx),
	}

	decision := s.evaluate(doc, result)
	result.Status = decision.Status
	result.Reason = decision.Reason
	result.Message = decision.Message

	span.SetAttributes(
		attribute.String("status", string(result.Status)),
		attribute.Int("score", result.Score),
	)
	s.metrics.ObserveQualityScore(result.Score)
	s.metrics.IncrementOutcome(string(result.Status), string(result.Reason), string(doc.DocType))
	s.metrics.ObserveVerifyLatency(time.Since(start))

	s.logger.InfoContext(ctx, "document verified",
		"request_id", requestcontext.RequestID(ctx),
		"doc_type", doc.DocType,
		"masked_id", result.MaskedID,
		"score", result.Score,
		"status", result.Status,
		"reason", result.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	s.emitAudit(ctx, result)

	return result, nil
}

func (s *Service) evaluate(doc IdentityDocument, result *Result) Decision {
	quality, err := AnalyzeQuality(doc.Image)
	if err != nil {
		result.QualityError = err.Error()
		result.Quality = QualityResult{Details: err.Error()}
		return UnreadableImage(err)
	}
	result.Quality = quality
	result.Score = quality.Score

	valid, err := ValidateIDFormat(doc.DocType, doc.IDNumber)
	result.FormatValid = valid
	if errors.Is(err, ErrUnsupportedDocumentType) {
		return UnsupportedDocument(doc.DocType)
	}
	return s.policy.Decide(quality, doc.DocType, valid)
}

func (s *Service) emitAudit(ctx context.Context, result *Result) {
	if s.auditor == nil {
		return
	}
	event := audit.NewEvent(ctx, audit.EventVerificationDecided, result.MaskedID)
	event.Decision = string(result.Status)
	event.Reason = string(result.Reason)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit verification audit event",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}
