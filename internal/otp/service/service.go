package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"mapproperties/internal/otp/metrics"
	"mapproperties/internal/verification"
	dErrors "mapproperties/pkg/domain-errors"
	audit "mapproperties/pkg/platform/audit"
	"mapproperties/pkg/platform/sentinel"
	"mapproperties/pkg/requestcontext"
)

const (
	// DefaultTTL is how long an issued code stays valid.
	DefaultTTL = 5 * time.Minute

	// Mobile numbers are not modelled; every challenge goes to the same masked number.
	maskedMobile = "******8923"
)

var aadhaarDigits = regexp.MustCompile(`^[0-9]{12}$`)

// Store holds pending challenges keyed by an opaque subject key.
type Store interface {
	Put(ctx context.Context, key, code string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Take(ctx context.Context, key string) (string, error)
}

// UserVerifier records a successful check against the signed-in account.
type UserVerifier interface {
	MarkVerified(ctx context.Context, id uuid.UUID, aadhaarNumber string) error
}

// AuditPublisher receives challenge lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// SendResult is returned after a challenge is issued.
type SendResult struct {
	MaskedMobile string
	// DevHint is set only when a fixed development code is configured.
	DevHint string
}

// VerifyResult is returned after a successful check.
type VerifyResult struct {
	VerificationToken string
}

// Service issues and checks Aadhaar OTP challenges.
type Service struct {
	store   Store
	users   UserVerifier
	ttl     time.Duration
	devCode string
	keyMAC  []byte
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor AuditPublisher
}

// Option configures the Service.
type Option func(*Service)

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithDevCode makes every challenge use code and exposes it in SendResult.DevHint.
func WithDevCode(code string) Option {
	return func(s *Service) {
		s.devCode = code
	}
}

// WithKeySecret keys the challenge store lookups. Instances sharing a store
// must share the secret. Without it each process draws a random key.
func WithKeySecret(secret []byte) Option {
	return func(s *Service) {
		if len(secret) > 0 {
			k := blake2b.Sum256(secret)
			s.keyMAC = k[:]
		}
	}
}

func WithUserVerifier(users UserVerifier) Option {
	return func(s *Service) {
		s.users = users
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
		return nil, errors.New("otp store is required")
	}
	s := &Service{
		store:  store,
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.keyMAC == nil {
		s.keyMAC = make([]byte, blake2b.Size256)
		if _, err := rand.Read(s.keyMAC); err != nil {
			return nil, fmt.Errorf("generate otp key secret: %w", err)
		}
	}
	return s, nil
}

// Send issues a fresh challenge for the number, replacing any pending one.
func (s *Service) Send(ctx context.Context, aadhaarNumber string) (*SendResult, error) {
	if !aadhaarDigits.MatchString(aadhaarNumber) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Invalid Aadhaar Number format. Must be 12 digits.")
	}

	code := s.devCode
	if code == "" {
		n, err := randomInt(10000)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate otp")
		}
		code = fmt.Sprintf("%04d", n)
	}

	if err := s.store.Put(ctx, s.challengeKey(aadhaarNumber), code, s.ttl); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store otp")
	}
	s.metrics.IncrementSent()
	s.emit(ctx, audit.EventOTPSent, aadhaarNumber, "")

	s.logger.InfoContext(ctx, "aadhaar otp sent",
		"request_id", requestcontext.RequestID(ctx),
		"masked_id", verification.ObscureID(aadhaarNumber),
		"ttl", s.ttl.String(),
	)

	result := &SendResult{MaskedMobile: maskedMobile}
	if s.devCode != "" {
		result.DevHint = "Use OTP " + s.devCode
	}
	return result, nil
}

// Verify checks code against the pending challenge. A wrong code leaves the
// challenge in place until it expires; a correct one consumes it.
func (s *Service) Verify(ctx context.Context, aadhaarNumber, code string) (*VerifyResult, error) {
	key := s.challengeKey(aadhaarNumber)
	stored, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, s.lookupFailure(ctx, aadhaarNumber, err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		s.metrics.IncrementVerification("mismatch")
		s.emit(ctx, audit.EventOTPFailed, aadhaarNumber, "mismatch")
		return nil, dErrors.New(dErrors.CodeInvalidInput, "Invalid OTP. Please try again.")
	}

	// A concurrent correct submission may have consumed it between Get and Take.
	if _, err := s.store.Take(ctx, key); err != nil {
		return nil, s.lookupFailure(ctx, aadhaarNumber, err)
	}

	if userID := requestcontext.UserID(ctx); userID != uuid.Nil && s.users != nil {
		if err := s.users.MarkVerified(ctx, userID, aadhaarNumber); err != nil {
			s.logger.ErrorContext(ctx, "failed to record aadhaar verification",
				"request_id", requestcontext.RequestID(ctx),
				"user_id", userID,
				"error", err,
			)
			return nil, err
		}
	}

	suffix, err := randomInt(9000)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue verification token")
	}
	s.metrics.IncrementVerification("verified")
	s.emit(ctx, audit.EventOTPVerified, aadhaarNumber, "")

	s.logger.InfoContext(ctx, "aadhaar otp verified",
		"request_id", requestcontext.RequestID(ctx),
		"masked_id", verification.ObscureID(aadhaarNumber),
	)
	return &VerifyResult{
		VerificationToken: fmt.Sprintf("verified_%s_%d", lastFour(aadhaarNumber), 1000+suffix),
	}, nil
}

func (s *Service) lookupFailure(ctx context.Context, aadhaarNumber string, err error) error {
	if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
		s.metrics.IncrementVerification("expired")
		s.emit(ctx, audit.EventOTPFailed, aadhaarNumber, "expired")
		return dErrors.New(dErrors.CodeBadRequest, "OTP expired or not requested.")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load otp")
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, aadhaarNumber, reason string) {
	if s.auditor == nil {
		return
	}
	event := audit.NewEvent(ctx, action, verification.ObscureID(aadhaarNumber))
	event.Reason = reason
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit otp audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", action,
			"error", err,
		)
	}
}

// challengeKey keeps raw Aadhaar numbers out of the challenge store. The key
// is a keyed BLAKE2b MAC, so store contents cannot be reversed by hashing the
// 10^12 possible numbers without the secret.
func (s *Service) challengeKey(aadhaarNumber string) string {
	mac, err := blake2b.New256(s.keyMAC)
	if err != nil {
		// keyMAC is always 32 bytes, within the 64-byte limit.
		panic(err)
	}
	mac.Write([]byte(aadhaarNumber))
	return "aadhaar:" + hex.EncodeToString(mac.Sum(nil))
}

func lastFour(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}

func randomInt(n int64) (int64, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}
