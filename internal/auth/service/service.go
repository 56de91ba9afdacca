package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mapproperties/internal/user"
	dErrors "mapproperties/pkg/domain-errors"
	audit "mapproperties/pkg/platform/audit"
	"mapproperties/pkg/requestcontext"
)

const (
	// DefaultTokenTTL is the lifetime of an issued access token.
	DefaultTokenTTL = 24 * time.Hour

	demoEmail    = "test@example.com"
	demoFullName = "Test User"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, expiresIn time.Duration) (string, error)
}

// Users resolves accounts.
type Users interface {
	GetOrCreateByEmail(ctx context.Context, email, fullName string) (*user.User, error)
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// AuditPublisher receives sign-in events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Session is the result of a successful sign-in.
type Session struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
	User        *user.User
}

// Service issues sessions. Google ID tokens are not verified against Google;
// every non-empty token signs in the demo account.
type Service struct {
	tokens   TokenIssuer
	users    Users
	tokenTTL time.Duration
	logger   *slog.Logger
	auditor  AuditPublisher
}

type Option func(*Service)

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func New(tokens TokenIssuer, users Users, opts ...Option) (*Service, error) {
	if tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	if users == nil {
		return nil, errors.New("user service is required")
	}
	s := &Service{
		tokens:   tokens,
		users:    users,
		tokenTTL: DefaultTokenTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// GoogleLogin exchanges a Google ID token for a session.
func (s *Service) GoogleLogin(ctx context.Context, googleToken string) (*Session, error) {
	if strings.TrimSpace(googleToken) == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "google token is required")
	}

	u, err := s.users.GetOrCreateByEmail(ctx, demoEmail, demoFullName)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.GenerateAccessToken(u.ID, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}

	ctx = requestcontext.WithUserID(ctx, u.ID)
	s.emitSignIn(ctx, u)
	s.logger.InfoContext(ctx, "user signed in",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", u.ID,
	)

	return &Session{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   s.tokenTTL,
		User:        u,
	}, nil
}

// Me returns the account of the authenticated caller.
func (s *Service) Me(ctx context.Context) (*user.User, error) {
	userID := requestcontext.UserID(ctx)
	if userID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return s.users.Get(ctx, userID)
}

func (s *Service) emitSignIn(ctx context.Context, u *user.User) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, audit.NewEvent(ctx, audit.EventUserSignedIn, u.ID.String())); err != nil {
		s.logger.WarnContext(ctx, "failed to emit sign-in audit event",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}
