package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	authhandler "mapproperties/internal/auth/handler"
	authservice "mapproperties/internal/auth/service"
	"mapproperties/internal/auth/token"
	favoritepkg "mapproperties/internal/favorite"
	favoritehandler "mapproperties/internal/favorite/handler"
	favoritestore "mapproperties/internal/favorite/store"
	"mapproperties/internal/insight"
	insightmetrics "mapproperties/internal/insight/metrics"
	otphandler "mapproperties/internal/otp/handler"
	otpmetrics "mapproperties/internal/otp/metrics"
	otpservice "mapproperties/internal/otp/service"
	otpstore "mapproperties/internal/otp/store"
	"mapproperties/internal/platform/config"
	"mapproperties/internal/platform/httpserver"
	"mapproperties/internal/platform/logger"
	httpmetrics "mapproperties/internal/platform/metrics"
	"mapproperties/internal/platform/postgres"
	"mapproperties/internal/platform/redis"
	propertyhandler "mapproperties/internal/property/handler"
	propertymetrics "mapproperties/internal/property/metrics"
	propertyservice "mapproperties/internal/property/service"
	propertystore "mapproperties/internal/property/store"
	httptransport "mapproperties/internal/transport/http"
	userpkg "mapproperties/internal/user"
	userstore "mapproperties/internal/user/store"
	"mapproperties/internal/verification"
	verificationhandler "mapproperties/internal/verification/handler"
	verificationmetrics "mapproperties/internal/verification/metrics"
	audit "mapproperties/pkg/platform/audit"
	"mapproperties/pkg/platform/audit/publisher"
	"mapproperties/pkg/platform/audit/store/kafka"
	auditmemory "mapproperties/pkg/platform/audit/store/memory"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// infra holds the optional backing services and releases them in reverse
// order of acquisition.
type infra struct {
	db      *sql.DB
	redis   *redis.Client
	kafka   *kafka.Store
	closers []func()
}

func (i *infra) close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		i.closers[n]()
	}
}

func connect(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if db != nil {
		in.db = db
		in.closers = append(in.closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			in.close()
			return nil, err
		}
		log.InfoContext(ctx, "postgres connected")
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		in.close()
		return nil, err
	}
	if rc != nil {
		in.redis = rc
		in.closers = append(in.closers, func() { _ = rc.Close() })
		log.InfoContext(ctx, "redis connected")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		ks, err := kafka.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			in.close()
			return nil, err
		}
		in.kafka = ks
		in.closers = append(in.closers, ks.Close)
		log.InfoContext(ctx, "kafka audit sink configured", "topic", cfg.Kafka.AuditTopic)
	}
	return in, nil
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	in, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer in.close()

	var auditStore audit.Store = auditmemory.NewInMemoryStore()
	if in.kafka != nil {
		auditStore = in.kafka
	}
	auditor := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.Kafka.AuditBuffer),
		publisher.WithLogger(log),
	)
	defer auditor.Close()

	var (
		users      userpkg.Store              = userstore.NewInMemory()
		properties propertyservice.Store      = propertystore.NewInMemory()
		favorites  favoritepkg.Store          = favoritestore.NewInMemory()
		challenges otpservice.Store
	)
	if in.db != nil {
		users = userstore.NewPostgres(in.db)
		properties = propertystore.NewPostgres(in.db)
		favorites = favoritestore.NewPostgres(in.db)
	}
	if in.redis != nil {
		challenges = otpstore.NewRedis(in.redis.Client)
	} else {
		mem := otpstore.NewInMemory()
		go sweep(ctx, mem, log)
		challenges = mem
	}

	userService, err := userpkg.NewService(users, log)
	if err != nil {
		return err
	}

	jwt := token.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	authService, err := authservice.New(jwt, userService,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(auditor),
	)
	if err != nil {
		return err
	}

	otpService, err := otpservice.New(challenges,
		otpservice.WithTTL(cfg.OTP.TTL),
		otpservice.WithDevCode(cfg.OTP.DevCode),
		otpservice.WithKeySecret([]byte(cfg.OTP.KeySecret)),
		otpservice.WithUserVerifier(userService),
		otpservice.WithLogger(log),
		otpservice.WithMetrics(otpmetrics.New()),
		otpservice.WithAuditPublisher(auditor),
	)
	if err != nil {
		return err
	}

	verificationService := verification.NewService(
		verification.WithPolicy(verification.NewPolicy(verification.WithReviewBelow(cfg.Verification.ReviewBelow))),
		verification.WithLogger(log),
		verification.WithMetrics(verificationmetrics.New()),
		verification.WithAuditPublisher(auditor),
	)

	propertyService, err := propertyservice.New(properties,
		propertyservice.WithInsightGenerator(insight.NewGenerator(insight.WithMetrics(insightmetrics.New()))),
		propertyservice.WithOwnerResolver(userService),
		propertyservice.WithLogger(log),
		propertyservice.WithMetrics(propertymetrics.New()),
		propertyservice.WithAuditPublisher(auditor),
	)
	if err != nil {
		return err
	}

	favoriteService, err := favoritepkg.NewService(favorites, userService, propertyService, log)
	if err != nil {
		return err
	}

	authHandler := authhandler.New(authService, log)
	router := httptransport.NewRouter(httptransport.Config{
		Logger:  log,
		Metrics: httpmetrics.New(),
		Tokens:  token.NewJWTServiceAdapter(jwt),
		Public: []httptransport.Registrar{
			authHandler,
			propertyhandler.New(propertyService, log),
			verificationhandler.New(verificationService, log, verificationhandler.WithStatusRecorder(propertyService)),
			otphandler.New(otpService, log),
			favoritehandler.New(favoriteService, log),
		},
		Authenticated: []httptransport.AuthenticatedRegistrar{authHandler},
		Checks:        healthChecks(in),
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting mapproperties", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func healthChecks(in *infra) map[string]httptransport.HealthCheck {
	checks := map[string]httptransport.HealthCheck{}
	if in.db != nil {
		checks["database"] = in.db.PingContext
	}
	if in.redis != nil {
		checks["redis"] = in.redis.Health
	}
	return checks
}

func sweep(ctx context.Context, store *otpstore.InMemory, log *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				log.Debug("expired otp challenges swept", "count", n)
			}
		}
	}
}
