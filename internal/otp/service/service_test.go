package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"mapproperties/internal/otp/metrics"
	"mapproperties/internal/otp/store"
	dErrors "mapproperties/pkg/domain-errors"
	audit "mapproperties/pkg/platform/audit"
	"mapproperties/pkg/platform/audit/publisher"
	auditmemory "mapproperties/pkg/platform/audit/store/memory"
	"mapproperties/pkg/requestcontext"
)

const testAadhaar = "234567890123"

var tokenPattern = regexp.MustCompile(`^verified_0123_[1-9][0-9]{3}$`)

type recordingVerifier struct {
	mu    sync.Mutex
	calls map[uuid.UUID]string
	err   error
}

func (r *recordingVerifier) MarkVerified(_ context.Context, id uuid.UUID, number string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.calls == nil {
		r.calls = make(map[uuid.UUID]string)
	}
	r.calls[id] = number
	return nil
}

type ServiceSuite struct {
	suite.Suite
	now     time.Time
	store   *store.InMemory
	users   *recordingVerifier
	audit   *auditmemory.InMemoryStore
	metrics *metrics.Metrics
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	s.store = store.NewInMemory(store.WithClock(func() time.Time { return s.now }))
	s.users = &recordingVerifier{}
	s.audit = auditmemory.NewInMemoryStore()
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.service = s.newService(WithDevCode("1234"))
	s.ctx = context.Background()
}

func (s *ServiceSuite) newService(opts ...Option) *Service {
	base := []Option{
		WithTTL(time.Minute),
		WithKeySecret([]byte("otp-test-secret")),
		WithUserVerifier(s.users),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithAuditPublisher(publisher.NewPublisher(s.audit)),
	}
	svc, err := New(s.store, append(base, opts...)...)
	s.Require().NoError(err)
	return svc
}

func (s *ServiceSuite) TestNew() {
	_, err := New(nil)
	s.Error(err)
	s.Contains(err.Error(), "otp store is required")
}

func (s *ServiceSuite) TestSend() {
	s.Run("rejects malformed numbers", func() {
		for _, n := range []string{"", "12345", "23456789012a", "2345678901234"} {
			_, err := s.service.Send(s.ctx, n)
			s.True(dErrors.HasCode(err, dErrors.CodeBadRequest), "number %q", n)
		}
	})

	s.Run("dev code is exposed as a hint", func() {
		res, err := s.service.Send(s.ctx, testAadhaar)
		s.Require().NoError(err)
		s.Equal("******8923", res.MaskedMobile)
		s.Equal("Use OTP 1234", res.DevHint)
	})

	s.Run("random codes are four digits and not hinted", func() {
		svc := s.newService()
		res, err := svc.Send(s.ctx, "345678901234")
		s.Require().NoError(err)
		s.Empty(res.DevHint)

		code, err := s.store.Get(s.ctx, svc.challengeKey("345678901234"))
		s.Require().NoError(err)
		s.Regexp(`^[0-9]{4}$`, code)
	})

	s.Run("raw number never reaches the store key or audit", func() {
		key := s.service.challengeKey(testAadhaar)
		s.NotContains(key, testAadhaar)
		events, err := s.audit.ListRecent(s.ctx, 100)
		s.Require().NoError(err)
		for _, ev := range events {
			s.NotContains(ev.Subject, testAadhaar)
		}
	})
}

func (s *ServiceSuite) TestChallengeKeysDependOnTheSecret() {
	same := s.newService()
	s.Equal(s.service.challengeKey(testAadhaar), same.challengeKey(testAadhaar))
	s.NotEqual(s.service.challengeKey(testAadhaar), s.service.challengeKey("345678901234"))

	other := s.newService(WithKeySecret([]byte("another-secret")))
	s.NotEqual(s.service.challengeKey(testAadhaar), other.challengeKey(testAadhaar))

	random, err := New(s.store)
	s.Require().NoError(err)
	s.NotEqual(s.service.challengeKey(testAadhaar), random.challengeKey(testAadhaar))

	s.Run("a challenge sent under one secret is not found under another", func() {
		_, err := s.service.Send(s.ctx, testAadhaar)
		s.Require().NoError(err)
		_, err = other.Verify(s.ctx, testAadhaar, "1234")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

		res, err := same.Verify(s.ctx, testAadhaar, "1234")
		s.Require().NoError(err)
		s.Regexp(tokenPattern, res.VerificationToken)
	})
}

func (s *ServiceSuite) TestVerify() {
	s.Run("without a challenge", func() {
		_, err := s.service.Verify(s.ctx, "999999999999", "1234")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.Contains(err.Error(), "OTP expired or not requested")
	})

	s.Run("wrong code keeps the challenge", func() {
		_, err := s.service.Send(s.ctx, testAadhaar)
		s.Require().NoError(err)

		_, err = s.service.Verify(s.ctx, testAadhaar, "0000")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		res, err := s.service.Verify(s.ctx, testAadhaar, "1234")
		s.Require().NoError(err)
		s.Regexp(tokenPattern, res.VerificationToken)
	})

	s.Run("success consumes the challenge", func() {
		_, err := s.service.Send(s.ctx, testAadhaar)
		s.Require().NoError(err)
		_, err = s.service.Verify(s.ctx, testAadhaar, "1234")
		s.Require().NoError(err)

		_, err = s.service.Verify(s.ctx, testAadhaar, "1234")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("expired challenge", func() {
		_, err := s.service.Send(s.ctx, testAadhaar)
		s.Require().NoError(err)
		s.now = s.now.Add(2 * time.Minute)

		_, err = s.service.Verify(s.ctx, testAadhaar, "1234")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestVerifyMarksSignedInUser() {
	userID := uuid.New()
	ctx := requestcontext.WithUserID(s.ctx, userID)

	_, err := s.service.Send(ctx, testAadhaar)
	s.Require().NoError(err)
	_, err = s.service.Verify(ctx, testAadhaar, "1234")
	s.Require().NoError(err)

	s.Equal(testAadhaar, s.users.calls[userID])
}

func (s *ServiceSuite) TestVerifyUserFailurePropagates() {
	s.users.err = dErrors.New(dErrors.CodeNotFound, "user not found")
	ctx := requestcontext.WithUserID(s.ctx, uuid.New())

	_, err := s.service.Send(ctx, testAadhaar)
	s.Require().NoError(err)
	_, err = s.service.Verify(ctx, testAadhaar, "1234")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestConcurrentCorrectSubmissionsSucceedOnce() {
	_, err := s.service.Send(s.ctx, testAadhaar)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.service.Verify(s.ctx, testAadhaar, "1234"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}

func (s *ServiceSuite) TestMetricsAndAudit() {
	_, err := s.service.Send(s.ctx, testAadhaar)
	s.Require().NoError(err)
	_, _ = s.service.Verify(s.ctx, testAadhaar, "9999")
	_, err = s.service.Verify(s.ctx, testAadhaar, "1234")
	s.Require().NoError(err)

	s.Equal(1.0, promtest.ToFloat64(s.metrics.Sent))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Verifications.WithLabelValues("mismatch")))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Verifications.WithLabelValues("verified")))

	events, err := s.audit.ListRecent(s.ctx, 100)
	s.Require().NoError(err)
	actions := map[string]int{}
	for _, ev := range events {
		actions[ev.Action]++
		s.Equal("********0123", ev.Subject)
	}
	s.Equal(1, actions[string(audit.EventOTPSent)])
	s.Equal(1, actions[string(audit.EventOTPFailed)])
	s.Equal(1, actions[string(audit.EventOTPVerified)])
}

type failingStore struct{ *store.InMemory }

func (f *failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("connection reset")
}

func (s *ServiceSuite) TestStoreFailureIsInternal() {
	svc, err := New(&failingStore{InMemory: store.NewInMemory()})
	s.Require().NoError(err)
	_, err = svc.Verify(s.ctx, testAadhaar, "1234")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
