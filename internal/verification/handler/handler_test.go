package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapproperties/internal/property"
	propertyservice "mapproperties/internal/property/service"
	propertystore "mapproperties/internal/property/store"
	"mapproperties/internal/verification"
	dErrors "mapproperties/pkg/domain-errors"
	"mapproperties/pkg/requestcontext"
	"mapproperties/pkg/testutil"
)

type uploadBody struct {
	DocType         string  `json:"doc_type"`
	MaskedID        string  `json:"masked_id"`
	AIScore         int     `json:"ai_score"`
	FormatValid     bool    `json:"format_valid"`
	Status          string  `json:"status"`
	Reason          string  `json:"reason"`
	RejectionReason *string `json:"rejection_reason"`
	QualityDetails  struct {
		Score    int    `json:"score"`
		IsBlurry *bool  `json:"is_blurry"`
		IsDark   *bool  `json:"is_dark"`
		Details  string `json:"details"`
		Error    string `json:"error"`
	} `json:"quality_details"`
}

func newVerificationRouter(t *testing.T, svc Service) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if svc == nil {
		svc = verification.NewService(verification.WithLogger(logger))
	}
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r
}

func newUploadRequest(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	if file == nil {
		return testutil.NewMultipartRequest(t, "/verification/upload", fields)
	}
	return testutil.NewMultipartRequest(t, "/verification/upload", fields,
		testutil.MultipartFile{Field: "file", Filename: "doc.png", Data: file})
}

func decodeUpload(t *testing.T, rec *httptest.ResponseRecorder) uploadBody {
	t.Helper()
	var out uploadBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHandleUpload(t *testing.T) {
	router := newVerificationRouter(t, nil)
	clean := testutil.PNG(t, testutil.Checkerboard(8, 8, 0, 255))

	t.Run("approved aadhaar", func(t *testing.T) {
		req := newUploadRequest(t, map[string]string{"doc_type": "AADHAAR", "id_number": "234567890123"}, clean)
		rec := testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeUpload(t, rec)
		assert.Equal(t, "AADHAAR", body.DocType)
		assert.Equal(t, "********0123", body.MaskedID)
		assert.Equal(t, 100, body.AIScore)
		assert.True(t, body.FormatValid)
		assert.Equal(t, "APPROVED", body.Status)
		assert.Nil(t, body.RejectionReason)
		require.NotNil(t, body.QualityDetails.IsBlurry)
		assert.False(t, *body.QualityDetails.IsBlurry)
		assert.Equal(t, "Brightness: 127, Detail: 127", body.QualityDetails.Details)
	})

	t.Run("lower-case doc type is normalized", func(t *testing.T) {
		req := newUploadRequest(t, map[string]string{"doc_type": " pan ", "id_number": "ABCDE1234F"}, clean)
		rec := testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "APPROVED", decodeUpload(t, rec).Status)
	})

	t.Run("dark image is rejected in the body", func(t *testing.T) {
		dark := testutil.PNG(t, testutil.UniformGray(8, 8, 20))
		req := newUploadRequest(t, map[string]string{"doc_type": "AADHAAR", "id_number": "234567890123"}, dark)
		rec := testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeUpload(t, rec)
		assert.Equal(t, "REJECTED", body.Status)
		assert.Equal(t, "low_image_quality", body.Reason)
		require.NotNil(t, body.RejectionReason)
		assert.Equal(t, "Image Quality too low. Brightness: 20, Detail: 0", *body.RejectionReason)
	})

	t.Run("unreadable image reports the decode error", func(t *testing.T) {
		req := newUploadRequest(t, map[string]string{"doc_type": "SELFIE"}, []byte("garbage"))
		rec := testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeUpload(t, rec)
		assert.Equal(t, "REJECTED", body.Status)
		assert.Equal(t, 0, body.AIScore)
		assert.NotEmpty(t, body.QualityDetails.Error)
		assert.Nil(t, body.QualityDetails.IsBlurry)
	})

	t.Run("missing file is a validation error", func(t *testing.T) {
		req := newUploadRequest(t, map[string]string{"doc_type": "PAN", "id_number": "ABCDE1234F"}, nil)
		rec := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "validation_error")
	})

	t.Run("missing doc type is a validation error", func(t *testing.T) {
		req := newUploadRequest(t, map[string]string{"id_number": "ABCDE1234F"}, clean)
		rec := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "validation_error")
	})

	t.Run("json body is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/verification/upload", map[string]string{"doc_type": "PAN"})
		rec := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")
	})

	t.Run("oversized upload is rejected", func(t *testing.T) {
		big := make([]byte, MaxUploadBytes+1024)
		req := newUploadRequest(t, map[string]string{"doc_type": "SELFIE"}, big)
		rec := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")
	})
}

type cancelledService struct{}

func (cancelledService) Verify(ctx context.Context, _ verification.IdentityDocument) (*verification.Result, error) {
	return nil, context.Canceled
}

func TestHandleUploadCancelled(t *testing.T) {
	router := newVerificationRouter(t, cancelledService{})
	req := newUploadRequest(t, map[string]string{"doc_type": "SELFIE"}, []byte{1})
	rec := testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rec, http.StatusGatewayTimeout, "timeout")
}

type recordedStatus struct {
	propertyID uuid.UUID
	status     verification.Status
}

type fakeRecorder struct {
	calls []recordedStatus
	err   error
}

func (f *fakeRecorder) RecordVerification(_ context.Context, id uuid.UUID, status verification.Status) error {
	f.calls = append(f.calls, recordedStatus{propertyID: id, status: status})
	return f.err
}

func TestHandleUploadRecordsPropertyStatus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clean := testutil.PNG(t, testutil.Checkerboard(8, 8, 0, 255))
	newRouter := func(rec StatusRecorder) http.Handler {
		r := chi.NewRouter()
		New(verification.NewService(verification.WithLogger(logger)), logger, WithStatusRecorder(rec)).Register(r)
		return r
	}

	t.Run("decision is applied to the listing", func(t *testing.T) {
		recorder := &fakeRecorder{}
		propertyID := uuid.New()
		req := newUploadRequest(t, map[string]string{
			"doc_type":    "PAN",
			"id_number":   "ABCDE1234F",
			"property_id": propertyID.String(),
		}, clean)
		req = testutil.WithUserID(req, uuid.NewString())
		rec := testutil.DoRequest(newRouter(recorder), req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, recorder.calls, 1)
		assert.Equal(t, propertyID, recorder.calls[0].propertyID)
		assert.Equal(t, verification.StatusApproved, recorder.calls[0].status)
	})

	t.Run("no property id leaves listings alone", func(t *testing.T) {
		recorder := &fakeRecorder{}
		req := newUploadRequest(t, map[string]string{"doc_type": "PAN", "id_number": "ABCDE1234F"}, clean)
		rec := testutil.DoRequest(newRouter(recorder), req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, recorder.calls)
	})

	t.Run("malformed property id", func(t *testing.T) {
		req := newUploadRequest(t, map[string]string{"doc_type": "PAN", "property_id": "nope"}, clean)
		rec := testutil.DoRequest(newRouter(&fakeRecorder{}), req)
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")
	})

	t.Run("unknown listing", func(t *testing.T) {
		recorder := &fakeRecorder{err: dErrors.New(dErrors.CodeNotFound, "property not found")}
		req := newUploadRequest(t, map[string]string{"doc_type": "PAN", "property_id": uuid.NewString()}, clean)
		req = testutil.WithUserID(req, uuid.NewString())
		rec := testutil.DoRequest(newRouter(recorder), req)
		testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")
	})

	t.Run("anonymous caller cannot name a listing", func(t *testing.T) {
		recorder := &fakeRecorder{}
		req := newUploadRequest(t, map[string]string{
			"doc_type":    "PAN",
			"id_number":   "ABCDE1234F",
			"property_id": uuid.NewString(),
		}, clean)
		rec := testutil.DoRequest(newRouter(recorder), req)
		testutil.AssertStatusAndError(t, rec, http.StatusUnauthorized, "unauthorized")
		assert.Empty(t, recorder.calls)
	})
}

func TestHandleUploadOnlyOwnerChangesListingStatus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	properties, err := propertyservice.New(propertystore.NewInMemory(), propertyservice.WithLogger(logger))
	require.NoError(t, err)

	owner := uuid.New()
	ctx := requestcontext.WithUserID(context.Background(), owner)
	listing, err := properties.Create(ctx, property.NewProperty{
		Title:     "Sea view flat",
		PriceFiat: 6_000_000,
		Latitude:  19.07,
		Longitude: 72.87,
		AreaUnit:  property.AreaUnitSqft,
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	New(verification.NewService(verification.WithLogger(logger)), logger, WithStatusRecorder(properties)).Register(r)

	// A dark scan is rejected, which would flip the listing if the write went through.
	dark := testutil.PNG(t, testutil.UniformGray(8, 8, 20))
	upload := func(userID string) *httptest.ResponseRecorder {
		req := newUploadRequest(t, map[string]string{
			"doc_type":    "AADHAAR",
			"id_number":   "234567890123",
			"property_id": listing.ID.String(),
		}, dark)
		if userID != "" {
			req = testutil.WithUserID(req, userID)
		}
		return testutil.DoRequest(r, req)
	}
	statusOf := func() verification.Status {
		got, err := properties.Get(context.Background(), listing.ID)
		require.NoError(t, err)
		return got.Status
	}

	testutil.Given(t, "a listing owned by someone else", func(t *testing.T) {
		testutil.When(t, "an anonymous caller uploads for it", func(t *testing.T) {
			rec := upload("")
			testutil.Then(t, "the request is unauthorized and the listing is untouched", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rec, http.StatusUnauthorized, "unauthorized")
				assert.Equal(t, verification.StatusPending, statusOf())
			})
		})

		testutil.When(t, "another user uploads for it", func(t *testing.T) {
			rec := upload(uuid.NewString())
			testutil.Then(t, "the request is forbidden and the listing is untouched", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rec, http.StatusForbidden, "forbidden")
				assert.Equal(t, verification.StatusPending, statusOf())
			})
		})
	})

	testutil.Given(t, "the owner's session", func(t *testing.T) {
		rec := upload(owner.String())
		testutil.Then(t, "the decision is recorded", func(t *testing.T) {
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, verification.StatusRejected, statusOf())
		})
	})
}
