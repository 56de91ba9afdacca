package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapproperties/internal/property/service"
	"mapproperties/internal/property/store"
	"mapproperties/pkg/testutil"
)

func newPropertyRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(store.NewInMemory(), service.WithLogger(logger))
	require.NoError(t, err)

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r
}

func createProperty(t *testing.T, router http.Handler, body map[string]any) PropertyResponse {
	t.Helper()
	rec := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/properties", body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return *testutil.UnmarshalResponse[PropertyResponse](t, rec)
}

func TestPropertyLifecycle(t *testing.T) {
	router := newPropertyRouter(t)

	testutil.Given(t, "a listing was created", func(t *testing.T) {
		created := createProperty(t, router, map[string]any{
			"title":         "Sea View 2BHK",
			"description":   "Close to the promenade",
			"price":         6500000,
			"property_type": "Commercial",
			"latitude":      18.9220,
			"longitude":     72.8347,
			"image_urls":    []string{"https://img.example.com/a.jpg"},
		})
		assert.Equal(t, "PENDING", created.Status)
		assert.Equal(t, 6500000.0, created.PriceFiat)
		assert.Equal(t, "commercial", created.PropertyType)
		assert.Equal(t, "sqft", created.AreaUnit)

		testutil.When(t, "it is fetched by id", func(t *testing.T) {
			rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/properties/"+created.ID.String()))
			testutil.Then(t, "insights are attached", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rec.Code)
				got := testutil.UnmarshalResponse[ListingResponse](t, rec)
				assert.Equal(t, created.ID, got.ID)
				assert.Nil(t, got.DistanceKm)
				require.NotNil(t, got.Insights)
				assert.Equal(t, "Fair Market Price", got.Insights.Valuation.Verdict)
				assert.Equal(t, 8.5, got.Insights.InvestmentScore)
				assert.Len(t, got.Insights.PriceHistory, 3)
				assert.True(t, got.Insights.VirtualTour.Available)
			})
		})

		testutil.When(t, "its insights are fetched", func(t *testing.T) {
			rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/properties/"+created.ID.String()+"/insights"))
			testutil.Then(t, "only the insight block is returned", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rec.Code)
				got := testutil.UnmarshalResponse[InsightResponse](t, rec)
				assert.Equal(t, created.ID.String(), got.PropertyID)
				assert.Equal(t, "2023", got.PriceHistory[0].Year)
			})
		})

		testutil.When(t, "a nearby search covers it", func(t *testing.T) {
			rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/properties/nearby?lat=18.93&long=72.83"))
			testutil.Then(t, "it is listed with its distance", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rec.Code)
				got := *testutil.UnmarshalResponse[[]ListingResponse](t, rec)
				require.Len(t, got, 1)
				require.NotNil(t, got[0].DistanceKm)
				assert.InDelta(t, 1.0, *got[0].DistanceKm, 0.2)
			})
		})

		testutil.When(t, "the search is elsewhere", func(t *testing.T) {
			rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/properties/nearby?lat=28.61&long=77.20&radius_km=10"))
			testutil.Then(t, "an empty list is returned", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rec.Code)
				assert.JSONEq(t, "[]", rec.Body.String())
			})
		})
	})
}

func TestCreatePropertyValidation(t *testing.T) {
	router := newPropertyRouter(t)

	cases := []struct {
		name string
		body map[string]any
		code string
	}{
		{"missing title", map[string]any{"price": 1, "latitude": 1, "longitude": 1}, "validation_error"},
		{"missing price", map[string]any{"title": "x", "latitude": 1, "longitude": 1}, "validation_error"},
		{"missing latitude", map[string]any{"title": "x", "price": 1, "longitude": 1}, "validation_error"},
		{"bad image url", map[string]any{"title": "x", "price": 1, "latitude": 1, "longitude": 1, "image_urls": []string{"not a url"}}, "validation_error"},
		{"latitude out of range", map[string]any{"title": "x", "price": 1, "latitude": 100, "longitude": 1}, "validation_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/properties", tc.body))
			testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, tc.code)
		})
	}
}

func TestPriceFiatAlias(t *testing.T) {
	router := newPropertyRouter(t)
	created := createProperty(t, router, map[string]any{
		"title": "Plot", "price_fiat": 0, "latitude": 0, "longitude": 0,
	})
	assert.Equal(t, 0.0, created.PriceFiat)
}

func TestGetProperty(t *testing.T) {
	router := newPropertyRouter(t)

	rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/properties/"+uuid.NewString()))
	testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")

	rec = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/properties/not-a-uuid"))
	testutil.AssertStatus(t, rec, http.StatusNotFound)
}

func TestNearbyQueryValidation(t *testing.T) {
	router := newPropertyRouter(t)

	for _, path := range []string{
		"/properties/nearby?long=72.8",
		"/properties/nearby?lat=abc&long=72.8",
		"/properties/nearby?lat=18.9&long=72.8&radius_km=0",
		"/properties/nearby?lat=18.9&long=72.8&radius_km=500",
	} {
		rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, path))
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")
	}
}

func TestCreateOwnedBySignedInUser(t *testing.T) {
	router := newPropertyRouter(t)
	owner := uuid.New()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/properties", map[string]any{
		"title":     "Garden Plot",
		"price":     1200000,
		"latitude":  12.9716,
		"longitude": 77.5946,
		"area":      1,
		"area_unit": "ACRE",
	})
	rec := testutil.DoRequest(router, testutil.WithUserID(req, owner.String()))
	require.Equal(t, http.StatusCreated, rec.Code)

	got := testutil.UnmarshalResponse[PropertyResponse](t, rec)
	assert.Equal(t, owner, got.OwnerID)
	assert.Equal(t, "acre", got.AreaUnit)
	assert.Equal(t, "residential", got.PropertyType)
}
