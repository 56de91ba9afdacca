package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapproperties/internal/favorite"
	"mapproperties/internal/favorite/store"
	"mapproperties/internal/property"
	propertyservice "mapproperties/internal/property/service"
	propertystore "mapproperties/internal/property/store"
	"mapproperties/internal/user"
	userstore "mapproperties/internal/user/store"
	"mapproperties/pkg/testutil"
)

func newFavoritesRouter(t *testing.T) (http.Handler, *property.Property) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users, err := user.NewService(userstore.NewInMemory(), logger)
	require.NoError(t, err)
	properties, err := propertyservice.New(propertystore.NewInMemory(), propertyservice.WithLogger(logger))
	require.NoError(t, err)
	svc, err := favorite.NewService(store.NewInMemory(), users, properties, logger)
	require.NoError(t, err)

	p, err := properties.Create(context.Background(), property.NewProperty{
		Title: "Garden Villa", PriceFiat: 9_000_000, PropertyType: "villa",
		Latitude: 15.49, Longitude: 73.82, Area: 2400, AreaUnit: "sqft",
		ImageURLs: []string{"https://img.example.com/villa.jpg"},
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r, p
}

func TestFavoritesFlow(t *testing.T) {
	router, p := newFavoritesRouter(t)
	add := map[string]string{"property_id": p.ID.String(), "user_email": "buyer@example.com"}

	testutil.Given(t, "a listing is favorited twice", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/favorites/add", add))
		require.Equal(t, http.StatusOK, rec.Code)
		first := testutil.UnmarshalResponse[FavoriteResponse](t, rec)

		rec = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/favorites/add", add))
		require.Equal(t, http.StatusOK, rec.Code)
		second := testutil.UnmarshalResponse[FavoriteResponse](t, rec)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, p.ID, second.PropertyID)

		testutil.When(t, "the list is fetched", func(t *testing.T) {
			rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/favorites/list?user_email=buyer@example.com"))
			testutil.Then(t, "the listing appears once as a summary", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rec.Code)
				got := *testutil.UnmarshalResponse[[]SummaryResponse](t, rec)
				require.Len(t, got, 1)
				assert.Equal(t, "Garden Villa", got[0].Title)
				assert.Equal(t, "villa", got[0].PropertyType)
				assert.Equal(t, 2400.0, got[0].Area)
				assert.Equal(t, []string{"https://img.example.com/villa.jpg"}, got[0].ImageURLs)
			})
		})

		testutil.When(t, "it is removed", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodDelete, "/favorites/remove/"+p.ID.String()+"?user_email=buyer@example.com")
			rec := testutil.DoRequest(router, req)
			testutil.Then(t, "the removal is confirmed and a repeat is not found", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rec.Code)
				assert.Equal(t, "Removed from favorites", testutil.UnmarshalResponse[MessageResponse](t, rec).Message)

				rec = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete,
					"/favorites/remove/"+p.ID.String()+"?user_email=buyer@example.com"))
				testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")
			})
		})
	})
}

func TestListUnknownUserIsEmpty(t *testing.T) {
	router, _ := newFavoritesRouter(t)
	rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/favorites/list?user_email=ghost@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestFavoritesValidation(t *testing.T) {
	router, p := newFavoritesRouter(t)

	t.Run("add rejects a bad email", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/favorites/add",
			map[string]string{"property_id": p.ID.String(), "user_email": "nope"}))
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "validation_error")
	})

	t.Run("add rejects a malformed property id", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/favorites/add",
			map[string]string{"property_id": "123", "user_email": "buyer@example.com"}))
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "validation_error")
	})

	t.Run("add of an unknown listing", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/favorites/add",
			map[string]string{"property_id": uuid.NewString(), "user_email": "buyer@example.com"}))
		testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")
	})

	t.Run("list requires user_email", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/favorites/list"))
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "validation_error")
	})

	t.Run("remove for an unknown user", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete,
			"/favorites/remove/"+p.ID.String()+"?user_email=ghost@example.com"))
		testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")
	})
}
