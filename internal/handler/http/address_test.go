package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearcomms/linecheck/internal/address"
	"github.com/clearcomms/linecheck/pkg/httpclient"
)

func testAddressRouter(placesURL, autocompleteURL string) http.Handler {
	client := httpclient.New(httpclient.DefaultConfig())
	places := address.NewOSPlacesClient(address.OSPlacesConfig{BaseURL: placesURL, APIKey: "os-key"}, client, testLogger())
	auto := address.NewAutocompleteClient(address.GetAddressConfig{BaseURL: autocompleteURL, APIKey: "ga-key"}, client, testLogger())
	h := NewAddressHandler(places, auto, testLogger())

	r := chi.NewRouter()
	r.Get("/api/v1/addresses", h.LookupPostcode)
	r.Get("/api/v1/addresses/autocomplete", h.Autocomplete)
	return r
}

func TestLookupPostcode_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SW1A 1AA", r.URL.Query().Get("postcode"))
		w.Write([]byte(`{
			"results": [
				{"DPA": {"UPRN": "1", "BUILDING_NUMBER": "1", "THOROUGHFARE_NAME": "HIGH STREET", "POST_TOWN": "LONDON", "POSTCODE": "SW1A 1AA", "X_COORDINATE": 529090.0, "Y_COORDINATE": 179645.0}}
			]
		}`))
	}))
	defer srv.Close()

	router := testAddressRouter(srv.URL, srv.URL)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/addresses?postcode=SW1A+1AA", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1 HIGH STREET")
	assert.NotContains(t, rec.Body.String(), "os-key", "the API key must never reach the client")
}

func TestLookupPostcode_MissingParam(t *testing.T) {
	router := testAddressRouter("http://unused.invalid", "http://unused.invalid")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/addresses", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAutocomplete_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"suggestions": [{"id": "abc", "address": "10 Downing Street, London"}]}`))
	}))
	defer srv.Close()

	router := testAddressRouter(srv.URL, srv.URL)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/addresses/autocomplete?term=10+downing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "10 Downing Street")
}

func TestAutocomplete_TermTooShort(t *testing.T) {
	router := testAddressRouter("http://unused.invalid", "http://unused.invalid")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/addresses/autocomplete?term=ab", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
