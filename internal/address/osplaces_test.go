package address

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/clearcomms/linecheck/pkg/errors"
	"github.com/clearcomms/linecheck/pkg/httpclient"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOSPlacesClient_LookupPostcode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/postcode", r.URL.Path)
		assert.Equal(t, "SW1A 1AA", r.URL.Query().Get("postcode"))
		assert.Equal(t, "os-key", r.URL.Query().Get("key"), "the API key is injected server-side")

		w.Write([]byte(`{
			"results": [
				{
					"DPA": {
						"UPRN": "100023336956",
						"ADDRESS": "BUCKINGHAM PALACE, LONDON, SW1A 1AA",
						"BUILDING_NAME": "BUCKINGHAM PALACE",
						"POST_TOWN": "LONDON",
						"POSTCODE": "SW1A 1AA",
						"X_COORDINATE": 529090.0,
						"Y_COORDINATE": 179645.0
					}
				}
			]
		}`))
	}))
	defer srv.Close()

	client := NewOSPlacesClient(OSPlacesConfig{BaseURL: srv.URL, APIKey: "os-key"}, httpclient.New(httpclient.DefaultConfig()), discardLogger())

	addresses, err := client.LookupPostcode(context.Background(), "SW1A 1AA")
	require.NoError(t, err)
	require.Len(t, addresses, 1)

	addr := addresses[0]
	assert.Equal(t, "100023336956", addr.UPRN)
	assert.Equal(t, "BUCKINGHAM PALACE", addr.Line1)
	assert.Equal(t, "LONDON", addr.Town)
	assert.Equal(t, "SW1A 1AA", addr.Postcode)
	assert.InDelta(t, 51.5014, addr.Latitude, 0.001)
	assert.InDelta(t, -0.1419, addr.Longitude, 0.001)
}

func TestOSPlacesClient_BuildsLine1FromParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"results": [
				{
					"DPA": {
						"UPRN": "1",
						"BUILDING_NUMBER": "10",
						"THOROUGHFARE_NAME": "DOWNING STREET",
						"POST_TOWN": "LONDON",
						"POSTCODE": "SW1A 2AA",
						"X_COORDINATE": 530047.0,
						"Y_COORDINATE": 179951.0
					}
				}
			]
		}`))
	}))
	defer srv.Close()

	client := NewOSPlacesClient(OSPlacesConfig{BaseURL: srv.URL, APIKey: "k"}, httpclient.New(httpclient.DefaultConfig()), discardLogger())

	addresses, err := client.LookupPostcode(context.Background(), "SW1A 2AA")
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.Equal(t, "10 DOWNING STREET", addresses[0].Line1)
}

func TestOSPlacesClient_UnknownPostcodeIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewOSPlacesClient(OSPlacesConfig{BaseURL: srv.URL, APIKey: "k"}, httpclient.New(httpclient.DefaultConfig()), discardLogger())

	addresses, err := client.LookupPostcode(context.Background(), "ZZ99 9ZZ")
	require.NoError(t, err)
	assert.Empty(t, addresses)
}

func TestOSPlacesClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewOSPlacesClient(OSPlacesConfig{BaseURL: srv.URL, APIKey: "bad"}, httpclient.New(httpclient.DefaultConfig()), discardLogger())

	_, err := client.LookupPostcode(context.Background(), "SW1A 1AA")
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
}

func TestAutocompleteClient_Suggestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/autocomplete/10 downing", r.URL.Path)
		assert.Equal(t, "ga-key", r.URL.Query().Get("api-key"))

		w.Write([]byte(`{
			"suggestions": [
				{"id": "abc123", "address": "10 Downing Street, London, SW1A 2AA"},
				{"id": "def456", "address": "10 Downing Court, Norwich, NR2 1QQ"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewAutocompleteClient(GetAddressConfig{BaseURL: srv.URL, APIKey: "ga-key"}, httpclient.New(httpclient.DefaultConfig()), discardLogger())

	suggestions, err := client.Autocomplete(context.Background(), "10 downing")
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "abc123", suggestions[0].ID)
	assert.Equal(t, "10 Downing Street, London, SW1A 2AA", suggestions[0].Address)
}

func TestAutocompleteClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"Message":"invalid api key"}`))
	}))
	defer srv.Close()

	client := NewAutocompleteClient(GetAddressConfig{BaseURL: srv.URL, APIKey: "bad"}, httpclient.New(httpclient.DefaultConfig()), discardLogger())

	_, err := client.Autocomplete(context.Background(), "10 downing")
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
}
