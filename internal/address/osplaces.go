package address

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/clearcomms/linecheck/internal/domain"
	apperrors "github.com/clearcomms/linecheck/pkg/errors"
)

// Doer executes HTTP requests. Satisfied by both httpclient.Client and
// httpclient.CircuitBreakerClient.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// OSPlacesConfig holds the Ordnance Survey Places API settings. The key never
// leaves the server: handlers inject it into outbound requests so browser
// clients never see it.
type OSPlacesConfig struct {
	BaseURL string
	APIKey  string
}

// OSPlacesClient looks up full delivery-point addresses for a postcode via
// the OS Places API.
type OSPlacesClient struct {
	cfg    OSPlacesConfig
	http   Doer
	logger *slog.Logger
}

// NewOSPlacesClient creates an OS Places lookup client.
func NewOSPlacesClient(cfg OSPlacesConfig, doer Doer, logger *slog.Logger) *OSPlacesClient {
	return &OSPlacesClient{
		cfg:    cfg,
		http:   doer,
		logger: logger,
	}
}

// osPlacesResponse is the subset of the OS Places postcode response we read.
// Coordinates arrive as British National Grid eastings and northings.
type osPlacesResponse struct {
	Results []struct {
		DPA struct {
			UPRN              string  `json:"UPRN"`
			Address           string  `json:"ADDRESS"`
			BuildingName      string  `json:"BUILDING_NAME"`
			BuildingNumber    string  `json:"BUILDING_NUMBER"`
			ThoroughfareName  string  `json:"THOROUGHFARE_NAME"`
			DependentLocality string  `json:"DEPENDENT_LOCALITY"`
			PostTown          string  `json:"POST_TOWN"`
			Postcode          string  `json:"POSTCODE"`
			XCoordinate       float64 `json:"X_COORDINATE"`
			YCoordinate       float64 `json:"Y_COORDINATE"`
		} `json:"DPA"`
	} `json:"results"`
}

// LookupPostcode returns every delivery-point address at the postcode, with
// grid references converted to WGS84. An unknown postcode returns an empty
// slice, not an error.
func (c *OSPlacesClient) LookupPostcode(ctx context.Context, postcode string) ([]domain.Address, error) {
	query := url.Values{
		"postcode": {postcode},
		"key":      {c.cfg.APIKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/postcode?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create postcode request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Upstream("os-places", err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperrors.Upstream("os-places", fmt.Sprintf("read response: %v", err))
	}

	// OS Places answers 404 for postcodes with no delivery points.
	if resp.StatusCode == http.StatusNotFound {
		return []domain.Address{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.Upstream("os-places", fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed osPlacesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.Upstream("os-places", fmt.Sprintf("decode response: %v", err))
	}

	addresses := make([]domain.Address, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		dpa := result.DPA

		line1 := strings.TrimSpace(dpa.BuildingNumber + " " + dpa.ThoroughfareName)
		if dpa.BuildingName != "" {
			line1 = strings.TrimSpace(dpa.BuildingName + " " + line1)
		}

		lat, lon := GridToLatLon(dpa.XCoordinate, dpa.YCoordinate)

		addresses = append(addresses, domain.Address{
			UPRN:      dpa.UPRN,
			Line1:     line1,
			Town:      dpa.PostTown,
			County:    dpa.DependentLocality,
			Postcode:  dpa.Postcode,
			Latitude:  lat,
			Longitude: lon,
		})
	}

	c.logger.DebugContext(ctx, "postcode lookup",
		slog.String("postcode", postcode),
		slog.Int("addresses", len(addresses)),
	)

	return addresses, nil
}
