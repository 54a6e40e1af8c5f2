package address

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	apperrors "github.com/clearcomms/linecheck/pkg/errors"
)

// GetAddressConfig holds the getAddress.io autocomplete settings.
type GetAddressConfig struct {
	BaseURL string
	APIKey  string
}

// Suggestion is one autocomplete hit. The ID can be exchanged for a full
// address via a postcode lookup once the user picks a suggestion.
type Suggestion struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// AutocompleteClient suggests addresses for a partial search term via
// getAddress.io. Like the OS Places key, the API key stays server-side.
type AutocompleteClient struct {
	cfg    GetAddressConfig
	http   Doer
	logger *slog.Logger
}

// NewAutocompleteClient creates a getAddress.io autocomplete client.
func NewAutocompleteClient(cfg GetAddressConfig, doer Doer, logger *slog.Logger) *AutocompleteClient {
	return &AutocompleteClient{
		cfg:    cfg,
		http:   doer,
		logger: logger,
	}
}

type autocompleteResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// Autocomplete returns address suggestions for the partial term.
func (c *AutocompleteClient) Autocomplete(ctx context.Context, term string) ([]Suggestion, error) {
	endpoint := c.cfg.BaseURL + "/autocomplete/" + url.PathEscape(term) + "?api-key=" + url.QueryEscape(c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create autocomplete request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Upstream("getaddress", err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Upstream("getaddress", fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.Upstream("getaddress", fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed autocompleteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.Upstream("getaddress", fmt.Sprintf("decode response: %v", err))
	}

	c.logger.DebugContext(ctx, "address autocomplete",
		slog.String("term", term),
		slog.Int("suggestions", len(parsed.Suggestions)),
	)

	return parsed.Suggestions, nil
}
