package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/clearcomms/linecheck/internal/address"
	"github.com/clearcomms/linecheck/pkg/httputil"
)

// AddressHandler handles HTTP requests for address lookup endpoints. Both
// endpoints proxy third-party APIs so the keys stay on the server.
type AddressHandler struct {
	places       *address.OSPlacesClient
	autocomplete *address.AutocompleteClient
	logger       *slog.Logger
}

// NewAddressHandler creates a new address HTTP handler.
func NewAddressHandler(places *address.OSPlacesClient, autocomplete *address.AutocompleteClient, logger *slog.Logger) *AddressHandler {
	return &AddressHandler{
		places:       places,
		autocomplete: autocomplete,
		logger:       logger,
	}
}

// LookupPostcode handles GET /api/v1/addresses?postcode=
func (h *AddressHandler) LookupPostcode(w http.ResponseWriter, r *http.Request) {
	postcode := strings.TrimSpace(r.URL.Query().Get("postcode"))
	if postcode == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "postcode query parameter is required"},
		})
		return
	}

	addresses, err := h.places.LookupPostcode(r.Context(), postcode)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: addresses})
}

// Autocomplete handles GET /api/v1/addresses/autocomplete?term=
func (h *AddressHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("term"))
	if len(term) < 3 {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "term query parameter must be at least 3 characters"},
		})
		return
	}

	suggestions, err := h.autocomplete.Autocomplete(r.Context(), term)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: suggestions})
}
