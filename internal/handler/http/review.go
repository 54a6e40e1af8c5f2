package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clearcomms/linecheck/internal/domain"
	"github.com/clearcomms/linecheck/internal/provider"
	"github.com/clearcomms/linecheck/internal/service"
	apperrors "github.com/clearcomms/linecheck/pkg/errors"
	"github.com/clearcomms/linecheck/pkg/httputil"
	"github.com/clearcomms/linecheck/pkg/pagination"
	"github.com/clearcomms/linecheck/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// ConnectionRequest is one current connection in a review request.
type ConnectionRequest struct {
	Technology  string  `json:"technology"`
	SpeedMbps   float64 `json:"speed_mbps" validate:"gte=0"`
	MonthlyCost float64 `json:"monthly_cost" validate:"gte=0"`
	TermMonths  int     `json:"term_months" validate:"gte=0"`
	Bearer      int     `json:"bearer" validate:"gte=0"`
}

// CreateReviewRequest is the JSON request body for running a review.
type CreateReviewRequest struct {
	Postcode     string              `json:"postcode" validate:"required,ukpostcode"`
	AddressLine1 string              `json:"address_line1" validate:"required"`
	Town         string              `json:"town" validate:"required"`
	County       string              `json:"county"`
	Latitude     float64             `json:"latitude"`
	Longitude    float64             `json:"longitude"`
	Connections  []ConnectionRequest `json:"connections" validate:"required,min=1,dive"`
	TermMonths   []int               `json:"term_months"`
}

// --- Handlers ---

// CreateReview handles POST /api/v1/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	connections := make([]service.ConnectionInput, len(req.Connections))
	for i, conn := range req.Connections {
		connections[i] = service.ConnectionInput{
			Current: domain.CurrentConnection{
				Technology:  domain.ParseTechnology(conn.Technology),
				SpeedMbps:   conn.SpeedMbps,
				MonthlyCost: conn.MonthlyCost,
				TermMonths:  conn.TermMonths,
			},
			Bearer: conn.Bearer,
		}
	}

	input := service.CreateReviewInput{
		Site: domain.Site{
			Postcode:     req.Postcode,
			AddressLine1: req.AddressLine1,
			Town:         req.Town,
			County:       req.County,
			Latitude:     req.Latitude,
			Longitude:    req.Longitude,
		},
		Connections: connections,
		TermMonths:  req.TermMonths,
	}

	review, err := h.service.CreateReview(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, mapProviderError(err), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// GetReview handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.service.GetReview(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// ListReviews handles GET /api/v1/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	var postcode *string
	if v := r.URL.Query().Get("postcode"); v != "" {
		postcode = &v
	}

	reviews, total, err := h.service.ListReviews(r.Context(), postcode, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: pagination.NewResult(reviews, total, params)})
}

// mapProviderError translates provider error types into the shared error
// taxonomy so WriteError picks the right status: search timeouts are 504,
// everything else upstream is 502.
func mapProviderError(err error) error {
	var timeoutErr *provider.TimeoutError
	if errors.As(err, &timeoutErr) {
		return apperrors.UpstreamTimeout(timeoutErr.Provider)
	}

	var authErr *provider.AuthError
	if errors.As(err, &authErr) {
		return apperrors.Upstream("auth", authErr.Error())
	}

	var provErr *provider.ProviderError
	if errors.As(err, &provErr) {
		return apperrors.Upstream(provErr.Provider, provErr.Error())
	}

	return err
}
