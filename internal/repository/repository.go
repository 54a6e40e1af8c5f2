package repository

import (
	"context"

	"github.com/clearcomms/linecheck/internal/domain"
)

// ReviewFilter defines filter criteria for listing reviews.
type ReviewFilter struct {
	Postcode *string
	Page     int
	PerPage  int
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a completed review.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// List returns reviews matching the given filter along with the total count,
	// newest first.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, int, error)
}

// OfferCache defines the interface for short-lived caching of normalized
// offers per provider search. A miss is reported as errors.ErrNotFound so
// callers fall through to a live provider search.
type OfferCache interface {
	// Get retrieves cached offers for the given search key.
	Get(ctx context.Context, key string) ([]domain.ServiceOffer, error)

	// Set stores offers for the given search key with the cache's TTL.
	Set(ctx context.Context, key string, offers []domain.ServiceOffer) error
}
