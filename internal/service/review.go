package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clearcomms/linecheck/internal/domain"
	"github.com/clearcomms/linecheck/internal/event"
	"github.com/clearcomms/linecheck/internal/provider"
	"github.com/clearcomms/linecheck/internal/repository"
	apperrors "github.com/clearcomms/linecheck/pkg/errors"
)

// ReviewService runs technology reviews: it searches every configured
// provider for the site, normalizes what comes back, and derives the
// opportunities against each current connection.
type ReviewService struct {
	providers []provider.Client
	analyzer  *Analyzer
	repo      repository.ReviewRepository
	cache     repository.OfferCache
	producer  event.Publisher
	logger    *slog.Logger
}

// NewReviewService creates a new review service. The cache and producer are
// optional; a nil cache means every review runs live searches.
func NewReviewService(
	providers []provider.Client,
	analyzer *Analyzer,
	repo repository.ReviewRepository,
	cache repository.OfferCache,
	producer event.Publisher,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		providers: providers,
		analyzer:  analyzer,
		repo:      repo,
		cache:     cache,
		producer:  producer,
		logger:    logger,
	}
}

// ConnectionInput describes one of the site's current connections and the
// bearer tier to search against.
type ConnectionInput struct {
	Current domain.CurrentConnection
	Bearer  int
}

// CreateReviewInput holds the parameters for running a review.
type CreateReviewInput struct {
	Site        domain.Site
	Connections []ConnectionInput
	TermMonths  []int
}

// CreateReview runs availability searches across all providers for each of
// the site's connections, derives opportunities, persists the review, and
// announces it. Input problems are rejected before any network call.
func (s *ReviewService) CreateReview(ctx context.Context, input CreateReviewInput) (*domain.Review, error) {
	if input.Site.Postcode == "" {
		return nil, apperrors.InvalidInput("postcode is required")
	}
	if input.Site.AddressLine1 == "" {
		return nil, apperrors.InvalidInput("address_line1 is required")
	}
	if input.Site.Town == "" {
		return nil, apperrors.InvalidInput("town is required")
	}
	if len(input.Connections) == 0 {
		return nil, apperrors.InvalidInput("review must contain at least one connection")
	}
	for i, conn := range input.Connections {
		if conn.Current.SpeedMbps < 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("connections[%d]: speed_mbps must not be negative", i))
		}
		if conn.Current.MonthlyCost < 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("connections[%d]: monthly_cost must not be negative", i))
		}
	}
	if len(input.TermMonths) == 0 {
		input.TermMonths = []int{12, 36}
	}

	review := &domain.Review{
		ID:          uuid.New().String(),
		Site:        input.Site,
		Connections: make([]domain.ConnectionReview, 0, len(input.Connections)),
		CreatedAt:   time.Now().UTC(),
	}

	for _, conn := range input.Connections {
		offers, err := s.collectOffers(ctx, input.Site, conn, input.TermMonths)
		if err != nil {
			return nil, err
		}

		review.Connections = append(review.Connections, domain.ConnectionReview{
			Current:       conn.Current,
			Offers:        offers,
			Opportunities: s.analyzer.Analyze(conn.Current, offers),
		})
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if s.producer != nil {
		if err := s.producer.PublishReviewCompleted(ctx, review); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review.completed event",
				slog.String("review_id", review.ID),
				slog.String("error", err.Error()),
			)
			// Do not fail the review if event publishing fails.
		}
	}

	s.logger.InfoContext(ctx, "review completed",
		slog.String("review_id", review.ID),
		slog.String("postcode", review.Site.Postcode),
		slog.Int("connections", len(review.Connections)),
	)

	return review, nil
}

// collectOffers gathers normalized offers for one connection across every
// provider. A provider failure only fails the review when no provider
// produced offers; a partial result set is still a useful review.
func (s *ReviewService) collectOffers(ctx context.Context, site domain.Site, conn ConnectionInput, termMonths []int) ([]domain.ServiceOffer, error) {
	var (
		offers    []domain.ServiceOffer
		succeeded int
		lastErr   error
	)

	for _, p := range s.providers {
		providerOffers, err := s.searchProvider(ctx, p, site, conn, termMonths)
		if err != nil {
			lastErr = err
			s.logger.WarnContext(ctx, "provider search failed",
				slog.String("provider", p.Name()),
				slog.String("postcode", site.Postcode),
				slog.String("error", err.Error()),
			)
			continue
		}
		succeeded++
		offers = append(offers, providerOffers...)
	}

	if succeeded == 0 && lastErr != nil {
		return nil, lastErr
	}

	return offers, nil
}

// searchProvider returns normalized offers for one provider, serving from the
// cache when possible. Cache failures degrade to a live search rather than
// failing the review.
func (s *ReviewService) searchProvider(ctx context.Context, p provider.Client, site domain.Site, conn ConnectionInput, termMonths []int) ([]domain.ServiceOffer, error) {
	key := offerCacheKey(p.Name(), site.Postcode, conn)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err == nil {
			s.logger.DebugContext(ctx, "offer cache hit",
				slog.String("provider", p.Name()),
				slog.String("key", key),
			)
			return cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "offer cache read failed, searching live",
				slog.String("provider", p.Name()),
				slog.String("error", err.Error()),
			)
		}
	}

	req := domain.SearchRequest{
		Postcode:     site.Postcode,
		AddressLine1: site.AddressLine1,
		Town:         site.Town,
		County:       site.County,
		Latitude:     site.Latitude,
		Longitude:    site.Longitude,
		Connections:  []domain.ConnectionSpec{{Bearer: conn.Bearer, SpeedMbps: conn.Current.SpeedMbps}},
		TermMonths:   termMonths,
	}

	job, err := p.CreateSearch(ctx, req)
	if err != nil {
		return nil, err
	}

	quotes, err := p.PollResults(ctx, job)
	if err != nil {
		return nil, err
	}

	offers := provider.NormalizeAll(p.Name(), quotes)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, offers); err != nil {
			s.logger.WarnContext(ctx, "offer cache write failed",
				slog.String("provider", p.Name()),
				slog.String("error", err.Error()),
			)
		}
	}

	return offers, nil
}

// GetReview retrieves a review by ID.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// ListReviews returns a page of reviews, optionally filtered by postcode.
func (s *ReviewService) ListReviews(ctx context.Context, postcode *string, page, perPage int) ([]domain.Review, int, error) {
	reviews, total, err := s.repo.List(ctx, repository.ReviewFilter{
		Postcode: postcode,
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

// offerCacheKey identifies one provider search: provider, postcode with
// spacing and case folded away, bearer, and current speed.
func offerCacheKey(providerName, postcode string, conn ConnectionInput) string {
	compact := strings.ToUpper(strings.ReplaceAll(postcode, " ", ""))
	return fmt.Sprintf("%s:%s:%d:%g", providerName, compact, conn.Bearer, conn.Current.SpeedMbps)
}
