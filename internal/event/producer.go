package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clearcomms/linecheck/internal/domain"
	pkgkafka "github.com/clearcomms/linecheck/pkg/kafka"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewCompleted = "linecheck.review.completed"
)

// Aggregate type constant.
const AggregateTypeReview = "review"

// Source identifier for events originating from the linecheck service.
const SourceLinecheck = "linecheck"

// ReviewCompletedData is the payload for a review.completed event: the site,
// the per-connection opportunity counts, and the headline saving. Downstream
// consumers (CRM sync, quoting) fetch the full review over HTTP when needed.
type ReviewCompletedData struct {
	ReviewID          string      `json:"review_id"`
	Site              domain.Site `json:"site"`
	Connections       int         `json:"connections"`
	Opportunities     int         `json:"opportunities"`
	TotalAnnualSaving float64     `json:"total_annual_saving"`
}

// Publisher publishes review domain events. Implemented by Producer and by
// test mocks.
type Publisher interface {
	PublishReviewCompleted(ctx context.Context, review *domain.Review) error
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the linecheck service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCompleted publishes a review.completed event.
func (p *Producer) PublishReviewCompleted(ctx context.Context, review *domain.Review) error {
	opportunities := 0
	for _, c := range review.Connections {
		opportunities += len(c.Opportunities)
	}

	data := ReviewCompletedData{
		ReviewID:          review.ID,
		Site:              review.Site,
		Connections:       len(review.Connections),
		Opportunities:     opportunities,
		TotalAnnualSaving: review.TotalAnnualSaving(),
	}

	event, err := pkgkafka.NewEvent(TopicReviewCompleted, review.ID, AggregateTypeReview, SourceLinecheck, data)
	if err != nil {
		return fmt.Errorf("create review.completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewCompleted, event); err != nil {
		return fmt.Errorf("publish review.completed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.completed event",
		slog.String("review_id", review.ID),
		slog.Int("opportunities", opportunities),
	)

	return nil
}
