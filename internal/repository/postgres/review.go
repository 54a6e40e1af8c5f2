package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/clearcomms/linecheck/internal/domain"
	"github.com/clearcomms/linecheck/internal/repository"
	"github.com/clearcomms/linecheck/pkg/database"
	apperrors "github.com/clearcomms/linecheck/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a completed review. The site and per-connection results are
// stored as JSONB documents; the postcode is denormalized for filtering.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	siteJSON, err := json.Marshal(review.Site)
	if err != nil {
		return fmt.Errorf("marshal site: %w", err)
	}

	connectionsJSON, err := json.Marshal(review.Connections)
	if err != nil {
		return fmt.Errorf("marshal connections: %w", err)
	}

	query := `
		INSERT INTO reviews (id, postcode, site, connections, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = r.pool.Exec(ctx, query,
		review.ID,
		review.Site.Postcode,
		siteJSON,
		connectionsJSON,
		review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `
		SELECT id, site, connections, created_at
		FROM reviews
		WHERE id = $1`

	var (
		review          domain.Review
		siteJSON        []byte
		connectionsJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&review.ID,
		&siteJSON,
		&connectionsJSON,
		&review.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	if err := unmarshalReview(&review, siteJSON, connectionsJSON); err != nil {
		return nil, err
	}

	return &review, nil
}

// List returns reviews matching the given filter with the total count,
// newest first.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Postcode != nil {
		conditions = append(conditions, fmt.Sprintf("postcode = $%d", argIndex))
		args = append(args, *filter.Postcode)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// count(*) OVER() gives the total in the same query as the page.
	query := fmt.Sprintf(`
		SELECT id, site, connections, created_at,
			   count(*) OVER() AS total_count
		FROM reviews
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var totalCount int
	reviews := make([]domain.Review, 0)

	for rows.Next() {
		var (
			review          domain.Review
			siteJSON        []byte
			connectionsJSON []byte
		)

		if err := rows.Scan(
			&review.ID,
			&siteJSON,
			&connectionsJSON,
			&review.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}

		if err := unmarshalReview(&review, siteJSON, connectionsJSON); err != nil {
			return nil, 0, err
		}

		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, totalCount, nil
}

func unmarshalReview(review *domain.Review, siteJSON, connectionsJSON []byte) error {
	if err := json.Unmarshal(siteJSON, &review.Site); err != nil {
		return fmt.Errorf("unmarshal site: %w", err)
	}

	if len(connectionsJSON) > 0 && string(connectionsJSON) != "null" {
		if err := json.Unmarshal(connectionsJSON, &review.Connections); err != nil {
			return fmt.Errorf("unmarshal connections: %w", err)
		}
	} else {
		review.Connections = []domain.ConnectionReview{}
	}

	return nil
}
