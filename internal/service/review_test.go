package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clearcomms/linecheck/internal/domain"
	"github.com/clearcomms/linecheck/internal/provider"
	"github.com/clearcomms/linecheck/internal/repository"
	apperrors "github.com/clearcomms/linecheck/pkg/errors"
)

// --- Mocks ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

type mockOfferCache struct {
	mock.Mock
}

func (m *mockOfferCache) Get(ctx context.Context, key string) ([]domain.ServiceOffer, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ServiceOffer), args.Error(1)
}

func (m *mockOfferCache) Set(ctx context.Context, key string, offers []domain.ServiceOffer) error {
	args := m.Called(ctx, key, offers)
	return args.Error(0)
}

type mockProvider struct {
	mock.Mock
	name string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) CreateSearch(ctx context.Context, req domain.SearchRequest) (domain.SearchJob, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.SearchJob), args.Error(1)
}

func (m *mockProvider) PollResults(ctx context.Context, job domain.SearchJob) ([]domain.RawQuote, error) {
	args := m.Called(ctx, job)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawQuote), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishReviewCompleted(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func validInput() CreateReviewInput {
	return CreateReviewInput{
		Site: domain.Site{
			Postcode:     "SW1A 1AA",
			AddressLine1: "1 High Street",
			Town:         "London",
		},
		Connections: []ConnectionInput{
			{
				Current: domain.CurrentConnection{
					Technology:  domain.TechnologyFTTC,
					SpeedMbps:   80,
					MonthlyCost: 45,
				},
				Bearer: 1000,
			},
		},
		TermMonths: []int{36},
	}
}

func sampleQuotes() []domain.RawQuote {
	down := func(v float64) *float64 { return &v }
	return []domain.RawQuote{
		{
			Technology:              "FTTC",
			ProductName:             "80/20",
			MonthlyCost:             38,
			TermMonths:              36,
			MaxDownstreamSpeedValue: down(80000),
			MaxUpstreamSpeedValue:   down(20000),
		},
	}
}

// --- CreateReview ---

func TestCreateReview_Success(t *testing.T) {
	repo := new(mockReviewRepository)
	cache := new(mockOfferCache)
	prov := &mockProvider{name: "its"}
	pub := new(mockPublisher)
	svc := NewReviewService([]provider.Client{prov}, NewAnalyzer(), repo, cache, pub, newTestLogger())
	ctx := context.Background()

	job := domain.SearchJob{ID: "job-1", Status: domain.JobPending}
	cache.On("Get", ctx, "its:SW1A1AA:1000:80").Return(nil, apperrors.NotFound("offers", "k"))
	prov.On("CreateSearch", ctx, mock.AnythingOfType("domain.SearchRequest")).Return(job, nil)
	prov.On("PollResults", ctx, job).Return(sampleQuotes(), nil)
	cache.On("Set", ctx, "its:SW1A1AA:1000:80", mock.AnythingOfType("[]domain.ServiceOffer")).Return(nil)
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)
	pub.On("PublishReviewCompleted", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)

	review, err := svc.CreateReview(ctx, validInput())

	require.NoError(t, err)
	require.Len(t, review.Connections, 1)
	require.Len(t, review.Connections[0].Offers, 1)
	assert.Equal(t, "80/20", review.Connections[0].Offers[0].ProductName)

	// 38/month against 45/month at the same 80 Mbps band is a cost saving.
	require.Len(t, review.Connections[0].Opportunities, 1)
	opp := review.Connections[0].Opportunities[0]
	assert.Equal(t, domain.OpportunityCostSaving, opp.Kind)
	assert.InDelta(t, 7.0, opp.MonthlySaving, 1e-9)

	repo.AssertExpectations(t)
	prov.AssertExpectations(t)
	cache.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreateReview_CacheHitSkipsProvider(t *testing.T) {
	repo := new(mockReviewRepository)
	cache := new(mockOfferCache)
	prov := &mockProvider{name: "its"}
	pub := new(mockPublisher)
	svc := NewReviewService([]provider.Client{prov}, NewAnalyzer(), repo, cache, pub, newTestLogger())
	ctx := context.Background()

	cached := []domain.ServiceOffer{
		{
			Provider:     "its",
			ProductName:  "80/20",
			Technology:   domain.TechnologyFTTC,
			DownloadMbps: domain.SpeedRange{Max: 80},
			MonthlyCost:  38,
		},
	}
	cache.On("Get", ctx, "its:SW1A1AA:1000:80").Return(cached, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)
	pub.On("PublishReviewCompleted", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)

	review, err := svc.CreateReview(ctx, validInput())

	require.NoError(t, err)
	assert.Equal(t, cached, review.Connections[0].Offers)
	prov.AssertNotCalled(t, "CreateSearch", mock.Anything, mock.Anything)
}

func TestCreateReview_ValidationBeforeNetwork(t *testing.T) {
	repo := new(mockReviewRepository)
	prov := &mockProvider{name: "its"}
	svc := NewReviewService([]provider.Client{prov}, NewAnalyzer(), repo, nil, nil, newTestLogger())

	tests := []struct {
		name   string
		mutate func(*CreateReviewInput)
	}{
		{"missing postcode", func(in *CreateReviewInput) { in.Site.Postcode = "" }},
		{"missing address", func(in *CreateReviewInput) { in.Site.AddressLine1 = "" }},
		{"missing town", func(in *CreateReviewInput) { in.Site.Town = "" }},
		{"no connections", func(in *CreateReviewInput) { in.Connections = nil }},
		{"negative speed", func(in *CreateReviewInput) { in.Connections[0].Current.SpeedMbps = -1 }},
		{"negative cost", func(in *CreateReviewInput) { in.Connections[0].Current.MonthlyCost = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)

			_, err := svc.CreateReview(context.Background(), input)

			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
			prov.AssertNotCalled(t, "CreateSearch", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateReview_PartialProviderFailure(t *testing.T) {
	repo := new(mockReviewRepository)
	good := &mockProvider{name: "its"}
	bad := &mockProvider{name: "zen"}
	pub := new(mockPublisher)
	svc := NewReviewService([]provider.Client{good, bad}, NewAnalyzer(), repo, nil, pub, newTestLogger())
	ctx := context.Background()

	job := domain.SearchJob{ID: "job-1"}
	good.On("CreateSearch", ctx, mock.AnythingOfType("domain.SearchRequest")).Return(job, nil)
	good.On("PollResults", ctx, job).Return(sampleQuotes(), nil)
	bad.On("CreateSearch", ctx, mock.AnythingOfType("domain.SearchRequest")).
		Return(domain.SearchJob{}, &provider.ProviderError{Provider: "zen", Status: 500})
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)
	pub.On("PublishReviewCompleted", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)

	review, err := svc.CreateReview(ctx, validInput())

	require.NoError(t, err, "one healthy provider is enough for a review")
	assert.Len(t, review.Connections[0].Offers, 1)
}

func TestCreateReview_AllProvidersFailing(t *testing.T) {
	repo := new(mockReviewRepository)
	prov := &mockProvider{name: "its"}
	svc := NewReviewService([]provider.Client{prov}, NewAnalyzer(), repo, nil, nil, newTestLogger())
	ctx := context.Background()

	prov.On("CreateSearch", ctx, mock.AnythingOfType("domain.SearchRequest")).
		Return(domain.SearchJob{}, &provider.TimeoutError{Attempts: 10, Provider: "its"})

	_, err := svc.CreateReview(ctx, validInput())

	var timeoutErr *provider.TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReview_PublishFailureDoesNotFailReview(t *testing.T) {
	repo := new(mockReviewRepository)
	prov := &mockProvider{name: "its"}
	pub := new(mockPublisher)
	svc := NewReviewService([]provider.Client{prov}, NewAnalyzer(), repo, nil, pub, newTestLogger())
	ctx := context.Background()

	job := domain.SearchJob{ID: "job-1"}
	prov.On("CreateSearch", ctx, mock.AnythingOfType("domain.SearchRequest")).Return(job, nil)
	prov.On("PollResults", ctx, job).Return(sampleQuotes(), nil)
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)
	pub.On("PublishReviewCompleted", ctx, mock.AnythingOfType("*domain.Review")).
		Return(errors.New("broker unavailable"))

	_, err := svc.CreateReview(ctx, validInput())

	require.NoError(t, err)
}

// --- GetReview / ListReviews ---

func TestGetReview_NotFound(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := NewReviewService(nil, NewAnalyzer(), repo, nil, nil, newTestLogger())
	ctx := context.Background()

	repo.On("GetByID", ctx, "missing").Return(nil, apperrors.NotFound("review", "missing"))

	_, err := svc.GetReview(ctx, "missing")

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestListReviews_PassesFilter(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := NewReviewService(nil, NewAnalyzer(), repo, nil, nil, newTestLogger())
	ctx := context.Background()

	postcode := "SW1A 1AA"
	repo.On("List", ctx, repository.ReviewFilter{Postcode: &postcode, Page: 2, PerPage: 10}).
		Return([]domain.Review{}, 0, nil)

	_, _, err := svc.ListReviews(ctx, &postcode, 2, 10)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}
