package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearcomms/linecheck/internal/domain"
	apperrors "github.com/clearcomms/linecheck/pkg/errors"
)

func setupTestCache(t *testing.T) (*OfferCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewOfferCache(client, 15*time.Minute), mr
}

func sampleOffers() []domain.ServiceOffer {
	return []domain.ServiceOffer{
		{
			Provider:     "its",
			ProductName:  "80/20",
			Technology:   domain.TechnologyFTTC,
			DownloadMbps: domain.SpeedRange{Max: 80},
			UploadMbps:   domain.SpeedRange{Max: 20},
			MonthlyCost:  38,
			TermMonths:   36,
		},
		{
			Provider:     "zen",
			ProductName:  "Full Fibre 330",
			Technology:   domain.TechnologyFTTP,
			DownloadMbps: domain.SpeedRange{Max: 330},
			UploadMbps:   domain.SpeedRange{Max: 50},
			MonthlyCost:  48,
			TermMonths:   36,
		},
	}
}

func TestOfferCache_SetThenGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	offers := sampleOffers()
	require.NoError(t, cache.Set(ctx, "its:SW1A1AA", offers))

	got, err := cache.Get(ctx, "its:SW1A1AA")
	require.NoError(t, err)
	assert.Equal(t, offers, got)
}

func TestOfferCache_MissIsNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	_, err := cache.Get(context.Background(), "its:missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestOfferCache_EntriesExpire(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "its:SW1A1AA", sampleOffers()))

	mr.FastForward(16 * time.Minute)

	_, err := cache.Get(ctx, "its:SW1A1AA")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestOfferCache_KeysAreIndependent(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "its:SW1A1AA", sampleOffers()[:1]))
	require.NoError(t, cache.Set(ctx, "zen:SW1A1AA", sampleOffers()[1:]))

	its, err := cache.Get(ctx, "its:SW1A1AA")
	require.NoError(t, err)
	assert.Equal(t, "its", its[0].Provider)

	zen, err := cache.Get(ctx, "zen:SW1A1AA")
	require.NoError(t, err)
	assert.Equal(t, "zen", zen[0].Provider)
}
