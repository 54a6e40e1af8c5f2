package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearcomms/linecheck/internal/domain"
)

func offer(name string, speedMbps, monthlyCost float64) domain.ServiceOffer {
	return domain.ServiceOffer{
		Provider:     "its",
		ProductName:  name,
		Technology:   domain.TechnologyFTTC,
		DownloadMbps: domain.SpeedRange{Max: speedMbps},
		MonthlyCost:  monthlyCost,
		TermMonths:   36,
	}
}

func TestAnalyze_CostSavingAndViableUpgrade(t *testing.T) {
	current := domain.CurrentConnection{
		Technology:  domain.TechnologyFTTC,
		SpeedMbps:   80,
		MonthlyCost: 45,
	}
	offers := []domain.ServiceOffer{
		offer("80/20", 80, 38),
		offer("Full Fibre 330", 330, 48),
		offer("Full Fibre 1000", 1000, 70),
	}

	opportunities := NewAnalyzer().Analyze(current, offers)

	require.Len(t, opportunities, 2)

	saving := opportunities[0]
	assert.Equal(t, domain.OpportunityCostSaving, saving.Kind)
	assert.Equal(t, "80/20", saving.Offer.ProductName)
	assert.InDelta(t, 7.0, saving.MonthlySaving, 1e-9)
	assert.InDelta(t, 84.0, saving.AnnualSaving, 1e-9)

	// 330 Mbps at 48/month is a 6.7% cost increase and qualifies.
	// 1000 Mbps at 70/month is 55.6% over and is dropped.
	upgrade := opportunities[1]
	assert.Equal(t, domain.OpportunitySpeedUpgrade, upgrade.Kind)
	assert.Equal(t, "Full Fibre 330", upgrade.Offer.ProductName)
	assert.InDelta(t, 312.5, upgrade.SpeedIncreasePercent, 1e-9)
}

func TestAnalyze_NoCostSavingWhenNothingCheaper(t *testing.T) {
	current := domain.CurrentConnection{SpeedMbps: 80, MonthlyCost: 30}
	offers := []domain.ServiceOffer{
		offer("same price", 80, 30),
		offer("pricier", 80, 35),
	}

	opportunities := NewAnalyzer().Analyze(current, offers)

	assert.Empty(t, opportunities, "equal cost is not a saving")
}

func TestAnalyze_CheaperUpgradeQualifies(t *testing.T) {
	current := domain.CurrentConnection{SpeedMbps: 80, MonthlyCost: 45}
	offers := []domain.ServiceOffer{offer("faster and cheaper", 160, 40)}

	opportunities := NewAnalyzer().Analyze(current, offers)

	require.Len(t, opportunities, 1)
	assert.Equal(t, domain.OpportunitySpeedUpgrade, opportunities[0].Kind)
	assert.InDelta(t, 100.0, opportunities[0].SpeedIncreasePercent, 1e-9)
}

func TestAnalyze_TieGoesToFirstSeen(t *testing.T) {
	current := domain.CurrentConnection{SpeedMbps: 80, MonthlyCost: 45}
	offers := []domain.ServiceOffer{
		offer("first", 80, 38),
		offer("second", 80, 38),
	}

	opportunities := NewAnalyzer().Analyze(current, offers)

	require.Len(t, opportunities, 1)
	assert.Equal(t, "first", opportunities[0].Offer.ProductName)
}

func TestAnalyze_UpgradesAscendBySpeed(t *testing.T) {
	current := domain.CurrentConnection{SpeedMbps: 40, MonthlyCost: 100}
	offers := []domain.ServiceOffer{
		offer("1000", 1000, 105),
		offer("330", 330, 102),
		offer("160", 160, 100),
	}

	opportunities := NewAnalyzer().Analyze(current, offers)

	require.Len(t, opportunities, 3)
	assert.InDelta(t, 160.0, opportunities[0].Offer.DownloadMbps.Max, 1e-9)
	assert.InDelta(t, 330.0, opportunities[1].Offer.DownloadMbps.Max, 1e-9)
	assert.InDelta(t, 1000.0, opportunities[2].Offer.DownloadMbps.Max, 1e-9)
}

func TestAnalyze_SlowerOffersIgnoredForUpgrades(t *testing.T) {
	current := domain.CurrentConnection{SpeedMbps: 330, MonthlyCost: 48}
	offers := []domain.ServiceOffer{
		offer("slower", 80, 20),
		offer("much slower", 24, 10),
	}

	opportunities := NewAnalyzer().Analyze(current, offers)

	assert.Empty(t, opportunities)
}

func TestAnalyze_ZeroBaselineProducesNoUpgrades(t *testing.T) {
	current := domain.CurrentConnection{SpeedMbps: 0, MonthlyCost: 0}
	offers := []domain.ServiceOffer{offer("anything", 80, 30)}

	opportunities := NewAnalyzer().Analyze(current, offers)

	assert.Empty(t, opportunities)
}

func TestAnalyze_NoOffers(t *testing.T) {
	current := domain.CurrentConnection{SpeedMbps: 80, MonthlyCost: 45}

	assert.Empty(t, NewAnalyzer().Analyze(current, nil))
}
