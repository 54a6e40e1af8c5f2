package service

import (
	"sort"

	"github.com/clearcomms/linecheck/internal/domain"
)

// upgradeCostTolerance is the largest relative monthly cost increase an offer
// may carry and still count as a viable speed upgrade.
const upgradeCostTolerance = 0.10

// Analyzer derives cost-saving and speed-upgrade opportunities by comparing
// normalized offers against a customer's current connection.
type Analyzer struct{}

// NewAnalyzer creates an opportunity analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze compares the offers against the current connection and returns the
// resulting opportunities: at most one cost saving at the current speed,
// followed by speed upgrades in ascending speed order. Offers are bucketed by
// their integer maximum download speed, so 80.0 and 80.9 Mbps products
// compete in the same band.
func (a *Analyzer) Analyze(current domain.CurrentConnection, offers []domain.ServiceOffer) []domain.Opportunity {
	groups := make(map[int][]domain.ServiceOffer)
	for _, offer := range offers {
		speed := int(offer.DownloadMbps.Max)
		groups[speed] = append(groups[speed], offer)
	}

	currentSpeed := int(current.SpeedMbps)
	var opportunities []domain.Opportunity

	if best, ok := cheapest(groups[currentSpeed]); ok && best.MonthlyCost < current.MonthlyCost {
		saving := current.MonthlyCost - best.MonthlyCost
		opportunities = append(opportunities, domain.Opportunity{
			Kind:          domain.OpportunityCostSaving,
			Offer:         best,
			Current:       current,
			MonthlySaving: saving,
			AnnualSaving:  saving * 12,
		})
	}

	// Relative increases are meaningless against a zero baseline.
	if current.MonthlyCost <= 0 || current.SpeedMbps <= 0 {
		return opportunities
	}

	higherSpeeds := make([]int, 0, len(groups))
	for speed := range groups {
		if speed > currentSpeed {
			higherSpeeds = append(higherSpeeds, speed)
		}
	}
	sort.Ints(higherSpeeds)

	for _, speed := range higherSpeeds {
		best, ok := cheapest(groups[speed])
		if !ok {
			continue
		}

		costIncrease := (best.MonthlyCost - current.MonthlyCost) / current.MonthlyCost
		if costIncrease > upgradeCostTolerance {
			continue
		}

		opportunities = append(opportunities, domain.Opportunity{
			Kind:                 domain.OpportunitySpeedUpgrade,
			Offer:                best,
			Current:              current,
			SpeedIncreasePercent: (float64(speed) - current.SpeedMbps) / current.SpeedMbps * 100,
		})
	}

	return opportunities
}

// cheapest returns the lowest-cost offer in the group. Ties go to the offer
// seen first, which preserves the providers' own ordering.
func cheapest(group []domain.ServiceOffer) (domain.ServiceOffer, bool) {
	if len(group) == 0 {
		return domain.ServiceOffer{}, false
	}
	best := group[0]
	for _, offer := range group[1:] {
		if offer.MonthlyCost < best.MonthlyCost {
			best = offer
		}
	}
	return best, true
}
