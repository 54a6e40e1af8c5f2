package provider

import (
	"github.com/clearcomms/linecheck/internal/domain"
)

// speedRule captures how one technology's speed fields are filled in when the
// provider omits them. New technologies slot in as table rows; the normalize
// control flow never changes.
type speedRule struct {
	// forceZeroMins drops both minimum bounds: FTTP quotes have no "range A"
	// so a provider-supplied minimum is meaningless.
	forceZeroMins bool

	// syntheticUploadMaxMbps substitutes for a wholly absent upload figure.
	// ADSL quotes routinely omit upstream speeds; the trade convention is a
	// 1 Mbps floor rather than rejecting the quote.
	syntheticUploadMaxMbps float64
}

var speedRules = map[domain.Technology]speedRule{
	domain.TechnologyFTTP: {forceZeroMins: true},
	domain.TechnologyADSL: {syntheticUploadMaxMbps: 1},
}

// kbpsToMbps converts a provider speed figure. Providers report kbps
// internally; all normalized speeds are Mbps. A nil field is 0, never an error.
func kbpsToMbps(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v / 1000
}

// Normalize maps one raw provider quote into the common ServiceOffer shape.
// Pure function: same quote in, same offer out.
func Normalize(providerName string, q domain.RawQuote) domain.ServiceOffer {
	tech := domain.ParseTechnology(q.Technology)
	rule := speedRules[tech]

	download := domain.SpeedRange{
		Min: kbpsToMbps(q.MinDownstreamSpeedValue),
		Max: kbpsToMbps(q.MaxDownstreamSpeedValue),
	}
	upload := domain.SpeedRange{
		Min: kbpsToMbps(q.MinUpstreamSpeedValue),
		Max: kbpsToMbps(q.MaxUpstreamSpeedValue),
	}

	if rule.forceZeroMins {
		download.Min = 0
		upload.Min = 0
	}

	if rule.syntheticUploadMaxMbps > 0 && q.MinUpstreamSpeedValue == nil && q.MaxUpstreamSpeedValue == nil {
		upload.Min = 0
		upload.Max = rule.syntheticUploadMaxMbps
	}

	var installCost float64
	if q.InstallCost != nil {
		installCost = *q.InstallCost
	}

	provider := providerName
	if q.Supplier != "" {
		provider = q.Supplier
	}

	return domain.ServiceOffer{
		Provider:     provider,
		ProductName:  q.ProductName,
		Technology:   tech,
		DownloadMbps: download,
		UploadMbps:   upload,
		MonthlyCost:  q.MonthlyCost,
		InstallCost:  installCost,
		TermMonths:   q.TermMonths,
	}
}

// NormalizeAll normalizes a full result set from one provider.
func NormalizeAll(providerName string, quotes []domain.RawQuote) []domain.ServiceOffer {
	offers := make([]domain.ServiceOffer, 0, len(quotes))
	for _, q := range quotes {
		offers = append(offers, Normalize(providerName, q))
	}
	return offers
}
