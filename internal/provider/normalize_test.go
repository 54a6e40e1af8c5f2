package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clearcomms/linecheck/internal/domain"
)

func fptr(v float64) *float64 { return &v }

func TestNormalize_FTTPDropsMinimumBounds(t *testing.T) {
	quote := domain.RawQuote{
		Technology:              "FTTP",
		ProductName:             "Full Fibre 330",
		MonthlyCost:             48,
		TermMonths:              36,
		MinDownstreamSpeedValue: fptr(150000),
		MaxDownstreamSpeedValue: fptr(330000),
		MinUpstreamSpeedValue:   fptr(20000),
		MaxUpstreamSpeedValue:   fptr(50000),
	}

	offer := Normalize("zen", quote)

	assert.Equal(t, domain.TechnologyFTTP, offer.Technology)
	assert.Equal(t, domain.SpeedRange{Min: 0, Max: 330}, offer.DownloadMbps)
	assert.Equal(t, domain.SpeedRange{Min: 0, Max: 50}, offer.UploadMbps)
}

func TestNormalize_ADSLSyntheticUpload(t *testing.T) {
	quote := domain.RawQuote{
		Technology:              "adsl",
		ProductName:             "Standard Broadband",
		MonthlyCost:             20,
		TermMonths:              12,
		MaxDownstreamSpeedValue: fptr(24000),
	}

	offer := Normalize("its", quote)

	assert.Equal(t, domain.TechnologyADSL, offer.Technology)
	assert.Equal(t, domain.SpeedRange{Min: 0, Max: 24}, offer.DownloadMbps)
	assert.Equal(t, domain.SpeedRange{Min: 0, Max: 1}, offer.UploadMbps, "absent ADSL upload gets the 1 Mbps convention")
}

func TestNormalize_ADSLKeepsProvidedUpload(t *testing.T) {
	quote := domain.RawQuote{
		Technology:              "ADSL",
		MaxDownstreamSpeedValue: fptr(24000),
		MaxUpstreamSpeedValue:   fptr(1300),
	}

	offer := Normalize("its", quote)

	assert.Equal(t, 1.3, offer.UploadMbps.Max, "a real upload figure wins over the synthetic floor")
}

func TestNormalize_UnknownTechnologyAbsentSpeedsAreZero(t *testing.T) {
	quote := domain.RawQuote{
		Technology:  "carrier-pigeon",
		ProductName: "Mystery Product",
		MonthlyCost: 99,
	}

	offer := Normalize("its", quote)

	assert.Equal(t, domain.TechnologyUnknown, offer.Technology)
	assert.Equal(t, domain.SpeedRange{}, offer.DownloadMbps)
	assert.Equal(t, domain.SpeedRange{}, offer.UploadMbps)
}

func TestNormalize_CaseInsensitiveTechnology(t *testing.T) {
	for _, raw := range []string{"fttc", "FTTC", "Fttc"} {
		offer := Normalize("its", domain.RawQuote{Technology: raw})
		assert.Equal(t, domain.TechnologyFTTC, offer.Technology, raw)
	}
}

func TestNormalize_MissingInstallCostIsZero(t *testing.T) {
	assert.Zero(t, Normalize("its", domain.RawQuote{Technology: "FTTC"}).InstallCost)

	offer := Normalize("its", domain.RawQuote{Technology: "FTTC", InstallCost: fptr(120)})
	assert.Equal(t, 120.0, offer.InstallCost)
}

func TestNormalize_SupplierOverridesProviderName(t *testing.T) {
	offer := Normalize("zen", domain.RawQuote{Technology: "FTTC", Supplier: "BT Wholesale"})
	assert.Equal(t, "BT Wholesale", offer.Provider)

	offer = Normalize("zen", domain.RawQuote{Technology: "FTTC"})
	assert.Equal(t, "zen", offer.Provider)
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	quotes := []domain.RawQuote{
		{Technology: "FTTC", ProductName: "first"},
		{Technology: "FTTP", ProductName: "second"},
	}

	offers := NormalizeAll("its", quotes)

	assert.Len(t, offers, 2)
	assert.Equal(t, "first", offers[0].ProductName)
	assert.Equal(t, "second", offers[1].ProductName)
}
