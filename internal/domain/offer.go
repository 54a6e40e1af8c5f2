package domain

import "strings"

// Technology is the common access-technology taxonomy that all provider
// quotes are normalized into.
type Technology string

const (
	TechnologyADSL     Technology = "ADSL"
	TechnologyFTTC     Technology = "FTTC"
	TechnologyFTTP     Technology = "FTTP"
	TechnologySOGEA    Technology = "SOGEA"
	TechnologyGFAST    Technology = "GFAST"
	TechnologyEthernet Technology = "ETHERNET"
	TechnologyUnknown  Technology = "UNKNOWN"
)

// knownTechnologies maps upper-cased provider technology codes to the common
// taxonomy. Codes vary per wholesaler ("G.fast", "EoFTTC", "Fibre Ethernet"),
// so aliases live here rather than in per-provider branching.
var knownTechnologies = map[string]Technology{
	"ADSL":           TechnologyADSL,
	"ADSL2+":         TechnologyADSL,
	"FTTC":           TechnologyFTTC,
	"VDSL":           TechnologyFTTC,
	"FTTP":           TechnologyFTTP,
	"SOGEA":          TechnologySOGEA,
	"GFAST":          TechnologyGFAST,
	"G.FAST":         TechnologyGFAST,
	"ETHERNET":       TechnologyEthernet,
	"FIBRE ETHERNET": TechnologyEthernet,
	"EOFTTC":         TechnologyEthernet,
}

// ParseTechnology maps a provider technology code to the common taxonomy.
// Matching is case-insensitive; unknown codes map to TechnologyUnknown
// rather than failing, so a new wholesaler product never breaks a review.
func ParseTechnology(code string) Technology {
	if t, ok := knownTechnologies[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return t
	}
	return TechnologyUnknown
}

// SpeedRange is a download or upload speed band in Mbps.
type SpeedRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ServiceOffer is one priced, normalized service a provider can deliver at an
// address. It is the unit the opportunity analysis compares. Immutable once
// produced.
type ServiceOffer struct {
	Provider     string     `json:"provider"`
	ProductName  string     `json:"product_name"`
	Technology   Technology `json:"technology"`
	DownloadMbps SpeedRange `json:"download_mbps"`
	UploadMbps   SpeedRange `json:"upload_mbps"`
	MonthlyCost  float64    `json:"monthly_cost"`
	InstallCost  float64    `json:"install_cost"`
	TermMonths   int        `json:"term_months"`
}

// CurrentConnection describes what the customer is paying for today.
// Supplied by the caller, never derived.
type CurrentConnection struct {
	Technology  Technology `json:"technology"`
	SpeedMbps   float64    `json:"speed_mbps"`
	MonthlyCost float64    `json:"monthly_cost"`
	TermMonths  int        `json:"term_months"`
}

// Opportunity kinds.
const (
	OpportunityCostSaving   = "cost_saving"
	OpportunitySpeedUpgrade = "speed_upgrade"
)

// Opportunity is a single recommendation derived from comparing a normalized
// offer against the customer's current connection. Recomputed on every
// analysis, never persisted on its own.
type Opportunity struct {
	Kind                 string            `json:"kind"`
	Offer                ServiceOffer      `json:"offer"`
	Current              CurrentConnection `json:"current"`
	MonthlySaving        float64           `json:"monthly_saving,omitempty"`
	AnnualSaving         float64           `json:"annual_saving,omitempty"`
	SpeedIncreasePercent float64           `json:"speed_increase_percent,omitempty"`
}
