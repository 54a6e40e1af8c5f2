package domain

import "time"

// Site is the customer address a review runs against.
type Site struct {
	Postcode     string  `json:"postcode"`
	AddressLine1 string  `json:"address_line1"`
	Town         string  `json:"town"`
	County       string  `json:"county,omitempty"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
}

// ConnectionReview is the outcome for one of the site's current connections:
// the offers found across providers and the opportunities derived from them.
type ConnectionReview struct {
	Current       CurrentConnection `json:"current"`
	Offers        []ServiceOffer    `json:"offers"`
	Opportunities []Opportunity     `json:"opportunities"`
}

// Review is one completed technology review for a site.
type Review struct {
	ID          string             `json:"id"`
	Site        Site               `json:"site"`
	Connections []ConnectionReview `json:"connections"`
	CreatedAt   time.Time          `json:"created_at"`
}

// TotalAnnualSaving sums the annual saving across every cost-saving
// opportunity in the review.
func (r *Review) TotalAnnualSaving() float64 {
	var total float64
	for _, c := range r.Connections {
		for _, o := range c.Opportunities {
			if o.Kind == OpportunityCostSaving {
				total += o.AnnualSaving
			}
		}
	}
	return total
}
