package domain

// Address is one deliverable address returned by a postcode lookup, with
// coordinates already converted to WGS84 so provider searches can use them
// directly.
type Address struct {
	UPRN      string  `json:"uprn,omitempty"`
	Line1     string  `json:"line1"`
	Town      string  `json:"town"`
	County    string  `json:"county,omitempty"`
	Postcode  string  `json:"postcode"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
