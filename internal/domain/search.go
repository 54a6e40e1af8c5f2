package domain

import "time"

// ConnectionSpec is one requested connection in a search: the bearer tier the
// line is provisioned against and the desired speed.
type ConnectionSpec struct {
	Bearer    int     `json:"bearer"`
	SpeedMbps float64 `json:"speedMbps"`
}

// SearchRequest identifies one asynchronous availability search at a
// wholesaler. Immutable once submitted.
type SearchRequest struct {
	Postcode     string           `json:"postcode"`
	AddressLine1 string           `json:"addressLine1"`
	Town         string           `json:"town"`
	County       string           `json:"county,omitempty"`
	Latitude     float64          `json:"latitude,omitempty"`
	Longitude    float64          `json:"longitude,omitempty"`
	Connections  []ConnectionSpec `json:"connections"`
	TermMonths   []int            `json:"termMonths"`
}

// Job lifecycle states. A job never mutates after reaching a terminal state.
type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobComplete JobStatus = "complete"
	JobFailed   JobStatus = "failed"
)

// SearchJob is the handle a provider returns for an asynchronous search.
type SearchJob struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// RawQuote is one un-normalized quote as a provider returns it. Speed values
// are in kbps and min/max fields are omitted for technologies that have no
// meaningful bound, which is why they are pointers.
type RawQuote struct {
	Technology  string   `json:"technology"`
	ProductName string   `json:"productName"`
	Supplier    string   `json:"supplier,omitempty"`
	MonthlyCost float64  `json:"monthlyCost"`
	InstallCost *float64 `json:"installCost,omitempty"`
	TermMonths  int      `json:"term"`

	MinDownstreamSpeedValue *float64 `json:"minDownstreamSpeedValue,omitempty"`
	MaxDownstreamSpeedValue *float64 `json:"maxDownstreamSpeedValue,omitempty"`
	MinUpstreamSpeedValue   *float64 `json:"minUpstreamSpeedValue,omitempty"`
	MaxUpstreamSpeedValue   *float64 `json:"maxUpstreamSpeedValue,omitempty"`
}
