package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGridToLatLon(t *testing.T) {
	tests := []struct {
		name     string
		easting  float64
		northing float64
		wantLat  float64
		wantLon  float64
	}{
		{
			// OS worked example: Caister water tower.
			name:     "caister",
			easting:  651409.903,
			northing: 313177.270,
			wantLat:  52.658007,
			wantLon:  1.716073,
		},
		{
			name:     "buckingham palace",
			easting:  529090,
			northing: 179645,
			wantLat:  51.5014,
			wantLon:  -0.1419,
		},
		{
			name:     "edinburgh castle",
			easting:  325153,
			northing: 673524,
			wantLat:  55.9486,
			wantLon:  -3.1999,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon := GridToLatLon(tt.easting, tt.northing)
			// Within roughly 100m: the single Helmert transformation is only
			// accurate to a few metres and the reference points are rounded.
			assert.InDelta(t, tt.wantLat, lat, 0.001)
			assert.InDelta(t, tt.wantLon, lon, 0.001)
		})
	}
}
