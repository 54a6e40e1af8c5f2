package address

import "math"

// Ordnance Survey addresses carry British National Grid eastings and
// northings (OSGB36, Airy 1830 ellipsoid). Providers and the rest of the API
// speak WGS84, so grid references are converted on the way out.

// Airy 1830 ellipsoid and National Grid projection parameters.
const (
	airyA = 6377563.396
	airyB = 6356256.909

	gridScaleFactor = 0.9996012717
	gridOriginLat   = 49.0 * math.Pi / 180
	gridOriginLon   = -2.0 * math.Pi / 180
	gridOriginN     = -100000.0
	gridOriginE     = 400000.0
)

// GRS80 ellipsoid, used by WGS84.
const (
	grs80A = 6378137.000
	grs80B = 6356752.3141
)

// Helmert parameters for OSGB36 to WGS84 (the inverse of the published
// WGS84 to OSGB36 set). Rotations are in radians, scale is unitless.
const (
	helmertTx = 446.448
	helmertTy = -125.157
	helmertTz = 542.060
	helmertS  = -20.4894e-6
	helmertRx = 0.1502 / 3600 * math.Pi / 180
	helmertRy = 0.2470 / 3600 * math.Pi / 180
	helmertRz = 0.8421 / 3600 * math.Pi / 180
)

// GridToLatLon converts a British National Grid easting/northing pair to
// WGS84 latitude and longitude in degrees. Accurate to a few metres, which
// is plenty for address-level work.
func GridToLatLon(easting, northing float64) (lat, lon float64) {
	phi, lambda := gridToOSGB36(easting, northing)
	return osgb36ToWGS84(phi, lambda)
}

// gridToOSGB36 runs the inverse transverse Mercator projection, returning
// latitude and longitude in radians on the Airy 1830 ellipsoid.
func gridToOSGB36(easting, northing float64) (float64, float64) {
	a, b := airyA, airyB
	e2 := (a*a - b*b) / (a * a)
	n := (a - b) / (a + b)

	phi := gridOriginLat
	m := 0.0
	for {
		phi = (northing-gridOriginN-m)/(a*gridScaleFactor) + phi
		m = meridionalArc(phi, n)
		if math.Abs(northing-gridOriginN-m) < 1e-5 {
			break
		}
	}

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	nu := a * gridScaleFactor / math.Sqrt(1-e2*sinPhi*sinPhi)
	rho := a * gridScaleFactor * (1 - e2) / math.Pow(1-e2*sinPhi*sinPhi, 1.5)
	eta2 := nu/rho - 1

	tan2 := tanPhi * tanPhi
	tan4 := tan2 * tan2
	tan6 := tan4 * tan2
	nu3 := nu * nu * nu
	nu5 := nu3 * nu * nu
	nu7 := nu5 * nu * nu

	vii := tanPhi / (2 * rho * nu)
	viii := tanPhi / (24 * rho * nu3) * (5 + 3*tan2 + eta2 - 9*tan2*eta2)
	ix := tanPhi / (720 * rho * nu5) * (61 + 90*tan2 + 45*tan4)
	x := 1 / (cosPhi * nu)
	xi := 1 / (cosPhi * 6 * nu3) * (nu/rho + 2*tan2)
	xii := 1 / (cosPhi * 120 * nu5) * (5 + 28*tan2 + 24*tan4)
	xiia := 1 / (cosPhi * 5040 * nu7) * (61 + 662*tan2 + 1320*tan4 + 720*tan6)

	dE := easting - gridOriginE
	dE2 := dE * dE
	dE3 := dE2 * dE
	dE4 := dE3 * dE
	dE5 := dE4 * dE
	dE6 := dE5 * dE
	dE7 := dE6 * dE

	latRad := phi - vii*dE2 + viii*dE4 - ix*dE6
	lonRad := gridOriginLon + x*dE - xi*dE3 + xii*dE5 - xiia*dE7

	return latRad, lonRad
}

// meridionalArc is the developed arc of the meridian from the grid origin.
func meridionalArc(phi, n float64) float64 {
	n2 := n * n
	n3 := n2 * n
	dPhi := phi - gridOriginLat
	sPhi := phi + gridOriginLat

	return airyB * gridScaleFactor * ((1+n+1.25*n2+1.25*n3)*dPhi -
		(3*n+3*n2+21.0/8.0*n3)*math.Sin(dPhi)*math.Cos(sPhi) +
		(15.0/8.0*n2+15.0/8.0*n3)*math.Sin(2*dPhi)*math.Cos(2*sPhi) -
		35.0/24.0*n3*math.Sin(3*dPhi)*math.Cos(3*sPhi))
}

// osgb36ToWGS84 applies the Helmert transformation and returns degrees.
func osgb36ToWGS84(phi, lambda float64) (float64, float64) {
	// Geodetic to cartesian on Airy 1830, height 0.
	e2 := (airyA*airyA - airyB*airyB) / (airyA * airyA)
	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	nu := airyA / math.Sqrt(1-e2*sinPhi*sinPhi)

	x1 := nu * cosPhi * math.Cos(lambda)
	y1 := nu * cosPhi * math.Sin(lambda)
	z1 := nu * (1 - e2) * sinPhi

	// Helmert transform to the WGS84 frame.
	x2 := helmertTx + (1+helmertS)*x1 - helmertRz*y1 + helmertRy*z1
	y2 := helmertTy + helmertRz*x1 + (1+helmertS)*y1 - helmertRx*z1
	z2 := helmertTz - helmertRy*x1 + helmertRx*y1 + (1+helmertS)*z1

	// Cartesian back to geodetic on GRS80.
	e2w := (grs80A*grs80A - grs80B*grs80B) / (grs80A * grs80A)
	p := math.Sqrt(x2*x2 + y2*y2)

	phiW := math.Atan2(z2, p*(1-e2w))
	for i := 0; i < 10; i++ {
		sinW := math.Sin(phiW)
		nuW := grs80A / math.Sqrt(1-e2w*sinW*sinW)
		phiNext := math.Atan2(z2+e2w*nuW*sinW, p)
		if math.Abs(phiNext-phiW) < 1e-12 {
			phiW = phiNext
			break
		}
		phiW = phiNext
	}
	lambdaW := math.Atan2(y2, x2)

	return phiW * 180 / math.Pi, lambdaW * 180 / math.Pi
}
