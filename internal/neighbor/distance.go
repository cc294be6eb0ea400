// Package neighbor computes distance-decayed influence from nearby areas.
package neighbor

import "math"

// earthRadiusKM is the mean Earth radius used by the haversine formula.
const earthRadiusKM = 6371.0

// DegreesPerKM approximates latitude degrees per kilometer at mid-latitudes.
const DegreesPerKM = 1.0 / 111.0

// HaversineKM returns the great-circle distance in kilometers between two
// lat/lng points.
func HaversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	const deg2rad = math.Pi / 180

	dLat := (lat2 - lat1) * deg2rad
	dLng := (lng2 - lng1) * deg2rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*deg2rad)*math.Cos(lat2*deg2rad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(a)))
}
