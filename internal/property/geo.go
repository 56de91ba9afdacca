package property

import "math"

const earthRadiusKm = 6371.0088

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

// DistanceKm is the haversine great-circle distance between two points.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	phi1, phi2 := toRadians(lat1), toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lng2 - lng1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// BoundsAround returns a rectangle containing every point within radiusKm of
// the center. When the circle reaches a pole or crosses the antimeridian the
// longitude range widens to the whole globe.
func BoundsAround(lat, lng, radiusKm float64) Bounds {
	angular := radiusKm / earthRadiusKm
	dLat := toDegrees(angular)
	b := Bounds{
		MinLat: math.Max(-90, lat-dLat),
		MaxLat: math.Min(90, lat+dLat),
		MinLng: -180,
		MaxLng: 180,
	}
	cosLat := math.Cos(toRadians(lat))
	if math.Sin(angular) >= cosLat {
		return b
	}
	dLng := toDegrees(math.Asin(math.Sin(angular) / cosLat))
	if lng-dLng < -180 || lng+dLng > 180 {
		return b
	}
	b.MinLng = lng - dLng
	b.MaxLng = lng + dLng
	return b
}
