// Package polyline provides encoding, decoding, and measurement utilities
// for Google's encoded polyline format (precision 5), plus the along-route
// projection helpers the trip planner uses to place charging stations on a
// route.
package polyline

import (
	"math"
)

// Coordinate represents a geographic point with latitude and longitude.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Decode decodes a polyline-encoded string into a slice of coordinates.
func Decode(encoded string) []Coordinate {
	if encoded == "" {
		return nil
	}

	var coords []Coordinate
	var lat, lon int
	idx := 0

	for idx < len(encoded) {
		latDelta, next := decodeDelta(encoded, idx)
		idx = next
		lat += latDelta

		lonDelta, next := decodeDelta(encoded, idx)
		idx = next
		lon += lonDelta

		coords = append(coords, Coordinate{
			Lat: float64(lat) / 1e5,
			Lon: float64(lon) / 1e5,
		})
	}

	return coords
}

// decodeDelta decodes a single zigzag-encoded delta starting at idx.
// Returns the delta and the index of the next unread byte.
func decodeDelta(encoded string, idx int) (int, int) {
	var result, shift int

	for idx < len(encoded) {
		b := int(encoded[idx]) - 63
		idx++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), idx
	}
	return result >> 1, idx
}

// Encode encodes a slice of coordinates into a polyline string.
func Encode(coords []Coordinate) string {
	if len(coords) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(coords)*4)
	var prevLat, prevLon int

	for _, c := range coords {
		lat := int(math.Round(c.Lat * 1e5))
		lon := int(math.Round(c.Lon * 1e5))

		buf = appendDelta(buf, lat-prevLat)
		buf = appendDelta(buf, lon-prevLon)

		prevLat = lat
		prevLon = lon
	}

	return string(buf)
}

// appendDelta appends one zigzag-encoded delta to the buffer.
func appendDelta(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}

const earthRadiusKm = 6371.0

// LengthKm returns the total length of the polyline in kilometers.
func LengthKm(coords []Coordinate) float64 {
	if len(coords) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(coords); i++ {
		total += haversineKm(coords[i-1], coords[i])
	}
	return total
}

// Sample returns coordinates spaced approximately intervalKm apart along
// the polyline. The first and last points are always included.
func Sample(coords []Coordinate, intervalKm float64) []Coordinate {
	if len(coords) == 0 {
		return nil
	}
	if intervalKm <= 0 {
		return coords
	}

	sampled := []Coordinate{coords[0]}
	carried := 0.0

	for i := 1; i < len(coords); i++ {
		segment := haversineKm(coords[i-1], coords[i])

		for carried+segment >= intervalKm {
			needed := intervalKm - carried
			frac := needed / segment
			sampled = append(sampled, Coordinate{
				Lat: coords[i-1].Lat + frac*(coords[i].Lat-coords[i-1].Lat),
				Lon: coords[i-1].Lon + frac*(coords[i].Lon-coords[i-1].Lon),
			})
			segment -= needed
			carried = 0
		}

		carried += segment
	}

	last := coords[len(coords)-1]
	if sampled[len(sampled)-1] != last {
		sampled = append(sampled, last)
	}

	return sampled
}

// PointAtKm returns the point at the given distance from the start of the
// polyline, interpolated within the containing segment. Distances past the
// end clamp to the last point.
func PointAtKm(coords []Coordinate, km float64) Coordinate {
	if len(coords) == 0 {
		return Coordinate{}
	}
	if km <= 0 {
		return coords[0]
	}

	var covered float64
	for i := 1; i < len(coords); i++ {
		segment := haversineKm(coords[i-1], coords[i])
		if covered+segment >= km {
			frac := 0.0
			if segment > 0 {
				frac = (km - covered) / segment
			}
			return Coordinate{
				Lat: coords[i-1].Lat + frac*(coords[i].Lat-coords[i-1].Lat),
				Lon: coords[i-1].Lon + frac*(coords[i].Lon-coords[i-1].Lon),
			}
		}
		covered += segment
	}

	return coords[len(coords)-1]
}

// ProjectKm projects a point onto the polyline and returns the route offset
// of the closest position (kilometers from the start) together with the
// lateral distance from the point to the route. Projection is per segment
// on a local equirectangular plane, which is accurate at corridor scale.
func ProjectKm(coords []Coordinate, p Coordinate) (offsetKm, lateralKm float64) {
	if len(coords) == 0 {
		return 0, math.Inf(1)
	}
	if len(coords) == 1 {
		return 0, haversineKm(coords[0], p)
	}

	bestLateral := math.Inf(1)
	bestOffset := 0.0
	var covered float64

	for i := 1; i < len(coords); i++ {
		a, b := coords[i-1], coords[i]
		segment := haversineKm(a, b)

		t, dist := projectOnSegment(a, b, p)
		if dist < bestLateral {
			bestLateral = dist
			bestOffset = covered + t*segment
		}

		covered += segment
	}

	return bestOffset, bestLateral
}

// projectOnSegment returns the clamped projection parameter t in [0, 1] of
// p onto segment a-b and the distance from p to that projection.
func projectOnSegment(a, b, p Coordinate) (t, distKm float64) {
	// Local planar approximation around a.
	cosLat := math.Cos(a.Lat * math.Pi / 180)
	bx := (b.Lon - a.Lon) * cosLat
	by := b.Lat - a.Lat
	px := (p.Lon - a.Lon) * cosLat
	py := p.Lat - a.Lat

	lenSq := bx*bx + by*by
	if lenSq == 0 {
		return 0, haversineKm(a, p)
	}

	t = (px*bx + py*by) / lenSq
	t = math.Max(0, math.Min(1, t))

	proj := Coordinate{
		Lat: a.Lat + t*(b.Lat-a.Lat),
		Lon: a.Lon + t*(b.Lon-a.Lon),
	}
	return t, haversineKm(proj, p)
}

func haversineKm(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
