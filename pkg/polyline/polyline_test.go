package polyline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargeroute/chargeroute/pkg/polyline"
)

// manilaToBaguio is a coarse trace of the NLEX/TPLEX corridor.
func manilaToBaguio() []polyline.Coordinate {
	return []polyline.Coordinate{
		{Lat: 14.5995, Lon: 120.9842}, // Manila
		{Lat: 14.8433, Lon: 120.8114}, // Marilao
		{Lat: 15.0794, Lon: 120.6200}, // San Fernando
		{Lat: 15.4817, Lon: 120.5979}, // Tarlac City
		{Lat: 15.9285, Lon: 120.5739}, // Urdaneta
		{Lat: 16.1575, Lon: 120.5887}, // Rosario exit
		{Lat: 16.4023, Lon: 120.5960}, // Baguio
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	coords := manilaToBaguio()

	encoded := polyline.Encode(coords)
	require.NotEmpty(t, encoded)

	decoded := polyline.Decode(encoded)
	require.Len(t, decoded, len(coords))

	for i := range coords {
		assert.InDelta(t, coords[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, coords[i].Lon, decoded[i].Lon, 1e-5)
	}
}

func TestDecode_KnownValue(t *testing.T) {
	// Example from the polyline algorithm documentation.
	coords := polyline.Decode("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.Len(t, coords, 3)
	assert.InDelta(t, 38.5, coords[0].Lat, 1e-5)
	assert.InDelta(t, -120.2, coords[0].Lon, 1e-5)
	assert.InDelta(t, 43.252, coords[2].Lat, 1e-5)
	assert.InDelta(t, -126.453, coords[2].Lon, 1e-5)
}

func TestDecode_Empty(t *testing.T) {
	assert.Nil(t, polyline.Decode(""))
	assert.Empty(t, polyline.Encode(nil))
}

func TestLengthKm(t *testing.T) {
	coords := manilaToBaguio()

	length := polyline.LengthKm(coords)
	// Straight-line corridor length is roughly 210-230 km.
	assert.Greater(t, length, 200.0)
	assert.Less(t, length, 250.0)

	assert.Equal(t, 0.0, polyline.LengthKm(nil))
	assert.Equal(t, 0.0, polyline.LengthKm(coords[:1]))
}

func TestSample(t *testing.T) {
	coords := manilaToBaguio()

	sampled := polyline.Sample(coords, 10)
	require.NotEmpty(t, sampled)

	// Endpoints preserved.
	assert.Equal(t, coords[0], sampled[0])
	assert.Equal(t, coords[len(coords)-1], sampled[len(sampled)-1])

	// Roughly one point per 10 km.
	length := polyline.LengthKm(coords)
	assert.InDelta(t, length/10, float64(len(sampled)), 3)

	// Non-positive interval returns the input unchanged.
	assert.Equal(t, coords, polyline.Sample(coords, 0))
}

func TestPointAtKm(t *testing.T) {
	coords := manilaToBaguio()
	length := polyline.LengthKm(coords)

	// Start and end clamp.
	assert.Equal(t, coords[0], polyline.PointAtKm(coords, -1))
	assert.Equal(t, coords[len(coords)-1], polyline.PointAtKm(coords, length+100))

	// A midpoint lies between the endpoints' latitudes.
	mid := polyline.PointAtKm(coords, length/2)
	assert.Greater(t, mid.Lat, coords[0].Lat)
	assert.Less(t, mid.Lat, coords[len(coords)-1].Lat)
}

func TestProjectKm(t *testing.T) {
	coords := manilaToBaguio()

	t.Run("vertex projects to its own offset", func(t *testing.T) {
		// Tarlac City is the fourth vertex.
		wantOffset := polyline.LengthKm(coords[:4])
		offset, lateral := polyline.ProjectKm(coords, coords[3])
		assert.InDelta(t, wantOffset, offset, 0.5)
		assert.InDelta(t, 0, lateral, 0.1)
	})

	t.Run("off-route point reports lateral distance", func(t *testing.T) {
		// Cabanatuan sits well east of the corridor.
		_, lateral := polyline.ProjectKm(coords, polyline.Coordinate{Lat: 15.4860, Lon: 120.9730})
		assert.Greater(t, lateral, 20.0)
	})

	t.Run("offsets increase along the route", func(t *testing.T) {
		early, _ := polyline.ProjectKm(coords, coords[1])
		late, _ := polyline.ProjectKm(coords, coords[5])
		assert.Less(t, early, late)
	})
}
