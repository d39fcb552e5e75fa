package geoservices

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestParseEnvelope_ShortForm(t *testing.T) {
	env, err := ParseEnvelope("-10047255.2, 4661817.9 ,-10028010.8,4676393.4")
	require.NoError(t, err)

	assert.InDelta(t, -10047255.2, env.XMin(), 1e-6)
	assert.InDelta(t, 4661817.9, env.YMin(), 1e-6)
	assert.InDelta(t, -10028010.8, env.XMax(), 1e-6)
	assert.InDelta(t, 4676393.4, env.YMax(), 1e-6)
	assert.Equal(t, WKIDWebMercator, env.WKID)
}

func TestParseEnvelope_JSONForm(t *testing.T) {
	raw := `{"xmin":-10047255.2,"ymin":4661817.9,"xmax":-10028010.8,"ymax":4676393.4,"spatialReference":{"wkid":102100,"latestWkid":3857}}`
	env, err := ParseEnvelope(raw)
	require.NoError(t, err)

	assert.InDelta(t, -10047255.2, env.XMin(), 1e-6)
	assert.InDelta(t, 4676393.4, env.YMax(), 1e-6)
	assert.Equal(t, 3857, env.WKID)
	assert.False(t, env.Geographic())
}

func TestParseEnvelope_JSONGeographic(t *testing.T) {
	env, err := ParseEnvelope(`{"xmin":-90.3,"ymin":38.5,"xmax":-90.1,"ymax":38.7,"spatialReference":{"wkid":4326}}`)
	require.NoError(t, err)

	require.True(t, env.Geographic())
	c := env.CenterLonLat()
	assert.InDelta(t, -90.2, c.X(), 1e-9)
	assert.InDelta(t, 38.6, c.Y(), 1e-9)
}

func TestParseEnvelope_ZeroCoordinateAllowed(t *testing.T) {
	env, err := ParseEnvelope(`{"xmin":0,"ymin":0,"xmax":1000,"ymax":1000}`)
	require.NoError(t, err)
	assert.InDelta(t, 0, env.XMin(), 1e-9)
}

func TestParseEnvelope_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"three values":  "1,2,3",
		"five values":   "1,2,3,4,5",
		"not a number":  "1,2,abc,4",
		"nan":           "1,2,NaN,4",
		"bad json":      `{"xmin":`,
		"missing key":   `{"xmin":1,"ymin":2,"xmax":3}`,
		"string values": `{"xmin":"a","ymin":2,"xmax":3,"ymax":4}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEnvelope(raw)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidEnvelope))
		})
	}
}

func TestCenterLonLat_IsReprojectedMidpoint(t *testing.T) {
	boxes := [][4]float64{
		{-1000, -1000, 1000, 1000},
		{-10047255.2, 4661817.9, -10028010.8, 4676393.4},
		{13000000, -4000000, 13100000, -3900000},
	}
	for _, b := range boxes {
		env := NewEnvelope(b[0], b[1], b[2], b[3])
		want := MercatorToLonLat(geom.Coord{(b[0] + b[2]) / 2, (b[1] + b[3]) / 2})
		got := env.CenterLonLat()
		assert.InDelta(t, want.X(), got.X(), 1e-12)
		assert.InDelta(t, want.Y(), got.Y(), 1e-12)
	}
}

func TestMercatorToLonLat_KnownPoints(t *testing.T) {
	origin := MercatorToLonLat(geom.Coord{0, 0})
	assert.InDelta(t, 0, origin.X(), 1e-12)
	assert.InDelta(t, 0, origin.Y(), 1e-12)

	// Edge of the Web Mercator square.
	corner := MercatorToLonLat(geom.Coord{20037508.342789244, 20037508.342789244})
	assert.InDelta(t, 180, corner.X(), 1e-9)
	assert.InDelta(t, 85.0511287798, corner.Y(), 1e-9)
}

func TestMercatorRoundTrip(t *testing.T) {
	in := geom.Coord{-90.22400327229, 38.635146597249}
	out := MercatorToLonLat(LonLatToMercator(in))
	assert.InDelta(t, in.X(), out.X(), 1e-9)
	assert.InDelta(t, in.Y(), out.Y(), 1e-9)
}

func TestHalfDiagonal(t *testing.T) {
	env := NewEnvelope(0, 0, 6000, 8000)
	assert.InDelta(t, 5000, env.HalfDiagonal(), 1e-9)
}

func TestHalfDiagonal_GeographicInMeters(t *testing.T) {
	env, err := ParseEnvelope(`{"xmin":-90.3,"ymin":38.5,"xmax":-90.1,"ymax":38.7,"spatialReference":{"wkid":4326}}`)
	require.NoError(t, err)
	assert.InDelta(t, 18077.92, env.HalfDiagonal(), 0.01)

	sw := LonLatToMercator(geom.Coord{-90.3, 38.5})
	ne := LonLatToMercator(geom.Coord{-90.1, 38.7})
	projected := NewEnvelope(sw.X(), sw.Y(), ne.X(), ne.Y())
	assert.InDelta(t, projected.HalfDiagonal(), env.HalfDiagonal(), 1e-6)
}

func TestSplitY(t *testing.T) {
	env := NewEnvelope(0, 0, 100, 50)
	env.WKID = WKIDWebMercatorLegacy

	bottom, top := env.SplitY()

	assert.Equal(t, [4]float64{0, 0, 100, 25}, [4]float64{bottom.XMin(), bottom.YMin(), bottom.XMax(), bottom.YMax()})
	assert.Equal(t, [4]float64{0, 25, 100, 50}, [4]float64{top.XMin(), top.YMin(), top.XMax(), top.YMax()})
	assert.Equal(t, WKIDWebMercatorLegacy, bottom.WKID)
	assert.Equal(t, WKIDWebMercatorLegacy, top.WKID)
	// The receiver is untouched.
	assert.InDelta(t, 50, env.YMax(), 1e-9)
}
