package geoservices

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// ErrInvalidEnvelope is returned for geometry strings that are neither
// "xmin,ymin,xmax,ymax" nor an envelope JSON object.
var ErrInvalidEnvelope = eris.New("geoservices: invalid envelope")

// Well-known IDs for the spatial references an envelope may carry.
const (
	WKIDWebMercator       = 3857
	WKIDWebMercatorLegacy = 102100
	WKIDWGS84             = 4326
)

const earthRadiusMeters = 6378137.0

// Envelope is an axis-aligned bounding box. Ordering of min and max is not
// checked; callers get whatever the client sent.
type Envelope struct {
	*geom.Bounds
	WKID int
}

// NewEnvelope builds a Web Mercator envelope.
func NewEnvelope(xmin, ymin, xmax, ymax float64) Envelope {
	return Envelope{
		Bounds: geom.NewBounds(geom.XY).Set(xmin, ymin, xmax, ymax),
		WKID:   WKIDWebMercator,
	}
}

func (e Envelope) XMin() float64 { return e.Min(0) }
func (e Envelope) YMin() float64 { return e.Min(1) }
func (e Envelope) XMax() float64 { return e.Max(0) }
func (e Envelope) YMax() float64 { return e.Max(1) }

type envelopeJSON struct {
	XMin             *float64 `json:"xmin"`
	YMin             *float64 `json:"ymin"`
	XMax             *float64 `json:"xmax"`
	YMax             *float64 `json:"ymax"`
	SpatialReference *struct {
		WKID       int `json:"wkid"`
		LatestWKID int `json:"latestWkid"`
	} `json:"spatialReference"`
}

// ParseEnvelope accepts either the short "xmin,ymin,xmax,ymax" form or the
// full JSON envelope object.
func ParseEnvelope(raw string) (Envelope, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		return parseEnvelopeJSON(raw)
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return Envelope{}, eris.Wrapf(ErrInvalidEnvelope, "expected 4 values, got %d", len(parts))
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Envelope{}, eris.Wrapf(ErrInvalidEnvelope, "value %d %q is not a number", i, part)
		}
		v[i] = f
	}
	return NewEnvelope(v[0], v[1], v[2], v[3]), nil
}

func parseEnvelopeJSON(raw string) (Envelope, error) {
	var ej envelopeJSON
	if err := json.Unmarshal([]byte(raw), &ej); err != nil {
		return Envelope{}, eris.Wrap(ErrInvalidEnvelope, err.Error())
	}
	if ej.XMin == nil || ej.YMin == nil || ej.XMax == nil || ej.YMax == nil {
		return Envelope{}, eris.Wrap(ErrInvalidEnvelope, "missing xmin/ymin/xmax/ymax")
	}

	env := NewEnvelope(*ej.XMin, *ej.YMin, *ej.XMax, *ej.YMax)
	if sr := ej.SpatialReference; sr != nil {
		switch {
		case sr.LatestWKID != 0:
			env.WKID = sr.LatestWKID
		case sr.WKID != 0:
			env.WKID = sr.WKID
		}
	}
	return env, nil
}

// Geographic reports whether the envelope is already in longitude/latitude.
func (e Envelope) Geographic() bool {
	return e.WKID == WKIDWGS84
}

// Center returns the midpoint of the envelope in its own units.
func (e Envelope) Center() geom.Coord {
	return geom.Coord{(e.XMin() + e.XMax()) / 2, (e.YMin() + e.YMax()) / 2}
}

// CenterLonLat returns the envelope midpoint as WGS84 longitude, latitude.
func (e Envelope) CenterLonLat() geom.Coord {
	return e.toLonLat(e.Center())
}

// SouthWestLonLat returns the (xmin, ymin) corner as WGS84 longitude, latitude.
func (e Envelope) SouthWestLonLat() geom.Coord {
	return e.toLonLat(geom.Coord{e.XMin(), e.YMin()})
}

// NorthEastLonLat returns the (xmax, ymax) corner as WGS84 longitude, latitude.
func (e Envelope) NorthEastLonLat() geom.Coord {
	return e.toLonLat(geom.Coord{e.XMax(), e.YMax()})
}

func (e Envelope) toLonLat(c geom.Coord) geom.Coord {
	if e.Geographic() {
		return c
	}
	return MercatorToLonLat(c)
}

// HalfDiagonal is the distance from the center to any corner in Web Mercator
// meters. Geographic envelopes are projected first.
func (e Envelope) HalfDiagonal() float64 {
	minC, maxC := geom.Coord{e.XMin(), e.YMin()}, geom.Coord{e.XMax(), e.YMax()}
	if e.Geographic() {
		minC, maxC = LonLatToMercator(minC), LonLatToMercator(maxC)
	}
	return math.Hypot(maxC.X()-minC.X(), maxC.Y()-minC.Y()) / 2
}

// SplitY cuts the envelope at its vertical midpoint and returns the bottom
// and top halves.
func (e Envelope) SplitY() (bottom, top Envelope) {
	mid := (e.YMin() + e.YMax()) / 2
	bottom = NewEnvelope(e.XMin(), e.YMin(), e.XMax(), mid)
	top = NewEnvelope(e.XMin(), mid, e.XMax(), e.YMax())
	bottom.WKID, top.WKID = e.WKID, e.WKID
	return bottom, top
}

// MercatorToLonLat converts a spherical Web Mercator coordinate (meters) to
// WGS84 degrees.
func MercatorToLonLat(c geom.Coord) geom.Coord {
	lon := c.X() / earthRadiusMeters * 180 / math.Pi
	lat := (2*math.Atan(math.Exp(c.Y()/earthRadiusMeters)) - math.Pi/2) * 180 / math.Pi
	return geom.Coord{lon, lat}
}

// LonLatToMercator is the inverse of MercatorToLonLat.
func LonLatToMercator(c geom.Coord) geom.Coord {
	x := c.X() * math.Pi / 180 * earthRadiusMeters
	y := math.Log(math.Tan(math.Pi/4+c.Y()*math.Pi/360)) * earthRadiusMeters
	return geom.Coord{x, y}
}
