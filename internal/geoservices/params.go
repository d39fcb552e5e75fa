// Package geoservices models the inbound side of a GeoServices FeatureServer
// query: its request parameters and envelope geometries.
package geoservices

import (
	"net/url"
	"strings"
)

// Parameter names understood by the query pipeline.
const (
	ParamGeometry        = "geometry"
	ParamGeometryType    = "geometryType"
	ParamLocation        = "location"
	ParamWhere           = "where"
	ParamOrderByFields   = "orderByFields"
	ParamReturnCountOnly = "returnCountOnly"
	ParamCallback        = "callback"
)

// GeometryTypeEnvelope is the geometryType of a bounding-box query.
const GeometryTypeEnvelope = "esriGeometryEnvelope"

// Params is the flattened set of query parameters from one request.
type Params map[string]string

// FromValues takes the first value of every key.
func FromValues(v url.Values) Params {
	p := make(Params, len(v))
	for k, vals := range v {
		if len(vals) > 0 {
			p[k] = vals[0]
		}
	}
	return p
}

// Get returns the trimmed value for key, or "".
func (p Params) Get(key string) string {
	return strings.TrimSpace(p[key])
}

// Has reports whether key carries a non-blank value.
func (p Params) Has(key string) bool {
	return p.Get(key) != ""
}

// Bool interprets key as a GeoServices boolean flag ("true" or "1").
func (p Params) Bool(key string) bool {
	switch strings.ToLower(p.Get(key)) {
	case "true", "1":
		return true
	}
	return false
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Without returns a copy with the given keys removed. p is left untouched.
func (p Params) Without(keys ...string) Params {
	c := p.Clone()
	for _, k := range keys {
		delete(c, k)
	}
	return c
}
