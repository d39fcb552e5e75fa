// Package query translates GeoServices query parameters into Yelp searches.
package query

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/yelp-featureserver/internal/geoservices"
	"github.com/sells-group/yelp-featureserver/pkg/yelp"
)

// ErrInvalidGeometry means the request carried a geometry that could not be
// read as an envelope. Nothing should be sent upstream.
var ErrInvalidGeometry = eris.New("query: invalid geometry")

// MaxRadius is the largest search radius, in meters, the Yelp API accepts.
const MaxRadius = 40000

// Options configures a Builder.
type Options struct {
	Version         yelp.Version
	DefaultLocation string
	PageSize        int
	MaxRadius       int
	SplitGeometry   bool
	Paginate        bool
}

// DefaultOptions mirrors the v3 Fusion API limits.
func DefaultOptions() Options {
	return Options{
		Version:         yelp.V3,
		DefaultLocation: "St. Louis, MO",
		PageSize:        50,
		MaxRadius:       MaxRadius,
	}
}

// LegacyOptions mirrors the v2 search API limits.
func LegacyOptions() Options {
	return Options{
		Version:         yelp.V2,
		DefaultLocation: "Washington, DC",
		PageSize:        20,
		MaxRadius:       MaxRadius,
	}
}

// Builder maps inbound params to one or more upstream queries.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder, filling zero options from the defaults of the
// selected API version.
func NewBuilder(opts Options) *Builder {
	def := DefaultOptions()
	if opts.Version == yelp.V2 {
		def = LegacyOptions()
	}
	if opts.Version == "" {
		opts.Version = def.Version
	}
	if opts.DefaultLocation == "" {
		opts.DefaultLocation = def.DefaultLocation
	}
	if opts.PageSize <= 0 {
		opts.PageSize = def.PageSize
	}
	if opts.MaxRadius <= 0 {
		opts.MaxRadius = def.MaxRadius
	}
	return &Builder{opts: opts}
}

// Options returns the effective options.
func (b *Builder) Options() Options {
	return b.opts
}

// Build produces the single upstream query for p.
func (b *Builder) Build(p geoservices.Params) (yelp.Query, error) {
	p = p.Without(geoservices.ParamCallback)

	env, err := b.envelope(p)
	if err != nil {
		return yelp.Query{}, err
	}
	return b.build(p, env), nil
}

// BuildAll produces every upstream query needed for p: the envelope halves
// when splitting is enabled, and a second page of each when paginating.
func (b *Builder) BuildAll(p geoservices.Params) ([]yelp.Query, error) {
	p = p.Without(geoservices.ParamCallback)

	env, err := b.envelope(p)
	if err != nil {
		return nil, err
	}

	var queries []yelp.Query
	if env != nil && b.opts.SplitGeometry {
		bottom, top := env.SplitY()
		queries = append(queries, b.build(p, &bottom), b.build(p, &top))
	} else {
		queries = append(queries, b.build(p, env))
	}

	if b.opts.Paginate {
		for _, q := range queries {
			next := q
			next.Offset = q.Offset + q.Limit
			queries = append(queries, next)
		}
	}

	return queries, nil
}

func (b *Builder) build(p geoservices.Params, env *geoservices.Envelope) yelp.Query {
	q := yelp.Query{Limit: b.opts.PageSize}

	switch {
	case env != nil && b.opts.Version == yelp.V2:
		q.Bounds = Bounds(*env)
	case env != nil:
		center := env.CenterLonLat()
		q.Center = &yelp.Coordinates{Longitude: center.X(), Latitude: center.Y()}
		q.Radius = Radius(*env, b.opts.MaxRadius)
	case p.Has(geoservices.ParamLocation):
		q.Location = p.Get(geoservices.ParamLocation)
	default:
		q.Location = b.opts.DefaultLocation
	}

	q.Term = Term(p.Get(geoservices.ParamWhere))

	if b.opts.Version == yelp.V2 {
		mode := LegacySort(p.Get(geoservices.ParamOrderByFields), q.Term)
		q.Sort = &mode
	} else if sort, ok := Sort(p.Get(geoservices.ParamOrderByFields)); ok {
		q.SortBy = sort
	}

	return q
}

// envelope returns nil when the request carries no envelope to search in.
// v3 ignores geometries of any other type so the query falls back to the
// location; v2 reads every geometry as an envelope.
func (b *Builder) envelope(p geoservices.Params) (*geoservices.Envelope, error) {
	if !p.Has(geoservices.ParamGeometry) {
		return nil, nil
	}

	gt := p.Get(geoservices.ParamGeometryType)
	if b.opts.Version != yelp.V2 && gt != "" && gt != geoservices.GeometryTypeEnvelope {
		zap.L().Debug("query: ignoring non-envelope geometry", zap.String("geometry_type", gt))
		return nil, nil
	}

	env, err := geoservices.ParseEnvelope(p.Get(geoservices.ParamGeometry))
	if err != nil {
		zap.L().Debug("query: rejecting geometry", zap.String("geometry", p.Get(geoservices.ParamGeometry)), zap.Error(err))
		return nil, eris.Wrap(ErrInvalidGeometry, err.Error())
	}
	return &env, nil
}

// Radius is the center-to-corner distance of env rounded to whole meters and
// clamped to max.
func Radius(env geoservices.Envelope, max int) int {
	r := int(math.Round(env.HalfDiagonal()))
	if r > max {
		zap.L().Warn("query: radius larger than the Yelp API allows, clamping",
			zap.Int("radius", r),
			zap.Int("max", max),
		)
		return max
	}
	return r
}

// Bounds formats env as the v2 "sw_lat,sw_lon|ne_lat,ne_lon" string.
func Bounds(env geoservices.Envelope) string {
	sw := env.SouthWestLonLat()
	ne := env.NorthEastLonLat()
	return formatLatLon(sw.Y(), sw.X()) + "|" + formatLatLon(ne.Y(), ne.X())
}
