// Package provider answers FeatureServer queries from the Yelp search API.
package provider

import (
	"context"
	"time"

	"github.com/mmcloughlin/geohash"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/yelp-featureserver/internal/geoservices"
	"github.com/sells-group/yelp-featureserver/internal/query"
	"github.com/sells-group/yelp-featureserver/internal/translate"
	"github.com/sells-group/yelp-featureserver/pkg/yelp"
)

// ErrBadRequest marks requests rejected before any upstream call.
var ErrBadRequest = eris.New("provider: bad request")

// Geohash lengths for center queries: logged (~150 m) and as a metric label
// (~1250 km, bounded cardinality).
const (
	cellPrecision       = 7
	metricCellPrecision = 2
)

// DefaultCountThreshold is the largest count ArcGIS clients will fetch in one
// unpaged request.
const DefaultCountThreshold = 1000

// Metadata describes the collection source.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FiltersApplied tells the host which filters have already been applied so it
// does not repeat them.
type FiltersApplied struct {
	Geometry bool `json:"geometry"`
	Where    bool `json:"where"`
	Offset   bool `json:"offset"`
	Limit    bool `json:"limit"`
}

// FeatureCollection is the GeoJSON result of one GetData call.
type FeatureCollection struct {
	Type           string             `json:"type"`
	Features       []*geojson.Feature `json:"features"`
	Metadata       Metadata           `json:"metadata"`
	FiltersApplied FiltersApplied     `json:"filtersApplied"`
	Count          *int               `json:"count,omitempty"`
}

func newCollection(features []*geojson.Feature) *FeatureCollection {
	if features == nil {
		features = []*geojson.Feature{}
	}
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
		Metadata: Metadata{
			Name:        "Yelp",
			Description: "Generated from the Yelp API.",
		},
		// Yelp results are close to the requested area but may spill outside
		// it, so the host still filters by geometry.
		FiltersApplied: FiltersApplied{Where: true},
	}
}

// Option configures a Provider.
type Option func(*Provider)

// WithStagger sets the per-call delay strategy.
func WithStagger(s Stagger) Option {
	return func(p *Provider) {
		p.stagger = s
	}
}

// WithCountThreshold sets the client paging threshold that count-only
// responses must exceed.
func WithCountThreshold(n int) Option {
	return func(p *Provider) {
		p.countThreshold = n
	}
}

// Provider fans GeoServices queries out to Yelp and merges the results.
type Provider struct {
	client         yelp.Client
	builder        *query.Builder
	stagger        Stagger
	countThreshold int
}

// New creates a Provider. The default stagger is a 0.5-2.5s jitter.
func New(client yelp.Client, builder *query.Builder, opts ...Option) *Provider {
	p := &Provider{
		client:         client,
		builder:        builder,
		stagger:        JitterStagger{Min: 500 * time.Millisecond, Max: 2500 * time.Millisecond},
		countThreshold: DefaultCountThreshold,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// GetData answers one FeatureServer query. Count-only requests report a count
// above the client paging threshold so that clients always fall back to
// requesting bounding-box pages.
func (p *Provider) GetData(ctx context.Context, params geoservices.Params) (*FeatureCollection, error) {
	if params.Bool(geoservices.ParamReturnCountOnly) {
		fc := newCollection(nil)
		count := p.countThreshold + 1
		fc.Count = &count
		return fc, nil
	}

	queries, err := p.builder.BuildAll(params)
	if err != nil {
		if eris.Is(err, query.ErrInvalidGeometry) {
			return nil, eris.Wrap(ErrBadRequest, err.Error())
		}
		return nil, eris.Wrap(err, "provider: build queries")
	}

	// Siblings keep running after a failure; only the first error is kept.
	results := make([][]*geojson.Feature, len(queries))
	var g errgroup.Group
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			features, err := p.search(ctx, q)
			if err != nil {
				return err
			}
			results[i] = features
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var features []*geojson.Feature
	for _, r := range results {
		features = append(features, r...)
	}
	featuresReturnedTotal.Add(float64(len(features)))

	zap.L().Debug("provider: request complete",
		zap.Int("queries", len(queries)),
		zap.Int("features", len(features)),
	)
	return newCollection(features), nil
}

func (p *Provider) search(ctx context.Context, q yelp.Query) ([]*geojson.Feature, error) {
	if err := p.stagger.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "provider: stagger")
	}

	log := zap.L().With(
		zap.String("location", q.Location),
		zap.Int("radius", q.Radius),
		zap.String("bounds", q.Bounds),
		zap.String("term", q.Term),
		zap.Int("offset", q.Offset),
	)
	if q.Center != nil {
		log = log.With(zap.String("cell", geohash.EncodeWithPrecision(q.Center.Latitude, q.Center.Longitude, cellPrecision)))
	}
	upstreamQueriesByCell.WithLabelValues(metricCell(q)).Inc()

	start := time.Now()
	resp, err := p.client.Search(ctx, q)
	upstreamRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		status := statusError
		if apiErr, ok := yelp.AsAPIError(err); ok && apiErr.RateLimited() {
			status = statusRateLimited
		}
		upstreamRequestsTotal.WithLabelValues(status).Inc()
		log.Error("yelp search failed", zap.Error(err))
		return nil, err
	}
	upstreamRequestsTotal.WithLabelValues(statusOK).Inc()

	features := translate.Translate(resp, q.Term)
	log.Debug("yelp search returned", zap.Int("features", len(features)))
	return features, nil
}

// metricCell is the coarse geohash of the query center, or noCell.
func metricCell(q yelp.Query) string {
	if q.Center == nil {
		return noCell
	}
	return geohash.EncodeWithPrecision(q.Center.Latitude, q.Center.Longitude, metricCellPrecision)
}
