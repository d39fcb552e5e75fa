package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/sells-group/yelp-featureserver/internal/config"
	"github.com/sells-group/yelp-featureserver/internal/provider"
	"github.com/sells-group/yelp-featureserver/internal/query"
	"github.com/sells-group/yelp-featureserver/pkg/yelp"
)

const (
	yelpV2BaseURL = "https://api.yelp.com/v2"
	yelpV3BaseURL = "https://api.yelp.com/v3"
)

// newProvider wires the Yelp client, query builder and stagger from config.
func newProvider(c *config.Config) *provider.Provider {
	version := yelp.Version(c.Yelp.Version)

	client := yelp.NewClient(c.Yelp.Key,
		yelp.WithVersion(version),
		yelp.WithBaseURL(baseURL(c.Yelp)),
		yelp.WithHTTPClient(&http.Client{Timeout: time.Duration(c.Yelp.TimeoutSecs) * time.Second}),
	)

	builder := query.NewBuilder(query.Options{
		Version:         version,
		DefaultLocation: c.Provider.DefaultLocation,
		PageSize:        c.Provider.PageSize,
		MaxRadius:       c.Provider.MaxRadius,
		SplitGeometry:   c.Provider.SplitGeometry,
		Paginate:        c.Provider.Paginate,
	})

	return provider.New(client, builder,
		provider.WithStagger(newStagger(c.Provider)),
		provider.WithCountThreshold(c.Provider.CountThreshold),
	)
}

func newStagger(pc config.ProviderConfig) provider.Stagger {
	switch pc.Stagger {
	case "limiter":
		return provider.NewLimiterStagger(pc.RatePerSec, pc.RateBurst)
	case "none":
		return provider.NoStagger{}
	default:
		return provider.JitterStagger{
			Min: time.Duration(pc.JitterMinMs) * time.Millisecond,
			Max: time.Duration(pc.JitterMaxMs) * time.Millisecond,
		}
	}
}

// baseURL swaps the default v3 endpoint for the v2 one when the legacy API
// is selected without an explicit base URL.
func baseURL(yc config.YelpConfig) string {
	u := strings.TrimSuffix(yc.BaseURL, "/")
	if yelp.Version(yc.Version) == yelp.V2 && (u == "" || u == yelpV3BaseURL) {
		return yelpV2BaseURL
	}
	if u == "" {
		return yelpV3BaseURL
	}
	return u
}
