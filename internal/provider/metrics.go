package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yelp_featureserver",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Yelp search calls by outcome",
	}, []string{"status"})

	upstreamRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "yelp_featureserver",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Yelp search latency in seconds, excluding the stagger delay",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	upstreamQueriesByCell = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yelp_featureserver",
		Subsystem: "upstream",
		Name:      "queries_by_cell_total",
		Help:      "Yelp search calls by coarse geohash cell of the search center",
	}, []string{"cell"})

	featuresReturnedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "yelp_featureserver",
		Name:      "features_returned_total",
		Help:      "Features returned to callers across all requests",
	})
)

// noCell labels queries searched by location or v2 bounds.
const noCell = "none"

const (
	statusOK          = "ok"
	statusError       = "error"
	statusRateLimited = "rate_limited"
)
