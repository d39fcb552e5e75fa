// Package featureserver exposes the Yelp provider over FeatureServer-style
// HTTP routes.
package featureserver

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/yelp-featureserver/internal/geoservices"
	"github.com/sells-group/yelp-featureserver/internal/provider"
)

// DataProvider answers one FeatureServer query.
type DataProvider interface {
	GetData(ctx context.Context, params geoservices.Params) (*provider.FeatureCollection, error)
}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
}

// NewRouter wires all routes.
func NewRouter(dp DataProvider, opts Options) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP, requestLogger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With", "X-Request-ID"},
		MaxAge:         300,
	}))

	h := &handler{provider: dp}

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/yelp", func(r chi.Router) {
		r.Get("/", h.index)
		r.Get("/FeatureServer", h.serviceInfo)
		r.Get("/FeatureServer/{layer}", h.featureServer)
		r.Post("/FeatureServer/{layer}", h.featureServer)
		r.Get("/FeatureServer/{layer}/{method}", h.featureServer)
		r.Post("/FeatureServer/{layer}/{method}", h.featureServer)
	})

	return r
}
