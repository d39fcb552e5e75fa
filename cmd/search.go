package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/yelp-featureserver/internal/geoservices"
)

var searchFlags struct {
	where        string
	location     string
	geometry     string
	geometryType string
	orderBy      string
	countOnly    bool
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a single feature query against Yelp and print the GeoJSON",
	Example: `  yelp-featureserver search --where "category = 'pizza'" --location "Denver, CO"
  yelp-featureserver search --geometry "-10047255,4661817,-10028010,4676393" --order-by "rating DESC"
  yelp-featureserver search --geometry '{"xmin":-90.3,"ymin":38.5,"xmax":-90.1,"ymax":38.7,"spatialReference":{"wkid":4326}}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fc, err := newProvider(cfg).GetData(cmd.Context(), searchParams())
		if err != nil {
			return eris.Wrap(err, "search")
		}

		var out any = fc
		if fc.Count != nil {
			out = map[string]int{"count": *fc.Count}
		}
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return eris.Wrap(err, "search: encode")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

// searchParams converts the command flags into request params, leaving out
// anything not set.
func searchParams() geoservices.Params {
	p := geoservices.Params{}
	set := func(k, v string) {
		if v != "" {
			p[k] = v
		}
	}
	set(geoservices.ParamWhere, searchFlags.where)
	set(geoservices.ParamLocation, searchFlags.location)
	set(geoservices.ParamGeometry, searchFlags.geometry)
	set(geoservices.ParamOrderByFields, searchFlags.orderBy)
	if searchFlags.geometry != "" {
		set(geoservices.ParamGeometryType, searchFlags.geometryType)
	}
	if searchFlags.countOnly {
		p[geoservices.ParamReturnCountOnly] = "true"
	}
	return p
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchFlags.where, "where", "", "where clause, e.g. \"category = 'pizza'\"")
	f.StringVar(&searchFlags.location, "location", "", "free-text location")
	f.StringVar(&searchFlags.geometry, "geometry", "", "envelope as xmin,ymin,xmax,ymax in Web Mercator meters, or esri JSON")
	f.StringVar(&searchFlags.geometryType, "geometry-type", geoservices.GeometryTypeEnvelope, "geometry type")
	f.StringVar(&searchFlags.orderBy, "order-by", "", "orderByFields, e.g. \"rating DESC\"")
	f.BoolVar(&searchFlags.countOnly, "count-only", false, "return only the count")
	rootCmd.AddCommand(searchCmd)
}
