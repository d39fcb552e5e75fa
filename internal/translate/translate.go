// Package translate turns Yelp search results into GeoJSON point features.
package translate

import (
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/yelp-featureserver/pkg/yelp"
)

// listSeparator joins category and address lists into display strings.
const listSeparator = ", "

// Translate maps every business in resp to one feature. A response without a
// business list yields an empty, non-nil slice.
func Translate(resp *yelp.SearchResponse, term string) []*geojson.Feature {
	if resp == nil || resp.Businesses == nil {
		return []*geojson.Feature{}
	}

	features := make([]*geojson.Feature, 0, len(resp.Businesses))
	for i := range resp.Businesses {
		features = append(features, Feature(&resp.Businesses[i], term))
	}
	return features
}

// Feature converts a single business. term is always written as a string so
// clients can type the field even when no search term was given.
func Feature(b *yelp.Business, term string) *geojson.Feature {
	lon, lat := coordinates(b)
	loc := b.Location

	titles := make([]string, 0, len(b.Categories))
	aliases := make([]string, 0, len(b.Categories))
	for _, c := range b.Categories {
		titles = append(titles, c.Title)
		aliases = append(aliases, c.Alias)
	}

	transactions := b.Transactions
	if transactions == nil {
		transactions = []string{}
	}

	return &geojson.Feature{
		Geometry: geom.NewPointFlat(geom.XY, []float64{lon, lat}),
		Properties: map[string]interface{}{
			"yelpId":               b.ID,
			"alias":                b.Alias,
			"name":                 b.Name,
			"image_url":            b.ImageURL,
			"is_closed":            b.IsClosed,
			"url":                  b.URL,
			"review_count":         b.ReviewCount,
			"categories_title":     strings.Join(titles, listSeparator),
			"categories_alias":     strings.Join(aliases, listSeparator),
			"rating":               b.Rating,
			"price":                b.Price,
			"transactions":         transactions,
			"phone":                b.Phone,
			"display_phone":        b.DisplayPhone,
			"distance":             b.Distance,
			"address1":             loc.Address1,
			"address2":             loc.Address2,
			"address3":             loc.Address3,
			"city":                 loc.City,
			"zip_code":             firstNonEmpty(loc.ZipCode, loc.PostalCode),
			"country":              loc.Country,
			"state":                firstNonEmpty(loc.State, loc.StateCode),
			"display_address":      strings.Join(loc.DisplayAddress, listSeparator),
			"snippet_text":         b.SnippetText,
			"rating_img_url_small": b.RatingImgURLSmall,
			"term":                 term,
		},
	}
}

// coordinates prefers the v3 top-level field and falls back to the v2
// location.coordinate.
func coordinates(b *yelp.Business) (lon, lat float64) {
	switch {
	case b.Coordinates != nil:
		return b.Coordinates.Longitude, b.Coordinates.Latitude
	case b.Location.Coordinate != nil:
		return b.Location.Coordinate.Longitude, b.Location.Coordinate.Latitude
	}
	return 0, 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
