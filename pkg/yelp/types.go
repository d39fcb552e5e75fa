package yelp

import (
	"net/url"
	"strconv"
)

// Version selects the Yelp API generation the client talks to.
type Version string

const (
	// V2 is the legacy search API (bounds strings, integer sort modes).
	V2 Version = "v2"
	// V3 is the Fusion API (center + radius, named sort keys).
	V3 Version = "v3"
)

// Query is a single Yelp business search request.
// Either Location, Center or Bounds selects the search area.
type Query struct {
	Location string
	Center   *Coordinates
	Radius   int
	Bounds   string
	Term     string
	SortBy   string
	Sort     *int
	Limit    int
	Offset   int
}

// Values encodes the query as URL parameters. Term is always present so the
// upstream sees an explicit empty search term.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Location != "" {
		v.Set("location", q.Location)
	}
	if q.Center != nil {
		v.Set("latitude", formatFloat(q.Center.Latitude))
		v.Set("longitude", formatFloat(q.Center.Longitude))
		if q.Radius > 0 {
			v.Set("radius", strconv.Itoa(q.Radius))
		}
	}
	if q.Bounds != "" {
		v.Set("bounds", q.Bounds)
	}
	v.Set("term", q.Term)
	if q.SortBy != "" {
		v.Set("sort_by", q.SortBy)
	}
	if q.Sort != nil {
		v.Set("sort", strconv.Itoa(*q.Sort))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SearchResponse is the body of a business search. Businesses is nil when the
// upstream omitted the list entirely.
type SearchResponse struct {
	Businesses []Business `json:"businesses"`
	Total      int        `json:"total"`
	Region     *Region    `json:"region,omitempty"`
}

// Region describes the area the upstream actually searched.
type Region struct {
	Center Coordinates `json:"center"`
}

// Business is one venue returned by the search endpoint. Fields cover both
// API generations; v2-only fields are empty on v3 responses and vice versa.
type Business struct {
	ID                string       `json:"id"`
	Alias             string       `json:"alias"`
	Name              string       `json:"name"`
	ImageURL          string       `json:"image_url"`
	URL               string       `json:"url"`
	IsClosed          bool         `json:"is_closed"`
	ReviewCount       int          `json:"review_count"`
	Rating            float64      `json:"rating"`
	Price             string       `json:"price"`
	Phone             string       `json:"phone"`
	DisplayPhone      string       `json:"display_phone"`
	Distance          float64      `json:"distance"`
	Transactions      []string     `json:"transactions"`
	Categories        []Category   `json:"categories"`
	Coordinates       *Coordinates `json:"coordinates,omitempty"`
	Location          Location     `json:"location"`
	SnippetText       string       `json:"snippet_text"`
	RatingImgURLSmall string       `json:"rating_img_url_small"`
}

// Category is a Yelp business category.
type Category struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is a business address. Coordinate, PostalCode and StateCode are
// only populated by the v2 API.
type Location struct {
	Address1       string       `json:"address1"`
	Address2       string       `json:"address2"`
	Address3       string       `json:"address3"`
	City           string       `json:"city"`
	ZipCode        string       `json:"zip_code"`
	PostalCode     string       `json:"postal_code"`
	Country        string       `json:"country"`
	State          string       `json:"state"`
	StateCode      string       `json:"state_code"`
	DisplayAddress []string     `json:"display_address"`
	Coordinate     *Coordinates `json:"coordinate,omitempty"`
}
