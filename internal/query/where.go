package query

import (
	"regexp"
	"strconv"
	"strings"
)

// termPattern matches the first `field = 'value'` predicate of a where clause.
// Quotes inside the value are doubled, SQL style.
var termPattern = regexp.MustCompile(`^.+?\s*=\s*'((?:[^']|'')+)'`)

// Term extracts the search term from a where clause such as
// "category = 'pizza'". Anything else yields "".
func Term(where string) string {
	m := termPattern.FindStringSubmatch(strings.TrimSpace(where))
	if m == nil {
		return ""
	}
	return strings.ReplaceAll(m[1], "''", "'")
}

var sortKeys = map[string]bool{
	"best_match":   true,
	"rating":       true,
	"review_count": true,
	"distance":     true,
}

// Sort maps orderByFields onto a Yelp sort_by key. Only the first field
// counts, ascending order is not supported upstream, and unknown fields are
// ignored.
func Sort(orderByFields string) (string, bool) {
	if orderByFields == "" {
		return "", false
	}

	first := strings.Split(orderByFields, ",")[0]
	if strings.Contains(first, " ASC") {
		return "", false
	}

	field := strings.TrimSpace(strings.Split(first, " DESC")[0])
	if !sortKeys[field] {
		return "", false
	}
	return field, true
}

// v2 integer sort modes.
const (
	LegacySortBestMatch = 0
	LegacySortDistance  = 1
	LegacySortRating    = 2
)

// LegacySort picks a v2 sort mode: highest rated when asked for, best match
// when searching for a term, otherwise nearest first.
func LegacySort(orderByFields, term string) int {
	field := strings.TrimSpace(strings.Split(strings.Split(orderByFields, ",")[0], " DESC")[0])
	switch {
	case field == "rating":
		return LegacySortRating
	case term != "":
		return LegacySortBestMatch
	default:
		return LegacySortDistance
	}
}

func formatLatLon(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}
