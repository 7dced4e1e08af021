package domain

// DefaultLimit is the result cap applied when a filter does not name one.
const DefaultLimit = 20

// MaxLimit is the largest result cap a filter may ask for.
const MaxLimit = 100

// GeoFilter restricts results to agents within RadiusKm of a point.
type GeoFilter struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	RadiusKm float64 `json:"radiusKm"`
}

// StructuredFilter is a validated, normalized discovery query.
type StructuredFilter struct {
	Capability string     `json:"capability,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	Cuisine    string     `json:"cuisine,omitempty"`
	Geo        *GeoFilter `json:"geo,omitempty"`
	Limit      int        `json:"limit"`
}

// IntentFilter is the filter derived from a free-text query. Day and time
// are informational and never exclude results.
type IntentFilter struct {
	StructuredFilter
	DesiredDayOfWeek string `json:"desiredDayOfWeek,omitempty"`
	DesiredTimeLocal string `json:"desiredTimeLocal,omitempty"`
}

// RequesterGeo is the caller's position.
type RequesterGeo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RequesterContext carries optional hints about the caller of an intent search.
type RequesterContext struct {
	Geo      *RequesterGeo `json:"geo,omitempty"`
	Locale   string        `json:"locale,omitempty"`
	Timezone string        `json:"timezone,omitempty"`
}
