package weather

import (
	"net/url"
	"strings"
)

// Units is the unit system requested from the provider.
type Units string

const (
	UnitsStandard Units = "standard"
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// DefaultCountry is used when the caller does not name a country.
const DefaultCountry = "us"

// Location is raw, un-normalized caller input.
type Location struct {
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Country string `json:"country"`
	Units   string `json:"units"`
}

// LocationKey is the canonical form of a Location. All fields are trimmed and
// lowercased; State is empty or two characters, Country is two characters.
// It is comparable and used directly as a cache key.
type LocationKey struct {
	City    string
	State   string
	Country string
	Units   Units
}

// String returns city:state:country:units with every field query-escaped, so
// a ':' inside a field cannot make two keys render alike.
func (k LocationKey) String() string {
	fields := []string{k.City, k.State, k.Country, string(k.Units)}
	for i, f := range fields {
		fields[i] = url.QueryEscape(f)
	}
	return strings.Join(fields, ":")
}

// Query builds the provider's q parameter: city,state,country or city,country.
func (k LocationKey) Query() string {
	if k.State != "" {
		return k.City + "," + k.State + "," + k.Country
	}
	return k.City + "," + k.Country
}

// Report is the provider's "main" metrics object (temp, pressure, humidity, ...)
// returned to callers as-is.
type Report map[string]any
