package weather

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name                        string
		city, state, country, units string
		want                        LocationKey
	}{
		{
			name: "country defaults and case folds",
			city: "Oslo", country: "", units: "Metric",
			want: LocationKey{City: "oslo", Country: "us", Units: UnitsMetric},
		},
		{
			name: "trims every field",
			city: "  Portland ", state: " OR ", country: " Us ", units: " imperial ",
			want: LocationKey{City: "portland", State: "or", Country: "us", Units: UnitsImperial},
		},
		{
			name: "standard units",
			city: "Paris", country: "FR", units: "STANDARD",
			want: LocationKey{City: "paris", Country: "fr", Units: UnitsStandard},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.city, tt.state, tt.country, tt.units)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	first, err := Normalize(" Boulder", "co", "US ", "Imperial")
	require.NoError(t, err)

	second, err := Normalize(first.City, first.State, first.Country, string(first.Units))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name                        string
		city, state, country, units string
		category                    Category
	}{
		{"three letter country", "Paris", "", "fra", "metric", CategoryInvalidCountry},
		{"one letter country", "Paris", "", "f", "metric", CategoryInvalidCountry},
		{"blank country", "Paris", "", "   ", "metric", CategoryInvalidCountry},
		{"long state", "Paris", "xyz", "fr", "metric", CategoryInvalidState},
		{"whitespace state", "Paris", "  ", "fr", "metric", CategoryInvalidState},
		{"unknown units", "Paris", "", "fr", "kelvin", CategoryInvalidUnits},
		{"empty units", "Paris", "", "fr", "", CategoryInvalidUnits},
		{"units with inner space", "Paris", "", "fr", "met ric", CategoryInvalidUnits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.city, tt.state, tt.country, tt.units)
			require.Error(t, err)

			re, ok := AsReportError(err)
			require.True(t, ok, "expected *ReportError, got %T", err)
			assert.Equal(t, tt.category, re.Category)
			assert.Equal(t, http.StatusBadRequest, re.Status)
			assert.NotEmpty(t, re.Message)
		})
	}
}

func TestNormalize_CountryCheckedBeforeUnits(t *testing.T) {
	_, err := Normalize("Paris", "xyz", "fra", "kelvin")
	re, ok := AsReportError(err)
	require.True(t, ok)
	assert.Equal(t, CategoryInvalidCountry, re.Category)
}

func TestLocationKey_Query(t *testing.T) {
	assert.Equal(t, "portland,or,us", LocationKey{City: "portland", State: "or", Country: "us"}.Query())
	assert.Equal(t, "oslo,no", LocationKey{City: "oslo", Country: "no"}.Query())
}

func TestLocationKey_String(t *testing.T) {
	k := LocationKey{City: "oslo", Country: "no", Units: UnitsMetric}
	assert.Equal(t, "oslo::no:metric", k.String())
}
