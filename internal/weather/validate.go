package weather

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const (
	ruleTwoLetter = "len=2"
	ruleUnits     = "oneof=standard metric imperial"
)

// Normalize canonicalizes caller input into a LocationKey. It touches neither
// the cache nor the network. The returned error is always a *ReportError.
func Normalize(city, state, country, units string) (LocationKey, error) {
	if country == "" {
		country = DefaultCountry
	} else {
		country = clean(country)
	}
	if validate.Var(country, ruleTwoLetter) != nil {
		return LocationKey{}, errInvalidCountry(country)
	}

	city = clean(city)

	if state != "" {
		state = clean(state)
		if validate.Var(state, ruleTwoLetter) != nil {
			return LocationKey{}, errInvalidState(state)
		}
	}

	units = clean(units)
	if validate.Var(units, ruleUnits) != nil {
		return LocationKey{}, errInvalidUnits(units)
	}

	return LocationKey{
		City:    city,
		State:   state,
		Country: country,
		Units:   Units(units),
	}, nil
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
