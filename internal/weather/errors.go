package weather

import (
	"errors"
	"fmt"
	"net/http"
)

// Category classifies a ReportError.
type Category string

const (
	CategoryInvalidCountry      Category = "InvalidCountry"
	CategoryInvalidState        Category = "InvalidState"
	CategoryInvalidUnits        Category = "InvalidUnits"
	CategoryProviderError       Category = "ProviderError"
	CategoryMalformedResponse   Category = "MalformedProviderResponse"
	CategoryProviderUnavailable Category = "ProviderUnavailable"
)

// ReportError is returned by Normalize and GetReport. Status is the HTTP
// status the boundary layer should answer with.
type ReportError struct {
	Category Category
	Status   int
	Message  string
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Category, e.Status, e.Message)
}

// AsReportError unwraps err into a *ReportError if it is one.
func AsReportError(err error) (*ReportError, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

func errInvalidCountry(country string) *ReportError {
	return &ReportError{
		Category: CategoryInvalidCountry,
		Status:   http.StatusBadRequest,
		Message:  fmt.Sprintf("Invalid country: %s. It must be a two letter abbreviation such as US or GB.", country),
	}
}

func errInvalidState(state string) *ReportError {
	return &ReportError{
		Category: CategoryInvalidState,
		Status:   http.StatusBadRequest,
		Message:  fmt.Sprintf("Invalid state: %s. It must be a two letter abbreviation such as CA or KS (use for US only).", state),
	}
}

func errInvalidUnits(units string) *ReportError {
	return &ReportError{
		Category: CategoryInvalidUnits,
		Status:   http.StatusBadRequest,
		Message:  fmt.Sprintf("Invalid units '%s', it must be one of standard, metric, imperial.", units),
	}
}

func errProvider(status int, body []byte) *ReportError {
	return &ReportError{
		Category: CategoryProviderError,
		Status:   status,
		Message:  string(body),
	}
}

func errMalformed(reason string) *ReportError {
	return &ReportError{
		Category: CategoryMalformedResponse,
		Status:   http.StatusBadGateway,
		Message:  "malformed provider response: " + reason,
	}
}

func errUnavailable(status int, cause error) *ReportError {
	return &ReportError{
		Category: CategoryProviderUnavailable,
		Status:   status,
		Message:  fmt.Sprintf("weather provider unavailable: %v", cause),
	}
}
