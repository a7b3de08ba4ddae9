package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// Handlers and clients use these constants instead of hardcoded strings.
const (
	// Validation (400)
	ErrCodeValidationInvalidLat      ErrorCode = "validation_invalid_latitude"
	ErrCodeValidationInvalidLon      ErrorCode = "validation_invalid_longitude"
	ErrCodeValidationInvalidDate     ErrorCode = "validation_invalid_date"
	ErrCodeValidationDateRange       ErrorCode = "validation_date_range_invalid"
	ErrCodeValidationInvalidDay      ErrorCode = "validation_invalid_day"
	ErrCodeValidationMissingField    ErrorCode = "validation_missing_required_field"
	ErrCodeValidationTooManyHours    ErrorCode = "validation_too_many_observations"
	ErrCodeValidationInvalidObserved ErrorCode = "validation_invalid_observation"
	ErrCodeValidationInvalidTimezone ErrorCode = "validation_invalid_timezone"
	ErrCodeValidationFailed          ErrorCode = "validation_failed"

	// Limits (429)
	ErrCodeRateLimit ErrorCode = "rate_limit_exceeded"

	// Not Found (404)
	ErrCodeNotFoundRoute ErrorCode = "not_found_route"

	// Method Not Allowed (405)
	ErrCodeMethodNotAllowed ErrorCode = "method_not_allowed"

	// Internal/Upstream (500/502)
	ErrCodeInternalUnexpected          ErrorCode = "internal_unexpected_error"
	ErrCodeUpstreamWeather             ErrorCode = "upstream_weather_unavailable"
	ErrCodeUpstreamWeatherFormat       ErrorCode = "upstream_weather_format"
	ErrCodeUpstreamWeatherUnauthorized ErrorCode = "upstream_weather_unauthorized"
	ErrCodeUpstreamGeocoder            ErrorCode = "upstream_geocoder_unavailable"
	ErrCodeUpstreamUnavailable         ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited         ErrorCode = "upstream_rate_limited"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized error codes.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case s == string(ErrCodeRateLimit):
		return http.StatusTooManyRequests
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case s == string(ErrCodeMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	case strings.HasPrefix(s, "internal_"):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type. Domain, client, and
// handler errors are expressed as AppError so that the API layer can format
// them consistently and map them to HTTP statuses.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError carrying structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// FetchErrorKind classifies a failed forecast fetch.
type FetchErrorKind string

const (
	// FetchNetworkFailure covers transport errors, 5xx, throttling and an
	// open circuit breaker.
	FetchNetworkFailure FetchErrorKind = "network_failure"
	// FetchUpstreamFormat means the upstream answered but the body was not
	// the expected shape.
	FetchUpstreamFormat FetchErrorKind = "upstream_format"
)

// FetchErrorKindOf reports whether err is a forecast fetch error and, if so,
// which kind. Well-formed empty responses are not errors and never reach here.
func FetchErrorKindOf(err error) (FetchErrorKind, bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return "", false
	}
	switch appErr.Code {
	case ErrCodeUpstreamWeatherFormat:
		return FetchUpstreamFormat, true
	case ErrCodeUpstreamWeather,
		ErrCodeUpstreamWeatherUnauthorized,
		ErrCodeUpstreamUnavailable,
		ErrCodeUpstreamRateLimited:
		return FetchNetworkFailure, true
	}
	return "", false
}

// IsFetchError reports whether err is a forecast fetch failure that callers
// must surface as an empty/error state.
func IsFetchError(err error) bool {
	_, ok := FetchErrorKindOf(err)
	return ok
}
