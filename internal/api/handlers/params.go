// Package handlers maps the /v1 HTTP surface onto the scoring engine, the
// upstream clients and the outlook planner.
package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"eventcast/internal/types"
)

// parseCoordinates reads lat and lon from q. Both must be present and
// numeric; range checks are left to the validator.
func parseCoordinates(q url.Values) (lat, lon float64, err error) {
	lat, err = parseFloatParam(q, "lat", types.ErrCodeValidationInvalidLat)
	if err != nil {
		return 0, 0, err
	}
	lon, err = parseFloatParam(q, "lon", types.ErrCodeValidationInvalidLon)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func parseFloatParam(q url.Values, name string, code types.ErrorCode) (float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, types.NewAppErrorWithDetails(
			types.ErrCodeValidationMissingField,
			name+" query parameter is required",
			nil,
			map[string]any{"field": name},
		)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, types.NewAppErrorWithDetails(code, name+" must be a number", err, map[string]any{"field": name})
	}
	return v, nil
}
