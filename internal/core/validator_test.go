package core

import (
	"errors"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcast/internal/types"
)

type outlookQuery struct {
	Lat  float64 `query:"lat" validate:"latitude"`
	Lon  float64 `query:"lon" validate:"longitude"`
	Day  string  `query:"day" validate:"required,weekday"`
	TZ   string  `query:"tz" validate:"omitempty,is_timezone"`
	Date string  `json:"date" validate:"iso_date"`
}

type batch struct {
	Items []int `json:"items" validate:"max=2"`
}

func validOutlook() outlookQuery {
	return outlookQuery{Lat: 40.7, Lon: -74.0, Day: "friday", TZ: "America/New_York", Date: "2024-06-07"}
}

func requireValidationCode(t *testing.T, err error, code types.ErrorCode) *types.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr), "expected *types.AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestValidateStruct_Valid(t *testing.T) {
	v := NewValidator(discardLogger())
	assert.NoError(t, v.ValidateStruct(validOutlook()))
}

func TestValidateStruct_CustomTags(t *testing.T) {
	v := NewValidator(discardLogger())

	tests := []struct {
		name   string
		mutate func(*outlookQuery)
		code   types.ErrorCode
		field  string
	}{
		{"latitude", func(q *outlookQuery) { q.Lat = 91 }, types.ErrCodeValidationInvalidLat, "lat"},
		{"longitude", func(q *outlookQuery) { q.Lon = -181 }, types.ErrCodeValidationInvalidLon, "lon"},
		{"missing day", func(q *outlookQuery) { q.Day = "" }, types.ErrCodeValidationMissingField, "day"},
		{"bad day", func(q *outlookQuery) { q.Day = "someday" }, types.ErrCodeValidationInvalidDay, "day"},
		{"bad zone", func(q *outlookQuery) { q.TZ = "Mars/Olympus" }, types.ErrCodeValidationInvalidTimezone, "tz"},
		{"local zone", func(q *outlookQuery) { q.TZ = "Local" }, types.ErrCodeValidationInvalidTimezone, "tz"},
		{"bad date", func(q *outlookQuery) { q.Date = "06/07/2024" }, types.ErrCodeValidationInvalidDate, "date"},
		{"impossible date", func(q *outlookQuery) { q.Date = "2024-02-30" }, types.ErrCodeValidationInvalidDate, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validOutlook()
			tt.mutate(&q)

			appErr := requireValidationCode(t, v.ValidateStruct(q), tt.code)
			fields, ok := appErr.Details["validation_errors"].([]ValidationError)
			require.True(t, ok)
			require.Len(t, fields, 1)
			assert.Equal(t, tt.field, fields[0].Field)
		})
	}
}

func TestValidateStruct_WeekdayForms(t *testing.T) {
	v := NewValidator(discardLogger())
	for _, day := range []string{"Friday", "FRI", "sat", " sunday "} {
		q := validOutlook()
		q.Day = day
		assert.NoError(t, v.ValidateStruct(q), day)
	}
}

func TestValidateStruct_MultipleFailures(t *testing.T) {
	v := NewValidator(discardLogger())
	q := validOutlook()
	q.Lat = 100
	q.Day = ""

	appErr := requireValidationCode(t, v.ValidateStruct(q), types.ErrCodeValidationInvalidLat)
	fields := appErr.Details["validation_errors"].([]ValidationError)
	assert.Len(t, fields, 2)
	assert.Equal(t, "lat must be between -90 and 90", appErr.Message)
}

func TestValidateStruct_Max(t *testing.T) {
	v := NewValidator(discardLogger())

	appErr := requireValidationCode(t, v.ValidateStruct(batch{Items: []int{1, 2, 3}}), types.ErrCodeValidationTooManyHours)
	assert.Equal(t, "items must have at most 2 entries", appErr.Message)
}

func TestValidateStruct_NonStruct(t *testing.T) {
	v := NewValidator(discardLogger())
	requireValidationCode(t, v.ValidateStruct(42), types.ErrCodeInternalUnexpected)
}

func TestTagToErrorCode(t *testing.T) {
	tests := []struct {
		tag  string
		want types.ErrorCode
	}{
		{"required", types.ErrCodeValidationMissingField},
		{"latitude", types.ErrCodeValidationInvalidLat},
		{"longitude", types.ErrCodeValidationInvalidLon},
		{"iso_date", types.ErrCodeValidationInvalidDate},
		{"weekday", types.ErrCodeValidationInvalidDay},
		{"is_timezone", types.ErrCodeValidationInvalidTimezone},
		{"max", types.ErrCodeValidationTooManyHours},
		{"gte", types.ErrCodeValidationInvalidObserved},
		{"lte", types.ErrCodeValidationInvalidObserved},
		{"oneof", types.ErrCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, string(tt.want), tagToErrorCode(tt.tag))
		})
	}
}
