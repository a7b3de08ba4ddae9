package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ObservationTimeLayout is the layout of HourlyObservation.Time.
const ObservationTimeLayout = "2006-01-02T15:04:05"

// DateLayout is the calendar date layout used for forecast ranges.
const DateLayout = "2006-01-02"

// HourlyObservation is one hour of forecast data in US units
// (degrees Fahrenheit, miles per hour, percent).
type HourlyObservation struct {
	Time                        string  `json:"time"`
	TemperatureF                float64 `json:"temperature"`
	FeelsLikeF                  float64 `json:"feels_like"`
	HumidityPct                 float64 `json:"humidity"`
	WindSpeedMph                float64 `json:"wind_speed"`
	Conditions                  string  `json:"conditions,omitempty"`
	PrecipitationProbabilityPct float64 `json:"precipitation_probability" validate:"gte=0,lte=100"`
	UVIndex                     float64 `json:"uv_index" validate:"gte=0"`
}

// Date returns the YYYY-MM-DD part of the timestamp, or "" if it has none.
func (o HourlyObservation) Date() string {
	date, _, _ := strings.Cut(o.Time, "T")
	if len(date) != len(DateLayout) {
		return ""
	}
	return date
}

// Hour returns the hour of day encoded in the timestamp. The second return
// is false when the timestamp carries no parseable hour.
func (o HourlyObservation) Hour() (int, bool) {
	_, clock, found := strings.Cut(o.Time, "T")
	if !found {
		return 0, false
	}
	hh, _, _ := strings.Cut(clock, ":")
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}

// Location is a named point selected by the user.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Validate checks that the coordinates are on the globe.
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return NewAppError(ErrCodeValidationInvalidLat,
			fmt.Sprintf("latitude %v is outside [-90, 90]", l.Latitude), nil)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return NewAppError(ErrCodeValidationInvalidLon,
			fmt.Sprintf("longitude %v is outside [-180, 180]", l.Longitude), nil)
	}
	return nil
}

// IconKey is a symbolic icon tag. Resolving it to an image is the client's job.
type IconKey string

const (
	IconSun          IconKey = "sun"
	IconUmbrella     IconKey = "umbrella"
	IconSnow         IconKey = "snow"
	IconHeat         IconKey = "heat"
	IconWind         IconKey = "wind"
	IconBike         IconKey = "bike"
	IconHike         IconKey = "hike"
	IconBeach        IconKey = "beach"
	IconPark         IconKey = "park"
	IconWinterSports IconKey = "winter_sports"
	IconIceSkating   IconKey = "ice_skating"
	IconFood         IconKey = "food"
	IconHotDrink     IconKey = "hot_drink"
	IconColdDrink    IconKey = "cold_drink"
	IconSports       IconKey = "sports"
	IconBoardGames   IconKey = "board_games"
	IconBallSports   IconKey = "ball_sports"
)

// Recommendation is an activity or preparation suggestion.
type Recommendation struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Icon        IconKey `json:"icon"`
}

// EventScore is the result of scoring one day of observations.
type EventScore struct {
	Score           int              `json:"score"`
	Conditions      []string         `json:"conditions"`
	Recommendations []Recommendation `json:"recommendations"`
}
