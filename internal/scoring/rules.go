package scoring

import "eventcast/internal/types"

// Rule is one predicate-to-effect pair. When Applies returns true the rule
// adds Delta to the score, appends Condition (if non-empty) and appends its
// Recommendations, in that order.
type Rule struct {
	Name            string                 `json:"name"`
	Applies         func(DayStats) bool    `json:"-"`
	Delta           int                    `json:"delta"`
	Condition       string                 `json:"condition,omitempty"`
	Recommendations []types.Recommendation `json:"recommendations,omitempty"`
}

// RuleGroup is an ordered set of rules. In an exclusive group only the first
// matching rule fires; otherwise every matching rule fires.
type RuleGroup struct {
	Name      string `json:"name"`
	Exclusive bool   `json:"exclusive"`
	Rules     []Rule `json:"rules"`
}

// Condition strings emitted by the deduction rules.
const (
	ConditionNoDaytimeData  = "No daytime data available"
	ConditionVeryCold       = "Very cold temperatures"
	ConditionCool           = "Cool temperatures"
	ConditionHot            = "Hot temperatures"
	ConditionHighPrecip     = "High chance of precipitation"
	ConditionModeratePrecip = "Moderate chance of precipitation"
	ConditionHighWinds      = "High winds"
	ConditionModerateWinds  = "Moderate winds"
	ConditionHighUV         = "High UV index"
)

func rec(icon types.IconKey, title, description string) types.Recommendation {
	return types.Recommendation{Title: title, Description: description, Icon: icon}
}

// between reports lo <= v <= hi.
func between(v, lo, hi float64) bool { return v >= lo && v <= hi }

// activityGroups suggest what to do. They never change the score.
var activityGroups = []RuleGroup{
	{
		Name: "games",
		Rules: []Rule{
			{
				Name:    "flying_disc",
				Applies: func(s DayStats) bool { return s.MaxWindSpeed < 8 && s.MaxPrecipProb < 20 },
				Recommendations: []types.Recommendation{
					rec(types.IconSports, "Perfect for Flying Disc Games", "Low wind is great for frisbee and disc golf."),
				},
			},
			{
				Name:    "ball_games",
				Applies: func(s DayStats) bool { return between(s.AvgTemp, 60, 85) && s.MaxPrecipProb < 30 },
				Recommendations: []types.Recommendation{
					rec(types.IconBallSports, "Ball Games", "Good conditions for soccer, volleyball, or catch."),
				},
			},
			{
				Name: "indoor_games",
				Applies: func(s DayStats) bool {
					return s.MaxPrecipProb > 50 || s.MaxWindSpeed > 15 || s.AvgTemp < 40 || s.AvgTemp > 90
				},
				Recommendations: []types.Recommendation{
					rec(types.IconBoardGames, "Indoor Games", "Consider board games or card games indoors."),
				},
			},
		},
	},
	{
		Name:      "refreshments",
		Exclusive: true,
		Rules: []Rule{
			{
				Name:    "cool_refreshments",
				Applies: func(s DayStats) bool { return s.AvgTemp >= 75 },
				Recommendations: []types.Recommendation{
					rec(types.IconColdDrink, "Cool Refreshments", "Bring cold drinks, salads, and light snacks."),
				},
			},
			{
				Name:    "warm_refreshments",
				Applies: func(s DayStats) bool { return s.AvgTemp <= 45 },
				Recommendations: []types.Recommendation{
					rec(types.IconHotDrink, "Warm Refreshments", "Consider hot drinks and warm comfort foods."),
				},
			},
		},
	},
	{
		Name: "outings",
		Rules: []Rule{
			{
				Name: "picnic",
				Applies: func(s DayStats) bool {
					return between(s.AvgTemp, 60, 75) && s.MaxPrecipProb < 30 && s.MaxWindSpeed < 12
				},
				Recommendations: []types.Recommendation{
					rec(types.IconFood, "Perfect Picnic Weather", "Great conditions for outdoor dining and games."),
				},
			},
			{
				Name:    "food_safety",
				Applies: func(s DayStats) bool { return s.MaxTemp > 85 },
				Recommendations: []types.Recommendation{
					rec(types.IconFood, "Food Safety Alert", "Keep perishable foods in coolers; avoid items that spoil easily."),
				},
			},
			{
				Name:    "winter_sports",
				Applies: func(s DayStats) bool { return s.AvgTemp <= 32 },
				Recommendations: []types.Recommendation{
					rec(types.IconWinterSports, "Winter Sports", "Perfect conditions for skiing or snowboarding."),
					rec(types.IconSnow, "Snow Activities", "Great weather for sledding and snowman building."),
				},
			},
			{
				Name:    "ice_skating",
				Applies: func(s DayStats) bool { return s.AvgTemp <= 40 },
				Recommendations: []types.Recommendation{
					rec(types.IconIceSkating, "Ice Skating", "Good conditions for outdoor ice skating."),
				},
			},
			{
				Name: "cycling_hiking",
				Applies: func(s DayStats) bool {
					return between(s.AvgTemp, 60, 80) && s.MaxPrecipProb < 30 && s.MaxWindSpeed < 15
				},
				Recommendations: []types.Recommendation{
					rec(types.IconBike, "Perfect for Cycling", "Great conditions for a bike ride."),
					rec(types.IconHike, "Go Hiking", "Ideal weather for hiking or walking trails."),
				},
			},
			{
				Name:    "beach",
				Applies: func(s DayStats) bool { return s.AvgTemp >= 70 && s.MaxPrecipProb < 20 },
				Recommendations: []types.Recommendation{
					rec(types.IconBeach, "Beach Day", "Great weather for beach activities."),
				},
			},
			{
				Name:    "park",
				Applies: func(s DayStats) bool { return between(s.AvgTemp, 55, 75) && s.MaxPrecipProb < 30 },
				Recommendations: []types.Recommendation{
					rec(types.IconPark, "Park Activities", "Perfect for outdoor sports and picnics."),
				},
			},
		},
	},
}

// deductionGroups lower the score. Each group reports at most one condition.
var deductionGroups = []RuleGroup{
	{
		Name:      "temperature",
		Exclusive: true,
		Rules: []Rule{
			{
				Name:      "very_cold",
				Applies:   func(s DayStats) bool { return s.MinTemp < 32 },
				Delta:     -30,
				Condition: ConditionVeryCold,
				Recommendations: []types.Recommendation{
					rec(types.IconSnow, "Bundle Up", "Wear warm, layered clothing and bring hand warmers."),
				},
			},
			{
				Name:      "cool",
				Applies:   func(s DayStats) bool { return s.AvgTemp < 50 },
				Delta:     -15,
				Condition: ConditionCool,
				Recommendations: []types.Recommendation{
					rec(types.IconSnow, "Dress Warmly", "Bring a jacket and consider layering."),
				},
			},
			{
				Name:      "hot",
				Applies:   func(s DayStats) bool { return s.MaxTemp > 85 },
				Delta:     -20,
				Condition: ConditionHot,
				Recommendations: []types.Recommendation{
					rec(types.IconHeat, "Stay Cool", "Bring water and plan for shade breaks."),
				},
			},
		},
	},
	{
		Name:      "precipitation",
		Exclusive: true,
		Rules: []Rule{
			{
				Name:      "high_precipitation",
				Applies:   func(s DayStats) bool { return s.MaxPrecipProb > 70 },
				Delta:     -40,
				Condition: ConditionHighPrecip,
				Recommendations: []types.Recommendation{
					rec(types.IconUmbrella, "Rain Protection", "Bring umbrellas and waterproof gear."),
				},
			},
			{
				Name:      "moderate_precipitation",
				Applies:   func(s DayStats) bool { return s.MaxPrecipProb > 30 },
				Delta:     -20,
				Condition: ConditionModeratePrecip,
				Recommendations: []types.Recommendation{
					rec(types.IconUmbrella, "Rain Possible", "Consider bringing rain gear just in case."),
				},
			},
		},
	},
	{
		Name:      "wind",
		Exclusive: true,
		Rules: []Rule{
			{
				Name:      "high_winds",
				Applies:   func(s DayStats) bool { return s.MaxWindSpeed > 20 },
				Delta:     -25,
				Condition: ConditionHighWinds,
				Recommendations: []types.Recommendation{
					rec(types.IconWind, "Wind Protection", "Secure loose items and consider wind protection."),
				},
			},
			{
				Name:      "moderate_winds",
				Applies:   func(s DayStats) bool { return s.AvgWindSpeed > 10 },
				Delta:     -10,
				Condition: ConditionModerateWinds,
				Recommendations: []types.Recommendation{
					rec(types.IconWind, "Light Wind", "Be aware of light wind conditions."),
				},
			},
		},
	},
	{
		Name:      "uv",
		Exclusive: true,
		Rules: []Rule{
			{
				Name:      "high_uv",
				Applies:   func(s DayStats) bool { return s.MaxUV > 7 },
				Delta:     -15,
				Condition: ConditionHighUV,
				Recommendations: []types.Recommendation{
					rec(types.IconSun, "Sun Protection", "Wear sunscreen and bring sun protection."),
				},
			},
		},
	},
}

// Rules returns the full rule table in evaluation order: activity groups
// first, then deduction groups. The returned slice is a copy; the rules it
// holds share their Recommendations backing arrays with the engine and must
// not be modified.
func Rules() []RuleGroup {
	out := make([]RuleGroup, 0, len(activityGroups)+len(deductionGroups))
	out = append(out, activityGroups...)
	out = append(out, deductionGroups...)
	return out
}
