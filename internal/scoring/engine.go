package scoring

import "eventcast/internal/types"

// MaxScore is the score of a day with nothing to complain about.
const MaxScore = 100

// NoDataScore is returned when no observation falls in the daytime window.
func NoDataScore() types.EventScore {
	return types.EventScore{
		Score:           0,
		Conditions:      []string{ConditionNoDaytimeData},
		Recommendations: []types.Recommendation{},
	}
}

// ComputeEventScore scores one day of hourly observations. The caller is
// responsible for passing a single calendar day; hours outside 06:00-20:00
// are ignored. Input with no daytime hours yields NoDataScore.
func ComputeEventScore(obs []types.HourlyObservation) types.EventScore {
	stats, ok := ComputeDayStats(obs)
	if !ok {
		return NoDataScore()
	}
	return ScoreStats(stats)
}

// ScoreStats applies the rule table to precomputed day statistics.
func ScoreStats(stats DayStats) types.EventScore {
	result := types.EventScore{
		Score:           MaxScore,
		Conditions:      []string{},
		Recommendations: []types.Recommendation{},
	}

	for _, group := range Rules() {
		for _, rule := range group.Rules {
			if !rule.Applies(stats) {
				continue
			}
			result.Score += rule.Delta
			if rule.Condition != "" {
				result.Conditions = append(result.Conditions, rule.Condition)
			}
			result.Recommendations = append(result.Recommendations, rule.Recommendations...)
			if group.Exclusive {
				break
			}
		}
	}

	result.Score = clamp(result.Score, 0, MaxScore)
	return result
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
