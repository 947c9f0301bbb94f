package forecast

import (
	"math"

	"github.com/dkravets/weather-consensus/internal/weather"
)

// periodAnchors are the four fixed day segments and their anchor hours.
var periodAnchors = []struct {
	key  string
	hour int
}{
	{"night", 0},
	{"morning", 9},
	{"day", 14},
	{"evening", 19},
}

// dayFallback carries day-level values used when a day has no hourly rows
// near an anchor.
type dayFallback struct {
	tempMin   *float64
	tempMax   *float64
	condition weather.Condition
	chancePct *float64
}

// periodsForDay summarizes a day's hourly rows into the four fixed periods.
// Each period takes the hourly row nearest its anchor hour; days without
// hourly data blend the period temperature from the day's min/max.
func periodsForDay(rows []weather.ForecastHour, fallback dayFallback) []weather.ForecastPeriod {
	periods := make([]weather.ForecastPeriod, 0, len(periodAnchors))

	for _, anchor := range periodAnchors {
		nearest := nearestHour(rows, anchor.hour)

		if nearest == nil {
			blended := estimatePeriodTemperature(anchor.key, fallback.tempMin, fallback.tempMax)
			condition := fallback.condition
			if condition == "" {
				condition = conditionFromChance(fallback.chancePct, blended)
			}
			periods = append(periods, weather.ForecastPeriod{
				Key:             anchor.key,
				Hour:            anchor.hour,
				TempC:           weather.Round1Ptr(blended),
				Condition:       condition,
				PrecipChancePct: clampChancePct(fallback.chancePct),
			})
			continue
		}

		condition := nearest.Condition
		if condition == "" {
			condition = fallback.condition
		}
		if condition == "" {
			condition = weather.ConditionCloudy
		}
		periods = append(periods, weather.ForecastPeriod{
			Key:             anchor.key,
			Hour:            anchor.hour,
			TempC:           weather.Round1Ptr(nearest.TempC),
			Condition:       condition,
			PrecipChancePct: nearest.PrecipChancePct,
			PrecipMm:        nearest.PrecipMm,
			WindKph:         nearest.WindKph,
		})
	}

	return periods
}

// nearestHour picks the row whose hour is closest to target; ties keep the
// earlier row.
func nearestHour(rows []weather.ForecastHour, target int) *weather.ForecastHour {
	var winner *weather.ForecastHour
	best := math.MaxInt
	for i := range rows {
		distance := rows[i].Hour - target
		if distance < 0 {
			distance = -distance
		}
		if distance < best {
			winner = &rows[i]
			best = distance
		}
	}
	return winner
}

// estimatePeriodTemperature blends a period temperature from the day's
// min/max: night sits at the min, day at the max, morning and evening at
// fixed fractions between them.
func estimatePeriodTemperature(periodKey string, tempMin, tempMax *float64) *float64 {
	if tempMin == nil && tempMax == nil {
		return nil
	}
	if tempMin == nil {
		return tempMax
	}
	if tempMax == nil {
		return tempMin
	}

	switch periodKey {
	case "night":
		return tempMin
	case "morning":
		return weather.Num(*tempMin + (*tempMax-*tempMin)*0.35)
	case "day":
		return tempMax
	default:
		return weather.Num(*tempMin + (*tempMax-*tempMin)*0.52)
	}
}

// conditionFromChance derives a condition from a precipitation chance when
// no explicit condition is available. High chances in freezing temperatures
// read as snow.
func conditionFromChance(chancePct, tempC *float64) weather.Condition {
	chance := 0.0
	if chancePct != nil {
		chance = *chancePct
	}
	below := func(limit float64) bool {
		return tempC != nil && *tempC <= limit
	}

	switch {
	case chance >= 80:
		if below(0) {
			return weather.ConditionSnow
		}
		return weather.ConditionRain
	case chance >= 55:
		if below(-2) {
			return weather.ConditionSnow
		}
		return weather.ConditionCloudy
	case chance >= 35:
		return weather.ConditionCloudy
	default:
		return weather.ConditionClear
	}
}

func clampChancePct(chance *float64) *int {
	if chance == nil {
		return nil
	}
	return weather.Int(int(math.Round(weather.Clamp(*chance, 0, 100))))
}
