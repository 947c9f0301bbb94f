package forecast

import (
	"math"
	"time"

	"github.com/dkravets/weather-consensus/internal/weather"
)

// Synthesize builds a 7-day forecast from the current aggregate alone. It
// mirrors the live forecast's shape so clients never need to care which
// provider produced it: a diurnal temperature curve anchored on the current
// reading, a slow day-to-day drift, and a precipitation chance wave seeded
// from humidity and condition.
func (b *Builder) Synthesize(aggregate weather.AggregateSnapshot) *weather.Forecast {
	now := time.Now().Truncate(time.Hour)

	baseTemp := 8.0
	if aggregate.Temperature != nil {
		baseTemp = *aggregate.Temperature
	}
	baseWind := 14.0
	if aggregate.WindKph != nil {
		baseWind = *aggregate.WindKph
	}
	baseChance := inferChance(aggregate)

	hourly := make([]weather.ForecastHour, 0, forecastDays*24)
	days := make([]weather.ForecastDay, 0, forecastDays)

	for dayIndex := 0; dayIndex < forecastDays; dayIndex++ {
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
			AddDate(0, 0, dayIndex)
		dayDate := dayStart.Format("2006-01-02")

		dayRows := make([]weather.ForecastHour, 0, 24)
		for hour := 0; hour < 24; hour++ {
			point := dayStart.Add(time.Duration(hour) * time.Hour)

			diurnal := math.Cos(math.Pi * float64(hour-14) / 12)
			dayDrift := math.Sin(float64(dayIndex+1)*0.9)*2 + math.Cos(float64(dayIndex+2)*0.35)
			tempC := weather.Round1(baseTemp + dayDrift + diurnal*4.2)

			wave := math.Sin(float64(hour+dayIndex*3)/3.2) * 16
			chancePct := int(math.Round(weather.Clamp(baseChance+wave-float64(dayIndex)*1.2, 5, 95)))
			condition := conditionFromChance(weather.Num(float64(chancePct)), &tempC)

			precipMm := 0.0
			if chancePct >= 40 {
				intensity := 1.0
				if condition == weather.ConditionRain {
					intensity = 1.6
				}
				precipMm = weather.Round1(float64(chancePct) / 100 * intensity)
			}
			windKph := weather.Round1(weather.Clamp(baseWind+math.Sin(float64(hour+dayIndex)/4)*4, 0, 160))

			row := weather.ForecastHour{
				Time:            point.Format("2006-01-02T15:04"),
				Date:            dayDate,
				Hour:            hour,
				TempC:           weather.Num(tempC),
				Condition:       condition,
				PrecipChancePct: weather.Int(chancePct),
				PrecipMm:        weather.Num(precipMm),
				WindKph:         weather.Num(windKph),
			}
			dayRows = append(dayRows, row)
			hourly = append(hourly, row)
		}

		tempMin := minTempC(dayRows)
		tempMax := maxTempC(dayRows)
		chance := maxChancePct(dayRows)
		precip := sumPrecipMm(dayRows)
		midday := nearestHour(dayRows, 14)

		dayCondition := midday.Condition
		if dayCondition == "" {
			dayCondition = conditionFromChance(chance, tempMax)
		}
		fallbackCondition := midday.Condition
		if fallbackCondition == "" {
			fallbackCondition = aggregate.Condition
		}
		if fallbackCondition == "" {
			fallbackCondition = weather.ConditionCloudy
		}

		days = append(days, weather.ForecastDay{
			Date:            dayDate,
			TempMinC:        weather.Round1Ptr(tempMin),
			TempMaxC:        weather.Round1Ptr(tempMax),
			Condition:       dayCondition,
			PrecipChancePct: clampChancePct(chance),
			PrecipMm:        precip,
			Periods: periodsForDay(dayRows, dayFallback{
				tempMin:   tempMin,
				tempMax:   tempMax,
				condition: fallbackCondition,
				chancePct: chance,
			}),
		})
	}

	return &weather.Forecast{
		Provider:    weather.ForecastProviderSynthetic,
		Timezone:    "local",
		GeneratedAt: time.Now().UTC(),
		Days:        days,
		Hourly:      hourly,
	}
}

// inferChance seeds the synthetic precipitation chance from humidity and
// the current condition.
func inferChance(aggregate weather.AggregateSnapshot) float64 {
	humidity := 55.0
	if aggregate.HumidityPct != nil {
		humidity = *aggregate.HumidityPct
	}

	boost := 0.0
	switch aggregate.Condition {
	case weather.ConditionThunderstorm:
		boost = 35
	case weather.ConditionSnow:
		boost = 26
	case weather.ConditionRain:
		boost = 30
	case weather.ConditionFog:
		boost = 15
	case weather.ConditionCloudy:
		boost = 8
	}

	return math.Round(weather.Clamp((humidity-30)*0.85+boost, 6, 92))
}

func minTempC(rows []weather.ForecastHour) *float64 {
	var best *float64
	for _, row := range rows {
		if row.TempC == nil {
			continue
		}
		if best == nil || *row.TempC < *best {
			best = weather.Num(*row.TempC)
		}
	}
	return best
}

func maxTempC(rows []weather.ForecastHour) *float64 {
	var best *float64
	for _, row := range rows {
		if row.TempC == nil {
			continue
		}
		if best == nil || *row.TempC > *best {
			best = weather.Num(*row.TempC)
		}
	}
	return best
}
