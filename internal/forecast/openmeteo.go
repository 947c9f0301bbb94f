// Package forecast builds the 7-day forecast attached to every snapshot.
// The primary provider is the Open-Meteo forecast API; when it cannot be
// used the builder synthesizes a structurally identical forecast from the
// current aggregate.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/dkravets/weather-consensus/internal/weather"
)

const (
	openMeteoEndpoint = "https://api.open-meteo.com/v1/forecast"
	openMeteoHourly   = "temperature_2m,precipitation_probability,precipitation,weather_code,wind_speed_10m"
	openMeteoDaily    = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max"

	forecastDays = 7
)

var errNoCoordinates = errors.New("coordinates are unavailable for the forecast")
var errEmptyForecast = errors.New("forecast response has no usable data")

// Fetcher fetches and decodes a JSON document; fetch.Client satisfies it.
type Fetcher interface {
	JSON(ctx context.Context, url string, v any) error
}

// Builder fetches and normalizes forecasts. It satisfies
// weather.ForecastBuilder.
type Builder struct {
	client Fetcher
}

func NewBuilder(client Fetcher) *Builder {
	return &Builder{client: client}
}

type openMeteoForecastPayload struct {
	Timezone string `json:"timezone"`
	Hourly   struct {
		Time                     []string   `json:"time"`
		Temperature2m            []*float64 `json:"temperature_2m"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
		Precipitation            []*float64 `json:"precipitation"`
		WeatherCode              []*int     `json:"weather_code"`
		WindSpeed10m             []*float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
	Daily struct {
		Time                        []string   `json:"time"`
		WeatherCode                 []*int     `json:"weather_code"`
		Temperature2mMax            []*float64 `json:"temperature_2m_max"`
		Temperature2mMin            []*float64 `json:"temperature_2m_min"`
		PrecipitationSum            []*float64 `json:"precipitation_sum"`
		PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
}

// Build fetches a 7-day forecast for the city. Cities without coordinates
// cannot be forecast and return an error, which callers turn into a
// synthetic forecast.
func (b *Builder) Build(ctx context.Context, city weather.CityInfo) (*weather.Forecast, error) {
	if !city.HasCoords() {
		return nil, errNoCoordinates
	}

	endpoint := fmt.Sprintf("%s?latitude=%v&longitude=%v&timezone=auto&forecast_days=%d&hourly=%s&daily=%s",
		openMeteoEndpoint, *city.Lat, *city.Lon, forecastDays,
		url.QueryEscape(openMeteoHourly), url.QueryEscape(openMeteoDaily))

	var payload openMeteoForecastPayload
	if err := b.client.JSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return normalizeOpenMeteo(payload)
}

func normalizeOpenMeteo(payload openMeteoForecastPayload) (*weather.Forecast, error) {
	hourly := make([]weather.ForecastHour, 0, len(payload.Hourly.Time))
	for i, t := range payload.Hourly.Time {
		if t == "" {
			continue
		}

		temp := optAt(payload.Hourly.Temperature2m, i)
		code := optAt(payload.Hourly.WeatherCode, i)

		var condition weather.Condition
		if code != nil {
			condition = weather.ConditionFromWeatherCode(*code, temp)
		}

		var chance *int
		if raw := optAt(payload.Hourly.PrecipitationProbability, i); raw != nil {
			chance = weather.Int(int(math.Round(weather.Clamp(*raw, 0, 100))))
		}

		precip := 0.0
		if raw := optAt(payload.Hourly.Precipitation, i); raw != nil {
			precip = *raw
		}
		wind := 0.0
		if raw := optAt(payload.Hourly.WindSpeed10m, i); raw != nil {
			wind = *raw
		}

		hourly = append(hourly, weather.ForecastHour{
			Time:            t,
			Date:            dateOf(t),
			Hour:            isoHour(t),
			TempC:           weather.Round1Ptr(temp),
			Condition:       condition,
			PrecipChancePct: chance,
			PrecipMm:        weather.Num(weather.Round1(weather.Clamp(precip, 0, 999))),
			WindKph:         weather.Num(weather.Round1(weather.Clamp(wind, 0, 220))),
		})
	}

	dailyTimes := payload.Daily.Time
	if len(dailyTimes) > forecastDays {
		dailyTimes = dailyTimes[:forecastDays]
	}

	days := make([]weather.ForecastDay, 0, len(dailyTimes))
	for i, date := range dailyTimes {
		tempMin := optAt(payload.Daily.Temperature2mMin, i)
		tempMax := optAt(payload.Daily.Temperature2mMax, i)
		chanceRaw := optAt(payload.Daily.PrecipitationProbabilityMax, i)
		precipRaw := optAt(payload.Daily.PrecipitationSum, i)
		code := optAt(payload.Daily.WeatherCode, i)

		var dayRows []weather.ForecastHour
		for _, row := range hourly {
			if row.Date == date {
				dayRows = append(dayRows, row)
			}
		}

		var codeCondition weather.Condition
		if code != nil {
			codeCondition = weather.ConditionFromWeatherCode(*code, tempMax)
		}

		periods := periodsForDay(dayRows, dayFallback{
			tempMin:   tempMin,
			tempMax:   tempMax,
			condition: codeCondition,
			chancePct: chanceRaw,
		})

		chance := chanceRaw
		if chance == nil {
			chance = maxChancePct(dayRows)
		}
		chanceValue := 0.0
		if chance != nil {
			chanceValue = *chance
		}
		chancePct := weather.Num(weather.Clamp(chanceValue, 0, 100))

		precip := precipRaw
		if precip == nil {
			precip = sumPrecipMm(dayRows)
		}
		precipValue := 0.0
		if precip != nil {
			precipValue = *precip
		}

		condition := codeCondition
		if condition == "" {
			condition = conditionFromChance(chancePct, tempMax)
		}

		days = append(days, weather.ForecastDay{
			Date:            date,
			TempMinC:        weather.Round1Ptr(tempMin),
			TempMaxC:        weather.Round1Ptr(tempMax),
			Condition:       condition,
			PrecipChancePct: weather.Int(int(math.Round(*chancePct))),
			PrecipMm:        weather.Num(weather.Round1(precipValue)),
			Periods:         periods,
		})
	}

	if len(days) == 0 || len(hourly) == 0 {
		return nil, errEmptyForecast
	}

	timezone := payload.Timezone
	if timezone == "" {
		timezone = "auto"
	}

	return &weather.Forecast{
		Provider:    weather.ForecastProviderOpenMeteo,
		Timezone:    timezone,
		GeneratedAt: time.Now().UTC(),
		Days:        days,
		Hourly:      hourly,
	}, nil
}

func optAt[T any](s []*T, i int) *T {
	if i < len(s) {
		return s[i]
	}
	return nil
}

func dateOf(isoTime string) string {
	if len(isoTime) >= 10 {
		return isoTime[:10]
	}
	return isoTime
}

// isoHour extracts the hour from an ISO-like timestamp such as
// "2024-01-15T09:00".
func isoHour(isoTime string) int {
	for i := 0; i < len(isoTime); i++ {
		if isoTime[i] == 'T' && i+2 < len(isoTime) {
			if hour, err := strconv.Atoi(isoTime[i+1 : i+3]); err == nil {
				return hour
			}
			break
		}
	}
	return 0
}

func maxChancePct(rows []weather.ForecastHour) *float64 {
	var best *float64
	for _, row := range rows {
		if row.PrecipChancePct == nil {
			continue
		}
		v := float64(*row.PrecipChancePct)
		if best == nil || v > *best {
			best = weather.Num(v)
		}
	}
	return best
}

func sumPrecipMm(rows []weather.ForecastHour) *float64 {
	var sum *float64
	for _, row := range rows {
		if row.PrecipMm == nil {
			continue
		}
		if sum == nil {
			sum = weather.Num(0)
		}
		*sum += *row.PrecipMm
	}
	return weather.Round1Ptr(sum)
}
