package sources

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dkravets/weather-consensus/internal/weather"
)

const (
	wundergroundLabel   = "Weather Underground"
	wundergroundLanding = "https://www.wunderground.com"

	metNoEndpoint = "https://api.met.no/weatherapi/locationforecast/2.0/compact"
)

// Wunderground reads current conditions from the met.no locationforecast
// API, taking the first timeseries point that carries instant details.
// met.no reports wind in m/s and does not provide a feels-like value.
type Wunderground struct {
	client   Fetcher
	geocoder Geocoder
}

func NewWunderground(client Fetcher, geocoder Geocoder) *Wunderground {
	return &Wunderground{client: client, geocoder: geocoder}
}

func (s *Wunderground) Kind() weather.SourceKind { return weather.SourceWunderground }
func (s *Wunderground) Label() string            { return wundergroundLabel }

type metNoSummary struct {
	SymbolCode string `json:"symbol_code"`
}

type metNoPoint struct {
	Data struct {
		Instant struct {
			Details *struct {
				AirTemperature        *float64 `json:"air_temperature"`
				RelativeHumidity      *float64 `json:"relative_humidity"`
				WindSpeed             *float64 `json:"wind_speed"`
				AirPressureAtSeaLevel *float64 `json:"air_pressure_at_sea_level"`
			} `json:"details"`
		} `json:"instant"`
		Next1Hours  *metNoNextBlock `json:"next_1_hours"`
		Next6Hours  *metNoNextBlock `json:"next_6_hours"`
		Next12Hours *metNoNextBlock `json:"next_12_hours"`
	} `json:"data"`
}

type metNoNextBlock struct {
	Summary metNoSummary `json:"summary"`
}

type metNoPayload struct {
	Properties struct {
		Timeseries []metNoPoint `json:"timeseries"`
	} `json:"properties"`
}

func (s *Wunderground) Fetch(ctx context.Context, city weather.CityInfo) weather.SourceReading {
	fetchedAt := time.Now().UTC()

	lat, lon, err := resolveCoordinates(ctx, s.geocoder, city)
	if err != nil {
		return failedReading(weather.SourceWunderground, wundergroundLabel, wundergroundLanding, fetchedAt, err)
	}

	endpoint := fmt.Sprintf("%s?lat=%v&lon=%v", metNoEndpoint, lat, lon)

	var payload metNoPayload
	if err := s.client.JSON(ctx, endpoint, &payload); err != nil {
		return failedReading(weather.SourceWunderground, wundergroundLabel, wundergroundLanding, fetchedAt, err)
	}
	if len(payload.Properties.Timeseries) == 0 {
		return failedReading(weather.SourceWunderground, wundergroundLabel, wundergroundLanding, fetchedAt,
			fmt.Errorf("weather underground response is missing timeseries"))
	}

	var point *metNoPoint
	for i := range payload.Properties.Timeseries {
		if payload.Properties.Timeseries[i].Data.Instant.Details != nil {
			point = &payload.Properties.Timeseries[i]
			break
		}
	}
	if point == nil {
		return failedReading(weather.SourceWunderground, wundergroundLabel, wundergroundLanding, fetchedAt,
			fmt.Errorf("weather underground response is missing instant details"))
	}

	details := point.Data.Instant.Details
	if details.AirTemperature == nil {
		return failedReading(weather.SourceWunderground, wundergroundLabel, wundergroundLanding, fetchedAt, errNoTemperature)
	}

	var wind *float64
	if details.WindSpeed != nil {
		wind = weather.Num(weather.KphFromMps(*details.WindSpeed))
	}

	symbol := ""
	for _, candidate := range []string{
		summaryCode(point.Data.Next1Hours),
		summaryCode(point.Data.Next6Hours),
		summaryCode(point.Data.Next12Hours),
	} {
		if strings.TrimSpace(candidate) != "" {
			symbol = candidate
			break
		}
	}

	p := parsed{
		temperature: details.AirTemperature,
		humidity:    details.RelativeHumidity,
		wind:        wind,
		pressure:    details.AirPressureAtSeaLevel,
		condition:   conditionFromMetNoSymbol(symbol, details.AirTemperature),
	}

	reading, err := buildReading(weather.SourceWunderground, wundergroundLabel, wundergroundLanding, fetchedAt, p)
	if err != nil {
		return failedReading(weather.SourceWunderground, wundergroundLabel, wundergroundLanding, fetchedAt, err)
	}
	return reading
}

func summaryCode(block *metNoNextBlock) string {
	if block == nil {
		return ""
	}
	return block.Summary.SymbolCode
}

var (
	metNoThunderRe = regexp.MustCompile(`thunder`)
	metNoSnowRe    = regexp.MustCompile(`snow|sleet`)
	metNoRainRe    = regexp.MustCompile(`rain|drizzle|shower`)
	metNoFogRe     = regexp.MustCompile(`fog|mist|haze`)
	metNoCloudRe   = regexp.MustCompile(`cloud|overcast|partlycloudy`)
	metNoClearRe   = regexp.MustCompile(`clear|fair|sun`)
)

// conditionFromMetNoSymbol maps met.no symbol codes like "partlycloudy_day"
// or "lightrainshowers_night" to a condition. Rain symbols flip to snow
// below -1C.
func conditionFromMetNoSymbol(symbolCode string, tempC *float64) weather.Condition {
	if symbolCode == "" {
		return ""
	}
	normalized := strings.ToLower(symbolCode)

	switch {
	case metNoThunderRe.MatchString(normalized):
		return weather.ConditionThunderstorm
	case metNoSnowRe.MatchString(normalized):
		return weather.ConditionSnow
	case metNoRainRe.MatchString(normalized):
		if tempC != nil && *tempC <= -1 {
			return weather.ConditionSnow
		}
		return weather.ConditionRain
	case metNoFogRe.MatchString(normalized):
		return weather.ConditionFog
	case metNoCloudRe.MatchString(normalized):
		return weather.ConditionCloudy
	case metNoClearRe.MatchString(normalized):
		return weather.ConditionClear
	}

	return weather.ConditionFromText(strings.ReplaceAll(normalized, "_", " "))
}
