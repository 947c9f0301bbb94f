package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dkravets/weather-consensus/internal/weather"
)

const (
	meteoBlueLabel   = "MeteoBlue"
	meteoBlueLanding = "https://www.meteoblue.com"

	openMeteoEndpoint = "https://api.open-meteo.com/v1/forecast"
	openMeteoCurrent  = "temperature_2m,apparent_temperature,relative_humidity_2m,pressure_msl,wind_speed_10m,weather_code"
)

// MeteoBlue reads current conditions from the Open-Meteo forecast API. It
// needs coordinates, so cities the resolver could not place are geocoded
// before the call.
type MeteoBlue struct {
	client   Fetcher
	geocoder Geocoder
}

func NewMeteoBlue(client Fetcher, geocoder Geocoder) *MeteoBlue {
	return &MeteoBlue{client: client, geocoder: geocoder}
}

func (s *MeteoBlue) Kind() weather.SourceKind { return weather.SourceMeteoBlue }
func (s *MeteoBlue) Label() string            { return meteoBlueLabel }

type openMeteoCurrentPayload struct {
	Current *struct {
		Temperature2m       *float64 `json:"temperature_2m"`
		ApparentTemperature *float64 `json:"apparent_temperature"`
		RelativeHumidity2m  *float64 `json:"relative_humidity_2m"`
		PressureMsl         *float64 `json:"pressure_msl"`
		WindSpeed10m        *float64 `json:"wind_speed_10m"`
		WeatherCode         *int     `json:"weather_code"`
	} `json:"current"`
	CurrentUnits struct {
		WindSpeed10m string `json:"wind_speed_10m"`
	} `json:"current_units"`
}

func (s *MeteoBlue) Fetch(ctx context.Context, city weather.CityInfo) weather.SourceReading {
	fetchedAt := time.Now().UTC()

	lat, lon, err := resolveCoordinates(ctx, s.geocoder, city)
	if err != nil {
		return failedReading(weather.SourceMeteoBlue, meteoBlueLabel, meteoBlueLanding, fetchedAt, err)
	}

	endpoint := fmt.Sprintf("%s?latitude=%v&longitude=%v&timezone=auto&current=%s",
		openMeteoEndpoint, lat, lon, url.QueryEscape(openMeteoCurrent))

	var payload openMeteoCurrentPayload
	if err := s.client.JSON(ctx, endpoint, &payload); err != nil {
		return failedReading(weather.SourceMeteoBlue, meteoBlueLabel, meteoBlueLanding, fetchedAt, err)
	}
	cur := payload.Current
	if cur == nil {
		return failedReading(weather.SourceMeteoBlue, meteoBlueLabel, meteoBlueLanding, fetchedAt,
			fmt.Errorf("meteoblue response is missing current weather"))
	}
	if cur.Temperature2m == nil {
		return failedReading(weather.SourceMeteoBlue, meteoBlueLabel, meteoBlueLanding, fetchedAt, errNoTemperature)
	}

	wind := cur.WindSpeed10m
	if wind != nil && strings.Contains(strings.ToLower(payload.CurrentUnits.WindSpeed10m), "m/s") {
		wind = weather.Num(weather.KphFromMps(*wind))
	}

	var condition weather.Condition
	if cur.WeatherCode != nil {
		condition = weather.ConditionFromWeatherCode(*cur.WeatherCode, cur.Temperature2m)
	}

	p := parsed{
		temperature: cur.Temperature2m,
		feelsLike:   cur.ApparentTemperature,
		humidity:    cur.RelativeHumidity2m,
		wind:        wind,
		pressure:    cur.PressureMsl,
		condition:   condition,
	}

	reading, err := buildReading(weather.SourceMeteoBlue, meteoBlueLabel, meteoBlueLanding, fetchedAt, p)
	if err != nil {
		return failedReading(weather.SourceMeteoBlue, meteoBlueLabel, meteoBlueLanding, fetchedAt, err)
	}
	return reading
}
