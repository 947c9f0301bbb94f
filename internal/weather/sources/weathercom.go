package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dkravets/weather-consensus/internal/scrape"
	"github.com/dkravets/weather-consensus/internal/weather"
)

const weatherComLabel = "Weather.com"

// WeatherCom scrapes weather.com. The page ships a redux-style payload with
// an "observation" object; depending on the locale the observation comes in
// imperial units, detected from the surrounding payload or from an
// altimeter value that only makes sense in inHg.
type WeatherCom struct {
	client Fetcher
}

func NewWeatherCom(client Fetcher) *WeatherCom {
	return &WeatherCom{client: client}
}

func (s *WeatherCom) Kind() weather.SourceKind { return weather.SourceWeatherCom }
func (s *WeatherCom) Label() string            { return weatherComLabel }

func (s *WeatherCom) Fetch(ctx context.Context, city weather.CityInfo) weather.SourceReading {
	fetchedAt := time.Now().UTC()
	pageURL := s.resolveURL(city)

	p, err := scrapePage(ctx, s.client, pageURL, parseWeatherCom, scrape.Options{})
	if err != nil {
		return failedReading(weather.SourceWeatherCom, weatherComLabel, pageURL, fetchedAt, err)
	}

	reading, err := buildReading(weather.SourceWeatherCom, weatherComLabel, pageURL, fetchedAt, p)
	if err != nil {
		return failedReading(weather.SourceWeatherCom, weatherComLabel, pageURL, fetchedAt, err)
	}
	return reading
}

func (s *WeatherCom) resolveURL(city weather.CityInfo) string {
	if preset := city.SourceURLs[weather.SourceWeatherCom]; preset != "" {
		return preset
	}
	if city.HasCoords() {
		return fmt.Sprintf("https://weather.com/weather/today/l/%v,%v", *city.Lat, *city.Lon)
	}
	return "https://weather.com/weather/today"
}

const weatherComToken = `"observation":`

// observationContext is how far around the observation token to look for
// unit markers.
const observationContext = 9000

type weatherComObservation struct {
	Temperature          *float64 `json:"temperature"`
	TemperatureFeelsLike *float64 `json:"temperatureFeelsLike"`
	RelativeHumidity     *float64 `json:"relativeHumidity"`
	Humidity             *float64 `json:"humidity"`
	WindSpeed            *float64 `json:"windSpeed"`
	WindSpeedMph         *float64 `json:"windSpeedMph"`
	WindSpeedKph         *float64 `json:"windSpeedKph"`
	PressureMeanSeaLevel *float64 `json:"pressureMeanSeaLevel"`
	PressureAltimeter    *float64 `json:"pressureAltimeter"`
	Pressure             *float64 `json:"pressure"`
	WxPhraseLong         string   `json:"wxPhraseLong"`
	WxPhraseMedium       string   `json:"wxPhraseMedium"`
	WxPhraseShort        string   `json:"wxPhraseShort"`
	CloudCoverPhrase     string   `json:"cloudCoverPhrase"`
}

func parseWeatherCom(html string) parsed {
	index := strings.Index(html, weatherComToken)
	if index == -1 {
		return parsed{}
	}

	blob, ok := scrape.JSONAfterToken(html, weatherComToken)
	if !ok {
		return parsed{}
	}
	var obs weatherComObservation
	if err := json.Unmarshal([]byte(blob), &obs); err != nil {
		return parsed{}
	}

	lo := index - observationContext
	if lo < 0 {
		lo = 0
	}
	hi := index + observationContext
	if hi > len(html) {
		hi = len(html)
	}
	localContext := strings.ToLower(html[lo:hi])

	usesImperial := strings.Contains(localContext, "units:e") ||
		(obs.PressureAltimeter != nil && *obs.PressureAltimeter > 10 && *obs.PressureAltimeter < 40)

	var p parsed

	if obs.Temperature != nil {
		t := *obs.Temperature
		if usesImperial || t > 60 {
			t = weather.CelsiusFromFahrenheit(t)
		}
		p.temperature = &t
	}
	if obs.TemperatureFeelsLike != nil {
		t := *obs.TemperatureFeelsLike
		if usesImperial || t > 60 {
			t = weather.CelsiusFromFahrenheit(t)
		}
		p.feelsLike = &t
	}

	p.humidity = firstValue(obs.RelativeHumidity, obs.Humidity)

	if wind := firstValue(obs.WindSpeed, obs.WindSpeedMph, obs.WindSpeedKph); wind != nil {
		v := *wind
		if usesImperial || obs.WindSpeedMph != nil {
			v = weather.KphFromMph(v)
		}
		p.wind = &v
	}

	var altimeterHpa *float64
	if obs.PressureAltimeter != nil {
		altimeterHpa = weather.Num(weather.HpaFromInHg(*obs.PressureAltimeter))
	}
	p.pressure = firstValue(obs.PressureMeanSeaLevel, altimeterHpa, obs.Pressure)

	for _, phrase := range []string{obs.WxPhraseLong, obs.WxPhraseMedium, obs.WxPhraseShort, obs.CloudCoverPhrase} {
		if strings.TrimSpace(phrase) != "" {
			p.condition = weather.ConditionFromText(phrase)
			break
		}
	}

	return p
}

func firstValue(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
