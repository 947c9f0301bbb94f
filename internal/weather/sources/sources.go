// Package sources holds one adapter per configured weather source. Four
// scrape public pages, two call structured APIs; all of them fold failures
// into not-ok readings so a collection cycle always gets exactly one
// reading per source.
package sources

import (
	"context"
	"errors"
	"time"

	"github.com/dkravets/weather-consensus/internal/geo"
	"github.com/dkravets/weather-consensus/internal/scrape"
	"github.com/dkravets/weather-consensus/internal/weather"
)

// Fetcher is the outbound fetch primitive adapters depend on;
// fetch.Client satisfies it.
type Fetcher interface {
	Text(ctx context.Context, url string) (string, error)
	JSON(ctx context.Context, url string, v any) error
}

// Geocoder resolves a city name to coordinates for API-backed sources
// when CityInfo carries none; geo.Resolver satisfies it.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (*geo.GeocodeHit, error)
}

// All returns the configured sources in their fixed registry order, which
// determines output ordering and aggregation tie-breaks.
func All(client Fetcher, geocoder Geocoder) []weather.Source {
	return []weather.Source{
		NewMeteoinfo(client),
		NewGismeteo(client),
		NewYandex(client),
		NewWeatherCom(client),
		NewMeteoBlue(client, geocoder),
		NewWunderground(client, geocoder),
	}
}

var errNoTemperature = errors.New("cannot parse current temperature")
var errNoCoordinates = errors.New("coordinates are unavailable for this source")

// parsed is an adapter's intermediate per-metric view before it becomes a
// reading.
type parsed struct {
	temperature *float64
	feelsLike   *float64
	humidity    *float64
	wind        *float64
	pressure    *float64
	condition   weather.Condition
}

// merge prefers p's values and falls back to alt per metric.
func (p parsed) merge(alt parsed) parsed {
	pick := func(a, b *float64) *float64 {
		if a != nil {
			return a
		}
		return b
	}
	out := parsed{
		temperature: pick(p.temperature, alt.temperature),
		feelsLike:   pick(p.feelsLike, alt.feelsLike),
		humidity:    pick(p.humidity, alt.humidity),
		wind:        pick(p.wind, alt.wind),
		pressure:    pick(p.pressure, alt.pressure),
		condition:   p.condition,
	}
	if out.condition == "" {
		out.condition = alt.condition
	}
	return out
}

func fromScrape(r scrape.Result) parsed {
	return parsed{
		temperature: r.Temperature,
		feelsLike:   r.FeelsLike,
		humidity:    r.HumidityPct,
		wind:        r.WindKph,
		pressure:    r.PressureHpa,
		condition:   r.Condition,
	}
}

// buildReading turns a parsed result into an ok reading. A reading without
// a temperature is a source failure.
func buildReading(kind weather.SourceKind, label, url string, fetchedAt time.Time, p parsed) (weather.SourceReading, error) {
	if p.temperature == nil {
		return weather.SourceReading{}, errNoTemperature
	}
	return weather.SourceReading{
		Source:      kind,
		Label:       label,
		OK:          true,
		URL:         url,
		FetchedAt:   fetchedAt,
		Temperature: weather.Round1Ptr(p.temperature),
		FeelsLike:   weather.Round1Ptr(p.feelsLike),
		HumidityPct: weather.Round1Ptr(p.humidity),
		WindKph:     weather.Round1Ptr(p.wind),
		PressureHpa: weather.Round1Ptr(p.pressure),
		Condition:   p.condition,
	}, nil
}

// failedReading is the uniform failure shape: all metrics absent, the
// error preserved, the landing URL kept when known.
func failedReading(kind weather.SourceKind, label, url string, fetchedAt time.Time, err error) weather.SourceReading {
	msg := "unknown source error"
	if err != nil {
		msg = err.Error()
	}
	return weather.SourceReading{
		Source:    kind,
		Label:     label,
		OK:        false,
		URL:       url,
		FetchedAt: fetchedAt,
		Error:     msg,
	}
}

// scrapePage fetches a page and merges its source-specific structured
// extraction with the generic heuristic one, preferring structured values.
func scrapePage(ctx context.Context, client Fetcher, url string, structured func(html string) parsed, opts scrape.Options) (parsed, error) {
	html, err := client.Text(ctx, url)
	if err != nil {
		return parsed{}, err
	}
	p := fromScrape(scrape.ExtractHTML(html, opts))
	if structured != nil {
		p = structured(html).merge(p)
	}
	return p, nil
}

// resolveCoordinates returns the city's coordinates, geocoding when the
// resolver could not provide them.
func resolveCoordinates(ctx context.Context, geocoder Geocoder, city weather.CityInfo) (float64, float64, error) {
	if city.HasCoords() {
		return *city.Lat, *city.Lon, nil
	}
	hit, err := geocoder.Geocode(ctx, city.Query)
	if err != nil || hit == nil {
		return 0, 0, errNoCoordinates
	}
	return hit.Lat, hit.Lon, nil
}
