package weather

import (
	"context"
)

// Source abstracts one weather data source (scraped page or structured
// API). Fetch never returns an error: a failed source yields a reading
// with OK=false so a collection cycle always receives exactly one reading
// per configured source.
type Source interface {
	Kind() SourceKind
	Label() string
	Fetch(ctx context.Context, city CityInfo) SourceReading
}

// ForecastBuilder produces a normalized forecast from an upstream API, or
// synthesizes one from the current aggregate when live data is unavailable.
type ForecastBuilder interface {
	Build(ctx context.Context, city CityInfo) (*Forecast, error)
	Synthesize(agg AggregateSnapshot) *Forecast
}
