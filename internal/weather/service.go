package weather

import (
	"context"
	"log"
	"sync"
	"time"
)

// Service runs collection cycles: all sources plus the forecast builder
// concurrently, reduced into one CitySnapshot.
type Service struct {
	sources        []Source
	forecasts      ForecastBuilder
	updateInterval time.Duration
}

// NewService creates a new Service. updateInterval is advertised in
// snapshots so streaming clients know the polling cadence.
func NewService(sources []Source, forecasts ForecastBuilder, updateInterval time.Duration) *Service {
	return &Service{
		sources:        sources,
		forecasts:      forecasts,
		updateInterval: updateInterval,
	}
}

// Collect performs one collection cycle for the city. It never fails: a
// cycle where every source failed still yields a snapshot with not-ok
// readings and a synthetic forecast.
func (s *Service) Collect(ctx context.Context, city CityInfo) *CitySnapshot {
	started := time.Now()

	readings := make([]SourceReading, len(s.sources))
	var wg sync.WaitGroup

	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			readings[i] = src.Fetch(ctx, city)
			if !readings[i].OK {
				log.Printf("source %s failed for %s: %s", src.Kind(), city.Key, readings[i].Error)
			}
		}(i, src)
	}

	// Forecast failure never blocks the cycle; it falls back to synthesis.
	forecastCh := make(chan *Forecast, 1)
	go func() {
		fc, err := s.forecasts.Build(ctx, city)
		if err != nil {
			log.Printf("forecast build failed for %s: %v", city.Key, err)
			forecastCh <- nil
			return
		}
		forecastCh <- fc
	}()

	wg.Wait()

	aggregate := Aggregate(readings)

	forecast := <-forecastCh
	if forecast == nil {
		forecast = s.forecasts.Synthesize(aggregate)
	}

	return &CitySnapshot{
		City:             city.DisplayName,
		CityQuery:        city.Query,
		CityKey:          city.Key,
		FetchedAt:        time.Now().UTC(),
		DurationMs:       time.Since(started).Milliseconds(),
		UpdateIntervalMs: s.updateInterval.Milliseconds(),
		Aggregate:        aggregate,
		Sources:          readings,
		Forecast:         forecast,
	}
}
