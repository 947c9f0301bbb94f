package weather

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubSource struct {
	kind SourceKind
	temp *float64
	fail bool
}

func (s stubSource) Kind() SourceKind { return s.kind }
func (s stubSource) Label() string    { return string(s.kind) }

func (s stubSource) Fetch(ctx context.Context, city CityInfo) SourceReading {
	if s.fail {
		return SourceReading{Source: s.kind, OK: false, Error: "boom", FetchedAt: time.Now()}
	}
	return SourceReading{Source: s.kind, OK: true, Temperature: s.temp, FetchedAt: time.Now()}
}

type stubForecasts struct {
	buildErr   error
	synthCalls int
}

func (f *stubForecasts) Build(ctx context.Context, city CityInfo) (*Forecast, error) {
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	return &Forecast{Provider: ForecastProviderOpenMeteo}, nil
}

func (f *stubForecasts) Synthesize(aggregate AggregateSnapshot) *Forecast {
	f.synthCalls++
	return &Forecast{Provider: ForecastProviderSynthetic}
}

// TestCollectOrderAndAggregate verifies that readings come back in source
// registry order regardless of completion order.
func TestCollectOrderAndAggregate(t *testing.T) {
	svc := NewService([]Source{
		stubSource{kind: SourceMeteoinfo, temp: Num(10)},
		stubSource{kind: SourceGismeteo, fail: true},
		stubSource{kind: SourceYandex, temp: Num(12)},
	}, &stubForecasts{}, 30*time.Second)

	snap := svc.Collect(context.Background(), CityInfo{Key: "minsk", DisplayName: "Минск"})

	if len(snap.Sources) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(snap.Sources))
	}
	order := []SourceKind{SourceMeteoinfo, SourceGismeteo, SourceYandex}
	for i, want := range order {
		if snap.Sources[i].Source != want {
			t.Fatalf("reading %d: expected %s, got %s", i, want, snap.Sources[i].Source)
		}
	}
	if snap.Aggregate.SourceCount != 2 || snap.Aggregate.ExpectedSourceCount != 3 {
		t.Fatalf("unexpected aggregate counts: %+v", snap.Aggregate)
	}
	if snap.Forecast == nil || snap.Forecast.Provider != ForecastProviderOpenMeteo {
		t.Fatalf("expected live forecast, got %+v", snap.Forecast)
	}
	if snap.UpdateIntervalMs != 30000 {
		t.Fatalf("expected updateIntervalMs 30000, got %d", snap.UpdateIntervalMs)
	}
}

// TestCollectForecastFallback verifies that a forecast failure yields a
// synthetic forecast instead of failing the cycle.
func TestCollectForecastFallback(t *testing.T) {
	forecasts := &stubForecasts{buildErr: errors.New("upstream down")}
	svc := NewService([]Source{
		stubSource{kind: SourceMeteoinfo, temp: Num(4)},
	}, forecasts, time.Second)

	snap := svc.Collect(context.Background(), CityInfo{Key: "minsk"})

	if forecasts.synthCalls != 1 {
		t.Fatalf("expected one synthesis, got %d", forecasts.synthCalls)
	}
	if snap.Forecast == nil || snap.Forecast.Provider != ForecastProviderSynthetic {
		t.Fatalf("expected synthetic forecast, got %+v", snap.Forecast)
	}
}
