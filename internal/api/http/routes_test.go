package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dkravets/weather-consensus/internal/coordinator"
	"github.com/dkravets/weather-consensus/internal/ratelimit"
	"github.com/dkravets/weather-consensus/internal/weather"
)

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, raw string) weather.CityInfo {
	key := strings.ToLower(strings.TrimSpace(raw))
	return weather.CityInfo{Query: raw, Key: key, DisplayName: raw}
}

type stubCollector struct{}

func (stubCollector) Collect(ctx context.Context, city weather.CityInfo) *weather.CitySnapshot {
	return &weather.CitySnapshot{
		City:      city.DisplayName,
		CityKey:   city.Key,
		FetchedAt: time.Now().UTC(),
	}
}

func newTestApp(limits map[ratelimit.Scope]int) *fiber.App {
	app := fiber.New()

	coord := coordinator.New(stubResolver{}, stubCollector{}, coordinator.Options{
		StaleAfter:   time.Minute,
		PollInterval: time.Hour,
		CycleTimeout: time.Second,
	})
	limiter := ratelimit.New(time.Minute, limits)
	RegisterRoutes(app, coord, limiter, "Москва")

	return app
}

func TestWeatherEndpoint(t *testing.T) {
	app := newTestApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/weather?city=minsk", nil)
	resp, err := app.Test(req, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var snap weather.CitySnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if snap.CityKey != "minsk" {
		t.Fatalf("expected cityKey minsk, got %q", snap.CityKey)
	}
}

// TestWeatherEndpointDefaultCity verifies that a missing city parameter
// falls back to the configured default.
func TestWeatherEndpointDefaultCity(t *testing.T) {
	app := newTestApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/weather", nil)
	resp, err := app.Test(req, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var snap weather.CitySnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if snap.CityKey != "москва" {
		t.Fatalf("expected the default city, got %q", snap.CityKey)
	}
}

func TestWeatherEndpointValidation(t *testing.T) {
	app := newTestApp(nil)

	long := strings.Repeat("a", 120)
	req := httptest.NewRequest(http.MethodGet, "/api/weather?city="+long, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	app := newTestApp(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh?city=minsk", nil)
	resp, err := app.Test(req, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRateLimitResponse(t *testing.T) {
	app := newTestApp(map[ratelimit.Scope]int{ratelimit.ScopeAPI: 1})

	req := httptest.NewRequest(http.MethodGet, "/api/weather?city=minsk", nil)
	resp, err := app.Test(req, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for the first request, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/weather?city=minsk", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}

	var body struct {
		Error         string `json:"error"`
		RetryAfterSec int    `json:"retryAfterSec"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("invalid 429 body: %v", err)
	}
	if body.Error != "Too many requests" || body.RetryAfterSec < 1 {
		t.Fatalf("unexpected 429 body: %+v", body)
	}
}

// TestMethodNotAllowed verifies that unmatched API routes and methods get a
// 405.
func TestMethodNotAllowed(t *testing.T) {
	app := newTestApp(nil)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/refresh"},
		{http.MethodDelete, "/api/weather"},
		{http.MethodGet, "/api/unknown"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s %s: unexpected error: %v", tc.method, tc.path, err)
		}
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: expected 405, got %d", tc.method, tc.path, resp.StatusCode)
		}
	}
}
