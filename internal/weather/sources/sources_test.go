package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkravets/weather-consensus/internal/weather"
)

func TestParseGismeteoStateBlob(t *testing.T) {
	html := `<html><script>window.M.state = {"weather":{"cw":{` +
		`"temperatureAir":[-4.3],"temperatureFeelsLike":[-9],"humidity":[87],` +
		`"windSpeed":[5],"pressure":[747],"description":["Пасмурно, снег"]}}};</script></html>`

	p := parseGismeteo(html)
	if p.temperature == nil || *p.temperature != -4.3 {
		t.Fatalf("expected temperature -4.3, got %v", p.temperature)
	}
	if p.feelsLike == nil || *p.feelsLike != -9 {
		t.Fatalf("expected feels-like -9, got %v", p.feelsLike)
	}
	if p.wind == nil || *p.wind != 18 {
		t.Fatalf("expected wind 18 km/h from 5 m/s, got %v", p.wind)
	}
	if p.pressure == nil || weather.Round1(*p.pressure) != 995.9 {
		t.Fatalf("expected about 995.9 hPa from 747 mmHg, got %v", p.pressure)
	}
	if p.condition != weather.ConditionSnow {
		t.Fatalf("expected Snow, got %q", p.condition)
	}
}

func TestParseGismeteoWithoutBlob(t *testing.T) {
	p := parseGismeteo("<html><body>nothing here</body></html>")
	if p.temperature != nil || p.condition != "" {
		t.Fatalf("expected empty parse, got %+v", p)
	}
}

func TestParseMeteoinfoTable(t *testing.T) {
	html := `<table>` +
		`<tr><td>Температура воздуха</td><td>-7,2</td></tr>` +
		`<tr><td>Влажность</td><td>81</td></tr>` +
		`<tr><td>Давление</td><td>745</td></tr>` +
		`<tr><td>Скорость ветра</td><td>3</td></tr>` +
		`<tr><td></td><td>Облачно</td></tr>` +
		`</table>`

	p := parseMeteoinfo(html)
	if p.temperature == nil || *p.temperature != -7.2 {
		t.Fatalf("expected -7.2, got %v", p.temperature)
	}
	if p.humidity == nil || *p.humidity != 81 {
		t.Fatalf("expected humidity 81, got %v", p.humidity)
	}
	if p.pressure == nil || weather.Round1(*p.pressure) != 993.2 {
		t.Fatalf("expected about 993.2 hPa, got %v", p.pressure)
	}
	if p.wind == nil || weather.Round1(*p.wind) != 10.8 {
		t.Fatalf("expected 10.8 km/h from 3 m/s, got %v", p.wind)
	}
	if p.condition != weather.ConditionCloudy {
		t.Fatalf("expected Cloudy, got %q", p.condition)
	}
}

func TestParseWeatherComImperial(t *testing.T) {
	html := `{"units:e":1,"observation": {"temperature":41,"temperatureFeelsLike":36,` +
		`"relativeHumidity":70,"windSpeed":10,"pressureAltimeter":29.92,"wxPhraseLong":"Light Rain"}}`

	p := parseWeatherCom(html)
	if p.temperature == nil || *p.temperature != 5 {
		t.Fatalf("expected 5C from 41F, got %v", p.temperature)
	}
	if p.wind == nil || weather.Round1(*p.wind) != 16.1 {
		t.Fatalf("expected about 16.1 km/h from 10 mph, got %v", p.wind)
	}
	if p.pressure == nil || weather.Round1(*p.pressure) != 1013.2 {
		t.Fatalf("expected about 1013.2 hPa from 29.92 inHg, got %v", p.pressure)
	}
	if p.condition != weather.ConditionRain {
		t.Fatalf("expected Rain, got %q", p.condition)
	}
}

func TestParseWeatherComMetric(t *testing.T) {
	html := `"observation": {"temperature":12,"relativeHumidity":55,` +
		`"windSpeedKph":20,"pressureMeanSeaLevel":1015,"wxPhraseLong":"Cloudy"}`

	p := parseWeatherCom(html)
	if p.temperature == nil || *p.temperature != 12 {
		t.Fatalf("expected 12C untouched, got %v", p.temperature)
	}
	if p.wind == nil || *p.wind != 20 {
		t.Fatalf("expected 20 km/h untouched, got %v", p.wind)
	}
	if p.pressure == nil || *p.pressure != 1015 {
		t.Fatalf("expected 1015 hPa, got %v", p.pressure)
	}
}

func TestMergePrefersStructured(t *testing.T) {
	primary := parsed{temperature: weather.Num(-4), condition: weather.ConditionSnow}
	fallback := parsed{temperature: weather.Num(-10), humidity: weather.Num(80), condition: weather.ConditionCloudy}

	merged := primary.merge(fallback)
	if *merged.temperature != -4 {
		t.Fatalf("structured temperature should win, got %v", *merged.temperature)
	}
	if merged.humidity == nil || *merged.humidity != 80 {
		t.Fatalf("missing metrics should fall back, got %v", merged.humidity)
	}
	if merged.condition != weather.ConditionSnow {
		t.Fatalf("structured condition should win, got %q", merged.condition)
	}
}

func TestBuildReadingRequiresTemperature(t *testing.T) {
	_, err := buildReading(weather.SourceYandex, yandexLabel, "u", time.Now(), parsed{humidity: weather.Num(50)})
	if !errors.Is(err, errNoTemperature) {
		t.Fatalf("expected errNoTemperature, got %v", err)
	}
}

type stubFetcher struct {
	text string
	err  error
}

func (s stubFetcher) Text(ctx context.Context, url string) (string, error) {
	return s.text, s.err
}

func (s stubFetcher) JSON(ctx context.Context, url string, v any) error {
	return errors.New("not implemented")
}

// TestYandexFetchFailure verifies the uniform failure reading shape.
func TestYandexFetchFailure(t *testing.T) {
	src := NewYandex(stubFetcher{err: errors.New("HTTP 503 from https://yandex.ru/pogoda/minsk")})

	reading := src.Fetch(context.Background(), weather.CityInfo{Query: "minsk", Key: "minsk"})
	if reading.OK {
		t.Fatal("expected a failed reading")
	}
	if reading.Source != weather.SourceYandex || reading.Label != yandexLabel {
		t.Fatalf("unexpected identity: %+v", reading)
	}
	if reading.Temperature != nil || reading.Error == "" {
		t.Fatalf("failed reading should carry only the error: %+v", reading)
	}
}

func TestYandexFetchParsesPage(t *testing.T) {
	src := NewYandex(stubFetcher{text: `<html><title>Погода: сейчас -5°C, ветер 3 м/с, влажность 70%</title></html>`})

	reading := src.Fetch(context.Background(), weather.CityInfo{Query: "minsk", Key: "minsk"})
	if !reading.OK {
		t.Fatalf("expected an ok reading, got error %q", reading.Error)
	}
	if reading.Temperature == nil || *reading.Temperature != -5 {
		t.Fatalf("expected -5, got %v", reading.Temperature)
	}
	if reading.WindKph == nil || *reading.WindKph != 10.8 {
		t.Fatalf("expected 10.8 km/h, got %v", reading.WindKph)
	}
}
