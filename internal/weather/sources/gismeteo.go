package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dkravets/weather-consensus/internal/scrape"
	"github.com/dkravets/weather-consensus/internal/weather"
)

const gismeteoLabel = "GISMETEO.ru"

// Gismeteo scrapes gismeteo.ru. Pages embed the current weather in a
// window.M.state blob whose cw node carries array-wrapped metric fields in
// m/s and mmHg.
type Gismeteo struct {
	client Fetcher
}

func NewGismeteo(client Fetcher) *Gismeteo {
	return &Gismeteo{client: client}
}

func (s *Gismeteo) Kind() weather.SourceKind { return weather.SourceGismeteo }
func (s *Gismeteo) Label() string            { return gismeteoLabel }

func (s *Gismeteo) Fetch(ctx context.Context, city weather.CityInfo) weather.SourceReading {
	fetchedAt := time.Now().UTC()

	pageURL, err := s.resolveURL(ctx, city)
	if err != nil {
		return failedReading(weather.SourceGismeteo, gismeteoLabel, "", fetchedAt, err)
	}

	p, err := scrapePage(ctx, s.client, pageURL, parseGismeteo, scrape.Options{})
	if err != nil {
		return failedReading(weather.SourceGismeteo, gismeteoLabel, pageURL, fetchedAt, err)
	}

	reading, err := buildReading(weather.SourceGismeteo, gismeteoLabel, pageURL, fetchedAt, p)
	if err != nil {
		return failedReading(weather.SourceGismeteo, gismeteoLabel, pageURL, fetchedAt, err)
	}
	return reading
}

var (
	gismeteoAbsoluteRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)href="(https?://www\.gismeteo\.ru/weather-[^"?#]+/)"`),
		regexp.MustCompile(`(?i)href="(https?://gismeteo\.ru/weather-[^"?#]+/)"`),
	}
	gismeteoRelativeRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)href="(/weather-[^"?#]+/)"`),
	}
)

func (s *Gismeteo) resolveURL(ctx context.Context, city weather.CityInfo) (string, error) {
	if preset := city.SourceURLs[weather.SourceGismeteo]; preset != "" {
		return preset, nil
	}

	searchURL := fmt.Sprintf("https://www.gismeteo.ru/search/%s/", url.PathEscape(city.Query))
	html, err := s.client.Text(ctx, searchURL)
	if err != nil {
		return "", err
	}

	if link := firstAbsoluteLink(html, gismeteoAbsoluteRes); link != "" {
		return link, nil
	}
	if link := firstRelativeLink(html, gismeteoRelativeRes, "https://www.gismeteo.ru"); link != "" {
		return link, nil
	}
	return searchURL, nil
}

const gismeteoStateToken = "window.M.state ="

func parseGismeteo(html string) parsed {
	blob, ok := scrape.JSONAfterToken(html, gismeteoStateToken)
	if !ok {
		return parsed{}
	}

	var state map[string]any
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return parsed{}
	}

	cw, ok := dig(state, "weather", "cw")
	if !ok {
		return parsed{}
	}

	var p parsed
	p.temperature = firstNumber(cw["temperatureAir"])
	p.feelsLike = firstNumber(cw["temperatureFeelsLike"])
	p.humidity = firstNumber(cw["humidity"])
	if v := firstNumber(cw["windSpeed"]); v != nil {
		p.wind = weather.Num(weather.KphFromMps(*v))
	}
	if v := firstNumber(cw["pressure"]); v != nil {
		p.pressure = weather.Num(weather.HpaFromMmHg(*v))
	}
	p.condition = weather.ConditionFromText(firstString(cw["description"]))
	return p
}

func dig(m map[string]any, keys ...string) (map[string]any, bool) {
	cur := m
	for _, key := range keys {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// firstNumber unwraps array-wrapped values and coerces numbers or numeric
// strings.
func firstNumber(v any) *float64 {
	switch t := v.(type) {
	case []any:
		if len(t) > 0 {
			return firstNumber(t[0])
		}
	case float64:
		return &t
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", ".")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}

func firstString(v any) string {
	switch t := v.(type) {
	case []any:
		if len(t) > 0 {
			return firstString(t[0])
		}
	case string:
		return t
	}
	return ""
}
