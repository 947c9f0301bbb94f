package geo

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/dkravets/weather-consensus/internal/weather"
)

const (
	maxQueryLen = 80

	geocodeEndpoint = "https://geocoding-api.open-meteo.com/v1/search"

	// fallbackKey is used when slugification of the input leaves nothing.
	fallbackKey = "moscow"
)

// Geocoder fetches and decodes a JSON document; fetch.Client satisfies it.
type Geocoder interface {
	JSON(ctx context.Context, url string, v any) error
}

// Resolver turns free-text city input into a canonical CityInfo. Resolve
// never fails: when geocoding is unavailable it degrades to a best-effort
// CityInfo without coordinates.
type Resolver struct {
	client      Geocoder
	defaultCity string
}

// NewResolver creates a Resolver. defaultCity substitutes empty input.
func NewResolver(client Geocoder, defaultCity string) *Resolver {
	return &Resolver{client: client, defaultCity: defaultCity}
}

// Resolve sanitizes the input, derives the canonical key and fills display
// name and coordinates from the preset table or geocoding.
func (r *Resolver) Resolve(ctx context.Context, rawInput string) weather.CityInfo {
	query := r.sanitize(rawInput)
	key := CityKey(query)

	if p, ok := cityPresets[key]; ok {
		return weather.CityInfo{
			Query:       query,
			Key:         key,
			DisplayName: p.displayName,
			Lat:         weather.Num(p.lat),
			Lon:         weather.Num(p.lon),
			SourceURLs:  p.urls,
		}
	}

	if hit, err := r.Geocode(ctx, query); err == nil && hit != nil {
		display := hit.Name
		if hit.Country != "" {
			display = fmt.Sprintf("%s, %s", hit.Name, hit.Country)
		}
		return weather.CityInfo{
			Query:       query,
			Key:         key,
			DisplayName: display,
			Lat:         weather.Num(hit.Lat),
			Lon:         weather.Num(hit.Lon),
		}
	}

	return weather.CityInfo{
		Query:       query,
		Key:         key,
		DisplayName: titleCase(query),
	}
}

func (r *Resolver) sanitize(raw string) string {
	cleaned := strings.Join(strings.Fields(raw), " ")
	if cleaned == "" {
		return r.defaultCity
	}
	if runes := []rune(cleaned); len(runes) > maxQueryLen {
		cleaned = string(runes[:maxQueryLen])
	}
	return cleaned
}

var (
	slugInvalidRe = regexp.MustCompile(`[^a-z0-9]+`)
	slugRepeatRe  = regexp.MustCompile(`-{2,}`)
)

// CityKey derives the canonical cache key for a city query: lowercase,
// alias folding, Cyrillic transliteration, then slugification. The same
// input city always maps to the same key.
func CityKey(input string) string {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if alias, ok := cityAliases[trimmed]; ok {
		trimmed = alias
	}

	var latin strings.Builder
	for _, ch := range trimmed {
		if mapped, ok := translitMap[ch]; ok {
			latin.WriteString(mapped)
		} else {
			latin.WriteRune(ch)
		}
	}

	slug := slugInvalidRe.ReplaceAllString(latin.String(), "-")
	slug = slugRepeatRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fallbackKey
	}
	return slug
}

// GeocodeHit is one geocoding result.
type GeocodeHit struct {
	Name    string
	Country string
	Lat     float64
	Lon     float64
}

// Geocode looks up coordinates for a city name. A nil hit with nil error
// means the service responded but found nothing.
func (r *Resolver) Geocode(ctx context.Context, city string) (*GeocodeHit, error) {
	endpoint := fmt.Sprintf("%s?name=%s&count=1&language=ru&format=json",
		geocodeEndpoint, url.QueryEscape(city))

	var payload struct {
		Results []struct {
			Name        string  `json:"name"`
			CountryCode string  `json:"country_code"`
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := r.client.JSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}

	hit := payload.Results[0]
	name := hit.Name
	if name == "" {
		name = city
	}
	return &GeocodeHit{
		Name:    name,
		Country: hit.CountryCode,
		Lat:     hit.Latitude,
		Lon:     hit.Longitude,
	}, nil
}

func titleCase(input string) string {
	words := strings.Fields(input)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if len(runes) > 0 {
			runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
