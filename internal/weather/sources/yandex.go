package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/dkravets/weather-consensus/internal/scrape"
	"github.com/dkravets/weather-consensus/internal/weather"
)

const yandexLabel = "Яндекс Погода"

// Yandex scrapes yandex.ru/pogoda. The page markup changes often, so this
// adapter relies entirely on the generic extractor; bare wind numbers on
// the page are m/s.
type Yandex struct {
	client Fetcher
}

func NewYandex(client Fetcher) *Yandex {
	return &Yandex{client: client}
}

func (s *Yandex) Kind() weather.SourceKind { return weather.SourceYandex }
func (s *Yandex) Label() string            { return yandexLabel }

func (s *Yandex) Fetch(ctx context.Context, city weather.CityInfo) weather.SourceReading {
	fetchedAt := time.Now().UTC()
	pageURL := s.resolveURL(city)

	p, err := scrapePage(ctx, s.client, pageURL, nil, scrape.Options{AssumeWindMps: true})
	if err != nil {
		return failedReading(weather.SourceYandex, yandexLabel, pageURL, fetchedAt, err)
	}

	reading, err := buildReading(weather.SourceYandex, yandexLabel, pageURL, fetchedAt, p)
	if err != nil {
		return failedReading(weather.SourceYandex, yandexLabel, pageURL, fetchedAt, err)
	}
	return reading
}

func (s *Yandex) resolveURL(city weather.CityInfo) string {
	if preset := city.SourceURLs[weather.SourceYandex]; preset != "" {
		return preset
	}
	if city.HasCoords() {
		return fmt.Sprintf("https://yandex.ru/pogoda/?lat=%v&lon=%v", *city.Lat, *city.Lon)
	}
	return fmt.Sprintf("https://yandex.ru/pogoda/%s", city.Key)
}
