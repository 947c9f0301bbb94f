package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dkravets/weather-consensus/internal/scrape"
	"github.com/dkravets/weather-consensus/internal/weather"
)

const meteoinfoLabel = "Meteoinfo.ru"

// Meteoinfo scrapes meteoinfo.ru. The current observation sits in a plain
// two-column table keyed by Russian labels; pressure is mmHg, wind m/s.
type Meteoinfo struct {
	client Fetcher
}

func NewMeteoinfo(client Fetcher) *Meteoinfo {
	return &Meteoinfo{client: client}
}

func (s *Meteoinfo) Kind() weather.SourceKind { return weather.SourceMeteoinfo }
func (s *Meteoinfo) Label() string            { return meteoinfoLabel }

func (s *Meteoinfo) Fetch(ctx context.Context, city weather.CityInfo) weather.SourceReading {
	fetchedAt := time.Now().UTC()

	pageURL, err := s.resolveURL(ctx, city)
	if err != nil {
		return failedReading(weather.SourceMeteoinfo, meteoinfoLabel, "", fetchedAt, err)
	}

	p, err := scrapePage(ctx, s.client, pageURL, parseMeteoinfo, scrape.Options{})
	if err != nil {
		return failedReading(weather.SourceMeteoinfo, meteoinfoLabel, pageURL, fetchedAt, err)
	}

	reading, err := buildReading(weather.SourceMeteoinfo, meteoinfoLabel, pageURL, fetchedAt, p)
	if err != nil {
		return failedReading(weather.SourceMeteoinfo, meteoinfoLabel, pageURL, fetchedAt, err)
	}
	return reading
}

var (
	meteoinfoAbsoluteRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)href="(https?://(?:www\.)?meteoinfo\.ru/pogoda/[^"?#]+)"`),
		regexp.MustCompile(`(?i)href="(https?://(?:www\.)?meteoinfo\.ru/prognoz/[^"?#]+)"`),
	}
	meteoinfoRelativeRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)href="(/pogoda/[^"?#]+)"`),
		regexp.MustCompile(`(?i)href="(/prognoz/[^"?#]+)"`),
	}
)

func (s *Meteoinfo) resolveURL(ctx context.Context, city weather.CityInfo) (string, error) {
	if preset := city.SourceURLs[weather.SourceMeteoinfo]; preset != "" {
		return preset, nil
	}

	searchURL := fmt.Sprintf("https://meteoinfo.ru/search?searchword=%s", url.QueryEscape(city.Query))
	html, err := s.client.Text(ctx, searchURL)
	if err != nil {
		return "", err
	}

	if link := firstAbsoluteLink(html, meteoinfoAbsoluteRes); link != "" {
		return link, nil
	}
	if link := firstRelativeLink(html, meteoinfoRelativeRes, "https://meteoinfo.ru"); link != "" {
		return link, nil
	}
	return searchURL, nil
}

var (
	meteoinfoRowRe       = regexp.MustCompile(`(?is)<tr>\s*<td[^>]*>(.*?)</td>\s*<td[^>]*>(.*?)</td>\s*</tr>`)
	meteoinfoCondFallRe  = regexp.MustCompile(`(?i)<img[^>]*>\s*</td>\s*</tr>\s*<tr>\s*<td[^>]*>\s*([^<]+)\s*</td>`)
	meteoinfoHasLetterRe = regexp.MustCompile(`[A-Za-zЀ-ӿ]`)
	meteoinfoHasDigitRe  = regexp.MustCompile(`\d`)
)

func parseMeteoinfo(html string) parsed {
	var p parsed

	for _, m := range meteoinfoRowRe.FindAllStringSubmatch(html, -1) {
		left := strings.ToLower(scrape.Normalize(m[1]))
		right := scrape.Normalize(m[2])
		if left == "" && right == "" {
			continue
		}

		if strings.Contains(left, "температур") {
			if v := cellNumber(right); v != nil {
				p.temperature = v
			}
		}
		if strings.Contains(left, "влажн") {
			if v := cellNumber(right); v != nil {
				p.humidity = v
			}
		}
		if strings.Contains(left, "давлен") {
			if v := cellNumber(right); v != nil {
				p.pressure = weather.Num(weather.HpaFromMmHg(*v))
			}
		}
		if strings.Contains(left, "ветр") || strings.Contains(left, "ветер") {
			if v := cellNumber(right); v != nil {
				p.wind = weather.Num(weather.KphFromMps(*v))
			}
		}
		if left == "" && meteoinfoHasLetterRe.MatchString(right) && !meteoinfoHasDigitRe.MatchString(right) {
			if cond := weather.ConditionFromText(right); cond != "" {
				p.condition = cond
			}
		}
	}

	if p.condition == "" {
		if m := meteoinfoCondFallRe.FindStringSubmatch(html); m != nil {
			p.condition = weather.ConditionFromText(scrape.Normalize(m[1]))
		}
	}

	return p
}

// cellNumber parses a table cell that holds a bare number.
func cellNumber(text string) *float64 {
	s := strings.ReplaceAll(text, ",", ".")
	s = strings.Join(strings.Fields(s), "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
