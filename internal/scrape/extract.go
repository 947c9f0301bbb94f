package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dkravets/weather-consensus/internal/weather"
)

// Options tune extraction for source-specific quirks.
type Options struct {
	// AssumeWindMps treats unitless wind values as m/s. Some Russian pages
	// print wind speed without a unit and mean m/s.
	AssumeWindMps bool
}

// Result holds the most plausible value found for each metric. A metric
// with no plausible candidate stays nil; nothing is ever fabricated.
type Result struct {
	Temperature *float64
	FeelsLike   *float64
	HumidityPct *float64
	WindKph     *float64
	PressureHpa *float64
	Condition   weather.Condition
}

// ExtractHTML runs the heuristic extractor over a raw HTML document.
func ExtractHTML(rawHTML string, opts Options) Result {
	text := Normalize(strings.Join(signalSections(rawHTML), " "))
	return Extract(text, opts)
}

// Extract scans plain text for weather metrics. Per metric, every regex
// match becomes a candidate scored by keywords in a small context window
// around it; implausible values are discarded and the best score wins,
// first-found winning ties.
func Extract(text string, opts Options) Result {
	return Result{
		Temperature: extractTemperature(text),
		FeelsLike:   extractFeelsLike(text),
		HumidityPct: extractHumidity(text),
		WindKph:     extractWind(text, opts),
		PressureHpa: extractPressure(text),
		Condition:   weather.ConditionFromText(text),
	}
}

const contextWindow = 90 // bytes either side, roughly 60 characters

var (
	degreeRe  = regexp.MustCompile(`(-?\d{1,3}(?:[.,]\d+)?)\s*[°º]\s*([cCfFсСфФ]?)`)
	tempKeyRe = regexp.MustCompile(`(?i)"(?:temp|temperature|temp_c|air_temperature|current_temp|fact_temp)"\s*[:=]\s*"?(-?\d{1,3}(?:[.,]\d+)?)"?`)

	feelsRe    = regexp.MustCompile(`(?i)(?:feels[\s-]?like|realfeel|apparent|ощущается(?:\s+как)?)\D{0,25}(-?\d{1,3}(?:[.,]\d+)?)\s*[°º]?\s*([cCfFсСфФ]?)`)
	feelsKeyRe = regexp.MustCompile(`(?i)"(?:feels_like|apparent_temperature)"\s*[:=]\s*"?(-?\d{1,3}(?:[.,]\d+)?)"?`)

	humidityRe = regexp.MustCompile(`(?i)(?:humidity|влажност[ьи]?|"humidity")\D{0,20}(\d{1,3})\s*%?`)
	windRe     = regexp.MustCompile(`(?i)(?:wind(?:\s*speed)?|wind_speed|ветер)\D{0,25}(-?\d{1,3}(?:[.,]\d+)?)\s*(km/h|kph|m/s|mph|м/с|км/ч)?`)
	pressureRe = regexp.MustCompile(`(?i)(?:pressure_mm|pressure|давлен[иея])\D{0,20}(\d{2,4})(?:\s*(hpa|mb|mbar|mmhg|мм(?:\s*рт)?))?`)
)

type candidate struct {
	value float64
	score int
}

func extractTemperature(text string) *float64 {
	var cands []candidate

	eachMatch(text, degreeRe, func(groups []string, context string) {
		raw, ok := parseNumber(groups[1])
		if !ok {
			return
		}
		celsius := raw
		if unit := strings.ToLower(groups[2]); unit == "f" || unit == "ф" {
			celsius = weather.CelsiusFromFahrenheit(raw)
		}
		cands = append(cands, candidate{
			value: celsius,
			score: scoreContext(context,
				[]string{"current", "now", "currently", "сейчас", "текущ"},
				[]string{"low", "high", "min", "max", "мин", "макс"}),
		})
	})

	eachMatch(text, tempKeyRe, func(groups []string, context string) {
		value, ok := parseNumber(groups[1])
		if !ok {
			return
		}
		cands = append(cands, candidate{
			value: value,
			score: scoreContext(context,
				[]string{"temp", "temperature", "темпер"},
				[]string{"forecast", "day", "night"}),
		})
	})

	return round1Best(cands, -90, 65)
}

func extractFeelsLike(text string) *float64 {
	var cands []candidate

	eachMatch(text, feelsRe, func(groups []string, context string) {
		raw, ok := parseNumber(groups[1])
		if !ok {
			return
		}
		celsius := raw
		if unit := strings.ToLower(groups[2]); unit == "f" || unit == "ф" {
			celsius = weather.CelsiusFromFahrenheit(raw)
		}
		cands = append(cands, candidate{
			value: celsius,
			score: scoreContext(context,
				[]string{"feels", "realfeel", "apparent", "ощущ"},
				[]string{"min", "max"}),
		})
	})

	eachMatch(text, feelsKeyRe, func(groups []string, context string) {
		value, ok := parseNumber(groups[1])
		if !ok {
			return
		}
		cands = append(cands, candidate{
			value: value,
			score: scoreContext(context, []string{"feels_like", "apparent"}, nil),
		})
	})

	return round1Best(cands, -90, 65)
}

func extractHumidity(text string) *float64 {
	var cands []candidate

	eachMatch(text, humidityRe, func(groups []string, context string) {
		value, ok := parseNumber(groups[1])
		if !ok {
			return
		}
		cands = append(cands, candidate{
			value: value,
			score: scoreContext(context, []string{"humidity", "влаж"}, nil),
		})
	})

	best := pickBest(cands, 0, 100)
	return weather.RoundIntPtr(best)
}

func extractWind(text string, opts Options) *float64 {
	var cands []candidate

	eachMatch(text, windRe, func(groups []string, context string) {
		raw, ok := parseNumber(groups[1])
		if !ok {
			return
		}
		kph := raw
		switch strings.ToLower(groups[2]) {
		case "m/s", "м/с":
			kph = weather.KphFromMps(raw)
		case "mph":
			kph = weather.KphFromMph(raw)
		case "":
			if opts.AssumeWindMps {
				kph = weather.KphFromMps(raw)
			}
		}
		cands = append(cands, candidate{
			value: kph,
			score: scoreContext(context, []string{"wind", "ветер"}, nil),
		})
	})

	return round1Best(cands, 0, 200)
}

func extractPressure(text string) *float64 {
	var cands []candidate

	eachMatch(text, pressureRe, func(groups []string, context string) {
		raw, ok := parseNumber(groups[1])
		if !ok {
			return
		}

		unit := strings.ToLower(groups[2])
		hpa := raw
		switch {
		case strings.Contains(unit, "mm") || strings.Contains(unit, "мм"):
			hpa = weather.HpaFromMmHg(raw)
		case strings.Contains(unit, "hpa") || strings.Contains(unit, "mb"):
			hpa = raw
		case strings.Contains(context, "pressure_mm") || (raw >= 680 && raw <= 820):
			// A bare value in the mmHg range is almost certainly mmHg.
			hpa = weather.HpaFromMmHg(raw)
		}

		cands = append(cands, candidate{
			value: hpa,
			score: scoreContext(context, []string{"pressure", "давл"}, nil),
		})
	})

	best := pickBest(cands, 850, 1100)
	return weather.RoundIntPtr(best)
}

// eachMatch invokes fn for every match with its submatch texts and a
// lowercased context window around the match position.
func eachMatch(text string, re *regexp.Regexp, fn func(groups []string, context string)) {
	for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
		groups := make([]string, len(idx)/2)
		for g := 0; g < len(idx)/2; g++ {
			if idx[2*g] >= 0 {
				groups[g] = text[idx[2*g]:idx[2*g+1]]
			}
		}
		fn(groups, sliceContext(text, idx[0]))
	}
}

func sliceContext(text string, index int) string {
	start := index - contextWindow
	if start < 0 {
		start = 0
	}
	end := index + contextWindow
	if end > len(text) {
		end = len(text)
	}
	return strings.ToLower(text[start:end])
}

// scoreContext rewards positive keywords near a candidate and penalizes
// negative ones signaling a non-current value (min/max, forecast).
func scoreContext(context string, positive, negative []string) int {
	score := 1
	for _, hint := range positive {
		if strings.Contains(context, hint) {
			score += 3
		}
	}
	for _, hint := range negative {
		if strings.Contains(context, hint) {
			score -= 2
		}
	}
	return score
}

// pickBest keeps candidates inside the plausibility range and returns the
// highest score. Strict comparison keeps the first-found on ties.
func pickBest(cands []candidate, min, max float64) *float64 {
	var winner *float64
	best := 0
	for _, c := range cands {
		if c.value < min || c.value > max {
			continue
		}
		if winner == nil || c.score > best {
			v := c.value
			winner = &v
			best = c.score
		}
	}
	return winner
}

func round1Best(cands []candidate, min, max float64) *float64 {
	return weather.Round1Ptr(pickBest(cands, min, max))
}

func parseNumber(raw string) (float64, bool) {
	s := strings.ReplaceAll(raw, ",", ".")
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
