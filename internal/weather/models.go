package weather

import (
	"time"
)

// SourceKind identifies one configured data source. The set is fixed;
// output ordering follows the registry order in sources.All.
type SourceKind string

const (
	SourceMeteoinfo    SourceKind = "meteoinfo"
	SourceGismeteo     SourceKind = "gismeteo"
	SourceYandex       SourceKind = "yandex"
	SourceWeatherCom   SourceKind = "weathercom"
	SourceMeteoBlue    SourceKind = "meteoblue"
	SourceWunderground SourceKind = "wunderground"
)

// CityInfo is the resolved identity of a requested city. Key is the
// canonical cache identity: the same input city always maps to the same key.
type CityInfo struct {
	Query       string   `json:"cityQuery"`
	Key         string   `json:"cityKey"`
	DisplayName string   `json:"city"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`

	// SourceURLs carries preset landing pages for scraped sources.
	SourceURLs map[SourceKind]string `json:"-"`
}

// HasCoords reports whether both coordinates are known.
func (c CityInfo) HasCoords() bool {
	return c.Lat != nil && c.Lon != nil
}

// SourceReading is one source's normalized view of the current weather,
// produced once per collection cycle. Numeric fields are canonical units:
// Celsius, km/h, hPa, percent.
type SourceReading struct {
	Source      SourceKind `json:"source"`
	Label       string     `json:"label"`
	OK          bool       `json:"ok"`
	URL         string     `json:"url,omitempty"`
	FetchedAt   time.Time  `json:"fetchedAt"`
	Temperature *float64   `json:"temperatureC"`
	FeelsLike   *float64   `json:"feelsLikeC"`
	HumidityPct *float64   `json:"humidityPct"`
	WindKph     *float64   `json:"windKph"`
	PressureHpa *float64   `json:"pressureHpa"`
	Condition   Condition  `json:"condition,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// AggregateSnapshot is the consensus over one cycle's readings.
type AggregateSnapshot struct {
	SourceCount         int       `json:"sourceCount"`
	ExpectedSourceCount int       `json:"expectedSourceCount"`
	ConfidencePct       int       `json:"confidencePct"`
	Temperature         *float64  `json:"temperatureC"`
	FeelsLike           *float64  `json:"feelsLikeC"`
	HumidityPct         *float64  `json:"humidityPct"`
	WindKph             *float64  `json:"windKph"`
	PressureHpa         *float64  `json:"pressureHpa"`
	Condition           Condition `json:"condition,omitempty"`
}

// ForecastHour is one hour-level forecast point.
type ForecastHour struct {
	Time            string    `json:"time"`
	Date            string    `json:"date"`
	Hour            int       `json:"hour"`
	TempC           *float64  `json:"tempC"`
	Condition       Condition `json:"condition,omitempty"`
	PrecipChancePct *int      `json:"precipChancePct"`
	PrecipMm        *float64  `json:"precipMm"`
	WindKph         *float64  `json:"windKph"`
}

// ForecastPeriod summarizes one of the four fixed day segments.
type ForecastPeriod struct {
	Key             string    `json:"key"` // night, morning, day, evening
	Hour            int       `json:"hour"`
	TempC           *float64  `json:"tempC"`
	Condition       Condition `json:"condition,omitempty"`
	PrecipChancePct *int      `json:"precipChancePct"`
	PrecipMm        *float64  `json:"precipMm"`
	WindKph         *float64  `json:"windKph"`
}

// ForecastDay is one calendar day of the forecast.
type ForecastDay struct {
	Date            string           `json:"date"` // YYYY-MM-DD
	TempMinC        *float64         `json:"tempMinC"`
	TempMaxC        *float64         `json:"tempMaxC"`
	Condition       Condition        `json:"condition,omitempty"`
	PrecipChancePct *int             `json:"precipChancePct"`
	PrecipMm        *float64         `json:"precipMm"`
	Periods         []ForecastPeriod `json:"periods"`
}

// Forecast provider names.
const (
	ForecastProviderOpenMeteo = "open-meteo"
	ForecastProviderSynthetic = "synthetic"
)

// Forecast holds up to 7 days of normalized forecast data. A synthetic
// forecast is structurally identical and marked by Provider so consumers
// can tell it apart from live data.
type Forecast struct {
	Provider    string         `json:"provider"`
	Timezone    string         `json:"timezone"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Days        []ForecastDay  `json:"daily"`
	Hourly      []ForecastHour `json:"hourly"`
}

// CitySnapshot is the unit of caching and broadcast: the full result of one
// collection cycle for one city.
type CitySnapshot struct {
	City             string            `json:"city"`
	CityQuery        string            `json:"cityQuery"`
	CityKey          string            `json:"cityKey"`
	FetchedAt        time.Time         `json:"fetchedAt"`
	DurationMs       int64             `json:"durationMs"`
	UpdateIntervalMs int64             `json:"updateIntervalMs"`
	Aggregate        AggregateSnapshot `json:"aggregate"`
	Sources          []SourceReading   `json:"sources"`
	Forecast         *Forecast         `json:"forecast"`
}

// Num returns a pointer to v, for optional numeric fields.
func Num(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
