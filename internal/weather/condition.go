package weather

import (
	"regexp"
	"strings"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionClear        Condition = "Clear"
	ConditionCloudy       Condition = "Cloudy"
	ConditionRain         Condition = "Rain"
	ConditionSnow         Condition = "Snow"
	ConditionFog          Condition = "Fog"
	ConditionThunderstorm Condition = "Thunderstorm"
)

// conditionRules map free text to a condition category. Order is priority:
// the first matching rule wins, so storm beats rain, rain beats cloud.
var conditionRules = []struct {
	re    *regexp.Regexp
	label Condition
}{
	{regexp.MustCompile(`(?i)thunder|storm|гроз`), ConditionThunderstorm},
	{regexp.MustCompile(`(?i)snow|sleet|blizzard|снег|метел`), ConditionSnow},
	{regexp.MustCompile(`(?i)rain|drizzle|shower|дожд`), ConditionRain},
	{regexp.MustCompile(`(?i)fog|mist|haze|туман`), ConditionFog},
	{regexp.MustCompile(`(?i)overcast|пасмурн|cloudy|облач`), ConditionCloudy},
	{regexp.MustCompile(`(?i)clear|sunny|ясно|солн`), ConditionClear},
}

// ConditionFromText matches text against the ordered RU/EN keyword rules.
// Returns "" when nothing matches; an unknown condition stays absent.
func ConditionFromText(text string) Condition {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	for _, rule := range conditionRules {
		if rule.re.MatchString(text) {
			return rule.label
		}
	}
	return ""
}

// ConditionFromWeatherCode maps a WMO weather code (as used by open-meteo)
// to a condition category. Drizzle and rain codes flip to snow at freezing
// temperatures. tempC may be nil when the temperature is unknown.
func ConditionFromWeatherCode(code int, tempC *float64) Condition {
	below := func(limit float64) bool {
		return tempC != nil && *tempC <= limit
	}

	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 3:
		return ConditionCloudy
	case code == 45 || code == 48:
		return ConditionFog
	case code == 51 || code == 53 || code == 55 || code == 56 || code == 57:
		if below(0) {
			return ConditionSnow
		}
		return ConditionRain
	case code == 61 || code == 63 || code == 65 || code == 66 || code == 67 ||
		code == 80 || code == 81 || code == 82:
		if below(-1) {
			return ConditionSnow
		}
		return ConditionRain
	case code == 71 || code == 73 || code == 75 || code == 77 || code == 85 || code == 86:
		return ConditionSnow
	case code == 95 || code == 96 || code == 99:
		return ConditionThunderstorm
	default:
		return ConditionCloudy
	}
}
