package forecast

import (
	"testing"

	"github.com/dkravets/weather-consensus/internal/weather"
)

// TestPeriodsFromDayMinMax verifies period temperature blending when a day
// has no hourly rows.
func TestPeriodsFromDayMinMax(t *testing.T) {
	periods := periodsForDay(nil, dayFallback{
		tempMin:   weather.Num(-3),
		tempMax:   weather.Num(9),
		condition: weather.ConditionCloudy,
		chancePct: weather.Num(20),
	})

	if len(periods) != 4 {
		t.Fatalf("expected 4 periods, got %d", len(periods))
	}

	want := map[string]float64{
		"night":   -3,
		"morning": 1.2, // min + 0.35 * range
		"day":     9,
		"evening": 3.2, // min + 0.52 * range, rounded
	}
	for _, p := range periods {
		if p.TempC == nil {
			t.Fatalf("period %s has no temperature", p.Key)
		}
		if *p.TempC != want[p.Key] {
			t.Errorf("period %s: expected %v, got %v", p.Key, want[p.Key], *p.TempC)
		}
		if p.Condition != weather.ConditionCloudy {
			t.Errorf("period %s: expected day condition fallback, got %q", p.Key, p.Condition)
		}
		if p.PrecipChancePct == nil || *p.PrecipChancePct != 20 {
			t.Errorf("period %s: expected chance 20, got %v", p.Key, p.PrecipChancePct)
		}
	}
}

// TestNearestHourTieKeepsEarlier verifies the anchor selection tie-break.
func TestNearestHourTieKeepsEarlier(t *testing.T) {
	rows := []weather.ForecastHour{
		{Hour: 8, TempC: weather.Num(1)},
		{Hour: 10, TempC: weather.Num(2)},
	}
	got := nearestHour(rows, 9)
	if got == nil || got.Hour != 8 {
		t.Fatalf("expected the earlier row at hour 8, got %+v", got)
	}
}

func TestConditionFromChance(t *testing.T) {
	cases := []struct {
		chance float64
		temp   *float64
		want   weather.Condition
	}{
		{85, weather.Num(5), weather.ConditionRain},
		{85, weather.Num(-5), weather.ConditionSnow},
		{60, weather.Num(5), weather.ConditionCloudy},
		{60, weather.Num(-4), weather.ConditionSnow},
		{40, nil, weather.ConditionCloudy},
		{10, nil, weather.ConditionClear},
	}
	for _, tc := range cases {
		if got := conditionFromChance(weather.Num(tc.chance), tc.temp); got != tc.want {
			t.Errorf("chance %v temp %v: expected %q, got %q", tc.chance, tc.temp, got, tc.want)
		}
	}
}

// TestNormalizeClampsHourly verifies the plausibility clamps on hourly
// values.
func TestNormalizeClampsHourly(t *testing.T) {
	var payload openMeteoForecastPayload
	payload.Timezone = "Europe/Moscow"
	payload.Hourly.Time = []string{"2026-02-10T00:00", "2026-02-10T14:00"}
	payload.Hourly.Temperature2m = []*float64{weather.Num(-6), weather.Num(-2)}
	payload.Hourly.PrecipitationProbability = []*float64{weather.Num(140), weather.Num(30)}
	payload.Hourly.Precipitation = []*float64{weather.Num(1500), nil}
	payload.Hourly.WeatherCode = []*int{weather.Int(71), weather.Int(3)}
	payload.Hourly.WindSpeed10m = []*float64{weather.Num(300), nil}
	payload.Daily.Time = []string{"2026-02-10"}
	payload.Daily.Temperature2mMin = []*float64{weather.Num(-6)}
	payload.Daily.Temperature2mMax = []*float64{weather.Num(-2)}

	fc, err := normalizeOpenMeteo(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := fc.Hourly[0]
	if *first.PrecipChancePct != 100 {
		t.Fatalf("expected chance clamped to 100, got %d", *first.PrecipChancePct)
	}
	if *first.PrecipMm != 999 {
		t.Fatalf("expected precip clamped to 999, got %v", *first.PrecipMm)
	}
	if *first.WindKph != 220 {
		t.Fatalf("expected wind clamped to 220, got %v", *first.WindKph)
	}
	if first.Condition != weather.ConditionSnow {
		t.Fatalf("expected Snow for code 71, got %q", first.Condition)
	}

	second := fc.Hourly[1]
	if *second.PrecipMm != 0 || *second.WindKph != 0 {
		t.Fatalf("missing precipitation and wind should default to 0, got %v/%v", *second.PrecipMm, *second.WindKph)
	}

	day := fc.Days[0]
	if fc.Provider != weather.ForecastProviderOpenMeteo {
		t.Fatalf("unexpected provider %q", fc.Provider)
	}
	// No daily chance in the payload: falls back to the hourly max.
	if day.PrecipChancePct == nil || *day.PrecipChancePct != 100 {
		t.Fatalf("expected day chance 100 from hours, got %v", day.PrecipChancePct)
	}
	if len(day.Periods) != 4 {
		t.Fatalf("expected 4 periods, got %d", len(day.Periods))
	}
	// The day anchor (14) should pick the 14:00 row.
	for _, p := range day.Periods {
		if p.Key == "day" && (p.TempC == nil || *p.TempC != -2) {
			t.Fatalf("day period should use the 14:00 row, got %+v", p)
		}
	}
}

func TestNormalizeEmptyPayload(t *testing.T) {
	if _, err := normalizeOpenMeteo(openMeteoForecastPayload{}); err == nil {
		t.Fatal("expected an error for an empty payload")
	}
}

// TestSynthesizeShape verifies that the synthetic forecast is structurally
// identical to a live one.
func TestSynthesizeShape(t *testing.T) {
	b := NewBuilder(nil)
	fc := b.Synthesize(weather.AggregateSnapshot{
		Temperature: weather.Num(2),
		HumidityPct: weather.Num(80),
		WindKph:     weather.Num(10),
		Condition:   weather.ConditionRain,
	})

	if fc.Provider != weather.ForecastProviderSynthetic {
		t.Fatalf("unexpected provider %q", fc.Provider)
	}
	if len(fc.Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(fc.Days))
	}
	if len(fc.Hourly) != 7*24 {
		t.Fatalf("expected 168 hourly rows, got %d", len(fc.Hourly))
	}

	for _, day := range fc.Days {
		if len(day.Periods) != 4 {
			t.Fatalf("day %s: expected 4 periods, got %d", day.Date, len(day.Periods))
		}
		if day.TempMinC == nil || day.TempMaxC == nil || *day.TempMinC > *day.TempMaxC {
			t.Fatalf("day %s: inconsistent min/max %v/%v", day.Date, day.TempMinC, day.TempMaxC)
		}
	}
	for _, row := range fc.Hourly {
		if row.PrecipChancePct == nil || *row.PrecipChancePct < 5 || *row.PrecipChancePct > 95 {
			t.Fatalf("hour %s: chance out of synthetic range: %v", row.Time, row.PrecipChancePct)
		}
		if row.WindKph == nil || *row.WindKph < 0 || *row.WindKph > 160 {
			t.Fatalf("hour %s: wind out of range: %v", row.Time, row.WindKph)
		}
		if row.Condition == "" {
			t.Fatalf("hour %s: missing condition", row.Time)
		}
	}
}
