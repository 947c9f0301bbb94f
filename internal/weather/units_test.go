package weather

import (
	"math"
	"testing"
)

func TestUnitConversions(t *testing.T) {
	if got := CelsiusFromFahrenheit(32); got != 0 {
		t.Fatalf("32F should be 0C, got %v", got)
	}
	if got := CelsiusFromFahrenheit(212); got != 100 {
		t.Fatalf("212F should be 100C, got %v", got)
	}
	if got := KphFromMps(5); got != 18 {
		t.Fatalf("5 m/s should be 18 km/h, got %v", got)
	}
	if got := Round1(HpaFromMmHg(750)); got != 999.9 {
		t.Fatalf("750 mmHg should round to 999.9 hPa, got %v", got)
	}
	if got := math.Round(HpaFromInHg(29.92)); got != 1013 {
		t.Fatalf("29.92 inHg should be about 1013 hPa, got %v", got)
	}
}

func TestRoundingHelpers(t *testing.T) {
	if got := Round1(10.25); got != 10.3 {
		t.Fatalf("expected 10.3, got %v", got)
	}
	if Round1Ptr(nil) != nil || RoundIntPtr(nil) != nil {
		t.Fatal("nil input should stay nil")
	}
	if got := *RoundIntPtr(Num(66.6)); got != 67 {
		t.Fatalf("expected 67, got %v", got)
	}
	if got := Clamp(150, 0, 100); got != 100 {
		t.Fatalf("expected clamp to 100, got %v", got)
	}
}

func TestConditionFromText(t *testing.T) {
	cases := []struct {
		text string
		want Condition
	}{
		{"Пасмурно", ConditionCloudy},
		{"небольшой дождь", ConditionRain},
		{"Light snow showers", ConditionSnow}, // snow outranks shower
		{"гроза", ConditionThunderstorm},
		{"Ясно", ConditionClear},
		{"fog patches", ConditionFog},
		{"переменная облачность", ConditionCloudy},
		{"что-то странное", ""},
		{"   ", ""},
	}

	for _, tc := range cases {
		if got := ConditionFromText(tc.text); got != tc.want {
			t.Errorf("ConditionFromText(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestConditionFromWeatherCode(t *testing.T) {
	if got := ConditionFromWeatherCode(0, nil); got != ConditionClear {
		t.Fatalf("code 0 should be Clear, got %q", got)
	}
	if got := ConditionFromWeatherCode(63, Num(5)); got != ConditionRain {
		t.Fatalf("rain code above freezing should be Rain, got %q", got)
	}
	if got := ConditionFromWeatherCode(63, Num(-3)); got != ConditionSnow {
		t.Fatalf("rain code at -3C should flip to Snow, got %q", got)
	}
	if got := ConditionFromWeatherCode(53, Num(0)); got != ConditionSnow {
		t.Fatalf("drizzle code at 0C should flip to Snow, got %q", got)
	}
	if got := ConditionFromWeatherCode(95, nil); got != ConditionThunderstorm {
		t.Fatalf("code 95 should be Thunderstorm, got %q", got)
	}
	if got := ConditionFromWeatherCode(42, nil); got != ConditionCloudy {
		t.Fatalf("unknown codes default to Cloudy, got %q", got)
	}
}
