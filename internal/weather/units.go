package weather

import "math"

// Canonical units are Celsius, km/h, hPa and percent. Conversion helpers
// are idempotent on already-canonical input: the km/h branch of a wind
// conversion is a no-op on a km/h value.

// CelsiusFromFahrenheit converts °F to °C.
func CelsiusFromFahrenheit(f float64) float64 {
	return (f - 32) * 5 / 9
}

// KphFromMps converts meters per second to km/h.
func KphFromMps(mps float64) float64 {
	return mps * 3.6
}

// KphFromMph converts miles per hour to km/h.
func KphFromMph(mph float64) float64 {
	return mph * 1.60934
}

// HpaFromMmHg converts millimeters of mercury to hectopascals.
func HpaFromMmHg(mmHg float64) float64 {
	return mmHg * 1.33322
}

// HpaFromInHg converts inches of mercury to hectopascals.
func HpaFromInHg(inHg float64) float64 {
	return inHg * 33.8638866667
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Clamp limits v to [min, max].
func Clamp(v, min, max float64) float64 {
	return math.Min(max, math.Max(min, v))
}

// Round1Ptr rounds an optional value to one decimal place.
func Round1Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Num(Round1(*v))
}

// RoundIntPtr rounds an optional value to the nearest integer.
func RoundIntPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Num(math.Round(*v))
}
