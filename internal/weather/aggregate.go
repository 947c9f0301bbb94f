package weather

import (
	"math"
	"sort"
)

// Outlier tolerances per metric, in canonical units. Humidity is averaged
// without filtering.
const (
	toleranceTemperature = 15.0
	toleranceFeelsLike   = 15.0
	toleranceWind        = 45.0
	tolerancePressure    = 35.0
)

// Aggregate fuses one cycle's readings into a consensus snapshot. Numeric
// metrics are averaged after median-based outlier filtering; conditions are
// selected by majority with first-seen-in-source-order winning ties.
func Aggregate(readings []SourceReading) AggregateSnapshot {
	ok := make([]SourceReading, 0, len(readings))
	for _, r := range readings {
		if r.OK {
			ok = append(ok, r)
		}
	}

	confidence := 0
	if len(readings) > 0 {
		confidence = int(math.Round(float64(len(ok)) / float64(len(readings)) * 100))
	}

	return AggregateSnapshot{
		SourceCount:         len(ok),
		ExpectedSourceCount: len(readings),
		ConfidencePct:       confidence,
		Temperature:         Round1Ptr(robustMean(collect(ok, func(r SourceReading) *float64 { return r.Temperature }), toleranceTemperature)),
		FeelsLike:           Round1Ptr(robustMean(collect(ok, func(r SourceReading) *float64 { return r.FeelsLike }), toleranceFeelsLike)),
		HumidityPct:         RoundIntPtr(mean(collect(ok, func(r SourceReading) *float64 { return r.HumidityPct }))),
		WindKph:             Round1Ptr(robustMean(collect(ok, func(r SourceReading) *float64 { return r.WindKph }), toleranceWind)),
		PressureHpa:         RoundIntPtr(robustMean(collect(ok, func(r SourceReading) *float64 { return r.PressureHpa }), tolerancePressure)),
		Condition:           majorityCondition(ok),
	}
}

func collect(readings []SourceReading, field func(SourceReading) *float64) []float64 {
	values := make([]float64, 0, len(readings))
	for _, r := range readings {
		if v := field(r); v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
			values = append(values, *v)
		}
	}
	return values
}

// robustMean averages values after dropping outliers further than tolerance
// from the median. Filtering needs at least 3 values and is only applied if
// the filtered set keeps at least half (rounded up, min 2) of the originals;
// otherwise the cluster truly disagrees and all values are used.
func robustMean(values []float64, tolerance float64) *float64 {
	if len(values) == 0 {
		return nil
	}

	kept := values
	if len(values) >= 3 {
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		median := sorted[mid]
		if len(sorted)%2 == 0 {
			median = (sorted[mid-1] + sorted[mid]) / 2
		}

		filtered := make([]float64, 0, len(values))
		for _, v := range values {
			if math.Abs(v-median) <= tolerance {
				filtered = append(filtered, v)
			}
		}

		required := int(math.Ceil(float64(len(values)) / 2))
		if required < 2 {
			required = 2
		}
		if len(filtered) >= required {
			kept = filtered
		}
	}

	return mean(kept)
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return Num(sum / float64(len(values)))
}

// majorityCondition votes over non-absent conditions; ties keep the
// condition seen first in source order.
func majorityCondition(ok []SourceReading) Condition {
	type tally struct {
		cond  Condition
		count int
	}
	var tallies []tally

	for _, r := range ok {
		if r.Condition == "" {
			continue
		}
		found := false
		for i := range tallies {
			if tallies[i].cond == r.Condition {
				tallies[i].count++
				found = true
				break
			}
		}
		if !found {
			tallies = append(tallies, tally{cond: r.Condition, count: 1})
		}
	}

	var winner Condition
	best := 0
	for _, t := range tallies {
		if t.count > best {
			winner = t.cond
			best = t.count
		}
	}
	return winner
}
