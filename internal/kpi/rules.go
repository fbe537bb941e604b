package kpi

import (
	"math"
	"slices"
	"strings"
	"unicode"
)

// Direction says which side of the target is good.
type Direction int

const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

func (d Direction) String() string {
	if d == LowerIsBetter {
		return "lower-is-better"
	}
	return "higher-is-better"
}

// Duration units and name keywords that flip a metric to lower-is-better.
// Everything else, including "%" rates, is higher-is-better.
var (
	lowerIsBetterUnits    = []string{"days", "minutes", "hours"}
	lowerIsBetterKeywords = []string{"lag", "delay", "latency"}
)

// DirectionOf classifies a metric by unit first, then by whole-word name
// keywords.
func DirectionOf(name, unit string) Direction {
	u := strings.ToLower(strings.TrimSpace(unit))
	for _, candidate := range lowerIsBetterUnits {
		if u == candidate {
			return LowerIsBetter
		}
	}
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if slices.Contains(lowerIsBetterKeywords, w) {
			return LowerIsBetter
		}
	}
	return HigherIsBetter
}

// ClassifyRAG applies the asymmetric tolerance band: within 5% of target is
// green, within 15% is amber.
func ClassifyRAG(value, target float64, dir Direction) RAG {
	if dir == LowerIsBetter {
		switch {
		case value <= target*1.05:
			return Green
		case value <= target*1.15:
			return Amber
		default:
			return Red
		}
	}
	switch {
	case value >= target*0.95:
		return Green
	case value >= target*0.85:
		return Amber
	default:
		return Red
	}
}

// RAGFor is ClassifyRAG with the direction derived from name and unit.
func RAGFor(name, unit string, value, target float64) RAG {
	return ClassifyRAG(value, target, DirectionOf(name, unit))
}

// RecentMean is the mean of the last three history samples.
func RecentMean(history []float64) float64 {
	n := len(history)
	if n == 0 {
		return 0
	}
	start := n - 3
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, v := range history[start:] {
		sum += v
	}
	return sum / float64(n-start)
}

// ClassifyTrend compares value with the mean of the last three samples.
func ClassifyTrend(value float64, history []float64) Trend {
	mean := RecentMean(history)
	switch {
	case value > mean:
		return Up
	case value < mean:
		return Down
	default:
		return Stable
	}
}

// Gap is the absolute distance between value and target.
func Gap(value, target float64) float64 {
	return math.Abs(target - value)
}

// GapPercentage is the gap as a percentage of target, rounded to one decimal.
// A zero target yields 0.
func GapPercentage(value, target float64) float64 {
	if target == 0 {
		return 0
	}
	return Round(Gap(value, target)/target*100, 1)
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
