package almanac

import (
	"math"
	"time"

	At "github.com/maroda/almanac/types"
)

/*

	Lunar position estimator

	Phase and Moon sign for a calendar day, estimated from the days elapsed
	since a known new moon. This is calendar-grade arithmetic, not an
	ephemeris: the live values come from the external moon-phase API.

	Everything here is a pure function of the time passed in,
	the system clock is never read.

*/

const (
	LunarCycleLength  = 29.53058867 // mean synodic month, days
	ZodiacCycleLength = 27.321661   // mean sidereal month, days
	secondsPerDay     = 86400
)

// ReferenceEpoch is a known new moon: 2000-01-06 18:14 UTC
var ReferenceEpoch = time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)

// NormalizeMod is a true modulo, the result is always in [0, m)
// regardless of the sign of x. math.Mod keeps the sign of x.
func NormalizeMod(x, m float64) float64 {
	if m <= 0 {
		return 0
	}
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	// a tiny negative r can round up to exactly m
	if r >= m {
		r = 0
	}
	return r
}

// ElapsedDays is the signed number of days between ReferenceEpoch and t.
// Unix seconds are used instead of time.Sub, which saturates
// at roughly 292 years either side of the epoch.
func ElapsedDays(t time.Time) float64 {
	secs := float64(t.Unix() - ReferenceEpoch.Unix())
	nanos := float64(t.Nanosecond() - ReferenceEpoch.Nanosecond())
	return (secs + nanos/1e9) / secondsPerDay
}

// PhaseFraction is the position in the synodic cycle, [0, 1)
func PhaseFraction(elapsed float64) float64 {
	return NormalizeMod(elapsed, LunarCycleLength) / LunarCycleLength
}

// ZodiacFraction is the position in the sidereal cycle, [0, 1)
func ZodiacFraction(elapsed float64) float64 {
	return NormalizeMod(elapsed, ZodiacCycleLength) / ZodiacCycleLength
}

// PhaseFromFraction buckets a phase fraction. New Moon wraps
// around both ends of the cycle: [0, 0.03) and [0.97, 1).
func PhaseFromFraction(f float64) At.Phase {
	switch {
	// 0.03 itself is Waxing Crescent, 0.97 itself is New Moon
	case f < 0.03 || f >= 0.97:
		return At.NewMoon
	case f < 0.22:
		return At.WaxingCrescent
	case f < 0.28:
		return At.FirstQuarter
	case f < 0.47:
		return At.WaxingGibbous
	case f < 0.53:
		return At.FullMoon
	case f < 0.72:
		return At.WaningGibbous
	case f < 0.78:
		return At.LastQuarter
	default:
		return At.WaningCrescent
	}
}

// ZodiacIndex is floor(f*12), clamped for the case where f rounds to 1.0
func ZodiacIndex(f float64) int {
	i := int(math.Floor(f * 12))
	if i < 0 {
		return 0
	}
	if i > 11 {
		return 11
	}
	return i
}

// DegreeInSign is the degree inside the current sign, one decimal place.
// The result stays in [0, 30): a value that would round up to 30.0 is 29.9.
func DegreeInSign(f float64) float64 {
	scaled := f * 12
	if scaled >= 12 {
		return 0
	}
	deg := (scaled - math.Floor(scaled)) * 30
	rounded := FloatPrecise(deg, 1)
	if rounded >= 30 {
		return 29.9
	}
	if rounded < 0 {
		return 0
	}
	return rounded
}

// EstimateAt evaluates the estimator at the exact instant t
func EstimateAt(t time.Time) At.DayEstimate {
	elapsed := ElapsedDays(t)

	phase := PhaseFromFraction(PhaseFraction(elapsed))

	zf := ZodiacFraction(elapsed)
	sign := SignFor(ZodiacIndex(zf))
	info := ZodiacProperties[sign]

	return At.DayEstimate{
		Date:         t.Format(time.DateOnly),
		Day:          t.Day(),
		Phase:        phase,
		ZodiacSign:   sign,
		DegreeInSign: DegreeInSign(zf),
		Element:      info.Element,
		Modality:     info.Modality,
	}
}

// Estimate works at date granularity: the time of day is zeroed
// to midnight in t's own Location before estimating.
func Estimate(t time.Time) At.DayEstimate {
	return EstimateAt(Midnight(t))
}

// Midnight returns the start of t's calendar day in t's Location
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysInMonth uses day 0 of the following month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// EstimateMonth calls Estimate once per day of the month, in day order
func EstimateMonth(year int, month time.Month, loc *time.Location) []At.DayEstimate {
	if loc == nil {
		loc = time.UTC
	}
	n := DaysInMonth(year, month)
	days := make([]At.DayEstimate, 0, n)
	for d := 1; d <= n; d++ {
		days = append(days, Estimate(time.Date(year, month, d, 0, 0, 0, 0, loc)))
	}
	return days
}

// CalendarGrid lays a month out Sunday-first.
// Cells before the first of the month are 0, then 1..daysInMonth.
func CalendarGrid(year int, month time.Month, loc *time.Location) []int {
	if loc == nil {
		loc = time.UTC
	}
	lead := int(time.Date(year, month, 1, 0, 0, 0, 0, loc).Weekday())
	n := DaysInMonth(year, month)
	grid := make([]int, lead, lead+n)
	for d := 1; d <= n; d++ {
		grid = append(grid, d)
	}
	return grid
}
