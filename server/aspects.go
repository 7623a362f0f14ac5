package almanac

import (
	"math"

	At "github.com/maroda/almanac/types"
)

// Orbs is the tolerance in degrees allowed for each aspect kind
type Orbs map[At.AspectKind]float64

// AspectAngle pairs an aspect kind with its exact angle
type AspectAngle struct {
	Kind  At.AspectKind
	Angle float64
}

// AspectAngles are the exact angles, in ascending order
var AspectAngles = []AspectAngle{
	{At.Conjunction, 0},
	{At.Sextile, 60},
	{At.Square, 90},
	{At.Trine, 120},
	{At.Opposition, 180},
}

// DefaultOrbs is used for any kind missing from a configured Orbs
var DefaultOrbs = Orbs{
	At.Conjunction: 8,
	At.Sextile:     4,
	At.Square:      7,
	At.Trine:       7,
	At.Opposition:  8,
}

// orbFor falls back to DefaultOrbs
func (o Orbs) orbFor(k At.AspectKind) float64 {
	if v, ok := o[k]; ok {
		return v
	}
	return DefaultOrbs[k]
}

// Separation is the shortest arc between two longitudes, [0, 180]
func Separation(a, b float64) float64 {
	d := NormalizeMod(a-b, 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// MatchAspect returns the closest aspect kind within its orb
func MatchAspect(sep float64, orbs Orbs) (AspectAngle, float64, bool) {
	var best AspectAngle
	bestOrb := math.Inf(1)
	for _, aa := range AspectAngles {
		off := math.Abs(sep - aa.Angle)
		if off <= orbs.orbFor(aa.Kind) && off < bestOrb {
			best = aa
			bestOrb = off
		}
	}
	if math.IsInf(bestOrb, 1) {
		return AspectAngle{}, 0, false
	}
	return best, bestOrb, true
}

// FindAspects checks every unordered pair of bodies, in chart order
func FindAspects(bodies []At.ChartBody, orbs Orbs) []At.Aspect {
	if orbs == nil {
		orbs = DefaultOrbs
	}

	var aspects []At.Aspect
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			sep := Separation(bodies[i].Longitude, bodies[j].Longitude)
			aa, off, ok := MatchAspect(sep, orbs)
			if !ok {
				continue
			}
			aspects = append(aspects, At.Aspect{
				A:          bodies[i].Name,
				B:          bodies[j].Name,
				Kind:       aa.Kind,
				Exact:      aa.Angle,
				Separation: FloatPrecise(sep, 2),
				Orb:        FloatPrecise(off, 2),
			})
		}
	}
	return aspects
}
