package almanac

import (
	"math"

	At "github.com/maroda/almanac/types"
)

// ZodiacFromLongitude converts an ecliptic longitude to a sign placement.
// Any longitude is accepted, it is wrapped into [0, 360) first.
func ZodiacFromLongitude(lon float64) At.ZodiacPlacement {
	lon = NormalizeMod(lon, 360)
	sign := SignFor(int(lon / 30))
	info := ZodiacProperties[sign]

	deg := FloatPrecise(NormalizeMod(lon, 30), 2)
	if deg >= 30 {
		deg = 29.99
	}

	return At.ZodiacPlacement{
		Sign:     sign,
		Degree:   deg,
		Symbol:   info.Symbol,
		Element:  info.Element,
		Modality: info.Modality,
	}
}

// PhaseFromAngle buckets a Sun-Moon elongation into 45° sectors
// centred on 0, 45, 90 ... 315 degrees.
func PhaseFromAngle(angle float64) At.Phase {
	angle = NormalizeMod(angle, 360)
	if angle < 22.5 || angle >= 337.5 {
		return At.NewMoon
	}
	// sectors start at 22.5, each is 45 wide
	return PhaseOrder[1+int((angle-22.5)/45)]
}

// Illumination is the lit fraction of the disc in percent
func Illumination(angle float64) float64 {
	return (1 - math.Cos(angle*math.Pi/180)) / 2 * 100
}

// PhaseFromElongation derives the phase record from Sun and Moon longitudes
func PhaseFromElongation(sunLon, moonLon float64) At.LivePhase {
	angle := NormalizeMod(moonLon-sunLon, 360)
	phase := PhaseFromAngle(angle)
	detail := PhaseInfo[phase]

	return At.LivePhase{
		PhaseName:    phase,
		PhaseAngle:   FloatPrecise(angle, 2),
		Illumination: FloatPrecise(Illumination(angle), 2),
		Emoji:        detail.Emoji,
		Description:  detail.Description,
		Energy:       detail.Energy,
	}
}
