package almanac

import (
	"math"
	"slices"

	At "github.com/maroda/almanac/types"
)

/*

	Chart wheel layout

	Polar placement for the zodiac wheel: sign glyphs on the outer ring,
	bodies inside the inner circle, aspect lines between bodies.
	The input bodies are never modified, every position is a new record.

	Angles are offset by -90° so 0° longitude sits at 12 o'clock
	and longitude increases clockwise in SVG coordinates.

*/

// WheelConfig is the wheel geometry in SVG units
type WheelConfig struct {
	Size        float64 `json:"size"`
	OuterRadius float64 `json:"outerRadius"`
	InnerRadius float64 `json:"innerRadius"`
}

// DefaultWheel matches the chart display
var DefaultWheel = WheelConfig{Size: 400, OuterRadius: 150, InnerRadius: 90}

const (
	glyphRing = 0.85 // sign glyphs, fraction of the outer radius
	bodyRing  = 0.7  // bodies, fraction of the inner radius

	colorSun   = "#FFD700"
	colorMoon  = "#E0E0E0"
	colorOther = "#764ba2"
)

// ChartOrder lists the bodies placed on the wheel, in display order
var ChartOrder = []string{
	"Sun", "Moon", "Mercury", "Venus", "Mars", "Jupiter",
	"Saturn", "Uranus", "Neptune", "Pluto", "Ascendant",
}

// IsChartBody reports whether name is placed on the wheel
func IsChartBody(name string) bool {
	return slices.Contains(ChartOrder, name)
}

// Polar converts an angle in degrees and a radius into a point around center
func Polar(center, radius, deg float64) At.Point {
	rad := deg * math.Pi / 180
	return At.Point{
		X: FloatPrecise(center+radius*math.Cos(rad), 2),
		Y: FloatPrecise(center+radius*math.Sin(rad), 2),
	}
}

// BodyColor is the ring colour drawn around a body
func BodyColor(name string) string {
	switch name {
	case "Sun":
		return colorSun
	case "Moon":
		return colorMoon
	default:
		return colorOther
	}
}

// LayoutSigns places the twelve sign glyphs and dividers
func LayoutSigns(cfg WheelConfig) []At.SignGlyph {
	center := cfg.Size / 2
	glyphs := make([]At.SignGlyph, 0, len(ZodiacOrder))
	for i, sign := range ZodiacOrder {
		deg := float64(i*30) - 90
		glyphs = append(glyphs, At.SignGlyph{
			Sign:     sign,
			Label:    string(sign)[:3],
			Symbol:   ZodiacProperties[sign].Symbol,
			Glyph:    Polar(center, cfg.OuterRadius*glyphRing, deg),
			DivStart: Polar(center, cfg.InnerRadius, deg),
			DivEnd:   Polar(center, cfg.OuterRadius, deg),
		})
	}
	return glyphs
}

// LayoutBodies places every recognised body, unknown names are skipped
func LayoutBodies(cfg WheelConfig, bodies []At.ChartBody) []At.PlacedBody {
	center := cfg.Size / 2
	var placed []At.PlacedBody
	for _, b := range bodies {
		if !IsChartBody(b.Name) {
			continue
		}
		placed = append(placed, At.PlacedBody{
			Name:      b.Name,
			Longitude: b.Longitude,
			Color:     BodyColor(b.Name),
			At:        Polar(center, cfg.InnerRadius*bodyRing, b.Longitude-90),
		})
	}
	return placed
}

// LayoutWheel builds the full wheel. Aspects whose bodies
// were not placed get no line.
func LayoutWheel(cfg WheelConfig, bodies []At.ChartBody, aspects []At.Aspect) At.Wheel {
	if cfg.Size <= 0 {
		cfg = DefaultWheel
	}

	placed := LayoutBodies(cfg, bodies)
	where := make(map[string]At.Point, len(placed))
	for _, p := range placed {
		where[p.Name] = p.At
	}

	var lines []At.AspectLine
	for _, a := range aspects {
		from, okA := where[a.A]
		to, okB := where[a.B]
		if !okA || !okB {
			continue
		}
		lines = append(lines, At.AspectLine{Aspect: a, From: from, To: to})
	}

	return At.Wheel{
		Size:        cfg.Size,
		Center:      cfg.Size / 2,
		OuterRadius: cfg.OuterRadius,
		InnerRadius: cfg.InnerRadius,
		Signs:       LayoutSigns(cfg),
		Bodies:      placed,
		Aspects:     lines,
	}
}
