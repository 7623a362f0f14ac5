package types

/*

	These are the "immutable" core types of Almanac,
	provided for cross-package use (e.g. Plugins) and testing.

	There are no functions defined here.
	Lookup tables and constructors are housed in their own packages,
	the tables live in server/zodiac.go so there is exactly one copy.

*/

// Sign is one of the twelve zodiac signs, in fixed order Aries..Pisces
type Sign string

const (
	Aries       Sign = "Aries"
	Taurus      Sign = "Taurus"
	Gemini      Sign = "Gemini"
	Cancer      Sign = "Cancer"
	Leo         Sign = "Leo"
	Virgo       Sign = "Virgo"
	Libra       Sign = "Libra"
	Scorpio     Sign = "Scorpio"
	Sagittarius Sign = "Sagittarius"
	Capricorn   Sign = "Capricorn"
	Aquarius    Sign = "Aquarius"
	Pisces      Sign = "Pisces"
)

// Element is the classical element attached to a Sign
type Element string

const (
	Fire  Element = "Fire"
	Earth Element = "Earth"
	Air   Element = "Air"
	Water Element = "Water"
)

// Modality is the quality attached to a Sign
type Modality string

const (
	Cardinal Modality = "Cardinal"
	Fixed    Modality = "Fixed"
	Mutable  Modality = "Mutable"
)

// Phase is one of the eight moon phase buckets,
// ordered by the phase fraction range they cover.
type Phase string

const (
	NewMoon        Phase = "New Moon"
	WaxingCrescent Phase = "Waxing Crescent"
	FirstQuarter   Phase = "First Quarter"
	WaxingGibbous  Phase = "Waxing Gibbous"
	FullMoon       Phase = "Full Moon"
	WaningGibbous  Phase = "Waning Gibbous"
	LastQuarter    Phase = "Last Quarter"
	WaningCrescent Phase = "Waning Crescent"
)

// SignInfo is the static data for a Sign
type SignInfo struct {
	Element  Element  `json:"element"`
	Modality Modality `json:"modality"`
	Symbol   string   `json:"symbol"` // Unicode glyph, U+2648 .. U+2653
}

// PhaseDetail is the static display text for a Phase
type PhaseDetail struct {
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
	Energy      string `json:"energy"`
}

// DayEstimate is the estimator output for one calendar day.
// It is created per query and never stored.
type DayEstimate struct {
	Date         string   `json:"date"`         // YYYY-MM-DD in the caller's zone
	Day          int      `json:"day"`          // day of month
	Phase        Phase    `json:"phase"`        // phase bucket
	ZodiacSign   Sign     `json:"zodiacSign"`   // approximate Moon sign
	DegreeInSign float64  `json:"degreeInSign"` // [0, 30), one decimal place
	Element      Element  `json:"element"`
	Modality     Modality `json:"modality"`
}

// ZodiacPlacement is a Sign/degree derived from an ecliptic longitude.
// JSON fields match the external moon-phase API.
type ZodiacPlacement struct {
	Sign     Sign     `json:"sign"`
	Degree   float64  `json:"degree"` // [0, 30), two decimal places
	Symbol   string   `json:"symbol"`
	Element  Element  `json:"element"`
	Modality Modality `json:"modality"`
}

// LivePhase is the phase derived from the Sun/Moon elongation.
// JSON fields match the external moon-phase API.
type LivePhase struct {
	PhaseName    Phase   `json:"phase_name"`
	PhaseAngle   float64 `json:"phase_angle"`  // degrees [0, 360)
	Illumination float64 `json:"illumination"` // percent [0, 100]
	Emoji        string  `json:"emoji"`
	Description  string  `json:"description"`
	Energy       string  `json:"energy"`
}

// MoonReport is the payload of the external /moon-phase endpoint
type MoonReport struct {
	Datetime   string          `json:"datetime"`
	MoonZodiac ZodiacPlacement `json:"moon_zodiac"`
	MoonPhase  LivePhase       `json:"moon_phase"`
}

// ChartRequest is the payload of the external /chart endpoint.
// TZOffsetMinutes is added to the local time to reach UTC.
type ChartRequest struct {
	DatetimeISO     string  `json:"datetimeISO"`
	TZOffsetMinutes int     `json:"tzOffsetMinutes"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
}

// ChartBody is one planet (or the Ascendant) of a chart
type ChartBody struct {
	Name      string          `json:"name"`
	Longitude float64         `json:"longitude"`
	Placement ZodiacPlacement `json:"placement"`
}

// Chart is a formatted birth chart
type Chart struct {
	Request   ChartRequest `json:"request"`
	Bodies    []ChartBody  `json:"bodies"`
	MoonPhase *LivePhase   `json:"moonPhase,omitempty"` // nil when Sun or Moon is missing
}

// Place is one geocoder result
type Place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AspectKind names an angular relationship between two longitudes
type AspectKind string

const (
	Conjunction AspectKind = "Conjunction"
	Sextile     AspectKind = "Sextile"
	Square      AspectKind = "Square"
	Trine       AspectKind = "Trine"
	Opposition  AspectKind = "Opposition"
)

// Aspect is a detected relationship between two chart bodies
type Aspect struct {
	A          string     `json:"a"`
	B          string     `json:"b"`
	Kind       AspectKind `json:"kind"`
	Exact      float64    `json:"exact"`      // the aspect angle, e.g. 120
	Separation float64    `json:"separation"` // shortest arc between A and B
	Orb        float64    `json:"orb"`        // |Separation - Exact|
}

// Point is an SVG coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SignGlyph places a zodiac sign on the outer ring of the wheel
type SignGlyph struct {
	Sign     Sign   `json:"sign"`
	Label    string `json:"label"` // first three letters
	Symbol   string `json:"symbol"`
	Glyph    Point  `json:"glyph"`
	DivStart Point  `json:"divStart"` // divider on the inner radius
	DivEnd   Point  `json:"divEnd"`   // divider on the outer radius
}

// PlacedBody is a ChartBody with its position inside the wheel
type PlacedBody struct {
	Name      string  `json:"name"`
	Longitude float64 `json:"longitude"`
	Color     string  `json:"color"`
	At        Point   `json:"at"`
}

// AspectLine joins two placed bodies
type AspectLine struct {
	Aspect Aspect `json:"aspect"`
	From   Point  `json:"from"`
	To     Point  `json:"to"`
}

// Wheel is the full positioned layout of a chart
type Wheel struct {
	Size        float64      `json:"size"`
	Center      float64      `json:"center"`
	OuterRadius float64      `json:"outerRadius"`
	InnerRadius float64      `json:"innerRadius"`
	Signs       []SignGlyph  `json:"signs"`
	Bodies      []PlacedBody `json:"bodies"`
	Aspects     []AspectLine `json:"aspects"`
}
