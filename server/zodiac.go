package almanac

import (
	At "github.com/maroda/almanac/types"
)

// ZodiacOrder is the fixed sign order, index 0 starts at 0° longitude
var ZodiacOrder = [12]At.Sign{
	At.Aries, At.Taurus, At.Gemini, At.Cancer, At.Leo, At.Virgo,
	At.Libra, At.Scorpio, At.Sagittarius, At.Capricorn, At.Aquarius, At.Pisces,
}

// ZodiacProperties is the static element/modality/symbol table
var ZodiacProperties = map[At.Sign]At.SignInfo{
	At.Aries:       {Element: At.Fire, Modality: At.Cardinal, Symbol: "♈"},
	At.Taurus:      {Element: At.Earth, Modality: At.Fixed, Symbol: "♉"},
	At.Gemini:      {Element: At.Air, Modality: At.Mutable, Symbol: "♊"},
	At.Cancer:      {Element: At.Water, Modality: At.Cardinal, Symbol: "♋"},
	At.Leo:         {Element: At.Fire, Modality: At.Fixed, Symbol: "♌"},
	At.Virgo:       {Element: At.Earth, Modality: At.Mutable, Symbol: "♍"},
	At.Libra:       {Element: At.Air, Modality: At.Cardinal, Symbol: "♎"},
	At.Scorpio:     {Element: At.Water, Modality: At.Fixed, Symbol: "♏"},
	At.Sagittarius: {Element: At.Fire, Modality: At.Mutable, Symbol: "♐"},
	At.Capricorn:   {Element: At.Earth, Modality: At.Cardinal, Symbol: "♑"},
	At.Aquarius:    {Element: At.Air, Modality: At.Fixed, Symbol: "♒"},
	At.Pisces:      {Element: At.Water, Modality: At.Mutable, Symbol: "♓"},
}

// PhaseOrder follows the phase fraction from 0 to 1
var PhaseOrder = [8]At.Phase{
	At.NewMoon, At.WaxingCrescent, At.FirstQuarter, At.WaxingGibbous,
	At.FullMoon, At.WaningGibbous, At.LastQuarter, At.WaningCrescent,
}

// PhaseInfo is display text for each phase, used as-is by every consumer
var PhaseInfo = map[At.Phase]At.PhaseDetail{
	At.NewMoon: {
		Emoji:       "🌑",
		Description: "A time for new beginnings and setting intentions. The Moon is hidden from view.",
		Energy:      "Planting seeds, fresh starts, introspection",
	},
	At.WaxingCrescent: {
		Emoji:       "🌒",
		Description: "The Moon is growing. Time to take action on your intentions.",
		Energy:      "Taking action, building momentum, hope",
	},
	At.FirstQuarter: {
		Emoji:       "🌓",
		Description: "Half of the Moon is illuminated. Time to overcome challenges.",
		Energy:      "Decision making, taking action, commitment",
	},
	At.WaxingGibbous: {
		Emoji:       "🌔",
		Description: "The Moon is almost full. Refine and adjust your plans.",
		Energy:      "Refinement, patience, preparation",
	},
	At.FullMoon: {
		Emoji:       "🌕",
		Description: "The Moon is fully illuminated. Peak energy for manifestation and completion.",
		Energy:      "Culmination, celebration, heightened emotions",
	},
	At.WaningGibbous: {
		Emoji:       "🌖",
		Description: "The Moon begins to wane. Time for gratitude and sharing.",
		Energy:      "Gratitude, sharing wisdom, reflection",
	},
	At.LastQuarter: {
		Emoji:       "🌗",
		Description: "Half the Moon is illuminated. Time to release and let go.",
		Energy:      "Release, forgiveness, letting go",
	},
	At.WaningCrescent: {
		Emoji:       "🌘",
		Description: "The Moon is almost gone. Time for rest and recuperation.",
		Energy:      "Rest, surrender, spiritual connection",
	},
}

// Elements and Modalities in table order
var (
	Elements   = [4]At.Element{At.Fire, At.Earth, At.Air, At.Water}
	Modalities = [3]At.Modality{At.Cardinal, At.Fixed, At.Mutable}
)

// SignFor returns the sign at index i, clamped to [0, 11]
func SignFor(i int) At.Sign {
	switch {
	case i < 0:
		i = 0
	case i > 11:
		i = 11
	}
	return ZodiacOrder[i]
}

// SignInfoFor looks up the static sign data,
// unknown signs return the zero value and false
func SignInfoFor(s At.Sign) (At.SignInfo, bool) {
	info, ok := ZodiacProperties[s]
	return info, ok
}

// PhaseDetailFor looks up the static phase text
func PhaseDetailFor(p At.Phase) (At.PhaseDetail, bool) {
	d, ok := PhaseInfo[p]
	return d, ok
}

// SignsByElement returns the signs of an element in zodiac order
func SignsByElement(e At.Element) []At.Sign {
	var signs []At.Sign
	for _, s := range ZodiacOrder {
		if ZodiacProperties[s].Element == e {
			signs = append(signs, s)
		}
	}
	return signs
}
