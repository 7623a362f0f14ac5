package almanac_test

import (
	"testing"

	As "github.com/maroda/almanac/server"
	At "github.com/maroda/almanac/types"
)

func TestSeparation(t *testing.T) {
	assertFloat(t, As.Separation(10, 130), 120)
	assertFloat(t, As.Separation(350, 10), 20)
	assertFloat(t, As.Separation(0, 180), 180)
	assertFloat(t, As.Separation(90, 90), 0)
}

func TestFindAspects(t *testing.T) {
	bodies := func(lons ...float64) []At.ChartBody {
		names := []string{"Sun", "Moon", "Mercury", "Venus"}
		var out []At.ChartBody
		for i, l := range lons {
			out = append(out, At.ChartBody{Name: names[i], Longitude: l})
		}
		return out
	}

	t.Run("Trine between Sun and Moon", func(t *testing.T) {
		got := As.FindAspects(bodies(10, 130), nil)
		assertInt(t, len(got), 1)
		assertString(t, string(got[0].Kind), "Trine")
		assertString(t, got[0].A, "Sun")
		assertString(t, got[0].B, "Moon")
		assertFloat(t, got[0].Orb, 0)
	})

	t.Run("Conjunction across 0 degrees", func(t *testing.T) {
		got := As.FindAspects(bodies(0, 359), nil)
		assertInt(t, len(got), 1)
		assertString(t, string(got[0].Kind), "Conjunction")
		assertFloat(t, got[0].Separation, 1)
		assertFloat(t, got[0].Orb, 1)
	})

	t.Run("Square within orb", func(t *testing.T) {
		got := As.FindAspects(bodies(0, 95), nil)
		assertInt(t, len(got), 1)
		assertString(t, string(got[0].Kind), "Square")
		assertFloat(t, got[0].Orb, 5)
	})

	t.Run("Nothing outside every orb", func(t *testing.T) {
		got := As.FindAspects(bodies(0, 50), nil)
		assertInt(t, len(got), 0)
	})

	t.Run("Configured orb widens a kind", func(t *testing.T) {
		got := As.FindAspects(bodies(0, 50), As.Orbs{At.Sextile: 12})
		assertInt(t, len(got), 1)
		assertString(t, string(got[0].Kind), "Sextile")
	})

	t.Run("Every pair is checked once", func(t *testing.T) {
		// Sun-Moon conjunction, Mercury opposes both, Venus squares all three
		got := As.FindAspects(bodies(0, 2, 180, 90), nil)
		assertInt(t, len(got), 6)
	})
}

func TestMatchAspect(t *testing.T) {
	t.Run("Closest kind wins", func(t *testing.T) {
		wide := As.Orbs{At.Sextile: 30, At.Square: 30}
		aa, off, ok := As.MatchAspect(80, wide)
		if !ok {
			t.Fatal("expected a match")
		}
		assertString(t, string(aa.Kind), "Square")
		assertFloat(t, off, 10)
	})
}
