package almanac_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	Ao "github.com/maroda/almanac/obvy"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatsInternal(t *testing.T) {
	t.Run("Rec methods are safe on nil", func(t *testing.T) {
		var s *Ao.StatsInternal
		s.RecWWW("200", "GET")
		s.RecEstimate("day")
		s.RecFetchTimer("chart", 0.1)
		s.RecFetchError("chart")
		s.RecCache("hit")
	})

	t.Run("Handler is safe on nil", func(t *testing.T) {
		var s *Ao.StatsInternal
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("got status %d, want 404", w.Code)
		}
	})

	t.Run("Counters record by label", func(t *testing.T) {
		s := Ao.NewStatsInternal()
		s.RecCache("hit")
		s.RecCache("hit")
		s.RecCache("miss")
		s.RecFetchError("moon")

		if got := testutil.ToFloat64(s.CacheLookups.WithLabelValues("hit")); got != 2 {
			t.Errorf("got %v hits, want 2", got)
		}
		if got := testutil.ToFloat64(s.FetchErrors.WithLabelValues("moon")); got != 1 {
			t.Errorf("got %v errors, want 1", got)
		}
	})

	t.Run("Handler serves the registry", func(t *testing.T) {
		s := Ao.NewStatsInternal()
		s.RecEstimate("month")

		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200", w.Code)
		}
		if !strings.Contains(w.Body.String(), `almanac_estimates_total{kind="month"} 1`) {
			t.Error("estimate counter missing from /metrics")
		}
	})
}

func TestInitOTel(t *testing.T) {
	t.Run("None is a no-op", func(t *testing.T) {
		shutdown, err := Ao.InitOTel(context.Background(), "none", "almanac-test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		shutdown()
	})

	t.Run("Unknown mode is an error with a usable shutdown", func(t *testing.T) {
		shutdown, err := Ao.InitOTel(context.Background(), "carrier-pigeon", "almanac-test")
		if err == nil {
			t.Error("expected an error")
		}
		shutdown()
	})
}
