package almanac_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	As "github.com/maroda/almanac/server"
)

const nominatimBody = `[
	{"display_name": "Paris, Île-de-France, France", "lat": "48.8534951", "lon": "2.3483915", "address": {"city": "Paris"}},
	{"display_name": "Paris, Lamar County, Texas", "lat": "33.6617962", "lon": "-95.555513"},
	{"display_name": "Nowhere", "lat": "north", "lon": "0"}
]`

func TestGeocoderSearch(t *testing.T) {
	var hits atomic.Int32
	var got url.Values
	var agent string
	mock := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/search" {
			http.Error(w, "wrong route", http.StatusNotFound)
			return
		}
		got = r.URL.Query()
		agent = r.Header.Get("User-Agent")
		w.Write([]byte(nominatimBody))
	}))
	defer mock.Close()

	g := As.NewGeocoder(mock.URL, "almanac-test/1.0")

	t.Run("Short queries make no request", func(t *testing.T) {
		before := hits.Load()
		places, err := g.Search(t.Context(), "Pa")
		assertError(t, err, nil)
		assertInt(t, len(places), 0)
		assertInt(t, int(hits.Load()-before), 0)
	})

	t.Run("Three runes is enough", func(t *testing.T) {
		before := hits.Load()
		_, err := g.Search(t.Context(), "Łód")
		assertError(t, err, nil)
		assertInt(t, int(hits.Load()-before), 1)
	})

	t.Run("Parses places and skips bad coordinates", func(t *testing.T) {
		places, err := g.Search(t.Context(), "Paris")
		assertError(t, err, nil)

		assertInt(t, len(places), 2)
		assertString(t, places[0].Name, "Paris, Île-de-France, France")
		assertFloat(t, places[0].Latitude, 48.8534951)
		assertFloat(t, places[1].Longitude, -95.555513)
	})

	t.Run("Sends the Nominatim parameters", func(t *testing.T) {
		_, err := g.Search(t.Context(), "Paris")
		assertError(t, err, nil)

		assertString(t, got.Get("format"), "json")
		assertString(t, got.Get("q"), "Paris")
		assertString(t, got.Get("addressdetails"), "1")
		assertString(t, got.Get("limit"), "5")
		assertString(t, agent, "almanac-test/1.0")
	})

	t.Run("Upstream error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := As.NewGeocoder(server.URL, "").Search(t.Context(), "Paris")
		assertError(t, err, As.ErrUpstreamStatus)
	})

	t.Run("Upstream payload is not a list", func(t *testing.T) {
		server := makeMockWebServBody(0, `{"error": "nope"}`)
		defer server.Close()

		_, err := As.NewGeocoder(server.URL, "").Search(t.Context(), "Paris")
		assertError(t, err, As.ErrUpstreamPayload)
	})
}
