package almanac

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"unicode/utf8"

	Ap "github.com/maroda/almanac/plugin"
	At "github.com/maroda/almanac/types"
)

const (
	geocodeMinQuery = 3
	geocodeLimit    = 5
)

// Geocoder searches place names against a Nominatim style /search API
type Geocoder struct {
	URL       string
	UserAgent string
	HTTP      HTTPClient
	Limit     int
}

func NewGeocoder(u, agent string) *Geocoder {
	return &Geocoder{
		URL:       u,
		UserAgent: agent,
		HTTP:      sharedHTTPClient,
		Limit:     geocodeLimit,
	}
}

// Search returns matching places. Queries shorter than three
// characters return nothing without making a request.
func (g *Geocoder) Search(ctx context.Context, q string) ([]At.Place, error) {
	if utf8.RuneCountInString(q) < geocodeMinQuery {
		return nil, nil
	}

	limit := g.Limit
	if limit < 1 {
		limit = geocodeLimit
	}
	v := url.Values{}
	v.Set("format", "json")
	v.Set("q", q)
	v.Set("addressdetails", "1")
	v.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlCat(g.URL, "/search?", v.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	hc := g.HTTP
	if hc == nil {
		hc = sharedHTTPClient
	}
	code, body, err := SingleFetchWithClient(req, hc)
	if err != nil {
		return nil, fmt.Errorf("geocode fetch: %w", err)
	}
	if code < 200 || code > 299 {
		return nil, fmt.Errorf("%w: geocode returned %d", ErrUpstreamStatus, code)
	}

	return ParsePlaces(body)
}

// ParsePlaces reads the search result list, skipping entries
// whose coordinates do not parse
func ParsePlaces(body []byte) ([]At.Place, error) {
	var results []any
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamPayload, err)
	}

	places := make([]At.Place, 0, len(results))
	for _, r := range results {
		name, err := Ap.ExtractValue(r, "display_name")
		if err != nil {
			continue
		}
		lat, err := Ap.ExtractFloat(r, "lat")
		if err != nil {
			slog.Debug("Skipping place", slog.Any("error", err))
			continue
		}
		lon, err := Ap.ExtractFloat(r, "lon")
		if err != nil {
			slog.Debug("Skipping place", slog.Any("error", err))
			continue
		}
		s, ok := name.(string)
		if !ok {
			continue
		}
		places = append(places, At.Place{Name: s, Latitude: lat, Longitude: lon})
	}
	return places, nil
}
