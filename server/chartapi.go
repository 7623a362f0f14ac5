package almanac

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	Ao "github.com/maroda/almanac/obvy"
	Ap "github.com/maroda/almanac/plugin"
	At "github.com/maroda/almanac/types"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	webTimeout = 10 * time.Second
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrUpstreamStatus  = errors.New("upstream returned an error status")
	ErrUpstreamPayload = errors.New("upstream payload could not be decoded")
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Shared HTTP Client, traced with otelhttp
var sharedHTTPClient = &http.Client{
	Timeout: webTimeout,
	Transport: otelhttp.NewTransport(&http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}),
}

// SingleFetchWithClient handles the messy business of the HTTP connection
// and is testable with dependency injection, called by SingleFetch
func SingleFetchWithClient(req *http.Request, c HTTPClient) (int, []byte, error) {
	resp, err := c.Do(req)
	if err != nil {
		slog.Error("Fetch Error", slog.String("url", req.URL.String()), slog.Any("error", err))
		return 0, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Close Error", slog.Any("error", err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Could not read body", slog.Any("error", err))
		return 0, nil, err
	}

	return resp.StatusCode, body, nil
}

// SingleFetch returns the Response Code, raw byte stream body, and error
// This uses a Shared HTTP Client:
// - to reuse existing endpoint connections
// - to avoid stale connections that eat up OS FDs
func SingleFetch(req *http.Request) (int, []byte, error) {
	return SingleFetchWithClient(req, sharedHTTPClient)
}

// Client talks to the external chart and moon-phase APIs.
// Store and Stats are optional.
type Client struct {
	ChartURL string            // base URL serving POST /chart
	MoonURL  string            // base URL serving GET /moon-phase
	HTTP     HTTPClient        // nil uses the shared client
	Store    Ap.ChartStore     // chart cache
	Stats    *Ao.StatsInternal // fetch timers and cache counters
}

func NewClient(chartURL, moonURL string) *Client {
	return &Client{
		ChartURL: chartURL,
		MoonURL:  moonURL,
		HTTP:     sharedHTTPClient,
	}
}

// fetch times the call and turns non-2xx responses into ErrUpstreamStatus
func (c *Client) fetch(api string, req *http.Request) ([]byte, error) {
	hc := c.HTTP
	if hc == nil {
		hc = sharedHTTPClient
	}

	start := time.Now()
	code, body, err := SingleFetchWithClient(req, hc)
	c.Stats.RecFetchTimer(api, time.Since(start).Seconds())
	if err != nil {
		c.Stats.RecFetchError(api)
		return nil, fmt.Errorf("%s fetch: %w", api, err)
	}
	if code < 200 || code > 299 {
		c.Stats.RecFetchError(api)
		slog.Error("Upstream error status",
			slog.String("api", api),
			slog.Int("status", code))
		return nil, fmt.Errorf("%w: %s returned %d", ErrUpstreamStatus, api, code)
	}
	return body, nil
}

// ValidateChartRequest checks the datetime and coordinates
func ValidateChartRequest(req At.ChartRequest) error {
	if _, err := Ap.ChartInstant(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if math.IsNaN(req.Latitude) || req.Latitude < -90 || req.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidRequest, req.Latitude)
	}
	if math.IsNaN(req.Longitude) || req.Longitude < -180 || req.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidRequest, req.Longitude)
	}
	return nil
}

// NewChartRequest converts birth form input into the upstream request.
// utcOffsetHours is east-positive (India is 5.5); the upstream wants
// minutes to add to local time, so the sign flips.
func NewChartRequest(date, clock string, utcOffsetHours, lat, lon float64) (At.ChartRequest, error) {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return At.ChartRequest{}, fmt.Errorf("%w: date %q", ErrInvalidRequest, date)
	}
	if clock == "" {
		clock = "00:00"
	}
	if _, err := time.Parse("15:04", clock); err != nil {
		return At.ChartRequest{}, fmt.Errorf("%w: time %q", ErrInvalidRequest, clock)
	}
	if utcOffsetHours < -12 || utcOffsetHours > 14 {
		return At.ChartRequest{}, fmt.Errorf("%w: utc offset %v", ErrInvalidRequest, utcOffsetHours)
	}

	req := At.ChartRequest{
		DatetimeISO:     date + "T" + clock + ":00",
		TZOffsetMinutes: int(math.Round(-utcOffsetHours * 60)),
		Latitude:        lat,
		Longitude:       lon,
	}
	return req, ValidateChartRequest(req)
}

// ParseChartPayload reads {"chart": {name: longitude}} and also accepts
// {"chart": {name: {"longitude": n, ...}}}. Bodies with no usable
// longitude are skipped.
func ParseChartPayload(body []byte) (map[string]float64, error) {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamPayload, err)
	}

	names, err := Ap.ExtractKeys(data, "chart")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamPayload, err)
	}

	lons := make(map[string]float64, len(names))
	for _, name := range names {
		lon, err := Ap.ExtractFloat(data, "chart."+name)
		if errors.Is(err, Ap.ErrNotNumeric) {
			lon, err = Ap.ExtractFloat(data, "chart."+name+".longitude")
		}
		if err != nil {
			slog.Debug("Skipping chart body", slog.String("name", name), slog.Any("error", err))
			continue
		}
		lons[name] = lon
	}
	return lons, nil
}

// BuildChart formats raw longitudes. Known bodies come first in
// ChartOrder, anything else follows alphabetically.
func BuildChart(req At.ChartRequest, lons map[string]float64) *At.Chart {
	var names []string
	for _, n := range ChartOrder {
		if _, ok := lons[n]; ok {
			names = append(names, n)
		}
	}
	var extra []string
	for n := range lons {
		if !IsChartBody(n) {
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	chart := &At.Chart{Request: req}
	for _, n := range names {
		chart.Bodies = append(chart.Bodies, At.ChartBody{
			Name:      n,
			Longitude: lons[n],
			Placement: ZodiacFromLongitude(lons[n]),
		})
	}

	sun, okS := lons["Sun"]
	moon, okM := lons["Moon"]
	if okS && okM {
		lp := PhaseFromElongation(sun, moon)
		chart.MoonPhase = &lp
	}
	return chart
}

// FetchChart returns a formatted chart, from the Store when cached
func (c *Client) FetchChart(ctx context.Context, req At.ChartRequest) (*At.Chart, error) {
	if err := ValidateChartRequest(req); err != nil {
		return nil, err
	}

	if c.Store != nil {
		cached, ok, err := c.Store.Get(req)
		switch {
		case err != nil:
			// a broken cache is not fatal, fall through to the API
			slog.Error("Chart cache lookup failed", slog.Any("error", err))
			c.Stats.RecCache("error")
		case ok:
			c.Stats.RecCache("hit")
			return cached, nil
		default:
			c.Stats.RecCache("miss")
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, urlCat(c.ChartURL, "/chart"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	hreq.Header.Set("Content-Type", "application/json")

	body, err := c.fetch("chart", hreq)
	if err != nil {
		return nil, err
	}

	lons, err := ParseChartPayload(body)
	if err != nil {
		slog.Error("Could not parse chart payload", slog.Any("error", err))
		return nil, err
	}
	chart := BuildChart(req, lons)

	if c.Store != nil {
		if err := c.Store.Put(chart); err != nil {
			slog.Error("Could not cache chart", slog.Any("error", err))
		}
	}
	return chart, nil
}

// FetchMoonPhase gets the live report, place is optional
func (c *Client) FetchMoonPhase(ctx context.Context, place *At.Place) (*At.MoonReport, error) {
	u := urlCat(c.MoonURL, "/moon-phase")
	if place != nil {
		v := url.Values{}
		v.Set("latitude", strconv.FormatFloat(place.Latitude, 'f', -1, 64))
		v.Set("longitude", strconv.FormatFloat(place.Longitude, 'f', -1, 64))
		u = urlCat(u, "?", v.Encode())
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	body, err := c.fetch("moon", hreq)
	if err != nil {
		return nil, err
	}

	var report At.MoonReport
	if err := json.Unmarshal(body, &report); err != nil {
		slog.Error("Could not decode moon report", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrUpstreamPayload, err)
	}
	return &report, nil
}
