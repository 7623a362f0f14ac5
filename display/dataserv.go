package almanac

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	As "github.com/maroda/almanac/server"
	At "github.com/maroda/almanac/types"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// SetupMux handles all data serving:
// - Prometheus metric endpoint
// - Websocket feed of today's estimate and the live report
// - Version for programmatic use
// - Estimates, tables, charts and place search for the UI
func (v *View) SetupMux() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", v.Stats.Handler())
	r.HandleFunc("/ws", v.WebsocketHandler)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(v.StatsMiddleware)
	api.HandleFunc("/version", v.VersionHandler)
	api.HandleFunc("/estimate", v.EstimateHandler)
	api.HandleFunc("/calendar", v.CalendarHandler)
	api.HandleFunc("/zodiac", v.ZodiacHandler)
	api.HandleFunc("/phases", v.PhasesHandler)
	api.HandleFunc("/chart", v.ChartHandler)
	api.HandleFunc("/moon-phase", v.MoonPhaseHandler)
	api.HandleFunc("/locations", v.LocationsHandler)

	// Static files for the web front-end
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./web/")))

	return r
}

// Handler is the traced router
func (v *View) Handler() http.Handler {
	return otelhttp.NewHandler(v.SetupMux(), "almanac")
}

var Version = "dev"

type RespWriter struct {
	http.ResponseWriter
	Status int
}

func (w *RespWriter) WriteHeader(status int) {
	w.Status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *RespWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b)
}

func (v *View) StatsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		wrapped := &RespWriter{
			ResponseWriter: w,
			Status:         200,
		}
		next.ServeHTTP(wrapped, r)

		v.Stats.RecWWW(strconv.Itoa(wrapped.Status), r.Method)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Could not encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// allowMethod writes a 405 unless r uses method
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, "invalid method, use "+method)
		return false
	}
	return true
}

// upstreamStatus maps client errors to 400 and everything else to 502
func upstreamStatus(err error) int {
	if errors.Is(err, As.ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func (v *View) VersionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": Version})
}

// EstimateResponse is a DayEstimate with its display text
type EstimateResponse struct {
	At.DayEstimate
	Symbol      string `json:"symbol"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
	Energy      string `json:"energy"`
}

func NewEstimateResponse(est At.DayEstimate) EstimateResponse {
	detail := As.PhaseInfo[est.Phase]
	return EstimateResponse{
		DayEstimate: est,
		Symbol:      As.ZodiacProperties[est.ZodiacSign].Symbol,
		Emoji:       detail.Emoji,
		Description: detail.Description,
		Energy:      detail.Energy,
	}
}

// EstimateHandler serves ?date=YYYY-MM-DD, today when absent
func (v *View) EstimateHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	day := v.now()
	if q := r.URL.Query().Get("date"); q != "" {
		t, err := time.ParseInLocation(time.DateOnly, q, v.loc())
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = t
	}

	v.Stats.RecEstimate("day")
	writeJSON(w, http.StatusOK, NewEstimateResponse(As.Estimate(day)))
}

type CalendarResponse struct {
	Year  int              `json:"year"`
	Month int              `json:"month"`
	Grid  []int            `json:"grid"` // Sunday-first, 0 is a blank cell
	Days  []At.DayEstimate `json:"days"`
}

// CalendarHandler serves ?month=YYYY-MM, the current month when absent
func (v *View) CalendarHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	now := v.now()
	year, month := now.Year(), now.Month()
	if q := r.URL.Query().Get("month"); q != "" {
		t, err := time.Parse("2006-01", q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		year, month = t.Year(), t.Month()
	}

	v.Stats.RecEstimate("month")
	writeJSON(w, http.StatusOK, CalendarResponse{
		Year:  year,
		Month: int(month),
		Grid:  As.CalendarGrid(year, month, v.loc()),
		Days:  As.EstimateMonth(year, month, v.loc()),
	})
}

type SignEntry struct {
	Sign At.Sign `json:"sign"`
	At.SignInfo
}

func (v *View) ZodiacHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	order := As.ZodiacOrder[:]
	if e := r.URL.Query().Get("element"); e != "" {
		order = As.SignsByElement(At.Element(e))
	}
	signs := make([]SignEntry, 0, len(order))
	for _, s := range order {
		signs = append(signs, SignEntry{Sign: s, SignInfo: As.ZodiacProperties[s]})
	}
	writeJSON(w, http.StatusOK, signs)
}

type PhaseEntry struct {
	Phase At.Phase `json:"phase"`
	At.PhaseDetail
}

func (v *View) PhasesHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	phases := make([]PhaseEntry, 0, len(As.PhaseOrder))
	for _, p := range As.PhaseOrder {
		phases = append(phases, PhaseEntry{Phase: p, PhaseDetail: As.PhaseInfo[p]})
	}
	writeJSON(w, http.StatusOK, phases)
}

// ChartForm is the birth data form
type ChartForm struct {
	Date      string  `json:"date"`      // YYYY-MM-DD
	Time      string  `json:"time"`      // HH:MM, midnight when empty
	UTCOffset float64 `json:"utcOffset"` // hours east of Greenwich
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ChartResponse struct {
	Chart   *At.Chart   `json:"chart"`
	Wheel   At.Wheel    `json:"wheel"`
	Aspects []At.Aspect `json:"aspects"`
}

func (v *View) ChartHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var form ChartForm
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid chart form: "+err.Error())
		return
	}

	req, err := As.NewChartRequest(form.Date, form.Time, form.UTCOffset, form.Latitude, form.Longitude)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chart, err := v.Client.FetchChart(r.Context(), req)
	if err != nil {
		writeError(w, upstreamStatus(err), err.Error())
		return
	}

	aspects := As.FindAspects(chart.Bodies, v.Orbs)
	if aspects == nil {
		aspects = []At.Aspect{}
	}
	writeJSON(w, http.StatusOK, ChartResponse{
		Chart:   chart,
		Wheel:   As.LayoutWheel(v.Wheel, chart.Bodies, aspects),
		Aspects: aspects,
	})
}

// placeQuery reads optional latitude/longitude parameters
func placeQuery(r *http.Request) (*At.Place, error) {
	q := r.URL.Query()
	latS, lonS := q.Get("latitude"), q.Get("longitude")
	if latS == "" && lonS == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latS, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, errors.New("latitude must be a number in [-90, 90]")
	}
	lon, err := strconv.ParseFloat(lonS, 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, errors.New("longitude must be a number in [-180, 180]")
	}
	return &At.Place{Latitude: lat, Longitude: lon}, nil
}

// MoonPhaseHandler serves the cached live report,
// a place in the query always fetches directly
func (v *View) MoonPhaseHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	place, err := placeQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if place == nil {
		if live := v.LiveReport(); live != nil {
			writeJSON(w, http.StatusOK, live)
			return
		}
	}

	report, err := v.Client.FetchMoonPhase(r.Context(), place)
	if err != nil {
		writeError(w, upstreamStatus(err), err.Error())
		return
	}
	if place == nil {
		v.SetLive(report)
	}
	writeJSON(w, http.StatusOK, report)
}

func (v *View) LocationsHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	places, err := v.Geocoder.Search(r.Context(), q)
	if err != nil {
		writeError(w, upstreamStatus(err), err.Error())
		return
	}
	if places == nil {
		places = []At.Place{}
	}
	writeJSON(w, http.StatusOK, places)
}
