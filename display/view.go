package almanac

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	Ao "github.com/maroda/almanac/obvy"
	As "github.com/maroda/almanac/server"
	At "github.com/maroda/almanac/types"
)

// View is shared by the terminal calendar and the data server
type View struct {
	MU         sync.Mutex         // guards the calendar state and Live
	Screen     tcell.Screen       // nil when running without a TUI
	Stats      *Ao.StatsInternal  // Internal status for prometheus
	Client     *As.Client         // chart and moon-phase APIs
	Geocoder   *As.Geocoder       // place search
	Location   *time.Location     // the zone "today" is computed in
	Orbs       As.Orbs            // aspect tolerances
	Wheel      As.WheelConfig     // chart wheel geometry
	Supervisor *RefreshSupervisor // live report refresh
	Now        func() time.Time   // clock, time.Now when nil
	server     *http.Server

	Year     int        // displayed month
	Month    time.Month // displayed month
	Selected int        // selected day of month, 0 for none

	Live   *At.MoonReport // latest live report
	LiveAt time.Time      // when Live was fetched
}

// NewViewFromConfig builds everything but the screen
func NewViewFromConfig(cfg As.ConfigFile) (*View, error) {
	stats := Ao.NewStatsInternal()

	client := As.NewClient(cfg.ChartAPI, cfg.MoonAPI)
	client.Stats = stats

	view := &View{
		Stats:    stats,
		Client:   client,
		Geocoder: As.NewGeocoder(cfg.GeocodeAPI, cfg.UserAgent),
		Location: cfg.Location(),
		Orbs:     cfg.AspectOrbs(),
		Wheel:    cfg.Wheel,
	}
	view.Today()

	if err := InitStore(view, cfg); err != nil {
		return nil, err
	}
	return view, nil
}

func (v *View) now() time.Time {
	loc := v.Location
	if loc == nil {
		loc = time.UTC
	}
	if v.Now != nil {
		return v.Now().In(loc)
	}
	return time.Now().In(loc)
}

func (v *View) loc() *time.Location {
	if v.Location == nil {
		return time.UTC
	}
	return v.Location
}

// Today jumps the calendar to the current month and clears the selection
func (v *View) Today() {
	t := v.now()
	v.MU.Lock()
	defer v.MU.Unlock()
	v.Year, v.Month, v.Selected = t.Year(), t.Month(), 0
}

// ShiftMonth moves the calendar by n months and clears the selection
func (v *View) ShiftMonth(n int) {
	v.MU.Lock()
	defer v.MU.Unlock()
	first := time.Date(v.Year, v.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	v.Year, v.Month, v.Selected = first.Year(), first.Month(), 0
}

// SetLive stores the latest live report
func (v *View) SetLive(report *At.MoonReport) {
	v.MU.Lock()
	defer v.MU.Unlock()
	v.Live = report
	v.LiveAt = v.now()
}

// LiveReport returns the latest live report, nil before the first refresh
func (v *View) LiveReport() *At.MoonReport {
	v.MU.Lock()
	defer v.MU.Unlock()
	return v.Live
}

// Close stops the supervisor and flushes the chart store
func (v *View) Close() {
	if v.Supervisor != nil {
		v.Supervisor.Stop()
	}
	if v.Client != nil && v.Client.Store != nil {
		if err := v.Client.Store.Close(); err != nil {
			slog.Error("Could not close chart store", slog.Any("error", err))
		}
	}
}
