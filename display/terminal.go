package almanac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	As "github.com/maroda/almanac/server"
	At "github.com/maroda/almanac/types"
)

const (
	screenGutter = 2  // left edge of the calendar grid
	headerY      = 3  // weekday names
	gridTop      = 5  // first row of days
	cellW        = 6  // columns per day
	rowH         = 2  // rows per week
	detailTop    = 16 // top border of the day detail box
)

var weekdays = [7]string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// PhaseGlyph is the single-cell rune drawn beside each day
var PhaseGlyph = map[At.Phase]rune{
	At.NewMoon:        '●',
	At.WaxingCrescent: '◔',
	At.FirstQuarter:   '◑',
	At.WaxingGibbous:  '◕',
	At.FullMoon:       '○',
	At.WaningGibbous:  '◍',
	At.LastQuarter:    '◐',
	At.WaningCrescent: '◓',
}

var (
	textStyle     = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorLightSteelBlue)
	todayStyle    = textStyle.Reverse(true)
	selectedStyle = tcell.StyleDefault.Background(tcell.ColorDarkSlateBlue).Foreground(tcell.ColorWhite)
	glyphStyle    = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorGold)
	boxStyle      = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorPink)
)

func GlyphFor(p At.Phase) rune {
	if r, ok := PhaseGlyph[p]; ok {
		return r
	}
	return '?'
}

// cellOrigin is the screen position of grid cell i
func cellOrigin(i int) (int, int) {
	return screenGutter + (i%7)*cellW, gridTop + (i/7)*rowH
}

// AttachScreen sets the default style and enables the mouse
func (v *View) AttachScreen(s tcell.Screen) {
	s.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorPink))
	s.EnableMouse()
	s.Clear()
	v.Screen = s
}

func (v *View) DrawText(x1, y1, x2, y2 int, text string) {
	v.drawStyled(x1, y1, x2, y2, text, textStyle)
}

func (v *View) drawStyled(x1, y1, x2, y2 int, text string, style tcell.Style) {
	row := y1
	col := x1
	for _, r := range text {
		v.Screen.SetContent(col, row, r, nil, style)
		col++
		if col >= x2 {
			row++
			col = x1
		}
		if row > y2 {
			break
		}
	}
}

func (v *View) DrawViewBorder(width, height int) {
	hvStyle := boxStyle
	v.Screen.SetContent(0, 0, tcell.RuneULCorner, nil, hvStyle)
	for i := 1; i < width; i++ {
		v.Screen.SetContent(i, 0, tcell.RuneHLine, nil, hvStyle)
	}
	v.Screen.SetContent(width, 0, tcell.RuneURCorner, nil, hvStyle)

	for i := 1; i < height; i++ {
		v.Screen.SetContent(0, i, tcell.RuneVLine, nil, hvStyle)
		v.Screen.SetContent(width, i, tcell.RuneVLine, nil, hvStyle)
	}

	v.Screen.SetContent(0, height, tcell.RuneLLCorner, nil, hvStyle)
	for i := 1; i < width; i++ {
		v.Screen.SetContent(i, height, tcell.RuneHLine, nil, hvStyle)
	}
	v.Screen.SetContent(width, height, tcell.RuneLRCorner, nil, hvStyle)
}

// fit truncates s to n runes
func fit(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// LiveLine summarises the live report in one line
func LiveLine(report *At.MoonReport) string {
	return fmt.Sprintf("Now: Moon in %s %.2f° | %s %.1f%%",
		report.MoonZodiac.Sign,
		report.MoonZodiac.Degree,
		report.MoonPhase.PhaseName,
		report.MoonPhase.Illumination)
}

// DetailLines is the text of the day detail box
func DetailLines(est At.DayEstimate) []string {
	long := est.Date
	if t, err := time.Parse(time.DateOnly, est.Date); err == nil {
		long = t.Format("Monday, January 2, 2006")
	}
	detail := As.PhaseInfo[est.Phase]

	return []string{
		long,
		fmt.Sprintf("%c %s", GlyphFor(est.Phase), est.Phase),
		detail.Description,
		"Energy: " + detail.Energy,
		fmt.Sprintf("Moon in %s, %.1f°", est.ZodiacSign, est.DegreeInSign),
		fmt.Sprintf("%s · %s", est.Element, est.Modality),
	}
}

func (v *View) DrawCalendar() {
	width, height := v.GetScreenSize()

	v.MU.Lock()
	year, month, selected := v.Year, v.Month, v.Selected
	live := v.Live
	v.MU.Unlock()

	loc := v.loc()
	today := v.now()
	days := As.EstimateMonth(year, month, loc)
	grid := As.CalendarGrid(year, month, loc)

	v.DrawViewBorder(width-2, height-1)
	v.DrawText(screenGutter, 1, width-2, 1, fmt.Sprintf("%s %d", month, year))
	if live != nil {
		line := LiveLine(live)
		x := width - 3 - utf8.RuneCountInString(line)
		if x < 20 {
			x = 20
		}
		v.DrawText(x, 1, width-2, 1, fit(line, width-3-x))
	}

	for i, wd := range weekdays {
		v.DrawText(screenGutter+i*cellW, headerY, width-2, headerY, wd)
	}

	for i, d := range grid {
		if d == 0 {
			continue
		}
		x, y := cellOrigin(i)
		style := textStyle
		if year == today.Year() && month == today.Month() && d == today.Day() {
			style = todayStyle
		}
		if d == selected {
			style = selectedStyle
		}
		v.drawStyled(x, y, width-2, y, fmt.Sprintf("%2d", d), style)
		v.Screen.SetContent(x+3, y, GlyphFor(days[d-1].Phase), nil, glyphStyle)
	}

	if selected > 0 && selected <= len(days) {
		v.drawDetail(days[selected-1], width, height)
	}

	v.DrawText(1, height-1, width, height-1, "h/l ←/→ month | t today | click a day | ESC quit")
	v.DrawText(width-10, height-1, width, height-1, "ALMANAC")
}

func (v *View) drawDetail(est At.DayEstimate, width, height int) {
	x1, y1, x2, y2 := 1, detailTop, width-3, height-2
	DrawBox(v.Screen, x1, y1, x2, y2, boxStyle)

	for i, line := range DetailLines(est) {
		row := y1 + 1 + i
		if row >= y2 {
			break
		}
		v.DrawText(x1+2, row, x2, row, fit(line, x2-x1-3))
	}
}

// DayAt is the day of month drawn at (x, y), 0 for none
func (v *View) DayAt(x, y int) int {
	v.MU.Lock()
	year, month := v.Year, v.Month
	v.MU.Unlock()

	for i, d := range As.CalendarGrid(year, month, v.loc()) {
		if d == 0 {
			continue
		}
		cx, cy := cellOrigin(i)
		if y == cy && x >= cx && x < cx+cellW-1 {
			return d
		}
	}
	return 0
}

// HandleMouseClick selects the clicked day, clicking elsewhere clears it
func (v *View) HandleMouseClick(x, y int) {
	d := v.DayAt(x, y)

	v.MU.Lock()
	defer v.MU.Unlock()
	v.Selected = d
}

// HandleKey applies one key press and reports whether to quit
func (v *View) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyLeft:
		v.ShiftMonth(-1)
	case tcell.KeyRight:
		v.ShiftMonth(1)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'h':
			v.ShiftMonth(-1)
		case 'l':
			v.ShiftMonth(1)
		case 't':
			v.Today()
		}
	}
	return false
}

func (v *View) handleKeyBoardEvent() {
	for {
		ev := v.Screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			// screen finalised
			return
		case *tcell.EventResize:
			v.ResizeScreen()
		case *tcell.EventKey:
			if v.HandleKey(ev) {
				return
			}
			v.UpdateScreen()
		case *tcell.EventMouse:
			if ev.Buttons() == tcell.Button1 {
				v.HandleMouseClick(ev.Position())
				v.UpdateScreen()
			}
		}
	}
}

func (v *View) GetScreenSize() (int, int) {
	width, height := v.Screen.Size()
	return width, height
}

func (v *View) ResizeScreen() {
	v.Screen.Sync()
	v.UpdateScreen()
}

func (v *View) UpdateScreen() {
	v.Screen.Clear()
	v.DrawCalendar()
	v.Screen.Show()
}

// run redraws every second so the live line and "today" stay current
func (v *View) run(done <-chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in run loop", slog.Any("panic", r))
			slog.Error("Recovered from panic", slog.String("stack", string(debug.Stack())))
		}
	}()

	slog.Info("Starting CalendarView")
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			v.UpdateScreen()
		case <-done:
			return
		}
	}
}

func (v *View) serve(addr string) {
	v.server = &http.Server{
		Addr:              addr,
		Handler:           v.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (v *View) shutdownServer() error {
	if v.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := v.server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", slog.Any("error", err))
		return err
	}
	return nil
}

// StartCalendarView runs the terminal calendar with the data server behind it
func StartCalendarView(cfg As.ConfigFile) error {
	view, err := NewViewFromConfig(cfg)
	if err != nil {
		slog.Error("Could not build view", slog.Any("error", err))
		return err
	}
	defer view.Close()

	screen, err := GetTTY()
	if err != nil {
		slog.Error("Could not start CalendarView", slog.Any("error", err))
		return err
	}
	view.AttachScreen(screen)
	defer screen.Fini()

	view.NewRefreshSupervisor(cfg.Refresh()).Start()
	view.serve(cfg.Listen)

	go func() {
		slog.Info("Starting Almanac data server...", slog.String("addr", cfg.Listen))
		if err := view.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not start data server", slog.Any("error", err))
		}
	}()

	done := make(chan struct{})
	go view.run(done)

	view.UpdateScreen()
	view.handleKeyBoardEvent()
	close(done)

	return view.shutdownServer()
}

// StartWebNoTUI runs only the data server, until SIGINT or SIGTERM
func StartWebNoTUI(cfg As.ConfigFile) error {
	view, err := NewViewFromConfig(cfg)
	if err != nil {
		slog.Error("Could not build view", slog.Any("error", err))
		return err
	}
	defer view.Close()

	view.NewRefreshSupervisor(cfg.Refresh()).Start()
	view.serve(cfg.Listen)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		slog.Info("Starting Almanac web server...", slog.String("addr", cfg.Listen))
		errc <- view.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not start web server", slog.Any("error", err))
			return err
		}
		return nil
	case <-ctx.Done():
		slog.Info("Shutting down web server")
		return view.shutdownServer()
	}
}
