package almanac

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const refreshTimeout = 15 * time.Second

type RefreshSupervisor struct {
	View     *View
	Interval time.Duration
	Ticker   *time.Ticker
	StopChan chan struct{}
	WG       sync.WaitGroup
	mu       sync.Mutex         // guards StopChan, Ticker and cancel
	cancel   context.CancelFunc // aborts an in-flight refresh on Stop
}

// NewRefreshSupervisor is a wrapper around the View that keeps the live report fresh
// They are strongly coupled, one knows about the other
func (v *View) NewRefreshSupervisor(interval time.Duration) *RefreshSupervisor {
	if interval <= 0 {
		interval = time.Minute
	}
	rs := &RefreshSupervisor{
		View:     v,
		Interval: interval,
	}
	v.Supervisor = rs
	return rs
}

// RefreshLive fetches the live report into the View.
// Failures are logged and the previous report is kept.
func (v *View) RefreshLive(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	report, err := v.Client.FetchMoonPhase(ctx, nil)
	if err != nil {
		slog.Error("Failed to refresh live report", slog.Any("error", err))
		return err
	}
	v.SetLive(report)
	return nil
}

// Start the RefreshSupervisor, the first refresh happens immediately.
// Starting a running supervisor does nothing.
func (p *RefreshSupervisor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.StopChan != nil {
		return
	}

	p.StopChan = make(chan struct{})
	p.Ticker = time.NewTicker(p.Interval)

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	stop, ticker := p.StopChan, p.Ticker

	p.WG.Add(1)
	go func() {
		defer p.WG.Done()
		defer ticker.Stop()

		p.View.RefreshLive(ctx)
		for {
			select {
			case <-ticker.C:
				p.View.RefreshLive(ctx)
			case <-stop:
				return
			}
		}
	}()
}

// Stop the RefreshSupervisor, safe to call more than once
func (p *RefreshSupervisor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.StopChan != nil {
		p.cancel()
		close(p.StopChan)
		p.WG.Wait()
		p.StopChan = nil
	}
}

// Restart the RefreshSupervisor
func (p *RefreshSupervisor) Restart() {
	p.Stop()
	p.Start()
}
