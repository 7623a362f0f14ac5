package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	Ad "github.com/maroda/almanac/display"
	Ao "github.com/maroda/almanac/obvy"
	As "github.com/maroda/almanac/server"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOpts struct {
	config  string
	logFile string
	debug   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}
	root := &cobra.Command{
		Use:          "almanac",
		Short:        "Lunar calendar, moon phase and birth chart service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.config, "config", "", "JSON config file (defaults when empty)")
	root.PersistentFlags().StringVar(&opts.logFile, "log", "", "write logs to this file instead of stderr")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "debug logging")

	root.AddCommand(serveCmd(opts))
	root.AddCommand(tuiCmd(opts))
	root.AddCommand(estimateCmd(opts))
	root.AddCommand(calendarCmd(opts))
	root.AddCommand(versionCmd())
	return root
}

// loadConfig applies file, then environment, then validation
func (o *rootOpts) loadConfig() (As.ConfigFile, error) {
	cfg := As.DefaultConfig()
	if o.config != "" {
		var err error
		cfg, err = As.LoadConfigFileName(o.config)
		if err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setupLogging returns a closer for the log file, if any.
// The terminal calendar owns the screen so it logs to almanac.log by default.
func (o *rootOpts) setupLogging(fallback string) (func(), error) {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}

	path := o.logFile
	if path == "" {
		path = fallback
	}

	var w io.Writer = os.Stderr
	closer := func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return closer, fmt.Errorf("could not open log file: %w", err)
		}
		w = f
		closer = func() { f.Close() }
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return closer, nil
}

// runService wraps the long-running commands with logging and tracing
func runService(o *rootOpts, logFallback string, start func(As.ConfigFile) error) error {
	closeLog, err := o.setupLogging(logFallback)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := o.loadConfig()
	if err != nil {
		slog.Error("Could not load config", slog.Any("error", err))
		return err
	}

	shutdown, err := Ao.InitOTel(context.Background(), cfg.OTel, "almanac")
	if err != nil {
		slog.Error("Could not start OpenTelemetry", slog.Any("error", err))
		return err
	}
	defer shutdown()

	slog.Info("Almanac initializing",
		slog.String("user", As.FillEnvVar("USER")),
		slog.String("listen", cfg.Listen),
		slog.String("store", cfg.Store))
	return start(cfg)
}

func serveCmd(o *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the data server without the terminal calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(o, "", Ad.StartWebNoTUI)
		},
	}
}

func tuiCmd(o *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal calendar with the data server behind it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(o, "almanac.log", Ad.StartCalendarView)
		},
	}
}

func printJSON(w io.Writer, body any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(body)
}

func estimateCmd(o *rootOpts) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Print the phase and Moon sign estimate for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			day := time.Now().In(cfg.Location())
			if date != "" {
				day, err = time.ParseInLocation(time.DateOnly, date, cfg.Location())
				if err != nil {
					return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
				}
			}
			return printJSON(cmd.OutOrStdout(), Ad.NewEstimateResponse(As.Estimate(day)))
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to estimate, YYYY-MM-DD (today when empty)")
	return cmd
}

func calendarCmd(o *rootOpts) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print the estimates for every day of a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			loc := cfg.Location()
			t := time.Now().In(loc)
			if month != "" {
				t, err = time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("month must be YYYY-MM: %w", err)
				}
			}
			return printJSON(cmd.OutOrStdout(), Ad.CalendarResponse{
				Year:  t.Year(),
				Month: int(t.Month()),
				Grid:  As.CalendarGrid(t.Year(), t.Month(), loc),
				Days:  As.EstimateMonth(t.Year(), t.Month(), loc),
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to print, YYYY-MM (this month when empty)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Ad.Version)
		},
	}
}
