package almanac

import (
	"log/slog"

	Ap "github.com/maroda/almanac/plugin"
	As "github.com/maroda/almanac/server"
)

// InitStore attaches the configured chart cache to the view's client.
// Store "none" (or empty) runs without a cache.
func InitStore(view *View, cfg As.ConfigFile) error {
	if cfg.Store == "" || cfg.Store == "none" {
		slog.Info("Chart cache disabled")
		return nil
	}

	store, err := Ap.StoreLookup(cfg.Store, cfg.StorePath, cfg.Batch)
	if err != nil {
		slog.Error("Failed to create chart store",
			slog.String("store", cfg.Store),
			slog.Any("error", err))
		return err
	}
	view.Client.Store = store
	slog.Info("Chart cache enabled",
		slog.String("store", cfg.Store),
		slog.String("type", store.Type()))
	return nil
}
