package almanac

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata" // timezone names work without a system zoneinfo

	At "github.com/maroda/almanac/types"
)

type ConfigFile struct {
	Listen         string                    `json:"listen"`
	ChartAPI       string                    `json:"chart_api"`
	MoonAPI        string                    `json:"moon_api"`
	GeocodeAPI     string                    `json:"geocode_api"`
	UserAgent      string                    `json:"user_agent"`
	Store          string                    `json:"store"`
	StorePath      string                    `json:"store_path"`
	Batch          int                       `json:"batch"`
	Timezone       string                    `json:"timezone"`
	RefreshSeconds int                       `json:"refresh_seconds"`
	OTel           string                    `json:"otel"`
	Orbs           map[At.AspectKind]float64 `json:"orbs"`
	Wheel          WheelConfig               `json:"wheel"`
}

// DefaultConfig is used for anything the file and environment leave empty
func DefaultConfig() ConfigFile {
	return ConfigFile{
		Listen:         ":8090",
		ChartAPI:       "http://localhost:5000",
		MoonAPI:        "http://localhost:5000",
		GeocodeAPI:     "https://nominatim.openstreetmap.org",
		UserAgent:      "almanac/1.0",
		Store:          "memory",
		StorePath:      "almanac.db",
		Batch:          10,
		Timezone:       "Local",
		RefreshSeconds: 60,
		OTel:           "none",
		Wheel:          DefaultWheel,
	}
}

// LoadConfigFileName pulls a given filename config off local disk
// Validation is performed on the file before opening
func LoadConfigFileName(filename string) (ConfigFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return ConfigFile{}, err
	}
	defer file.Close()

	// validation
	err = validateLoad(file)
	if err != nil {
		slog.Error("Validation failed", slog.Any("error", err))
		return ConfigFile{}, err
	}

	return LoadConfig(file)
}

func validateLoad(file *os.File) error {
	// validate file
	info, err := file.Stat()
	if err != nil {
		slog.Error("could not stat file")
		return err
	}

	// validate size
	if info.Size() == 0 {
		slog.Error("file is empty")
		return errors.New("file is empty")
	}

	return nil
}

// LoadConfig decodes over DefaultConfig, so missing keys keep their defaults
func LoadConfig(file *os.File) (ConfigFile, error) {
	config := DefaultConfig()
	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		slog.Error("could not decode file", slog.Any("error", err))
		return ConfigFile{}, err
	}

	if err := config.Validate(); err != nil {
		return ConfigFile{}, err
	}
	return config, nil
}

// ApplyEnv overlays any ALMANAC_* variables that are set
func (c *ConfigFile) ApplyEnv() {
	overlay := map[string]*string{
		"ALMANAC_LISTEN":      &c.Listen,
		"ALMANAC_CHART_API":   &c.ChartAPI,
		"ALMANAC_MOON_API":    &c.MoonAPI,
		"ALMANAC_GEOCODE_API": &c.GeocodeAPI,
		"ALMANAC_STORE":       &c.Store,
		"ALMANAC_STORE_PATH":  &c.StorePath,
		"ALMANAC_TIMEZONE":    &c.Timezone,
		"ALMANAC_OTEL":        &c.OTel,
	}
	for ev, field := range overlay {
		if v := FillEnvVar(ev); v != envUnset {
			*field = v
		}
	}
	c.RefreshSeconds = FillEnvVarInt("ALMANAC_REFRESH_SECONDS", c.RefreshSeconds)
}

// Validate catches values that would only fail later at runtime
func (c ConfigFile) Validate() error {
	if c.RefreshSeconds < 1 {
		return fmt.Errorf("refresh_seconds must be positive, got %d", c.RefreshSeconds)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	for k, v := range c.Orbs {
		if v < 0 {
			return fmt.Errorf("orb for %s is negative", k)
		}
	}
	return nil
}

// Location resolves Timezone, falling back to UTC
func (c ConfigFile) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Error("Unknown timezone, using UTC", slog.String("timezone", c.Timezone))
		return time.UTC
	}
	return loc
}

// Refresh is the supervisor interval
func (c ConfigFile) Refresh() time.Duration {
	if c.RefreshSeconds < 1 {
		return time.Minute
	}
	return time.Duration(c.RefreshSeconds) * time.Second
}

// AspectOrbs returns the configured orbs, DefaultOrbs fills any gaps
func (c ConfigFile) AspectOrbs() Orbs {
	orbs := Orbs{}
	for k, v := range DefaultOrbs {
		orbs[k] = v
	}
	for k, v := range c.Orbs {
		orbs[k] = v
	}
	return orbs
}
