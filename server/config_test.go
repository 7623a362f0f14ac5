package almanac_test

import (
	"os"
	"testing"
	"time"

	As "github.com/maroda/almanac/server"
	At "github.com/maroda/almanac/types"
)

// Temporary OS file to use for testing configurations
func createTempFile(t testing.TB, data string) (*os.File, func()) {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "almanac-config")
	if err != nil {
		t.Fatalf("could not create temp file %v", err)
	}

	tmpfile.Write([]byte(data))
	removeFile := func() {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
	}
	return tmpfile, removeFile
}

func TestLoadConfigFileName(t *testing.T) {
	configFile, delConfig := createTempFile(t, `{
		  "listen": ":9999",
		  "chart_api": "http://charts.local:5000",
		  "timezone": "America/New_York",
		  "refresh_seconds": 30,
		  "orbs": {"Trine": 9}
		}`)
	defer delConfig()
	fileName := configFile.Name()

	t.Run("Reads the file values", func(t *testing.T) {
		config, err := As.LoadConfigFileName(fileName)
		assertError(t, err, nil)

		assertString(t, config.Listen, ":9999")
		assertString(t, config.ChartAPI, "http://charts.local:5000")
		assertInt(t, config.RefreshSeconds, 30)
		assertString(t, config.Location().String(), "America/New_York")
	})

	t.Run("Missing keys keep their defaults", func(t *testing.T) {
		config, err := As.LoadConfigFileName(fileName)
		assertError(t, err, nil)

		def := As.DefaultConfig()
		assertString(t, config.MoonAPI, def.MoonAPI)
		assertString(t, config.Store, "memory")
		assertInt(t, config.Batch, def.Batch)
	})

	t.Run("Configured orbs override the defaults", func(t *testing.T) {
		config, err := As.LoadConfigFileName(fileName)
		assertError(t, err, nil)

		orbs := config.AspectOrbs()
		assertFloat(t, orbs[At.Trine], 9)
		assertFloat(t, orbs[At.Square], 7)
	})

	t.Run("Errors with malformed JSON", func(t *testing.T) {
		configFile, delConfig := createTempFile(t, `{"listen": 8090}`)
		defer delConfig()

		_, err := As.LoadConfigFileName(configFile.Name())
		assertGotError(t, err)
	})

	t.Run("Errors with an unknown key", func(t *testing.T) {
		configFile, delConfig := createTempFile(t, `{"lisen": ":8090"}`)
		defer delConfig()

		_, err := As.LoadConfigFileName(configFile.Name())
		assertGotError(t, err)
	})

	t.Run("Errors with a bad timezone", func(t *testing.T) {
		configFile, delConfig := createTempFile(t, `{"timezone": "Mars/Olympus_Mons"}`)
		defer delConfig()

		_, err := As.LoadConfigFileName(configFile.Name())
		assertGotError(t, err)
	})

	t.Run("Errors with an empty file", func(t *testing.T) {
		configFile, delConfig := createTempFile(t, ``)
		defer delConfig()

		_, err := As.LoadConfigFileName(configFile.Name())
		assertGotError(t, err)
	})

	t.Run("Errors with missing file", func(t *testing.T) {
		configFile, delConfig := createTempFile(t, ``)
		name := configFile.Name()
		delConfig()

		_, err := As.LoadConfigFileName(name)
		assertGotError(t, err)
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("Environment overrides the file", func(t *testing.T) {
		t.Setenv("ALMANAC_LISTEN", ":7070")
		t.Setenv("ALMANAC_STORE", "badger")
		t.Setenv("ALMANAC_REFRESH_SECONDS", "15")

		config := As.DefaultConfig()
		config.ApplyEnv()

		assertString(t, config.Listen, ":7070")
		assertString(t, config.Store, "badger")
		assertInt(t, config.RefreshSeconds, 15)
		if config.Refresh() != 15*time.Second {
			t.Errorf("got refresh %v", config.Refresh())
		}
	})

	t.Run("Bad integer keeps the current value", func(t *testing.T) {
		t.Setenv("ALMANAC_REFRESH_SECONDS", "soon")

		config := As.DefaultConfig()
		config.ApplyEnv()
		assertInt(t, config.RefreshSeconds, 60)
	})

	t.Run("Unknown timezone falls back to UTC", func(t *testing.T) {
		config := As.DefaultConfig()
		config.Timezone = "Nowhere/Special"
		assertString(t, config.Location().String(), "UTC")
	})
}
