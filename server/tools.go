package almanac

import (
	"log/slog"
	"math"
	"os"
	"strconv"
)

// envUnset is what FillEnvVar returns for a missing variable
const envUnset = "ENOENT"

// FillEnvVar returns the value of a runtime Environment Variable
func FillEnvVar(ev string) string {
	// If the EnvVar doesn't exist return a default string
	value := os.Getenv(ev)
	if value == "" {
		value = envUnset
	}
	return value
}

// FillEnvVarInt returns the integer value of an Environment Variable,
// or /d/ when it is unset or not a number
func FillEnvVarInt(ev string, d int) int {
	value := FillEnvVar(ev)
	if value == envUnset {
		return d
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		slog.Error("Env var is not an integer, using default",
			slog.String("var", ev),
			slog.String("value", value),
			slog.Int("default", d))
		return d
	}
	return i
}

// FloatPrecise rounds f to p decimal places
func FloatPrecise(f float64, p int) float64 {
	k := math.Pow(10, float64(p))
	return math.Round(f*k) / k
}

// urlCat is variadic, concatenating any set of strings into a URL.
// It can be used to embed a dynamic string alongside static parts of a URI.
// /u/ is a slice of strings used to build completeURL
func urlCat(u ...string) string {
	var completeURL string
	for _, p := range u {
		completeURL = completeURL + p
	}
	slog.Debug("New endpoint", slog.String("URL", completeURL))
	return completeURL
}
