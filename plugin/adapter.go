package plugin

/*

	The Adapter sits aside /almanac/
	Contains core interfaces for Plugin

*/

import (
	"time"

	At "github.com/maroda/almanac/types"
)

// ChartStore caches formatted charts fetched from the external chart API.
// Only upstream responses are stored, estimator output never is.
//
// Charts are keyed by their request: the birth instant (UTC)
// and the coordinates. QueryRange walks birth instants in order.
type ChartStore interface {
	Put(chart *At.Chart) error                            // Store a chart under its own Request
	Get(req At.ChartRequest) (*At.Chart, bool, error)     // Cached chart for a request, if any
	QueryRange(start, end time.Time) ([]*At.Chart, error) // Charts with birth instants in (start, end)
	Flush() error                                         // Flush any buffered data
	Close() error                                         // Close the store and release resources
	Type() string                                         // ID for the store
}
