package asyncreader

import (
	"github.com/rasterkit/asyncread/internal/raster"
)

// Options carries driver specific NAME=VALUE pairs through to the
// backend, the way the --ao command line option hands them over.
type Options map[string]string

// Value returns the option for key, or def when absent.
func (o Options) Value(key, def string) string {
	if v, ok := o[key]; ok {
		return v
	}
	return def
}

// NotifyFunc is handed to the backend when a view is opened. The engine
// calls it from whatever goroutine it likes, as often as it likes: once
// per batch of newly decoded data, with done=true when its internal
// accounting says every requested block has been delivered. The
// implementation does the minimum possible (latch two flags under the
// request mutex and wake the poller), so the engine is never blocked on
// consumer work.
type NotifyFunc func(done bool)

// DatasetInfo is the slice of a dataset the request validation needs.
type DatasetInfo interface {
	RasterSize() (x, y int)
	Bands() int
}

// Backend bridges the request state machine to a concrete decode
// engine. New engines implement Backend and Session without touching
// the state machine.
type Backend interface {
	// OpenView starts a decode session over the window and target size
	// described by geom. notify must be safe to invoke before OpenView
	// returns; engines that decode eagerly may fire it re-entrantly.
	OpenView(geom raster.Geometry, notify NotifyFunc, opts Options) (Session, error)
}

// Session is one open view on the engine.
type Session interface {
	// DrainScanlines converts every scanline the engine has fully
	// decoded so far into buf, honoring the strides, band map and
	// destination type in geom. It is only ever called while the
	// request mutex is held, so it may write to buf freely.
	DrainScanlines(buf []byte, geom raster.Geometry) error

	// Close releases the engine side of the view. It must tolerate a
	// notification still in flight: the engine's callback may run
	// concurrently with Close and must become a no-op once Close
	// returns.
	Close() error
}
