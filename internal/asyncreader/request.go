package asyncreader

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rasterkit/asyncread/internal/raster"
)

// Request coordinates one progressive region read. The consumer drives
// it from a single goroutine: Begin, then NextUpdatedRegion /
// LockBuffer / UnlockBuffer in a loop, then End. The backend's
// notifications arrive on a goroutine the request does not control; the
// only state the two sides share is guarded by one mutex.
type Request struct {
	id   uuid.UUID
	geom raster.Geometry
	buf  []byte

	mu   sync.Mutex
	wake chan struct{}

	// All four fields below are read and written under mu only.
	updateReady bool
	complete    bool
	failed      bool
	failErr     error
	ended       bool

	session  Session
	registry *Registry
}

// Begin validates geom against the dataset, opens a view on the backend
// and returns a live request. buf is caller owned: the request writes
// into it but never grows or retains it past End. On error nothing is
// left registered with the backend.
func Begin(ds DatasetInfo, be Backend, geom raster.Geometry, buf []byte, opts Options) (*Request, error) {
	rx, ry := ds.RasterSize()
	geom.Normalize(ds.Bands())
	if err := geom.Validate(rx, ry, ds.Bands()); err != nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "%v", err)
	}
	if need := geom.BufferLen(); len(buf) < need {
		return nil, errors.Wrapf(ErrInvalidArgument,
			"buffer too small: %d bytes, geometry needs %d", len(buf), need)
	}

	req := &Request{
		id:   uuid.New(),
		geom: geom,
		buf:  buf,
		wake: make(chan struct{}, 1),
	}

	session, err := be.OpenView(geom, req.notify, opts)
	if err != nil {
		return nil, errors.Wrapf(ErrBackendUnavailable, "%v", err)
	}
	req.session = session
	return req, nil
}

// ID identifies the request in logs and the registry.
func (r *Request) ID() uuid.UUID { return r.id }

// Geometry returns the region geometry fixed at Begin.
func (r *Request) Geometry() raster.Geometry { return r.geom }

// Buffer returns the caller supplied pixel buffer. Read it only between
// LockBuffer and UnlockBuffer.
func (r *Request) Buffer() []byte { return r.buf }

// notify is the NotifyFunc registered with the backend. It runs on the
// engine's goroutine. Engines keep calling it even after completion, so
// the update flag only ever rises while the transfer is still going;
// anything after that is noise and is dropped here.
func (r *Request) notify(done bool) {
	r.mu.Lock()
	if r.ended {
		r.mu.Unlock()
		return
	}
	if !r.complete {
		r.updateReady = true
	}
	if done {
		r.complete = true
	}
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// NextUpdatedRegion waits until new data is visible in the buffer, the
// transfer finishes, or timeout elapses. timeout <= 0 waits
// indefinitely. The returned region always covers the whole buffer.
//
// StatusComplete and StatusError are terminal and idempotent: polling
// again keeps returning the same status without touching the buffer.
// The final batch of data is always surfaced as one StatusUpdate (or
// the StatusComplete that drains it) before completion is reported, so
// the last rectangle is never dropped.
func (r *Request) NextUpdatedRegion(timeout time.Duration) (Status, Region, error) {
	region := Region{XSize: r.geom.BufXSize, YSize: r.geom.BufYSize}

	r.mu.Lock()
	r.mustBeLive()
	if r.failed {
		err := r.failErr
		r.mu.Unlock()
		return StatusError, region, err
	}
	if r.complete && !r.updateReady {
		r.mu.Unlock()
		return StatusComplete, region, nil
	}

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

wait:
	for !r.updateReady {
		r.mu.Unlock()
		select {
		case <-r.wake:
			r.mu.Lock()
		case <-expired:
			// An update racing the deadline wins over Pending.
			r.mu.Lock()
			if r.updateReady {
				break wait
			}
			r.mu.Unlock()
			return StatusPending, region, nil
		}
	}

	// Materialize the newly decoded scanlines while holding the mutex,
	// so a consumer taking LockBuffer afterwards never sees a half
	// converted region.
	if err := r.session.DrainScanlines(r.buf, r.geom); err != nil {
		r.failed = true
		r.failErr = errors.Wrapf(ErrBackendIO, "%v", err)
		err = r.failErr
		r.mu.Unlock()
		return StatusError, region, err
	}
	r.updateReady = false
	done := r.complete
	r.mu.Unlock()

	if done {
		return StatusComplete, region, nil
	}
	return StatusUpdate, region, nil
}

// LockBuffer takes the same mutex the drain step runs under, so holding
// it keeps the backend out of the buffer while the consumer reads it.
// Not reentrant; one goroutine drives a request at a time.
func (r *Request) LockBuffer() {
	r.mu.Lock()
	if r.ended {
		r.mu.Unlock()
		panic("asyncread: request used after End")
	}
}

// UnlockBuffer releases the buffer for the backend again.
func (r *Request) UnlockBuffer() {
	r.mu.Unlock()
}

// End cancels the request and releases the backend session. The ended
// flag is latched under the mutex first, which guarantees no callback
// is mid-write when the session is torn down; Close then quiesces the
// engine. The pixel buffer is handed back untouched, still holding the
// last successfully drained data. End is idempotent so a dataset
// force-cancel and a consumer End may overlap; every other method
// panics once the request has ended.
func (r *Request) End() {
	r.mu.Lock()
	if r.ended {
		r.mu.Unlock()
		return
	}
	r.ended = true
	r.mu.Unlock()

	// Outside the mutex: the session's goroutine may be blocked in
	// notify waiting for mu, and Close joins that goroutine.
	_ = r.session.Close()

	if r.registry != nil {
		r.registry.remove(r)
	}
}

func (r *Request) mustBeLive() {
	if r.ended {
		r.mu.Unlock()
		panic("asyncread: request used after End")
	}
}
