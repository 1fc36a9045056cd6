package dataset

import (
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rasterkit/asyncread/internal/asyncreader"
	"github.com/rasterkit/asyncread/internal/raster"
	"github.com/rasterkit/asyncread/pkg/atomicx"
)

// Session options (--ao NAME=VALUE on the command line):
//
//	BATCHSIZE  scanlines decoded per notification, default 32
//	DELAY      pause per batch in milliseconds, to exercise the
//	           polling side against a slow engine
const (
	optBatchSize = "BATCHSIZE"
	optDelay     = "DELAY"
)

type scanline struct {
	y    int
	data []byte // band-sequential groups of BufXSize native words
}

// imageSession is one decode view over an ImageDataset. Its goroutine
// plays the part of the engine's decode thread: it scales window
// scanlines into a private queue and fires the notify callback, never
// touching the destination buffer itself.
type imageSession struct {
	ds     *ImageDataset
	geom   raster.Geometry
	notify asyncreader.NotifyFunc
	batch  int
	delay  time.Duration

	mu      sync.Mutex
	pending []scanline

	closed *atomicx.Bool
	wg     sync.WaitGroup
}

// OpenView makes ImageDataset an asyncreader.Backend.
func (ds *ImageDataset) OpenView(geom raster.Geometry, notify asyncreader.NotifyFunc, opts asyncreader.Options) (asyncreader.Session, error) {
	if ds.closed.T() {
		return nil, errors.New("dataset is closed")
	}

	batch, err := strconv.Atoi(opts.Value(optBatchSize, "32"))
	if err != nil || batch < 1 {
		return nil, errors.Errorf("invalid %s <%s>", optBatchSize, opts.Value(optBatchSize, ""))
	}
	delayMS, err := strconv.ParseFloat(opts.Value(optDelay, "0"), 64)
	if err != nil || delayMS < 0 {
		return nil, errors.Errorf("invalid %s <%s>", optDelay, opts.Value(optDelay, ""))
	}

	s := &imageSession{
		ds:     ds,
		geom:   geom,
		notify: notify,
		batch:  batch,
		delay:  time.Duration(delayMS * float64(time.Millisecond)),
		closed: atomicx.NewBool(false),
	}
	s.wg.Add(1)
	go s.decodeLoop()
	return s, nil
}

func (s *imageSession) decodeLoop() {
	defer s.wg.Done()
	geom := s.geom
	queued := 0
	for y := 0; y < geom.BufYSize; y++ {
		if s.closed.T() {
			return
		}
		line := s.decodeScanline(y)
		s.mu.Lock()
		s.pending = append(s.pending, scanline{y: y, data: line})
		s.mu.Unlock()

		queued++
		last := y == geom.BufYSize-1
		if queued >= s.batch || last {
			queued = 0
			if s.delay > 0 {
				time.Sleep(s.delay)
			}
			// Completion rides on the notification that carries the
			// final batch, so the poller drains it before it ever
			// sees Complete.
			s.notify(last)
		}
	}
}

// decodeScanline resamples one destination row from the source window
// (nearest neighbor) into band-sequential native words, the interleave
// a drain expects.
func (s *imageSession) decodeScanline(y int) []byte {
	var (
		geom = s.geom
		ns   = s.ds.native.Size()
		w    = s.ds.w
		line = make([]byte, geom.BandCount()*geom.BufXSize*ns)
		srcY = geom.YOff + y*geom.YSize/geom.BufYSize
	)
	for slot, band := range geom.BandMap {
		plane := s.ds.planes[band-1]
		out := line[slot*geom.BufXSize*ns:]
		for x := 0; x < geom.BufXSize; x++ {
			srcX := geom.XOff + x*geom.XSize/geom.BufXSize
			copy(out[x*ns:(x+1)*ns], plane[(srcY*w+srcX)*ns:])
		}
	}
	return line
}

// DrainScanlines converts everything decoded so far into buf. Runs on
// the consumer goroutine under the request mutex; only the pending
// queue needs the session's own lock.
func (s *imageSession) DrainScanlines(buf []byte, geom raster.Geometry) error {
	s.mu.Lock()
	lines := s.pending
	s.pending = nil
	s.mu.Unlock()

	ns := s.ds.native.Size()
	for _, ln := range lines {
		for slot := 0; slot < geom.BandCount(); slot++ {
			dst := buf[ln.y*geom.LineSpace+slot*geom.BandSpace:]
			src := ln.data[slot*geom.BufXSize*ns:]
			raster.CopyWords(dst, geom.DataType, geom.PixelSpace, src, s.ds.native, ns, geom.BufXSize)
		}
	}
	return nil
}

// Close stops the decode goroutine and joins it. The goroutine may be
// inside the notify callback at this point; that callback becomes a
// no-op once the request has ended, so the join cannot deadlock.
func (s *imageSession) Close() error {
	s.closed.Set(true)
	s.wg.Wait()
	return nil
}
