package dataset

import (
	"github.com/rasterkit/asyncread/internal/asyncreader"
	"github.com/rasterkit/asyncread/internal/raster"
)

// Dataset is an open raster source. A dataset may have any number of
// outstanding async readers; closing it force-cancels them first so no
// backend callback is left pointing at released state.
type Dataset interface {
	RasterSize() (x, y int)
	Bands() int
	BandType(band int) raster.DataType

	// BeginAsyncReader starts a progressive read of the given window
	// into buf. buf stays caller owned and must outlive the request.
	BeginAsyncReader(geom raster.Geometry, buf []byte, opts asyncreader.Options) (*asyncreader.Request, error)

	Close() error
}
