package raster

import (
	"github.com/pkg/errors"
)

// Geometry describes one region transfer: the source window in dataset
// pixel space, the destination buffer shape, and how pixel words are laid
// out inside the destination buffer. It is immutable once a request has
// been started.
type Geometry struct {
	// Source window, dataset pixel space.
	XOff, YOff   int
	XSize, YSize int

	// Destination buffer shape.
	BufXSize, BufYSize int

	// Destination word type.
	DataType DataType

	// BandMap lists source band numbers (1 based) in destination slot
	// order. An empty map means bands 1..N of the dataset.
	BandMap []int

	// Byte strides inside the destination buffer. Zero values are
	// resolved once by Normalize and never re-derived afterwards.
	PixelSpace int
	LineSpace  int
	BandSpace  int
}

// Normalize fills default packing for zero strides and a default band
// map for an empty one, mirroring the convention that 0 means "tightly
// packed". Call once, before Validate.
func (g *Geometry) Normalize(datasetBands int) {
	if len(g.BandMap) == 0 {
		g.BandMap = make([]int, datasetBands)
		for i := range g.BandMap {
			g.BandMap[i] = i + 1
		}
	}
	if g.PixelSpace == 0 {
		g.PixelSpace = g.DataType.Size()
	}
	if g.LineSpace == 0 {
		g.LineSpace = g.PixelSpace * g.BufXSize
	}
	if g.BandSpace == 0 {
		g.BandSpace = g.LineSpace * g.BufYSize
	}
}

// Validate checks the window against the raster bounds and the band map
// against the dataset band count. Callers normalize first.
func (g *Geometry) Validate(rasterX, rasterY, datasetBands int) error {
	if g.XSize < 1 || g.YSize < 1 || g.BufXSize < 1 || g.BufYSize < 1 {
		return errors.Errorf("odd window or buffer size: window %dx%d buffer %dx%d",
			g.XSize, g.YSize, g.BufXSize, g.BufYSize)
	}
	if g.XOff < 0 || g.YOff < 0 ||
		g.XOff+g.XSize > rasterX || g.YOff+g.YSize > rasterY {
		return errors.Errorf("access window (%d,%d) of size %dx%d out of range on raster of %dx%d",
			g.XOff, g.YOff, g.XSize, g.YSize, rasterX, rasterY)
	}
	if !g.DataType.Valid() {
		return errors.New("unknown destination data type")
	}
	if len(g.BandMap) < 1 || len(g.BandMap) > datasetBands {
		return errors.Errorf("invalid band count %d, dataset has %d", len(g.BandMap), datasetBands)
	}
	for i, b := range g.BandMap {
		if b < 1 || b > datasetBands {
			return errors.Errorf("band map slot %d = %d, this band does not exist on the dataset", i, b)
		}
	}
	if g.PixelSpace == 0 || g.LineSpace == 0 || g.BandSpace == 0 {
		return errors.New("zero stride, geometry was not normalized")
	}
	return nil
}

// BandCount returns the number of destination band slots.
func (g *Geometry) BandCount() int {
	return len(g.BandMap)
}

// BufferLen returns the minimum byte length of a destination buffer that
// can hold the last addressable word under the configured strides.
func (g *Geometry) BufferLen() int {
	last := (g.BufXSize-1)*g.PixelSpace +
		(g.BufYSize-1)*g.LineSpace +
		(g.BandCount()-1)*g.BandSpace
	return last + g.DataType.Size()
}
