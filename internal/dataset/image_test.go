package dataset

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/rasterkit/asyncread/internal/asyncreader"
	"github.com/rasterkit/asyncread/internal/raster"
)

func grayRaster(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x + 2*y)})
		}
	}
	return img
}

func pollToCompletion(t *testing.T, req *asyncreader.Request) (updates int) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("transfer never completed")
		}
		status, _, err := req.NextUpdatedRegion(time.Second)
		switch status {
		case asyncreader.StatusUpdate:
			updates++
		case asyncreader.StatusComplete:
			return updates
		case asyncreader.StatusError:
			t.Fatalf("transfer failed: %v", err)
		case asyncreader.StatusPending:
		}
	}
}

// A 100x100 window of a 200x200 single-band byte raster into a same
// size buffer: completes and carries the expected pattern.
func TestReadWindowToCompletion(t *testing.T) {
	ds := NewFromImage(grayRaster(200, 200))
	defer ds.Close()

	geom := raster.Geometry{
		XOff: 0, YOff: 0, XSize: 100, YSize: 100,
		BufXSize: 100, BufYSize: 100,
		DataType: raster.TypeByte,
		BandMap:  []int{1},
	}
	buf := make([]byte, 100*100)
	req, err := ds.BeginAsyncReader(geom, buf, nil)
	if err != nil {
		t.Fatalf("BeginAsyncReader failed: %v", err)
	}
	defer req.End()

	pollToCompletion(t, req)

	req.LockBuffer()
	defer req.UnlockBuffer()
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if want := byte(x + 2*y); buf[y*100+x] != want {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, buf[y*100+x], want)
			}
		}
	}
}

func TestWindowOutOfBounds(t *testing.T) {
	ds := NewFromImage(grayRaster(64, 64))
	defer ds.Close()

	geom := raster.Geometry{
		XOff: 32, YOff: 0, XSize: 64, YSize: 32,
		BufXSize: 64, BufYSize: 32,
		DataType: raster.TypeByte,
	}
	_, err := ds.BeginAsyncReader(geom, make([]byte, 64*32), nil)
	if err == nil {
		t.Fatal("out-of-bounds window accepted")
	}
	if ds.Outstanding() != 0 {
		t.Fatal("failed Begin left a registered request")
	}
}

// Destination type conversion happens during the drain: a byte source
// read into a Float32 buffer carries the same values.
func TestReadWithTypeConversion(t *testing.T) {
	ds := NewFromImage(grayRaster(16, 16))
	defer ds.Close()

	geom := raster.Geometry{
		XSize: 16, YSize: 16, BufXSize: 16, BufYSize: 16,
		DataType: raster.TypeFloat32,
		BandMap:  []int{1},
	}
	geom.Normalize(1)
	buf := make([]byte, geom.BufferLen())
	req, err := ds.BeginAsyncReader(geom, buf, nil)
	if err != nil {
		t.Fatalf("BeginAsyncReader failed: %v", err)
	}
	defer req.End()
	pollToCompletion(t, req)

	req.LockBuffer()
	defer req.UnlockBuffer()
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			got := raster.ReadWord(buf[(y*16+x)*4:], raster.TypeFloat32)
			if want := float64(x + 2*y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

// Band remapping: read blue then red out of an NRGBA source.
func TestBandMapping(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			i := y*img.Stride + x*4
			img.Pix[i+0] = 10 // R
			img.Pix[i+1] = 20 // G
			img.Pix[i+2] = 30 // B
			img.Pix[i+3] = 40 // A
		}
	}
	ds := NewFromImage(img)
	defer ds.Close()

	geom := raster.Geometry{
		XSize: 8, YSize: 8, BufXSize: 8, BufYSize: 8,
		DataType: raster.TypeByte,
		BandMap:  []int{3, 1},
	}
	geom.Normalize(4)
	buf := make([]byte, geom.BufferLen())
	req, err := ds.BeginAsyncReader(geom, buf, nil)
	if err != nil {
		t.Fatalf("BeginAsyncReader failed: %v", err)
	}
	defer req.End()
	pollToCompletion(t, req)

	req.LockBuffer()
	defer req.UnlockBuffer()
	if buf[0] != 30 {
		t.Fatalf("slot 0 = %d, want blue 30", buf[0])
	}
	if buf[geom.BandSpace] != 10 {
		t.Fatalf("slot 1 = %d, want red 10", buf[geom.BandSpace])
	}
}

// Downsampling picks nearest-neighbor source pixels.
func TestReadDownsampled(t *testing.T) {
	ds := NewFromImage(grayRaster(4, 4))
	defer ds.Close()

	geom := raster.Geometry{
		XSize: 4, YSize: 4, BufXSize: 2, BufYSize: 2,
		DataType: raster.TypeByte,
		BandMap:  []int{1},
	}
	buf := make([]byte, 4)
	req, err := ds.BeginAsyncReader(geom, buf, nil)
	if err != nil {
		t.Fatalf("BeginAsyncReader failed: %v", err)
	}
	defer req.End()
	pollToCompletion(t, req)

	req.LockBuffer()
	defer req.UnlockBuffer()
	// dest (x,y) samples source (2x,2y); pattern is x+2y.
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if want := byte(2*x + 4*y); buf[y*2+x] != want {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, buf[y*2+x], want)
			}
		}
	}
}

// Slow engine with single-line batches: the consumer sees progressive
// updates, never a Complete ahead of the data.
func TestProgressiveBatches(t *testing.T) {
	ds := NewFromImage(grayRaster(32, 32))
	defer ds.Close()

	geom := raster.Geometry{
		XSize: 32, YSize: 32, BufXSize: 32, BufYSize: 32,
		DataType: raster.TypeByte,
		BandMap:  []int{1},
	}
	buf := make([]byte, 32*32)
	opts := asyncreader.Options{"BATCHSIZE": "4", "DELAY": "2"}
	req, err := ds.BeginAsyncReader(geom, buf, opts)
	if err != nil {
		t.Fatalf("BeginAsyncReader failed: %v", err)
	}
	defer req.End()

	updates := pollToCompletion(t, req)
	t.Logf("observed %d updates before completion", updates)

	req.LockBuffer()
	defer req.UnlockBuffer()
	if buf[31*32+31] != byte(31+2*31) {
		t.Fatal("last scanline missing after completion")
	}
}

func TestBadAsyncOption(t *testing.T) {
	ds := NewFromImage(grayRaster(8, 8))
	defer ds.Close()

	geom := raster.Geometry{
		XSize: 8, YSize: 8, BufXSize: 8, BufYSize: 8,
		DataType: raster.TypeByte,
		BandMap:  []int{1},
	}
	_, err := ds.BeginAsyncReader(geom, make([]byte, 64), asyncreader.Options{"BATCHSIZE": "zero"})
	if err == nil {
		t.Fatal("bad BATCHSIZE accepted")
	}
}

// Closing the dataset force-cancels outstanding requests and stops
// their decode goroutines.
func TestCloseCancelsOutstanding(t *testing.T) {
	ds := NewFromImage(grayRaster(64, 64))

	geom := raster.Geometry{
		XSize: 64, YSize: 64, BufXSize: 64, BufYSize: 64,
		DataType: raster.TypeByte,
		BandMap:  []int{1},
	}
	// Slow it down so the transfer is still in flight at Close.
	opts := asyncreader.Options{"BATCHSIZE": "1", "DELAY": "5"}
	_, err := ds.BeginAsyncReader(geom, make([]byte, 64*64), opts)
	if err != nil {
		t.Fatalf("BeginAsyncReader failed: %v", err)
	}
	if ds.Outstanding() != 1 {
		t.Fatalf("outstanding = %d, want 1", ds.Outstanding())
	}

	if err := ds.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if ds.Outstanding() != 0 {
		t.Fatalf("outstanding = %d after Close, want 0", ds.Outstanding())
	}
}
