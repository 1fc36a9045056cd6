package dataset

import (
	"encoding/binary"
	"image"
	"image/color"
	"os"

	"github.com/pkg/errors"
	"github.com/rasterkit/asyncread/internal/asyncreader"
	"github.com/rasterkit/asyncread/internal/raster"
	"github.com/rasterkit/asyncread/pkg/atomicx"
	"github.com/rasterkit/asyncread/pkg/imagex"
)

// ImageDataset serves async region reads from a decoded image file.
// Pixels are unpacked once at open time into per-band planes in the
// dataset's native word type, so the decode goroutine of each session
// only ever reads immutable data.
type ImageDataset struct {
	path   string
	w, h   int
	bands  int
	native raster.DataType
	planes [][]byte // one plane per band, w*h native words

	registry *asyncreader.Registry
	closed   *atomicx.Bool
}

// Open decodes the raster at path. Format is sniffed; png, jpeg, bmp,
// tiff and webp are understood.
func Open(path string) (*ImageDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset <%s>", path)
	}
	defer f.Close()

	img, _, err := imagex.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode dataset <%s>", path)
	}
	ds := NewFromImage(img)
	ds.path = path
	return ds, nil
}

// NewFromImage wraps an already decoded image. Gray sources become one
// Byte band, Gray16 one UInt16 band, 16 bit color four UInt16 bands,
// everything else four Byte bands (non-premultiplied).
func NewFromImage(img image.Image) *ImageDataset {
	b := img.Bounds()
	ds := &ImageDataset{
		w: b.Dx(), h: b.Dy(),
		registry: asyncreader.NewRegistry(),
		closed:   atomicx.NewBool(false),
	}

	switch im := img.(type) {
	case *image.Gray:
		ds.bands, ds.native = 1, raster.TypeByte
		plane := make([]byte, ds.w*ds.h)
		for y := 0; y < ds.h; y++ {
			copy(plane[y*ds.w:(y+1)*ds.w], im.Pix[y*im.Stride:y*im.Stride+ds.w])
		}
		ds.planes = [][]byte{plane}

	case *image.Gray16:
		ds.bands, ds.native = 1, raster.TypeUInt16
		plane := make([]byte, ds.w*ds.h*2)
		for y := 0; y < ds.h; y++ {
			for x := 0; x < ds.w; x++ {
				v := binary.BigEndian.Uint16(im.Pix[y*im.Stride+x*2:])
				binary.LittleEndian.PutUint16(plane[(y*ds.w+x)*2:], v)
			}
		}
		ds.planes = [][]byte{plane}

	case *image.NRGBA64, *image.RGBA64:
		ds.bands, ds.native = 4, raster.TypeUInt16
		ds.planes = ds.unpack16(img, b)

	case *image.NRGBA:
		ds.bands, ds.native = 4, raster.TypeByte
		ds.planes = make([][]byte, 4)
		for i := range ds.planes {
			ds.planes[i] = make([]byte, ds.w*ds.h)
		}
		for y := 0; y < ds.h; y++ {
			row := im.Pix[y*im.Stride:]
			for x := 0; x < ds.w; x++ {
				for i := 0; i < 4; i++ {
					ds.planes[i][y*ds.w+x] = row[x*4+i]
				}
			}
		}

	default:
		ds.bands, ds.native = 4, raster.TypeByte
		ds.planes = make([][]byte, 4)
		for i := range ds.planes {
			ds.planes[i] = make([]byte, ds.w*ds.h)
		}
		for y := 0; y < ds.h; y++ {
			for x := 0; x < ds.w; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				i := y*ds.w + x
				ds.planes[0][i], ds.planes[1][i], ds.planes[2][i], ds.planes[3][i] = c.R, c.G, c.B, c.A
			}
		}
	}

	return ds
}

func (ds *ImageDataset) unpack16(img image.Image, b image.Rectangle) [][]byte {
	planes := make([][]byte, 4)
	for i := range planes {
		planes[i] = make([]byte, ds.w*ds.h*2)
	}
	for y := 0; y < ds.h; y++ {
		for x := 0; x < ds.w; x++ {
			c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			off := (y*ds.w + x) * 2
			binary.LittleEndian.PutUint16(planes[0][off:], c.R)
			binary.LittleEndian.PutUint16(planes[1][off:], c.G)
			binary.LittleEndian.PutUint16(planes[2][off:], c.B)
			binary.LittleEndian.PutUint16(planes[3][off:], c.A)
		}
	}
	return planes
}

func (ds *ImageDataset) RasterSize() (int, int) { return ds.w, ds.h }

func (ds *ImageDataset) Bands() int { return ds.bands }

func (ds *ImageDataset) BandType(int) raster.DataType { return ds.native }

// Path returns the source file, empty for in-memory datasets.
func (ds *ImageDataset) Path() string { return ds.path }

// BeginAsyncReader validates geom, opens a decode session and tracks
// the request so Close can force-cancel it.
func (ds *ImageDataset) BeginAsyncReader(geom raster.Geometry, buf []byte, opts asyncreader.Options) (*asyncreader.Request, error) {
	if ds.closed.T() {
		return nil, errors.Wrap(asyncreader.ErrBackendUnavailable, "dataset is closed")
	}
	req, err := asyncreader.Begin(ds, ds, geom, buf, opts)
	if err != nil {
		return nil, err
	}
	ds.registry.Track(req)
	return req, nil
}

// Outstanding reports how many requests have not been ended yet.
func (ds *ImageDataset) Outstanding() int { return ds.registry.Len() }

// Close force-ends every outstanding request, then releases the pixel
// planes. A request ended by the consumer in parallel is fine; End is
// idempotent.
func (ds *ImageDataset) Close() error {
	ds.closed.Set(true)
	ds.registry.CancelAll()
	ds.planes = nil
	return nil
}
