package sink

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/pkg/errors"
	"github.com/rasterkit/asyncread/internal/asyncreader"
	"github.com/rasterkit/asyncread/internal/raster"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// imageSink accumulates updates into an image and encodes it on Close.
// 1 band renders as grayscale, 3 as opaque color, 4 as NRGBA; word
// values are scaled assuming full range of the buffer's integer type.
type imageSink struct {
	format string
	path   string
	img    *image.NRGBA
	gray   *image.Gray
}

func newImageSink(format, path string) (*imageSink, error) {
	return &imageSink{format: format, path: path}, nil
}

func (s *imageSink) Path() string { return s.path }

func (s *imageSink) WriteRegion(region asyncreader.Region, buf []byte, geom raster.Geometry) error {
	bands := geom.BandCount()
	if bands != 1 && bands != 3 && bands != 4 {
		return errors.Errorf("cannot render %d bands as %s", bands, s.format)
	}
	if s.img == nil && s.gray == nil {
		rect := image.Rect(0, 0, geom.BufXSize, geom.BufYSize)
		if bands == 1 {
			s.gray = image.NewGray(rect)
		} else {
			s.img = image.NewNRGBA(rect)
		}
	}

	for y := region.YOff; y < region.YOff+region.YSize; y++ {
		for x := region.XOff; x < region.XOff+region.XSize; x++ {
			off := y*geom.LineSpace + x*geom.PixelSpace
			if bands == 1 {
				s.gray.SetGray(x, y, color.Gray{Y: wordToByte(buf[off:], geom.DataType)})
				continue
			}
			c := color.NRGBA{A: 255}
			c.R = wordToByte(buf[off:], geom.DataType)
			c.G = wordToByte(buf[off+geom.BandSpace:], geom.DataType)
			c.B = wordToByte(buf[off+2*geom.BandSpace:], geom.DataType)
			if bands == 4 {
				c.A = wordToByte(buf[off+3*geom.BandSpace:], geom.DataType)
			}
			s.img.SetNRGBA(x, y, c)
		}
	}
	return nil
}

func wordToByte(p []byte, t raster.DataType) byte {
	v := raster.ReadWord(p, t)
	switch t {
	case raster.TypeInt16, raster.TypeUInt16:
		v /= 256
	case raster.TypeInt32, raster.TypeUInt32:
		v /= 1 << 24
	}
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

func (s *imageSink) Close() error {
	var img image.Image
	switch {
	case s.gray != nil:
		img = s.gray
	case s.img != nil:
		img = s.img
	default:
		// Closed before any update arrived; nothing to encode.
		return nil
	}

	f, err := os.Create(s.path)
	if err != nil {
		return errors.Wrapf(err, "create output <%s>", s.path)
	}
	defer f.Close()

	switch s.format {
	case "png":
		err = png.Encode(f, img)
	case "bmp":
		err = bmp.Encode(f, img)
	case "tiff":
		err = tiff.Encode(f, img, nil)
	case "jpeg":
		err = jpeg.Encode(f, img, nil)
	}
	return errors.Wrapf(err, "encode output <%s>", s.path)
}
