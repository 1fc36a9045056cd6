package sink

import (
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/rasterkit/asyncread/internal/asyncreader"
	"github.com/rasterkit/asyncread/internal/raster"
)

// rawSink dumps the buffer as packed band-sequential words, little
// endian, no header. COMPRESS=zstd wraps the dump in a zstd stream.
type rawSink struct {
	path     string
	compress bool
	shadow   []byte
	geom     raster.Geometry
	primed   bool
}

func newRawSink(path string, co map[string]string) (*rawSink, error) {
	s := &rawSink{path: path}
	switch c := strings.ToLower(co["COMPRESS"]); c {
	case "", "none":
	case "zstd":
		s.compress = true
	default:
		return nil, errors.Errorf("unsupported COMPRESS value <%s>", co["COMPRESS"])
	}
	return s, nil
}

func (s *rawSink) Path() string { return s.path }

func (s *rawSink) WriteRegion(region asyncreader.Region, buf []byte, geom raster.Geometry) error {
	size := geom.DataType.Size()
	if !s.primed {
		s.geom = geom
		s.shadow = make([]byte, geom.BandCount()*geom.BufXSize*geom.BufYSize*size)
		s.primed = true
	}

	bandLen := geom.BufXSize * geom.BufYSize * size
	for slot := 0; slot < geom.BandCount(); slot++ {
		for y := region.YOff; y < region.YOff+region.YSize; y++ {
			src := buf[y*geom.LineSpace+slot*geom.BandSpace+region.XOff*geom.PixelSpace:]
			dst := s.shadow[slot*bandLen+(y*geom.BufXSize+region.XOff)*size:]
			raster.CopyWords(dst, geom.DataType, size, src, geom.DataType, geom.PixelSpace, region.XSize)
		}
	}
	return nil
}

func (s *rawSink) Close() error {
	f, err := os.Create(s.path)
	if err != nil {
		return errors.Wrapf(err, "create output <%s>", s.path)
	}
	defer f.Close()

	if !s.compress {
		if _, err = f.Write(s.shadow); err != nil {
			return errors.Wrapf(err, "write output <%s>", s.path)
		}
		return nil
	}

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err = zw.Write(s.shadow); err != nil {
		zw.Close()
		return errors.Wrapf(err, "write output <%s>", s.path)
	}
	return errors.Wrapf(zw.Close(), "finish output <%s>", s.path)
}
