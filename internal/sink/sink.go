package sink

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rasterkit/asyncread/internal/asyncreader"
	"github.com/rasterkit/asyncread/internal/raster"
)

// Sink receives updated buffer rectangles from the consumer loop. The
// caller holds the request's buffer lock across WriteRegion, so the
// buffer cannot change underneath it. Nothing hits the disk until
// Close, which makes partial-output-on-error a property of how often
// the consumer rotates sinks, not of the sink itself.
type Sink interface {
	WriteRegion(region asyncreader.Region, buf []byte, geom raster.Geometry) error
	Path() string
	Close() error
}

// New creates a sink for the given output format. co carries
// NAME=VALUE creation options (--co on the command line).
func New(format, path string, co map[string]string) (Sink, error) {
	switch strings.ToLower(format) {
	case "raw":
		return newRawSink(path, co)
	case "png", "bmp", "tiff", "jpeg":
		return newImageSink(strings.ToLower(format), path)
	}
	return nil, errors.Errorf("output format <%s> not recognised", format)
}

// Formats lists the supported output format names.
func Formats() []string {
	return []string{"png", "bmp", "tiff", "jpeg", "raw"}
}
