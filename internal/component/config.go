package component

import (
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rasterkit/asyncread/internal/asyncreader"
	"github.com/rasterkit/asyncread/internal/raster"
)

type PathMatcher func(pathname string, depPlatform bool) bool

type Config struct {
	Src         string
	Dest        string
	Recursively bool
	InputMatch  PathMatcher

	Format             string
	OutType            raster.DataType
	Bands              []int
	SrcWin             [4]int // xoff yoff xsize ysize; zero size means full raster
	OutSizeX, OutSizeY string // absolute pixels or trailing %

	Timeout time.Duration // poll timeout; <= 0 waits indefinitely
	Multi   bool
	Quiet   bool
	MaxGo   int
	LogPath string

	CreateOpts map[string]string
	AsyncOpts  asyncreader.Options

	JobQueue chan *Job
}

func NewGlobMatcher(pattern string) (PathMatcher, error) {
	patterns := strings.Split(pattern, "|")
	for _, s := range patterns {
		_, err := path.Match(s, "foobar")
		if err != nil {
			return nil, err
		}
	}

	return func(pathname string, depPlatform bool) bool {
		var name string
		if depPlatform {
			name = filepath.Ext(pathname)
		} else {
			name = path.Ext(pathname)
		}
		var ok = false
		for _, s := range patterns {
			if ok, _ = path.Match(s, name); ok {
				break
			}
		}
		return ok
	}, nil
}

// ParseOptionList turns repeated NAME=VALUE flags into a map.
func ParseOptionList(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		eq := strings.IndexByte(p, '=')
		if eq <= 0 {
			return nil, errors.Errorf("option <%s> is not NAME=VALUE", p)
		}
		m[p[:eq]] = p[eq+1:]
	}
	return m, nil
}

// ResolveOutSize resolves one --outsize component against the source
// window size: empty means same size, a trailing % scales.
func ResolveOutSize(value string, srcSize int) (int, error) {
	if value == "" {
		return srcSize, nil
	}
	if strings.HasSuffix(value, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil || pct <= 0 {
			return 0, errors.Errorf("invalid output size <%s>", value)
		}
		return int(pct / 100 * float64(srcSize)), nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, errors.Errorf("invalid output size <%s>", value)
	}
	return n, nil
}
