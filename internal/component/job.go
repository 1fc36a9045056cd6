package component

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rasterkit/asyncread/internal/asyncreader"
	"github.com/rasterkit/asyncread/internal/dataset"
	"github.com/rasterkit/asyncread/internal/raster"
	"github.com/rasterkit/asyncread/internal/sink"
	"github.com/rasterkit/asyncread/pkg/eventbus"
)

// Job transfers one source raster to one destination, driving the
// async read protocol: Begin, poll, lock/write/unlock, End.
type Job struct {
	Src  string
	Dest string

	Updates int
	Err     error
}

func (job *Job) do(conf *Config, eb *eventbus.Bus) {
	ds, err := dataset.Open(job.Src)
	if err != nil {
		job.Err = errors.WithStack(err)
		return
	}
	defer ds.Close()

	rx, ry := ds.RasterSize()
	win := conf.SrcWin
	if win[2] == 0 && win[3] == 0 {
		win[2], win[3] = rx-win[0], ry-win[1]
	}
	outX, err := ResolveOutSize(conf.OutSizeX, win[2])
	if err != nil {
		job.Err = err
		return
	}
	outY, err := ResolveOutSize(conf.OutSizeY, win[3])
	if err != nil {
		job.Err = err
		return
	}

	outType := conf.OutType
	if outType == raster.TypeUnknown {
		outType = ds.BandType(1)
	}

	geom := raster.Geometry{
		XOff: win[0], YOff: win[1], XSize: win[2], YSize: win[3],
		BufXSize: outX, BufYSize: outY,
		DataType: outType,
		BandMap:  append([]int(nil), conf.Bands...),
	}
	geom.Normalize(ds.Bands())
	buf := make([]byte, geom.BufferLen())

	// A Begin failure aborts before any output file exists; sinks are
	// created lazily on the first update.
	req, err := ds.BeginAsyncReader(geom, buf, conf.AsyncOpts)
	if err != nil {
		job.Err = err
		return
	}
	defer req.End()

	var (
		out          sink.Sink
		multiCounter int
	)

Loop:
	for {
		status, region, err := req.NextUpdatedRegion(conf.Timeout)
		switch status {
		case asyncreader.StatusPending:
			continue

		case asyncreader.StatusError:
			job.Err = err
			break Loop

		case asyncreader.StatusUpdate, asyncreader.StatusComplete:
			if out == nil {
				name := job.Dest
				if conf.Multi {
					name = multiPath(job.Dest, multiCounter)
					multiCounter++
				}
				if out, err = sink.New(conf.Format, name, conf.CreateOpts); err != nil {
					job.Err = err
					break Loop
				}
			}

			req.LockBuffer()
			err = out.WriteRegion(region, req.Buffer(), req.Geometry())
			req.UnlockBuffer()
			if err != nil {
				job.Err = err
				break Loop
			}
			job.Updates++
			eb.Publish(EvtCopierUpdate, &UpdateEvent{Job: job, Region: region})

			if conf.Multi {
				if err = out.Close(); err != nil {
					job.Err = err
					break Loop
				}
				out = nil
			}
			if status == asyncreader.StatusComplete {
				break Loop
			}
		}
	}

	// Flushed even when the transfer failed: everything written up to
	// the last successful update stays on disk.
	if out != nil {
		if err := out.Close(); err != nil && job.Err == nil {
			job.Err = err
		}
	}
}

func multiPath(dest string, i int) string {
	ext := filepath.Ext(dest)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(dest, ext), i, ext)
}
