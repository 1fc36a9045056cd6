package component

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
	"github.com/rasterkit/asyncread/pkg/eventbus"
)

const (
	EvtScannerNewJob = "scanner.new-job"
	EvtScannerDone   = "scanner.done"
	EvtScannerError  = "scanner.error"
)

type scannerResult struct {
	jobCount int
	errCount int
}

// PathScanner turns the input path into transfer jobs: a single raster
// makes one job, a directory is walked and every matching raster gets
// its own job with the extension swapped for the output format's.
type PathScanner struct {
	config *Config
	eb     *eventbus.Bus
	result *scannerResult
}

// config.Src and config.Dest must be cleaned by filepath.Clean first
func NewPathScanner(eb *eventbus.Bus, config *Config) *PathScanner {
	return &PathScanner{eb: eb, config: config, result: new(scannerResult)}
}

func (sc *PathScanner) Scan(ctx context.Context) {
	var (
		conf = sc.config
		err  error
		stat os.FileInfo
	)
	defer sc.eb.Publish(EvtScannerDone, sc.result)

	stat, err = os.Stat(conf.Src)
	if err != nil {
		sc.handleError(errors.Wrapf(err, "get <%s> stat failed", conf.Src))
		return
	}

	if stat.IsDir() {
		err = godirwalk.Walk(conf.Src, &godirwalk.Options{
			Callback: sc.walkDir,
			ErrorCallback: func(s string, e error) godirwalk.ErrorAction {
				sc.handleError(errors.Wrapf(e, "walk on file node <%s> failed", s))
				return godirwalk.SkipNode
			},
		})
		if err != nil {
			sc.handleError(errors.Wrapf(err, "can not walk directory <%s>", conf.Src))
		}
		return
	}

	dir := filepath.Dir(conf.Dest)
	if err = os.MkdirAll(dir, os.ModePerm); err != nil {
		sc.handleError(errors.Wrapf(err, "can not make output directory <%s>", dir))
		return
	}
	sc.sendJob(&Job{Src: conf.Src, Dest: conf.Dest})
}

func (sc *PathScanner) walkDir(pathname string, de *godirwalk.Dirent) error {
	var conf = sc.config
	if conf.Src == pathname {
		if err := os.MkdirAll(conf.Dest, os.ModePerm); err != nil {
			sc.handleError(errors.Wrapf(err, "can not make dest directory <%s>", conf.Dest))
			return godirwalk.SkipThis
		}
		return nil
	} else if conf.Dest == pathname || conf.LogPath == pathname {
		return godirwalk.SkipThis
	}

	rel, _ := filepath.Rel(conf.Src, pathname)
	outPathname := filepath.Join(conf.Dest, rel)
	if de.IsDir() {
		if !conf.Recursively {
			return godirwalk.SkipThis
		}
		if err := os.MkdirAll(outPathname, os.ModePerm); err != nil {
			sc.handleError(errors.Wrapf(err, "can not make dest directory <%s>", outPathname))
			return godirwalk.SkipThis
		}
		return nil
	}

	if !conf.InputMatch(pathname, true) {
		return nil
	}

	ext := filepath.Ext(outPathname)
	outPathname = strings.TrimSuffix(outPathname, ext) + outExtension(conf.Format)
	sc.sendJob(&Job{Src: pathname, Dest: outPathname})
	return nil
}

func (sc *PathScanner) sendJob(job *Job) {
	sc.result.jobCount++
	sc.eb.Publish(EvtScannerNewJob, job)
	sc.config.JobQueue <- job
}

func (sc *PathScanner) handleError(err error) {
	sc.result.errCount++
	sc.eb.Publish(EvtScannerError, err)
}

func outExtension(format string) string {
	if format == "jpeg" {
		return ".jpg"
	}
	return "." + format
}
