package component

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/rasterkit/asyncread/pkg/eventbus"
)

var requireTopics = []eventbus.Topic{
	EvtScannerNewJob,
	EvtScannerError,
	EvtScannerDone,
	EvtCopierUpdate,
	EvtCopierJobDone,
	EvtCopierDone,
}

type counter struct {
	v int
	t int
}

type Monitor struct {
	eb         *eventbus.Bus
	config     *Config
	errLog     *log.Logger
	warnLog    *log.Logger
	infoLog    *log.Logger
	Jobs       counter
	Regions    int
	Errs       int
	jobCount   counter
	scannerErr int
	startTime  time.Time
}

func NewMonitor(eb *eventbus.Bus, config *Config, logOut io.Writer) *Monitor {
	m := &Monitor{eb: eb, config: config}
	flag := log.LstdFlags | log.Lmicroseconds
	m.errLog = log.New(logOut, "[ERROR] ", flag)
	m.warnLog = log.New(logOut, "[WARN ] ", flag)
	m.infoLog = log.New(logOut, "[INFO ] ", flag)

	return m
}

func (mo *Monitor) Start(ctx context.Context) {
	var (
		sub        = mo.subscribe()
		copierDone = false
		t1s        = time.NewTicker(1 * time.Second)
		t30s       = time.NewTicker(30 * time.Second)
		sc         *scannerResult
	)
	mo.startTime = time.Now()
	mo.hideCursor()
Loop:
	for {
		select {
		case msg := <-sub:
			switch msg.Topic {
			case EvtCopierDone:
				copierDone = true
			case EvtScannerDone:
				sc, _ = msg.Data.(*scannerResult)
			default:
				mo.processEvent(msg)
			}
		case <-t1s.C:
			mo.updateConsole()
		case <-t30s.C:
			mo.logCounter()
		case <-ctx.Done():
			break Loop
		default:
			if copierDone && sc != nil &&
				mo.jobCount.v == sc.jobCount &&
				mo.jobCount.t == sc.jobCount &&
				mo.scannerErr == sc.errCount { //wait for last job event
				break Loop
			}
		}
	}
	t1s.Stop()
	t30s.Stop()
	fmt.Println()
	mo.showCursor()
	mo.unSubscribe(sub)
	mo.logCounter()
}

func (mo *Monitor) subscribe() eventbus.Subscriber {
	sub := make(eventbus.Subscriber, 512)
	for _, topic := range requireTopics {
		mo.eb.Subscribe(topic, sub)
	}
	return sub
}

func (mo *Monitor) unSubscribe(sub eventbus.Subscriber) {
	for _, topic := range requireTopics {
		mo.eb.UnSubscribe(topic, sub)
	}
}

func (mo *Monitor) processEvent(msg eventbus.Message) {
	switch msg.Topic {
	case EvtScannerNewJob:
		mo.Jobs.t++
		mo.jobCount.v++
	case EvtCopierUpdate:
		mo.Regions++
		up, _ := msg.Data.(*UpdateEvent)
		if up != nil && !mo.config.Quiet {
			mo.infoLog.Printf("[Copier] <%s> got %dx%d @ (%d,%d)\n", up.Job.Src,
				up.Region.XSize, up.Region.YSize, up.Region.XOff, up.Region.YOff)
		}
	case EvtCopierJobDone:
		mo.jobCount.t++
		job, _ := msg.Data.(*Job)
		if job.Err != nil {
			mo.Errs++
			mo.errLog.Printf("[Copier] <%s> -> <%s>\n%+v\n", job.Src, job.Dest, job.Err)
		} else {
			mo.Jobs.v++
			mo.infoLog.Printf("[Copier] <%s> -> <%s> done, %d regions\n", job.Src, job.Dest, job.Updates)
		}
	case EvtScannerError:
		mo.scannerErr++
		mo.Errs++
		err, _ := msg.Data.(error)
		mo.errLog.Printf("[Scanner] %+v\n", err)
	}
	mo.updateConsole()
}

func (mo *Monitor) updateConsole() {
	if mo.config.Quiet {
		return
	}
	fmt.Print("\r")
	mo.printCounter()
}

func (mo *Monitor) printCounter() {
	fmt.Printf("\x1b[36mdone\x1b[0m: %d/%d | \x1b[32mregions\x1b[0m: %d | \x1B[31merror\x1b[0m: %d | elapsed: %10v",
		mo.Jobs.v, mo.Jobs.t, mo.Regions, mo.Errs, time.Since(mo.startTime))
}

func (mo Monitor) logCounter() {
	mo.infoLog.Printf("done: %d/%d | regions: %d | error: %d | elapsed: %10v\n",
		mo.Jobs.v, mo.Jobs.t, mo.Regions, mo.Errs, time.Since(mo.startTime))
}

func (mo *Monitor) hideCursor() {
	if !mo.config.Quiet {
		fmt.Print("\033[?25l")
	}
}
func (mo *Monitor) showCursor() {
	if !mo.config.Quiet {
		fmt.Print("\033[?25h")
	}
}

func init() {
	b := true
	colorable.EnableColorsStdout(&b)
}
