package component

import (
	"context"
	"sync"

	"github.com/rasterkit/asyncread/internal/asyncreader"
	"github.com/rasterkit/asyncread/pkg/atomicx"
	"github.com/rasterkit/asyncread/pkg/eventbus"
)

const (
	EvtCopierDone    = "copier.done"
	EvtCopierJobDone = "copier.job-done"
	EvtCopierUpdate  = "copier.update"
)

// UpdateEvent reports one drained rectangle of a running job.
type UpdateEvent struct {
	Job    *Job
	Region asyncreader.Region
}

// Copier runs transfer jobs from the queue on a small worker pool. One
// worker drives one request at a time; concurrency comes from working
// several files at once, never from sharing a request.
type Copier struct {
	maxGo    int
	noMore   *atomicx.Bool
	jobQueue <-chan *Job
	conf     *Config
	eb       *eventbus.Bus
}

func NewCopier(eb *eventbus.Bus, config *Config) *Copier {
	return &Copier{
		noMore:   atomicx.NewBool(false),
		maxGo:    config.MaxGo,
		jobQueue: config.JobQueue,
		conf:     config,
		eb:       eb,
	}
}

func (cp *Copier) Start(ctx context.Context) {
	sub := make(eventbus.Subscriber, 1)
	cp.eb.Subscribe(EvtScannerDone, sub)
	cp.noMore.Set(false)
	var wg = new(sync.WaitGroup)
	for i := 0; i < cp.maxGo; i++ {
		wg.Add(1)
		go cp.worker(wg, ctx)
	}

Loop:
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			break Loop
		case <-sub:
			cp.noMore.Set(true)
			wg.Wait()
			break Loop
		}
	}

	cp.eb.Publish(EvtCopierDone, nil)
	cp.eb.UnSubscribe(EvtScannerDone, sub)
}

func (cp *Copier) worker(wg *sync.WaitGroup, ctx context.Context) {
	defer wg.Done()
Loop:
	for {
		select {
		case job := <-cp.jobQueue:
			job.do(cp.conf, cp.eb)
			cp.eb.Publish(EvtCopierJobDone, job)
		case <-ctx.Done():
			break Loop
		default:
			if cp.noMore.T() {
				break Loop
			}
		}
	}
}
