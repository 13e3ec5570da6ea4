// Package pool runs directory loads on a bounded set of background workers.
package pool

import (
	"context"
	"errors"
	"sync"

	"github.com/kk-code-lab/millr/internal/fs"
	"github.com/kk-code-lab/millr/internal/logging"
	"golang.org/x/sync/errgroup"
)

// MaxWorkers caps the configurable worker count.
const MaxWorkers = 64

// LoadFunc reads one directory. It should return ctx.Err() promptly once ctx
// is cancelled.
type LoadFunc func(ctx context.Context, path string) ([]fs.Entry, error)

// Outcome is the result of one load job.
type Outcome struct {
	Entries  []fs.Entry
	Err      error
	Canceled bool
}

// Sink receives completed jobs. ApplyResult is called from worker goroutines
// (and from Cancel for jobs that never started) without any pool lock held.
type Sink interface {
	ApplyResult(path string, token uint64, outcome Outcome) bool
}

// job is the single outstanding load of a path.
type job struct {
	path string

	// guarded by Pool.mu
	token   uint64
	running bool
	rerun   bool
	cancel  context.CancelFunc
}

// Pool is a bounded worker pool with a FIFO queue and per-path coalescing:
// at most one job per path is queued or running at any time.
type Pool struct {
	load LoadFunc
	sink Sink

	ctx      context.Context
	stop     context.CancelFunc
	group    errgroup.Group
	closeErr error
	once     sync.Once

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*job
	jobs    map[string]*job
	closed  bool
	workers int
}

// New starts a pool with the given number of workers. Counts outside
// [1, MaxWorkers] are clamped and reported once as a capacity warning.
func New(workers int, load LoadFunc, sink Sink) *Pool {
	if load == nil {
		load = fs.ReadDirectory
	}

	switch {
	case workers < 1:
		logging.Warn("worker pool degraded to serialized loads",
			logging.Int("requested", workers),
			logging.Int("workers", 1),
		)
		workers = 1
	case workers > MaxWorkers:
		logging.Warn("worker pool capped",
			logging.Int("requested", workers),
			logging.Int("workers", MaxWorkers),
		)
		workers = MaxWorkers
	}

	ctx, stop := context.WithCancel(context.Background())
	p := &Pool{
		load:    load,
		sink:    sink,
		ctx:     ctx,
		stop:    stop,
		jobs:    make(map[string]*job),
		workers: workers,
	}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < workers; i++ {
		p.group.Go(func() error {
			p.work()
			return nil
		})
	}
	return p
}

// Workers reports the effective worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// Submit queues a load of path stamped with token. If a job for path is
// already queued, the submission is attached to it and the job will report
// the newest token. If the job is already running, one rerun is scheduled
// so the newer request observes the directory after it started.
func (p *Pool) Submit(path string, token uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if j, ok := p.jobs[path]; ok {
		if token > j.token {
			j.token = token
			if j.running {
				j.rerun = true
			}
		}
		logging.Debug("load coalesced", logging.String("path", path), logging.Uint64("token", j.token))
		return
	}

	if p.closed {
		return
	}
	j := &job{path: path, token: token}
	p.jobs[path] = j
	p.queue = append(p.queue, j)
	p.cond.Signal()
}

// Cancel drops a queued job for path or signals a running one to stop.
// A dropped job is still reported to the sink as canceled so the caller can
// forget its in-flight bookkeeping.
func (p *Pool) Cancel(path string) {
	p.mu.Lock()
	j, ok := p.jobs[path]
	if !ok {
		p.mu.Unlock()
		return
	}

	if j.running {
		// A pending rerun still goes ahead: it carries a newer token the
		// sink is waiting for.
		if j.cancel != nil {
			j.cancel()
		}
		p.mu.Unlock()
		return
	}

	p.removeQueued(j)
	delete(p.jobs, path)
	token := j.token
	p.mu.Unlock()

	logging.Debug("queued load canceled", logging.String("path", path), logging.Uint64("token", token))
	p.deliver(path, token, Outcome{Canceled: true})
}

// Pending reports how many jobs are queued or running.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

// Close stops accepting work, cancels running loads and waits for workers.
func (p *Pool) Close() error {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.queue = nil
		p.stop()
		p.cond.Broadcast()
		p.mu.Unlock()

		p.closeErr = p.group.Wait()
	})
	return p.closeErr
}

func (p *Pool) work() {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}

		j := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		ctx, cancel := context.WithCancel(p.ctx)
		j.running = true
		j.cancel = cancel
		token := j.token
		p.mu.Unlock()

		entries, err := p.load(ctx, j.path)
		aborted := ctx.Err() != nil
		cancel()

		outcome := Outcome{Entries: entries, Err: err}
		if err != nil && (aborted || errors.Is(err, context.Canceled)) {
			outcome = Outcome{Canceled: true}
		}
		p.deliver(j.path, token, outcome)

		p.mu.Lock()
		j.running = false
		j.cancel = nil
		if j.rerun && !p.closed {
			j.rerun = false
			p.queue = append(p.queue, j)
			p.cond.Signal()
		} else {
			delete(p.jobs, j.path)
		}
		p.mu.Unlock()
	}
}

func (p *Pool) deliver(path string, token uint64, outcome Outcome) {
	if p.sink == nil {
		return
	}
	p.sink.ApplyResult(path, token, outcome)
}

func (p *Pool) removeQueued(j *job) {
	for i, queued := range p.queue {
		if queued == j {
			copy(p.queue[i:], p.queue[i+1:])
			p.queue[len(p.queue)-1] = nil
			p.queue = p.queue[:len(p.queue)-1]
			return
		}
	}
}
