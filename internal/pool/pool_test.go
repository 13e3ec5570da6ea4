package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kk-code-lab/millr/internal/fs"
)

type delivery struct {
	path    string
	token   uint64
	outcome Outcome
}

type chanSink struct {
	ch chan delivery
}

func newChanSink() *chanSink {
	return &chanSink{ch: make(chan delivery, 64)}
}

func (s *chanSink) ApplyResult(path string, token uint64, outcome Outcome) bool {
	s.ch <- delivery{path: path, token: token, outcome: outcome}
	return true
}

func (s *chanSink) next(t *testing.T) delivery {
	t.Helper()
	select {
	case d := <-s.ch:
		return d
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for delivery")
		return delivery{}
	}
}

func (s *chanSink) none(t *testing.T) {
	t.Helper()
	select {
	case d := <-s.ch:
		t.Fatalf("unexpected delivery %+v", d)
	case <-time.After(50 * time.Millisecond):
	}
}

// gate blocks each load until released and reports which path started.
type gate struct {
	started chan string
	release chan struct{}
	calls   atomic.Int32
}

func newGate() *gate {
	return &gate{started: make(chan string, 64), release: make(chan struct{})}
}

func (g *gate) load(ctx context.Context, path string) ([]fs.Entry, error) {
	g.calls.Add(1)
	g.started <- path
	select {
	case <-g.release:
		return []fs.Entry{{Name: "entry", FullPath: path + "/entry"}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gate) waitStarted(t *testing.T) string {
	t.Helper()
	select {
	case path := <-g.started:
		return path
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for load to start")
		return ""
	}
}

func TestNewClampsWorkerCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		requested int
		want      int
	}{
		{requested: -3, want: 1},
		{requested: 0, want: 1},
		{requested: 4, want: 4},
		{requested: MaxWorkers + 10, want: MaxWorkers},
	}

	for _, tt := range tests {
		p := New(tt.requested, func(context.Context, string) ([]fs.Entry, error) { return nil, nil }, nil)
		if got := p.Workers(); got != tt.want {
			t.Errorf("New(%d).Workers() = %d, want %d", tt.requested, got, tt.want)
		}
		_ = p.Close()
	}
}

func TestSubmitDeliversResult(t *testing.T) {
	t.Parallel()

	sink := newChanSink()
	p := New(2, func(_ context.Context, path string) ([]fs.Entry, error) {
		return []fs.Entry{{Name: "a"}}, nil
	}, sink)
	t.Cleanup(func() { _ = p.Close() })

	p.Submit("/d", 3)

	d := sink.next(t)
	if d.path != "/d" || d.token != 3 {
		t.Fatalf("unexpected delivery %+v", d)
	}
	if d.outcome.Canceled || d.outcome.Err != nil || len(d.outcome.Entries) != 1 {
		t.Fatalf("unexpected outcome %+v", d.outcome)
	}
}

func TestSubmitReportsErrors(t *testing.T) {
	t.Parallel()

	sink := newChanSink()
	want := errors.New("denied")
	p := New(1, func(context.Context, string) ([]fs.Entry, error) { return nil, want }, sink)
	t.Cleanup(func() { _ = p.Close() })

	p.Submit("/d", 1)
	d := sink.next(t)
	if !errors.Is(d.outcome.Err, want) || d.outcome.Canceled {
		t.Fatalf("expected load error, got %+v", d.outcome)
	}
}

func TestQueuedSubmissionsCoalesce(t *testing.T) {
	t.Parallel()

	g := newGate()
	sink := newChanSink()
	p := New(1, g.load, sink)
	t.Cleanup(func() { _ = p.Close() })

	p.Submit("/busy", 1)
	g.waitStarted(t)

	p.Submit("/d", 2)
	p.Submit("/d", 5)
	if p.Pending() != 2 {
		t.Fatalf("expected two pending jobs, got %d", p.Pending())
	}

	close(g.release)
	got := map[string]uint64{}
	for i := 0; i < 2; i++ {
		d := sink.next(t)
		got[d.path] = d.token
	}
	sink.none(t)

	if got["/d"] != 5 {
		t.Fatalf("expected coalesced job to deliver token 5, got %d", got["/d"])
	}
	if calls := g.calls.Load(); calls != 2 {
		t.Fatalf("expected two loads, got %d", calls)
	}
}

func TestSubmitWhileRunningSchedulesRerun(t *testing.T) {
	t.Parallel()

	g := newGate()
	sink := newChanSink()
	p := New(1, g.load, sink)
	t.Cleanup(func() { _ = p.Close() })

	p.Submit("/d", 1)
	g.waitStarted(t)
	p.Submit("/d", 2)
	p.Submit("/d", 3)

	g.release <- struct{}{}
	if d := sink.next(t); d.token != 1 {
		t.Fatalf("expected first run to report token 1, got %d", d.token)
	}

	g.waitStarted(t)
	g.release <- struct{}{}
	if d := sink.next(t); d.token != 3 {
		t.Fatalf("expected rerun to report token 3, got %d", d.token)
	}
	sink.none(t)

	if calls := g.calls.Load(); calls != 2 {
		t.Fatalf("expected exactly one rerun, got %d loads", calls)
	}
}

func TestSubmitWithOlderTokenDoesNotRerun(t *testing.T) {
	t.Parallel()

	g := newGate()
	sink := newChanSink()
	p := New(1, g.load, sink)
	t.Cleanup(func() { _ = p.Close() })

	p.Submit("/d", 4)
	g.waitStarted(t)
	p.Submit("/d", 2)

	g.release <- struct{}{}
	sink.next(t)
	sink.none(t)

	if calls := g.calls.Load(); calls != 1 {
		t.Fatalf("expected a single load, got %d", calls)
	}
}

func TestQueueIsFIFO(t *testing.T) {
	t.Parallel()

	g := newGate()
	sink := newChanSink()
	p := New(1, g.load, sink)
	t.Cleanup(func() { _ = p.Close() })

	p.Submit("/first", 1)
	if got := g.waitStarted(t); got != "/first" {
		t.Fatalf("expected /first to start, got %s", got)
	}
	for i, path := range []string{"/a", "/b", "/c"} {
		p.Submit(path, uint64(i+2))
	}

	order := []string{}
	for i := 0; i < 4; i++ {
		g.release <- struct{}{}
		order = append(order, sink.next(t).path)
		if i < 3 {
			g.waitStarted(t)
		}
	}

	want := []string{"/first", "/a", "/b", "/c"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestConcurrencyIsBounded(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	var mu sync.Mutex
	release := make(chan struct{})
	load := func(ctx context.Context, path string) ([]fs.Entry, error) {
		n := running.Add(1)
		mu.Lock()
		if n > peak.Load() {
			peak.Store(n)
		}
		mu.Unlock()
		<-release
		running.Add(-1)
		return nil, nil
	}

	sink := newChanSink()
	p := New(3, load, sink)
	t.Cleanup(func() { _ = p.Close() })

	for i := 0; i < 10; i++ {
		p.Submit("/d"+string(rune('a'+i)), uint64(i+1))
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	for i := 0; i < 10; i++ {
		sink.next(t)
	}

	if got := peak.Load(); got > 3 {
		t.Fatalf("expected at most 3 concurrent loads, saw %d", got)
	}
}

func TestCancelQueuedJobReportsCanceled(t *testing.T) {
	t.Parallel()

	g := newGate()
	sink := newChanSink()
	p := New(1, g.load, sink)
	t.Cleanup(func() { _ = p.Close() })

	p.Submit("/busy", 1)
	g.waitStarted(t)
	p.Submit("/d", 7)

	p.Cancel("/d")
	d := sink.next(t)
	if d.path != "/d" || d.token != 7 || !d.outcome.Canceled {
		t.Fatalf("expected canceled delivery for /d token 7, got %+v", d)
	}

	close(g.release)
	if d := sink.next(t); d.path != "/busy" {
		t.Fatalf("expected /busy to finish, got %+v", d)
	}
	sink.none(t)
	if calls := g.calls.Load(); calls != 1 {
		t.Fatalf("canceled queued job must not run, got %d loads", calls)
	}
}

func TestCancelRunningJobInterruptsLoad(t *testing.T) {
	t.Parallel()

	g := newGate()
	sink := newChanSink()
	p := New(1, g.load, sink)
	t.Cleanup(func() { _ = p.Close() })

	p.Submit("/d", 1)
	g.waitStarted(t)
	p.Cancel("/d")

	d := sink.next(t)
	if !d.outcome.Canceled {
		t.Fatalf("expected canceled outcome, got %+v", d.outcome)
	}
	if d.outcome.Err != nil || d.outcome.Entries != nil {
		t.Fatalf("canceled outcome must carry no data, got %+v", d.outcome)
	}
}

func TestCancelUnknownPathIsNoop(t *testing.T) {
	t.Parallel()

	sink := newChanSink()
	p := New(1, nil, sink)
	t.Cleanup(func() { _ = p.Close() })

	p.Cancel("/nothing")
	sink.none(t)
}

func TestCloseStopsWorkersAndDropsQueue(t *testing.T) {
	t.Parallel()

	g := newGate()
	sink := newChanSink()
	p := New(1, g.load, sink)

	p.Submit("/d", 1)
	g.waitStarted(t)
	p.Submit("/e", 2)

	done := make(chan error, 1)
	go func() { done <- p.Close() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Close did not return")
	}

	if d := sink.next(t); d.path != "/d" || !d.outcome.Canceled {
		t.Fatalf("expected running load to report canceled, got %+v", d)
	}
	sink.none(t)

	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	p.Submit("/late", 3)
	sink.none(t)
}
