package digest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericksa/reclaimdigest/internal/reclaim"
)

type fakeProvider struct {
	tasks    []reclaim.Task
	tasksErr error

	mu       sync.Mutex
	events   map[int64][]reclaim.Event
	failing  map[int64]error
	panics   map[int64]bool
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	calls    atomic.Int32
}

func (f *fakeProvider) ListTasks(context.Context) ([]reclaim.Task, error) {
	if f.tasksErr != nil {
		return nil, f.tasksErr
	}
	return append([]reclaim.Task(nil), f.tasks...), nil
}

func (f *fakeProvider) ListFutureEvents(_ context.Context, taskID int64, _ time.Duration) ([]reclaim.Event, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics[taskID] {
		panic("boom")
	}
	if err := f.failing[taskID]; err != nil {
		return nil, err
	}
	return f.events[taskID], nil
}

var errUpstream = errors.New("upstream down")
