package digest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericksa/reclaimdigest/internal/reclaim"
)

// Provider is the read-only source of tasks and events.
type Provider interface {
	ListTasks(ctx context.Context) ([]reclaim.Task, error)
	ListFutureEvents(ctx context.Context, taskID int64, horizon time.Duration) ([]reclaim.Event, error)
}

// NextEventResult is the outcome of one next-event lookup. A degraded result
// carries no event and the reason the lookup failed.
type NextEventResult struct {
	TaskID   int64
	Event    *EventSummary
	Degraded bool
	Reason   string
}

// Resolver looks up the next scheduled event of tasks through a Provider.
// Lookups are independent: one failing task never affects another.
type Resolver struct {
	provider    Provider
	horizon     time.Duration
	maxParallel int
	logger      *slog.Logger
}

func NewResolver(provider Provider, horizon time.Duration, maxParallel int, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Resolver{
		provider:    provider,
		horizon:     horizon,
		maxParallel: maxParallel,
		logger:      logger,
	}
}

// Resolve performs a single lookup. Errors and panics are folded into a
// degraded result.
func (r *Resolver) Resolve(ctx context.Context, taskID int64, now time.Time) (res NextEventResult) {
	res.TaskID = taskID
	defer func() {
		if p := recover(); p != nil {
			res = NextEventResult{TaskID: taskID, Degraded: true, Reason: fmt.Sprintf("panic: %v", p)}
		}
		if res.Degraded {
			r.logger.Warn("next event lookup failed", "task_id", taskID, "error", res.Reason)
		}
	}()

	events, err := r.provider.ListFutureEvents(ctx, taskID, r.horizon)
	if err != nil {
		res.Degraded = true
		res.Reason = err.Error()
		return res
	}
	res.Event = NextEvent(taskID, events, now)
	return res
}

// ResolveAll fans the lookups out with at most maxParallel in flight and
// returns one result per task id.
func (r *Resolver) ResolveAll(ctx context.Context, taskIDs []int64, now time.Time) map[int64]NextEventResult {
	results := make([]NextEventResult, len(taskIDs))
	sem := make(chan struct{}, r.maxParallel)
	var wg sync.WaitGroup

	for i, id := range taskIDs {
		wg.Add(1)
		go func(idx int, taskID int64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[idx] = r.Resolve(ctx, taskID, now)
		}(i, id)
	}
	wg.Wait()

	byID := make(map[int64]NextEventResult, len(results))
	for _, res := range results {
		byID[res.TaskID] = res
	}
	return byID
}
