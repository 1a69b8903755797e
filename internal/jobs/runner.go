package jobs

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    "github.com/apex/log"
    "github.com/google/uuid"

    "redblue_covid/config"
    "redblue_covid/internal/events"
    "redblue_covid/internal/notify"
    "redblue_covid/internal/pipeline"
    "redblue_covid/internal/store"
    "redblue_covid/metrics"
    "redblue_covid/queue"
)

// Runner serializes analysis runs through a single-slot, single-worker
// queue. Every trigger source funnels through Trigger; a trigger arriving
// while a run is queued coalesces into it, so a burst of file events or
// API calls costs at most one extra run.
type Runner struct {
    cfg     config.Config
    queue   *queue.Queue
    store   *store.Store
    bus     *events.Bus
    metrics *metrics.Metrics
    work    func(context.Context) (*pipeline.Result, error)

    mu      sync.RWMutex
    last    *pipeline.Result
    lastErr error
}

// NewRunner wires a runner. st may be nil when history is disabled.
func NewRunner(cfg config.Config, st *store.Store, bus *events.Bus, m *metrics.Metrics) *Runner {
    return &Runner{
        cfg:     cfg,
        queue:   queue.New(1, 1, cfg.RunTimeout),
        store:   st,
        bus:     bus,
        metrics: m,
        work: func(ctx context.Context) (*pipeline.Result, error) {
            return pipeline.Execute(ctx, cfg)
        },
    }
}

// Start launches the queue worker.
func (r *Runner) Start(ctx context.Context) { r.queue.Start(ctx) }

// Stop drains the queue until the context expires.
func (r *Runner) Stop(ctx context.Context) { r.queue.Stop(ctx) }

// Queue exposes queue statistics for the ops endpoints.
func (r *Runner) Queue() *queue.Queue { return r.queue }

// Last returns the most recent completed run and its error, if any.
func (r *Runner) Last() (*pipeline.Result, error) {
    r.mu.RLock()
    defer r.mu.RUnlock()
    return r.last, r.lastErr
}

// Trigger requests a run. Returns false when the request coalesced into a
// run that is already pending.
func (r *Runner) Trigger(source string) bool {
    task := queue.Task{
        ID:     uuid.NewString(),
        Source: source,
        Work: func(ctx context.Context) error {
            return r.runOnce(ctx)
        },
    }
    if !r.queue.Enqueue(task) {
        r.metrics.IncCoalesced()
        log.Debugf("trigger from %s coalesced into pending run", source)
        return false
    }
    log.Infof("analysis run queued (source %s)", source)
    return true
}

func (r *Runner) runOnce(ctx context.Context) error {
    res, err := r.work(ctx)
    r.mu.Lock()
    r.last = res
    r.lastErr = err
    r.mu.Unlock()

    r.metrics.RecordRunCompletion(err)
    Record(r.store, res, err)
    r.notify(res, err)
    if r.bus != nil {
        ev := events.RunCompleted{RunID: res.RunID, FinishedAt: res.FinishedAt}
        if err != nil {
            ev.Err = err.Error()
        }
        r.bus.Publish(ev)
    }
    return err
}

// Record appends the run to history when a store is configured. It runs
// on a fresh context so a run that failed by timeout still gets written.
func Record(st *store.Store, res *pipeline.Result, runErr error) {
    if st == nil {
        return
    }
    run := &store.Run{
        ID:           res.RunID,
        StartedAt:    res.StartedAt,
        FinishedAt:   res.FinishedAt,
        Status:       store.StatusSucceeded,
        SnapshotDate: res.SnapshotDate,
        States:       len(res.States),
        SeriesPoints: res.SeriesPoints,
        Fingerprint:  res.Fingerprint,
        ChartPath:    res.ChartPath,
        Exclusions:   res.Exclusions,
    }
    if runErr != nil {
        run.Status = store.StatusFailed
        msg := runErr.Error()
        run.LastError = &msg
    }
    if buf, err := json.Marshal(res); err == nil {
        run.SummaryJSON = string(buf)
    }
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := st.RecordRun(ctx, run); err != nil {
        log.Errorf("record run %s: %v", res.RunID, err)
    }
}

func (r *Runner) notify(res *pipeline.Result, runErr error) {
    if r.cfg.WebhookURL == "" {
        return
    }
    p := notify.Payload{
        RunID:        res.RunID,
        Status:       store.StatusSucceeded,
        SnapshotDate: res.SnapshotDate,
        States:       len(res.States),
        ChartPath:    res.ChartPath,
    }
    if runErr != nil {
        p.Status = store.StatusFailed
        p.Error = runErr.Error()
        p.Text = fmt.Sprintf("covid analysis run failed: %v", runErr)
    } else {
        p.Text = fmt.Sprintf("covid analysis updated: %d states as of %s", len(res.States), res.SnapshotDate)
    }
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := notify.Send(ctx, r.cfg.WebhookURL, p); err != nil {
        r.metrics.IncWebhookFailure()
        log.Errorf("webhook: %v", err)
    }
}
