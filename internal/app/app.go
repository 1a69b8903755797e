package app

import (
    "context"
    "errors"
    "net/http"
    "path/filepath"
    "time"

    "github.com/apex/log"

    "redblue_covid/config"
    "redblue_covid/internal/events"
    "redblue_covid/internal/httpapi"
    "redblue_covid/internal/jobs"
    "redblue_covid/internal/pipeline"
    "redblue_covid/internal/store"
    "redblue_covid/internal/watch"
    "redblue_covid/metrics"
)

const shutdownGrace = 5 * time.Second

// App wires the components together: history store, event bus, run queue,
// source watcher, and the HTTP surface.
type App struct {
    cfg     config.Config
    store   *store.Store
    bus     *events.Bus
    metrics *metrics.Metrics
    runner  *jobs.Runner
    watcher *watch.Watcher
    mux     *http.ServeMux
}

// New builds an App. History is optional: an empty HistoryDB path disables
// the store entirely.
func New(cfg config.Config, version string) (*App, error) {
    var st *store.Store
    if cfg.HistoryDB != "" {
        var err error
        st, err = store.Open(cfg.HistoryDB)
        if err != nil {
            return nil, err
        }
    }
    bus := events.NewBus()
    m := metrics.New()
    runner := jobs.NewRunner(cfg, st, bus, m)
    watcher := watch.New(cfg, bus, m)
    mux := http.NewServeMux()
    httpapi.NewRouter(cfg, st, runner, m, version).Register(mux)
    return &App{cfg: cfg, store: st, bus: bus, metrics: m, runner: runner, watcher: watcher, mux: mux}, nil
}

// Close releases the history store.
func (a *App) Close() error {
    if a.store != nil {
        return a.store.Close()
    }
    return nil
}

func (a *App) Runner() *jobs.Runner { return a.runner }
func (a *App) Store() *store.Store  { return a.store }
func (a *App) Mux() *http.ServeMux  { return a.mux }

// RunOnce executes the pipeline synchronously, bypassing the queue, and
// records the run to history. The caller owns printing the summary.
func (a *App) RunOnce(ctx context.Context) (*pipeline.Result, error) {
    res, err := pipeline.Execute(ctx, a.cfg)
    jobs.Record(a.store, res, err)
    return res, err
}

// Watch runs the daemon without the HTTP surface: watch the sources, tick
// the remote refresh, re-run on changes. Blocks until ctx is done.
func (a *App) Watch(ctx context.Context) error {
    if err := a.startDaemon(ctx); err != nil {
        return err
    }
    <-ctx.Done()
    a.drain()
    return nil
}

// Serve is Watch plus the HTTP API.
func (a *App) Serve(ctx context.Context) error {
    if err := a.startDaemon(ctx); err != nil {
        return err
    }
    srv := &http.Server{Addr: a.cfg.HTTPAddr, Handler: a.mux}
    go func() {
        <-ctx.Done()
        shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
        defer cancel()
        _ = srv.Shutdown(shutdownCtx)
    }()
    log.Infof("http listening on %s", a.cfg.HTTPAddr)
    err := srv.ListenAndServe()
    a.drain()
    if errors.Is(err, http.ErrServerClosed) {
        return nil
    }
    return err
}

func (a *App) startDaemon(ctx context.Context) error {
    a.runner.Start(ctx)
    go a.eventLoop(ctx)
    if err := a.watcher.Start(ctx); err != nil {
        return err
    }
    a.runner.CatchUp(ctx)
    return nil
}

// eventLoop maps bus events to run triggers. Completions are already
// handled by the runner; they pass through here unconsumed.
func (a *App) eventLoop(ctx context.Context) {
    sub := a.bus.Subscribe()
    for {
        select {
        case <-ctx.Done():
            return
        case ev := <-sub:
            switch e := ev.(type) {
            case events.SourceChanged:
                a.runner.Trigger("watch:" + filepath.Base(e.Path))
            case events.RefreshDue:
                a.runner.Trigger("refresh")
            }
        }
    }
}

func (a *App) drain() {
    drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
    defer cancel()
    a.runner.Stop(drainCtx)
}
