package watch

import (
    "context"
    "fmt"
    "os"
    "path/filepath"
    "sort"
    "sync"
    "time"

    "github.com/apex/log"
    "github.com/fsnotify/fsnotify"

    "redblue_covid/config"
    "redblue_covid/internal/events"
    "redblue_covid/metrics"
)

// Watcher publishes SourceChanged when a local source file is rewritten
// and RefreshDue on the remote refresh cadence. Editors save through
// rename-and-replace as often as in-place writes, so events are matched by
// final path and debounced per file.
type Watcher struct {
    cfg     config.Config
    bus     *events.Bus
    metrics *metrics.Metrics

    mu      sync.Mutex
    pending map[string]*time.Timer
}

func New(cfg config.Config, bus *events.Bus, m *metrics.Metrics) *Watcher {
    return &Watcher{
        cfg:     cfg,
        bus:     bus,
        metrics: m,
        pending: make(map[string]*time.Timer),
    }
}

// Start begins watching the parent directories of the local sources and,
// when a refresh interval is configured, ticking the remote refresh. The
// goroutines stop when ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
    sources, configPath, err := w.targets()
    if err != nil {
        return err
    }
    fsw, err := fsnotify.NewWatcher()
    if err != nil {
        return err
    }
    for _, dir := range watchDirs(sources, configPath) {
        if err := fsw.Add(dir); err != nil {
            fsw.Close()
            return fmt.Errorf("watch %s: %w", dir, err)
        }
        log.Infof("watching %s", dir)
    }
    go w.loop(ctx, fsw, sources, configPath)
    if w.cfg.RefreshInterval > 0 {
        go w.refreshLoop(ctx)
    }
    return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, sources map[string]bool, configPath string) {
    defer fsw.Close()
    for {
        select {
        case <-ctx.Done():
            return
        case evt, ok := <-fsw.Events:
            if !ok {
                return
            }
            if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
                continue
            }
            path := filepath.Clean(evt.Name)
            switch {
            case sources[path]:
                w.debounce(path)
            case path == configPath:
                log.Warnf("config file changed: %s (restart to apply)", path)
            }
        case err, ok := <-fsw.Errors:
            if !ok {
                return
            }
            log.Warnf("watcher: %v", err)
        }
    }
}

// debounce schedules one SourceChanged per path per quiet period. A save
// often arrives as several events back to back; only the last one counts.
func (w *Watcher) debounce(path string) {
    w.mu.Lock()
    defer w.mu.Unlock()
    if t, ok := w.pending[path]; ok {
        t.Stop()
    }
    w.pending[path] = time.AfterFunc(w.cfg.WatchDebounce, func() {
        w.mu.Lock()
        delete(w.pending, path)
        w.mu.Unlock()
        log.Infof("source changed: %s", path)
        w.bus.Publish(events.SourceChanged{Path: path})
    })
}

func (w *Watcher) refreshLoop(ctx context.Context) {
    ticker := time.NewTicker(w.cfg.RefreshInterval)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            w.metrics.IncRefreshTick()
            log.Infof("remote refresh due")
            w.bus.Publish(events.RefreshDue{})
        }
    }
}

// targets resolves the watched files to absolute cleaned paths so event
// names compare reliably. The config file is optional and only watched
// when it exists; the sources are not, since a run cannot work without
// them.
func (w *Watcher) targets() (map[string]bool, string, error) {
    sources := make(map[string]bool, 2)
    for _, p := range []string{w.cfg.ElectionCSV, w.cfg.PopulationCSV} {
        abs, err := filepath.Abs(p)
        if err != nil {
            return nil, "", err
        }
        sources[filepath.Clean(abs)] = true
    }
    configPath := ""
    if w.cfg.ConfigPath != "" {
        abs, err := filepath.Abs(w.cfg.ConfigPath)
        if err != nil {
            return nil, "", err
        }
        if _, err := os.Stat(abs); err == nil {
            configPath = filepath.Clean(abs)
        }
    }
    return sources, configPath, nil
}

func watchDirs(sources map[string]bool, configPath string) []string {
    seen := make(map[string]bool)
    for path := range sources {
        seen[filepath.Dir(path)] = true
    }
    if configPath != "" {
        seen[filepath.Dir(configPath)] = true
    }
    dirs := make([]string, 0, len(seen))
    for dir := range seen {
        dirs = append(dirs, dir)
    }
    sort.Strings(dirs)
    return dirs
}
