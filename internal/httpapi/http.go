package httpapi

import (
    "encoding/json"
    "image"
    "image/png"
    "net/http"
    "os"
    "strconv"

    "github.com/apex/log"
    "golang.org/x/image/draw"

    "redblue_covid/config"
    "redblue_covid/internal/jobs"
    "redblue_covid/internal/store"
    "redblue_covid/metrics"
)

const (
    defaultThumbWidth = 300
    minThumbWidth     = 16
    maxThumbWidth     = 2048
)

// Router serves the chart, the latest run summary, run history, and the
// ops endpoints.
type Router struct {
    cfg     config.Config
    store   *store.Store
    runner  *jobs.Runner
    metrics *metrics.Metrics
    version string
}

func NewRouter(cfg config.Config, st *store.Store, runner *jobs.Runner, m *metrics.Metrics, version string) *Router {
    return &Router{cfg: cfg, store: st, runner: runner, metrics: m, version: version}
}

func (r *Router) Register(mux *http.ServeMux) {
    mux.HandleFunc("/chart.png", r.chart)
    mux.HandleFunc("/chart-thumb.png", r.chartThumb)
    mux.HandleFunc("/api/summary", r.summary)
    mux.HandleFunc("/api/runs", r.runs)
    mux.HandleFunc("/ops/status", r.status)
    mux.HandleFunc("/ops/health", r.health)
    mux.HandleFunc("/ops/rerun", r.rerun)
}

func (r *Router) chart(w http.ResponseWriter, req *http.Request) {
    if r.cfg.Chart.Path == "" {
        http.NotFound(w, req)
        return
    }
    if _, err := os.Stat(r.cfg.Chart.Path); err != nil {
        http.NotFound(w, req)
        return
    }
    http.ServeFile(w, req, r.cfg.Chart.Path)
}

func (r *Router) chartThumb(w http.ResponseWriter, req *http.Request) {
    f, err := os.Open(r.cfg.Chart.Path)
    if err != nil {
        http.NotFound(w, req)
        return
    }
    defer f.Close()
    src, err := png.Decode(f)
    if err != nil {
        http.Error(w, "chart not decodable", http.StatusInternalServerError)
        return
    }

    width := defaultThumbWidth
    if q := req.URL.Query().Get("w"); q != "" {
        n, err := strconv.Atoi(q)
        if err != nil {
            http.Error(w, "bad width", http.StatusBadRequest)
            return
        }
        width = n
    }
    if width < minThumbWidth {
        width = minThumbWidth
    }
    if width > maxThumbWidth {
        width = maxThumbWidth
    }

    b := src.Bounds()
    height := int(float64(width) * float64(b.Dy()) / float64(b.Dx()))
    if height < 1 {
        height = 1
    }
    dst := image.NewRGBA(image.Rect(0, 0, width, height))
    draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
    w.Header().Set("Content-Type", "image/png")
    if err := png.Encode(w, dst); err != nil {
        log.Errorf("write thumbnail: %v", err)
    }
}

func (r *Router) summary(w http.ResponseWriter, req *http.Request) {
    last, _ := r.runner.Last()
    if last == nil {
        http.Error(w, "no completed run yet", http.StatusNotFound)
        return
    }
    respondJSON(w, last)
}

func (r *Router) runs(w http.ResponseWriter, req *http.Request) {
    if r.store == nil {
        http.Error(w, "history disabled", http.StatusNotFound)
        return
    }
    limit := 50
    if q := req.URL.Query().Get("limit"); q != "" {
        n, err := strconv.Atoi(q)
        if err != nil || n < 1 {
            http.Error(w, "bad limit", http.StatusBadRequest)
            return
        }
        limit = n
    }
    if limit > 500 {
        limit = 500
    }
    list, err := r.store.ListRuns(req.Context(), limit)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }
    respondJSON(w, list)
}

func (r *Router) status(w http.ResponseWriter, req *http.Request) {
    body := map[string]any{
        "version": r.version,
        "queue":   r.runner.Queue().Stats(),
        "metrics": r.metrics.Snapshot(),
    }
    last, lastErr := r.runner.Last()
    if last != nil {
        body["last_run"] = map[string]any{
            "run_id":        last.RunID,
            "finished_at":   last.FinishedAt,
            "snapshot_date": last.SnapshotDate,
            "states":        len(last.States),
            "chart_path":    last.ChartPath,
        }
    }
    if lastErr != nil {
        body["last_error"] = lastErr.Error()
    }
    if r.store != nil {
        body["history"] = r.store.Health(req.Context()) == nil
    }
    respondJSON(w, body)
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
    if !r.runner.Queue().Healthy() {
        http.Error(w, "queue not started", http.StatusServiceUnavailable)
        return
    }
    if r.store != nil {
        if err := r.store.Health(req.Context()); err != nil {
            http.Error(w, err.Error(), http.StatusServiceUnavailable)
            return
        }
    }
    w.WriteHeader(http.StatusNoContent)
}

func (r *Router) rerun(w http.ResponseWriter, req *http.Request) {
    if req.Method != http.MethodPost {
        http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
        return
    }
    if r.runner.Trigger("api") {
        respondJSON(w, map[string]string{"status": "queued"})
        return
    }
    respondJSON(w, map[string]string{"status": "coalesced"})
}

func respondJSON(w http.ResponseWriter, payload interface{}) {
    w.Header().Set("Content-Type", "application/json")
    if err := json.NewEncoder(w).Encode(payload); err != nil {
        log.Errorf("write json: %v", err)
    }
}
