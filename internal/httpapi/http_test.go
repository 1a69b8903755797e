package httpapi

import (
    "context"
    "encoding/json"
    "image"
    "image/color"
    "image/png"
    "net/http"
    "net/http/httptest"
    "os"
    "path/filepath"
    "testing"
    "time"

    "redblue_covid/config"
    "redblue_covid/dataset"
    "redblue_covid/internal/events"
    "redblue_covid/internal/jobs"
    "redblue_covid/internal/store"
    "redblue_covid/metrics"
)

func newMux(t *testing.T, cfg config.Config, st *store.Store, runner *jobs.Runner) *http.ServeMux {
    t.Helper()
    router := NewRouter(cfg, st, runner, metrics.New(), "test")
    mux := http.NewServeMux()
    router.Register(mux)
    return mux
}

func writeChartPNG(t *testing.T, path string, w, h int) {
    t.Helper()
    img := image.NewRGBA(image.Rect(0, 0, w, h))
    for x := 0; x < w; x++ {
        img.Set(x, h/2, color.RGBA{R: 0xcc, A: 0xff})
    }
    f, err := os.Create(path)
    if err != nil {
        t.Fatalf("create chart: %v", err)
    }
    defer f.Close()
    if err := png.Encode(f, img); err != nil {
        t.Fatalf("encode chart: %v", err)
    }
}

func TestChartAndThumbEndpoints(t *testing.T) {
    dir := t.TempDir()
    cfg := config.Config{Chart: config.ChartConfig{Path: filepath.Join(dir, "chart.png")}}
    writeChartPNG(t, cfg.Chart.Path, 200, 100)
    runner := jobs.NewRunner(cfg, nil, events.NewBus(), metrics.New())
    mux := newMux(t, cfg, nil, runner)

    rec := httptest.NewRecorder()
    mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart.png", nil))
    if rec.Code != http.StatusOK {
        t.Fatalf("expected 200 for chart, got %d", rec.Code)
    }
    if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
        t.Fatalf("expected image/png, got %q", ct)
    }

    rec = httptest.NewRecorder()
    mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart-thumb.png?w=100", nil))
    if rec.Code != http.StatusOK {
        t.Fatalf("expected 200 for thumb, got %d", rec.Code)
    }
    thumb, err := png.Decode(rec.Body)
    if err != nil {
        t.Fatalf("decode thumb: %v", err)
    }
    if b := thumb.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
        t.Fatalf("expected 100x50 thumb, got %dx%d", b.Dx(), b.Dy())
    }

    rec = httptest.NewRecorder()
    mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart-thumb.png?w=4", nil))
    thumb, err = png.Decode(rec.Body)
    if err != nil {
        t.Fatalf("decode clamped thumb: %v", err)
    }
    if thumb.Bounds().Dx() != minThumbWidth {
        t.Fatalf("expected clamped width %d, got %d", minThumbWidth, thumb.Bounds().Dx())
    }

    rec = httptest.NewRecorder()
    mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart-thumb.png?w=potato", nil))
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("expected 400 for bad width, got %d", rec.Code)
    }
}

func TestChartMissingReturns404(t *testing.T) {
    cfg := config.Config{Chart: config.ChartConfig{Path: filepath.Join(t.TempDir(), "absent.png")}}
    runner := jobs.NewRunner(cfg, nil, events.NewBus(), metrics.New())
    mux := newMux(t, cfg, nil, runner)

    for _, path := range []string{"/chart.png", "/chart-thumb.png"} {
        rec := httptest.NewRecorder()
        mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
        if rec.Code != http.StatusNotFound {
            t.Fatalf("expected 404 for %s, got %d", path, rec.Code)
        }
    }
}

func TestSummaryServesRehydratedRun(t *testing.T) {
    dir := t.TempDir()
    electionPath := filepath.Join(dir, "election.csv")
    populationPath := filepath.Join(dir, "population.csv")
    chartPath := filepath.Join(dir, "chart.png")
    for path, body := range map[string]string{
        electionPath:   "e",
        populationPath: "p",
        chartPath:      "png",
    } {
        if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
            t.Fatalf("write %s: %v", path, err)
        }
    }
    st, err := store.Open(filepath.Join(dir, "history.db"))
    if err != nil {
        t.Fatalf("open store: %v", err)
    }
    defer st.Close()

    cfg := config.Config{ElectionCSV: electionPath, PopulationCSV: populationPath, CovidURL: "http://feed"}
    runner := jobs.NewRunner(cfg, st, events.NewBus(), metrics.New())
    mux := newMux(t, cfg, st, runner)

    rec := httptest.NewRecorder()
    mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
    if rec.Code != http.StatusNotFound {
        t.Fatalf("expected 404 before first run, got %d", rec.Code)
    }

    ctx := context.Background()
    now := time.Now().UTC()
    err = st.RecordRun(ctx, &store.Run{
        ID:          "prev",
        StartedAt:   now,
        FinishedAt:  now,
        Status:      store.StatusSucceeded,
        Fingerprint: dataset.SourceFingerprint([]byte("e"), []byte("p"), "http://feed"),
        ChartPath:   chartPath,
        SummaryJSON: `{"run_id":"prev","snapshot_date":"2020-05-01"}`,
    })
    if err != nil {
        t.Fatalf("record run: %v", err)
    }
    runner.CatchUp(ctx)

    rec = httptest.NewRecorder()
    mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
    if rec.Code != http.StatusOK {
        t.Fatalf("expected 200 after catch-up, got %d", rec.Code)
    }
    var got struct {
        RunID        string `json:"run_id"`
        SnapshotDate string `json:"snapshot_date"`
    }
    if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
        t.Fatalf("decode summary: %v", err)
    }
    if got.RunID != "prev" || got.SnapshotDate != "2020-05-01" {
        t.Fatalf("unexpected summary %+v", got)
    }
}

func TestRunsEndpoint(t *testing.T) {
    st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
    if err != nil {
        t.Fatalf("open store: %v", err)
    }
    defer st.Close()
    ctx := context.Background()
    base := time.Now().UTC()
    for i, id := range []string{"a", "b"} {
        err := st.RecordRun(ctx, &store.Run{
            ID:         id,
            StartedAt:  base.Add(time.Duration(i) * time.Minute),
            FinishedAt: base.Add(time.Duration(i) * time.Minute),
            Status:     store.StatusSucceeded,
        })
        if err != nil {
            t.Fatalf("record run %s: %v", id, err)
        }
    }
    cfg := config.Config{}
    runner := jobs.NewRunner(cfg, st, events.NewBus(), metrics.New())
    mux := newMux(t, cfg, st, runner)

    rec := httptest.NewRecorder()
    mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs?limit=1", nil))
    if rec.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rec.Code)
    }
    var runs []store.Run
    if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
        t.Fatalf("decode runs: %v", err)
    }
    if len(runs) != 1 || runs[0].ID != "b" {
        t.Fatalf("expected newest run b, got %+v", runs)
    }

    rec = httptest.NewRecorder()
    mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs?limit=zero", nil))
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
    }

    noHistory := newMux(t, cfg, nil, runner)
    rec = httptest.NewRecorder()
    noHistory.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
    if rec.Code != http.StatusNotFound {
        t.Fatalf("expected 404 without history, got %d", rec.Code)
    }
}

func TestStatusAndHealth(t *testing.T) {
    cfg := config.Config{}
    runner := jobs.NewRunner(cfg, nil, events.NewBus(), metrics.New())
    mux := newMux(t, cfg, nil, runner)

    rec := httptest.NewRecorder()
    mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/health", nil))
    if rec.Code != http.StatusServiceUnavailable {
        t.Fatalf("expected 503 before queue start, got %d", rec.Code)
    }

    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    runner.Start(ctx)

    rec = httptest.NewRecorder()
    mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/health", nil))
    if rec.Code != http.StatusNoContent {
        t.Fatalf("expected 204 after queue start, got %d", rec.Code)
    }

    rec = httptest.NewRecorder()
    mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/status", nil))
    if rec.Code != http.StatusOK {
        t.Fatalf("expected 200 status, got %d", rec.Code)
    }
    var body struct {
        Version string `json:"version"`
        Queue   struct {
            Capacity int `json:"capacity"`
            Workers  int `json:"workers"`
        } `json:"queue"`
    }
    if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
        t.Fatalf("decode status: %v", err)
    }
    if body.Version != "test" || body.Queue.Capacity != 1 || body.Queue.Workers != 1 {
        t.Fatalf("unexpected status body %+v", body)
    }
}

func TestRerunEndpoint(t *testing.T) {
    cfg := config.Config{}
    runner := jobs.NewRunner(cfg, nil, events.NewBus(), metrics.New())
    mux := newMux(t, cfg, nil, runner)

    rec := httptest.NewRecorder()
    mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/rerun", nil))
    if rec.Code != http.StatusMethodNotAllowed {
        t.Fatalf("expected 405 for GET, got %d", rec.Code)
    }

    // Before the queue starts every trigger is refused, which the handler
    // reports as coalesced.
    rec = httptest.NewRecorder()
    mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ops/rerun", nil))
    if rec.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rec.Code)
    }
    var body map[string]string
    if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
        t.Fatalf("decode rerun response: %v", err)
    }
    if body["status"] != "coalesced" {
        t.Fatalf("expected coalesced before start, got %q", body["status"])
    }
}
