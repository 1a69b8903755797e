package jobs

import (
    "context"
    "os"
    "path/filepath"
    "sync/atomic"
    "testing"
    "time"

    "redblue_covid/analysis"
    "redblue_covid/config"
    "redblue_covid/dataset"
    "redblue_covid/internal/events"
    "redblue_covid/internal/pipeline"
    "redblue_covid/internal/store"
    "redblue_covid/metrics"
)

func testStore(t *testing.T) *store.Store {
    t.Helper()
    st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
    if err != nil {
        t.Fatalf("open store: %v", err)
    }
    t.Cleanup(func() { st.Close() })
    return st
}

func awaitCompletion(t *testing.T, sub <-chan any) events.RunCompleted {
    t.Helper()
    deadline := time.After(5 * time.Second)
    for {
        select {
        case ev := <-sub:
            if rc, ok := ev.(events.RunCompleted); ok {
                return rc
            }
        case <-deadline:
            t.Fatalf("timed out waiting for run completion")
        }
    }
}

func TestRunnerRecordsCompletedRun(t *testing.T) {
    st := testStore(t)
    bus := events.NewBus()
    r := NewRunner(config.Config{}, st, bus, metrics.New())
    now := time.Now().UTC()
    r.work = func(ctx context.Context) (*pipeline.Result, error) {
        return &pipeline.Result{
            RunID:        "run-1",
            StartedAt:    now,
            FinishedAt:   now,
            SnapshotDate: "2020-05-01",
            States:       []analysis.ClassifiedState{{State: "Texas"}},
            SeriesPoints: 42,
            Exclusions:   map[string]int{analysis.ReasonTiedState: 1},
            Fingerprint:  "abc",
        }, nil
    }
    sub := bus.Subscribe()
    ctx := context.Background()
    r.Start(ctx)
    defer r.Stop(ctx)

    if !r.Trigger("test") {
        t.Fatalf("expected trigger to enqueue")
    }
    ev := awaitCompletion(t, sub)
    if ev.RunID != "run-1" || ev.Err != "" {
        t.Fatalf("unexpected completion event %+v", ev)
    }

    last, lastErr := r.Last()
    if lastErr != nil || last == nil || last.RunID != "run-1" {
        t.Fatalf("expected last result run-1, got %+v / %v", last, lastErr)
    }
    runs, err := st.ListRuns(ctx, 10)
    if err != nil || len(runs) != 1 {
        t.Fatalf("expected 1 recorded run, got %d (%v)", len(runs), err)
    }
    if runs[0].Status != store.StatusSucceeded || runs[0].States != 1 || runs[0].SeriesPoints != 42 {
        t.Fatalf("unexpected recorded run %+v", runs[0])
    }
    excl, err := st.Exclusions(ctx, "run-1")
    if err != nil || excl[analysis.ReasonTiedState] != 1 {
        t.Fatalf("expected exclusions persisted, got %v (%v)", excl, err)
    }
}

func TestTriggerCoalescesWhilePending(t *testing.T) {
    bus := events.NewBus()
    m := metrics.New()
    r := NewRunner(config.Config{}, nil, bus, m)
    started := make(chan struct{})
    release := make(chan struct{})
    r.work = func(ctx context.Context) (*pipeline.Result, error) {
        started <- struct{}{}
        <-release
        return &pipeline.Result{RunID: "r"}, nil
    }
    sub := bus.Subscribe()
    ctx := context.Background()
    r.Start(ctx)
    defer r.Stop(ctx)

    if !r.Trigger("watch") {
        t.Fatalf("expected first trigger to enqueue")
    }
    <-started // worker busy, queue empty again
    if !r.Trigger("watch") {
        t.Fatalf("expected second trigger to occupy the slot")
    }
    for i := 0; i < 3; i++ {
        if r.Trigger("watch") {
            t.Fatalf("expected trigger %d to coalesce", i+3)
        }
    }
    close(release)
    <-started // pending run begins

    awaitCompletion(t, sub)
    awaitCompletion(t, sub)
    if got := m.Snapshot().TriggersCoalesced; got != 3 {
        t.Fatalf("expected 3 coalesced triggers, got %d", got)
    }
    if stats := r.Queue().Stats(); stats.Processed != 2 {
        t.Fatalf("expected exactly 2 runs, got %d", stats.Processed)
    }
}

func TestNeedRun(t *testing.T) {
    prev := &store.Run{Fingerprint: "fp", FinishedAt: time.Now().UTC()}
    cases := []struct {
        name        string
        last        *store.Run
        fingerprint string
        chartExists bool
        want        bool
    }{
        {"no history", nil, "fp", true, true},
        {"sources changed", prev, "other", true, true},
        {"chart missing", prev, "fp", false, true},
        {"up to date", prev, "fp", true, false},
    }
    for _, tc := range cases {
        got, reason := NeedRun(tc.last, tc.fingerprint, tc.chartExists)
        if got != tc.want {
            t.Fatalf("%s: expected %v, got %v (%s)", tc.name, tc.want, got, reason)
        }
        if reason == "" {
            t.Fatalf("%s: expected a reason", tc.name)
        }
    }
}

func TestCatchUpSkipsWhenSourcesUnchanged(t *testing.T) {
    dir := t.TempDir()
    electionPath := filepath.Join(dir, "election.csv")
    populationPath := filepath.Join(dir, "population.csv")
    chartPath := filepath.Join(dir, "chart.png")
    for path, body := range map[string]string{
        electionPath:   "election bytes",
        populationPath: "population bytes",
        chartPath:      "png bytes",
    } {
        if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
            t.Fatalf("write %s: %v", path, err)
        }
    }

    fp := dataset.SourceFingerprint([]byte("election bytes"), []byte("population bytes"), "http://feed")
    st := testStore(t)
    ctx := context.Background()
    now := time.Now().UTC()
    err := st.RecordRun(ctx, &store.Run{
        ID:          "prev",
        StartedAt:   now,
        FinishedAt:  now,
        Status:      store.StatusSucceeded,
        Fingerprint: fp,
        ChartPath:   chartPath,
        SummaryJSON: `{"run_id":"prev"}`,
    })
    if err != nil {
        t.Fatalf("record run: %v", err)
    }

    cfg := config.Config{ElectionCSV: electionPath, PopulationCSV: populationPath, CovidURL: "http://feed"}
    r := NewRunner(cfg, st, events.NewBus(), metrics.New())
    var runs int32
    r.work = func(ctx context.Context) (*pipeline.Result, error) {
        atomic.AddInt32(&runs, 1)
        return &pipeline.Result{RunID: "new"}, nil
    }
    r.Start(ctx)
    defer r.Stop(ctx)

    r.CatchUp(ctx)
    time.Sleep(100 * time.Millisecond)
    if got := atomic.LoadInt32(&runs); got != 0 {
        t.Fatalf("expected startup run to be skipped, got %d runs", got)
    }
    last, _ := r.Last()
    if last == nil || last.RunID != "prev" {
        t.Fatalf("expected rehydrated summary, got %+v", last)
    }
}

func TestCatchUpRunsWhenHistoryEmpty(t *testing.T) {
    dir := t.TempDir()
    electionPath := filepath.Join(dir, "election.csv")
    populationPath := filepath.Join(dir, "population.csv")
    os.WriteFile(electionPath, []byte("e"), 0o644)
    os.WriteFile(populationPath, []byte("p"), 0o644)

    cfg := config.Config{ElectionCSV: electionPath, PopulationCSV: populationPath, CovidURL: "http://feed"}
    r := NewRunner(cfg, testStore(t), events.NewBus(), metrics.New())
    done := make(chan struct{})
    r.work = func(ctx context.Context) (*pipeline.Result, error) {
        close(done)
        return &pipeline.Result{RunID: "r"}, nil
    }
    ctx := context.Background()
    r.Start(ctx)
    defer r.Stop(ctx)

    r.CatchUp(ctx)
    select {
    case <-done:
    case <-time.After(5 * time.Second):
        t.Fatalf("expected catch-up to trigger a run")
    }
}
