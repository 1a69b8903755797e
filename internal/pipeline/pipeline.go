package pipeline

import (
    "context"
    "fmt"
    "time"

    "github.com/apex/log"
    "github.com/google/uuid"

    "redblue_covid/analysis"
    "redblue_covid/chart"
    "redblue_covid/config"
    "redblue_covid/dataset"
    "redblue_covid/inference"
)

// Result is everything one run produced. It is always returned, even when
// the run failed partway, so callers can record whatever was computed
// before the failure. The inference fields hold either a result or the
// error that prevented one; a degenerate statistic never fails the run.
type Result struct {
    RunID        string                         `json:"run_id"`
    StartedAt    time.Time                      `json:"started_at"`
    FinishedAt   time.Time                      `json:"finished_at"`
    SnapshotDate string                         `json:"snapshot_date,omitempty"`
    States       []analysis.ClassifiedState     `json:"states,omitempty"`
    Daily        []analysis.DailySummary        `json:"daily,omitempty"`
    SeriesPoints int                            `json:"series_points"`
    Skipped      map[string]int                 `json:"skipped_rows,omitempty"`
    Exclusions   map[string]int                 `json:"exclusions,omitempty"`
    Joins        map[string]analysis.JoinReport `json:"joins,omitempty"`
    TTest        *inference.TTestResult         `json:"t_test,omitempty"`
    TTestError   string                         `json:"t_test_error,omitempty"`
    ShareModel   *inference.Regression          `json:"cases_on_share,omitempty"`
    ShareError   string                         `json:"cases_on_share_error,omitempty"`
    FullModel    *inference.Regression          `json:"cases_on_share_population,omitempty"`
    FullError    string                         `json:"cases_on_share_population_error,omitempty"`
    ChartPath    string                         `json:"chart_path,omitempty"`
    Fingerprint  string                         `json:"source_fingerprint,omitempty"`
}

// Execute runs the whole pipeline once: load the three sources, classify
// states by 2016 lean, build the daily infection-rate series, run the
// comparisons, render the chart. The returned Result is non-nil either way.
func Execute(ctx context.Context, cfg config.Config) (*Result, error) {
    res := &Result{
        RunID:     uuid.NewString(),
        StartedAt: time.Now().UTC(),
    }
    excl := analysis.NewExclusions()
    defer func() {
        res.FinishedAt = time.Now().UTC()
        res.Exclusions = excl.Counts()
    }()

    tables, err := dataset.LoadAll(ctx, dataset.Sources{
        ElectionPath:   cfg.ElectionCSV,
        PopulationPath: cfg.PopulationCSV,
        CovidURL:       cfg.CovidURL,
        FetchTimeout:   cfg.FetchTimeout,
    })
    if err != nil {
        return res, err
    }
    res.Fingerprint = tables.Fingerprint
    res.Skipped = tables.Skipped

    votes := analysis.ReduceElection(tables.Election, analysis.ElectionFilter{
        Year:             cfg.ElectionYear,
        TrumpCandidate:   cfg.TrumpCandidate,
        ClintonCandidate: cfg.ClintonCandidate,
    }, excl)
    var trumpTotal, clintonTotal int64
    for _, vt := range votes {
        trumpTotal += vt.TrumpVotes
        clintonTotal += vt.ClintonVotes
    }
    log.Infof("reduced %d election rows to %d states (%s: %d votes, %s: %d votes)",
        len(tables.Election), len(votes), cfg.TrumpCandidate, trumpTotal, cfg.ClintonCandidate, clintonTotal)

    snap, err := analysis.LatestSnapshot(tables.Covid, excl)
    if err != nil {
        return res, err
    }
    res.SnapshotDate = snap.Date.Format("2006-01-02")
    log.Infof("covid snapshot %s covers %d states", res.SnapshotDate, len(snap.States))

    states, electionJoin, err := analysis.Classify(votes, snap, excl)
    if err != nil {
        return res, err
    }
    states, populationJoin, err := analysis.JoinPopulation(states, tables.Population, excl)
    if err != nil {
        return res, err
    }
    res.States = states
    res.Joins = map[string]analysis.JoinReport{
        "election_covid": electionJoin,
        "population":     populationJoin,
    }
    log.Infof("classified %d states: %d trump, %d clinton, %d tied",
        len(states), countCategory(states, analysis.CategoryTrump),
        countCategory(states, analysis.CategoryClinton), countCategory(states, analysis.CategoryTied))

    series := analysis.BuildDailySeries(tables.Covid, states, excl)
    res.SeriesPoints = len(series)
    daily := analysis.SummarizeByDay(series, excl)
    res.Daily = daily
    log.Infof("daily series: %d points, %d date/category summaries", len(series), len(daily))

    runInference(res, states)

    opts := chart.Options{
        Path:         cfg.Chart.Path,
        WidthInches:  cfg.Chart.WidthInches,
        HeightInches: cfg.Chart.HeightInches,
        SmoothWindow: cfg.Chart.SmoothWindow,
    }
    if err := chart.Render(daily, opts); err != nil {
        return res, fmt.Errorf("render chart: %w", err)
    }
    res.ChartPath = cfg.Chart.Path
    log.Infof("chart written to %s", cfg.Chart.Path)

    if total := excl.Total(); total > 0 {
        log.Infof("excluded %d rows across %d reasons", total, len(excl.Reasons()))
    }
    return res, nil
}

// runInference fills the statistical fields. Every failure here is recorded
// on the result instead of aborting: a tied-only map or a two-state fixture
// still deserves its chart.
func runInference(res *Result, states []analysis.ClassifiedState) {
    ttest, err := inference.WelchTTest(
        groupCases(states, analysis.CategoryTrump),
        groupCases(states, analysis.CategoryClinton),
    )
    if err != nil {
        res.TTestError = err.Error()
        log.Warnf("t-test skipped: %v", err)
    } else {
        res.TTest = ttest
        log.Infof("welch t-test: t=%.4f df=%.2f p=%.4g (trump n=%d, clinton n=%d)",
            ttest.T, ttest.DF, ttest.P, ttest.NA, ttest.NB)
    }

    // Tied states stay in the regressions; share carries the information.
    cases := make([]float64, len(states))
    shares := make([]float64, len(states))
    pops := make([]float64, len(states))
    for i, st := range states {
        cases[i] = float64(st.Cases)
        shares[i] = st.TrumpShare
        pops[i] = float64(st.Population)
    }

    share, err := inference.Regress(cases, inference.Predictor{Name: "trump_share", Values: shares})
    if err != nil {
        res.ShareError = err.Error()
        log.Warnf("cases~share regression skipped: %v", err)
    } else {
        res.ShareModel = share
        logModel("cases~share", share)
    }

    full, err := inference.Regress(cases,
        inference.Predictor{Name: "trump_share", Values: shares},
        inference.Predictor{Name: "population", Values: pops},
    )
    if err != nil {
        res.FullError = err.Error()
        log.Warnf("cases~share+population regression skipped: %v", err)
    } else {
        res.FullModel = full
        logModel("cases~share+population", full)
    }
}

func logModel(name string, r *inference.Regression) {
    for _, c := range r.Coefficients {
        if c.Name == "trump_share" {
            log.Infof("%s: share coefficient %.2f (p=%.4g, r2=%.3f, n=%d)", name, c.Value, c.P, r.R2, r.N)
            return
        }
    }
}

func countCategory(states []analysis.ClassifiedState, cat analysis.Category) int {
    n := 0
    for _, st := range states {
        if st.Category == cat {
            n++
        }
    }
    return n
}

func groupCases(states []analysis.ClassifiedState, cat analysis.Category) []float64 {
    var vals []float64
    for _, st := range states {
        if st.Category == cat {
            vals = append(vals, float64(st.Cases))
        }
    }
    return vals
}
