package main

import (
    "context"
    "fmt"
    "os/signal"
    "strings"
    "syscall"

    "github.com/spf13/cobra"

    "redblue_covid/analysis"
    "redblue_covid/dataset"
)

var checkCmd = &cobra.Command{
    Use:   "check",
    Short: "Validate the configured sources without running the analysis",
    Long: `check loads all three sources, reports row and skip counts, and
lists the state keys that would fail to join. It writes no chart and no
history.`,
    RunE: func(cmd *cobra.Command, args []string) error {
        cfg, err := loadConfig()
        if err != nil {
            return err
        }
        ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
        defer stop()

        tables, err := dataset.LoadAll(ctx, dataset.Sources{
            ElectionPath:   cfg.ElectionCSV,
            PopulationPath: cfg.PopulationCSV,
            CovidURL:       cfg.CovidURL,
            FetchTimeout:   cfg.FetchTimeout,
        })
        if err != nil {
            return err
        }
        fmt.Printf("election:   %d rows (%d skipped) from %s\n", len(tables.Election), tables.Skipped["election"], cfg.ElectionCSV)
        fmt.Printf("covid:      %d rows (%d skipped) from %s\n", len(tables.Covid), tables.Skipped["covid"], cfg.CovidURL)
        fmt.Printf("population: %d rows (%d skipped) from %s\n", len(tables.Population), tables.Skipped["population"], cfg.PopulationCSV)

        excl := analysis.NewExclusions()
        votes := analysis.ReduceElection(tables.Election, analysis.ElectionFilter{
            Year:             cfg.ElectionYear,
            TrumpCandidate:   cfg.TrumpCandidate,
            ClintonCandidate: cfg.ClintonCandidate,
        }, excl)
        snap, err := analysis.LatestSnapshot(tables.Covid, excl)
        if err != nil {
            return err
        }
        fmt.Printf("snapshot:   %s (%d states)\n", snap.Date.Format("2006-01-02"), len(snap.States))

        states, electionJoin, err := analysis.Classify(votes, snap, excl)
        if err != nil {
            return err
        }
        _, populationJoin, err := analysis.JoinPopulation(states, tables.Population, excl)
        if err != nil {
            return err
        }
        printJoin("election/covid", electionJoin)
        printJoin("population", populationJoin)

        if counts := excl.Counts(); len(counts) > 0 {
            fmt.Println("exclusions:")
            for _, reason := range excl.Reasons() {
                fmt.Printf("  %-32s %d\n", reason, counts[reason])
            }
        }
        fmt.Printf("fingerprint: %s\n", tables.Fingerprint)
        return nil
    },
}

func printJoin(name string, rep analysis.JoinReport) {
    fmt.Printf("%s join: %d matched\n", name, rep.Matched)
    if len(rep.UnmatchedLeft) > 0 {
        fmt.Printf("  unmatched left:  %s\n", strings.Join(rep.UnmatchedLeft, ", "))
    }
    if len(rep.UnmatchedRight) > 0 {
        fmt.Printf("  unmatched right: %s\n", strings.Join(rep.UnmatchedRight, ", "))
    }
}

func init() { rootCmd.AddCommand(checkCmd) }
