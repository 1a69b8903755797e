package main

import (
    "fmt"
    "os"

    "github.com/apex/log"
    "github.com/apex/log/handlers/cli"
    "github.com/spf13/cobra"

    "redblue_covid/config"
)

var (
    flagConfig  string
    flagVerbose bool
    flagOut     string
    flagWidth   float64
    flagHeight  float64
)

var rootCmd = &cobra.Command{
    Use:   "redblue-covid",
    Short: "COVID-19 case trends split by 2016 presidential lean",
    Long: `redblue-covid joins 2016 presidential results, Census population
estimates, and the NYT COVID-19 feed; classifies states red or blue by
two-party vote share; compares case burden between the two groups; and
charts daily infection rates per group over time.`,
    SilenceUsage:  true,
    SilenceErrors: true,
    PersistentPreRun: func(cmd *cobra.Command, args []string) {
        log.SetHandler(cli.Default)
        if flagVerbose {
            log.SetLevel(log.DebugLevel)
        }
    },
}

func init() {
    rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to config file")
    rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
    rootCmd.PersistentFlags().StringVar(&flagOut, "out", "", "chart output path (overrides config)")
    rootCmd.PersistentFlags().Float64Var(&flagWidth, "width", 0, "chart width in inches (overrides config)")
    rootCmd.PersistentFlags().Float64Var(&flagHeight, "height", 0, "chart height in inches (overrides config)")
}

// loadConfig layers the CLI flags over the resolved configuration.
func loadConfig() (config.Config, error) {
    cfg, err := config.Load(flagConfig)
    if err != nil {
        return config.Config{}, err
    }
    if flagOut != "" {
        cfg.Chart.Path = flagOut
    }
    if flagWidth > 0 {
        cfg.Chart.WidthInches = flagWidth
    }
    if flagHeight > 0 {
        cfg.Chart.HeightInches = flagHeight
    }
    log.Infof("sources: election=%s population=%s covid=%s", cfg.ElectionCSV, cfg.PopulationCSV, cfg.CovidURL)
    return cfg, nil
}

func main() {
    if err := rootCmd.Execute(); err != nil {
        fmt.Fprintln(os.Stderr, "error:", err)
        os.Exit(1)
    }
}
