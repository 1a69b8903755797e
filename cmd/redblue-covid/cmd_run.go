package main

import (
    "context"
    "encoding/json"
    "os"
    "os/signal"
    "syscall"

    "github.com/spf13/cobra"

    "redblue_covid/internal/app"
)

var runCmd = &cobra.Command{
    Use:   "run",
    Short: "Run the analysis once, write the chart, print the summary",
    RunE: func(cmd *cobra.Command, args []string) error {
        cfg, err := loadConfig()
        if err != nil {
            return err
        }
        a, err := app.New(cfg, version)
        if err != nil {
            return err
        }
        defer a.Close()

        ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
        defer stop()
        if cfg.RunTimeout > 0 {
            var cancel context.CancelFunc
            ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
            defer cancel()
        }

        res, err := a.RunOnce(ctx)
        if err != nil {
            return err
        }
        enc := json.NewEncoder(os.Stdout)
        enc.SetIndent("", "  ")
        return enc.Encode(res)
    },
}

func init() { rootCmd.AddCommand(runCmd) }
