package main

import (
    "context"
    "os/signal"
    "syscall"

    "github.com/spf13/cobra"

    "redblue_covid/internal/app"
)

var watchCmd = &cobra.Command{
    Use:   "watch",
    Short: "Watch the sources and re-run the analysis on changes",
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
        return a.Watch(ctx)
    },
}

func init() { rootCmd.AddCommand(watchCmd) }
