package main

import (
    "context"
    "os/signal"
    "syscall"

    "github.com/spf13/cobra"

    "redblue_covid/internal/app"
)

var serveCmd = &cobra.Command{
    Use:   "serve",
    Short: "Watch mode plus an HTTP API for the chart and run history",
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
        return a.Serve(ctx)
    },
}

func init() { rootCmd.AddCommand(serveCmd) }
