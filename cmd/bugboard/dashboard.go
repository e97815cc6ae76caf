package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"
	"github.com/zulandar/bugboard/internal/dashboard"
	"github.com/zulandar/bugboard/internal/digest"
)

func newDashboardCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Start the web dashboard",
		Long:  "Launches the web dashboard and JSON API, and runs the overdue digest on its schedule.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from config)")
	return cmd
}

func runDashboard(cmd *cobra.Command, port int) error {
	cfg, store, err := connectFromConfig(cmd)
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Dashboard.Port
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.Digest.Enabled() {
		runner, err := digest.NewRunner(store, cfg.Digest.Schedule, log.StandardLogger())
		if err != nil {
			return err
		}
		go func() {
			if err := runner.Run(ctx); err != nil {
				log.WithError(err).Error("overdue digest stopped")
			}
		}()
	}

	return dashboard.Start(ctx, dashboard.StartOpts{
		Store:      store,
		Port:       port,
		Out:        cmd.OutOrStdout(),
		Categories: cfg.Categories,
		Team:       cfg.Team,
		Logger:     log.StandardLogger(),
	})
}
