package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/telhawk-receiver/internal/agent"
	"github.com/telhawk-systems/telhawk-receiver/internal/logging"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sample and post host statistics until stopped",
	Long: `Run collects a sample immediately and then once per configured interval,
posting each to the receiver. It stays in the foreground; run it under a
service manager to daemonize.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closer, err := loadAgent()
		if err != nil {
			return err
		}
		defer closer.Close()
		logging.SetDefault(logger)

		logger.Info("Daemon started",
			"url", cfg.Agent.URL,
			"interval", cfg.Agent.Interval.String(),
		)

		ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		m := agent.NewMetrics()
		if cfg.Agent.MetricsAddr != "" {
			srv := agent.NewMetricsServer(cfg.Agent.MetricsAddr, m)
			go func() {
				logger.Info("Metrics listener started", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Metrics server error", logging.Error(err))
				}
			}()
			defer srv.Close()
		}

		runner := agent.NewRunner(
			newCollector(cfg),
			agent.NewSender(cfg.Agent.URL, cfg.Agent.Timeout),
			cfg.Agent.Interval,
			m,
			logger,
		)
		return runner.Run(ctx)
	},
}

// commandContext returns the command's context, which is unset when a
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
