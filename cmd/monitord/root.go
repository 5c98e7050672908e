package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/telhawk-receiver/internal/agent"
	"github.com/telhawk-systems/telhawk-receiver/internal/config"
	"github.com/telhawk-systems/telhawk-receiver/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "monitord",
	Short: "Host monitor agent",
	Long: `monitord samples host load, temperature, memory and disk usage
and posts each sample as JSON to a receiver's /data endpoint.`,
	Version:      "0.1.0",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or /etc/telhawk/monitord/config.yaml)")
	rootCmd.AddCommand(runCmd, onceCmd)
}

// loadAgent reads the agent configuration and builds its logger. The
// returned closer releases the log file, if one was opened.
func loadAgent() (*config.AgentConfig, *logging.Logger, io.Closer, error) {
	cfg, err := config.LoadAgent(cfgFile)
	if err != nil {
		return nil, nil, nil, err
	}

	var out io.WriteCloser = nopCloser{os.Stdout}
	if cfg.Agent.LogFile != "" {
		f, err := os.OpenFile(cfg.Agent.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	}

	logger := logging.NewWithWriter(out,
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("monitord"))

	return cfg, logger, out, nil
}

func newCollector(cfg *config.AgentConfig) *agent.Collector {
	return agent.NewCollector(cfg.Agent.ProcRoot, cfg.Agent.SysRoot, cfg.Agent.DiskPath)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
