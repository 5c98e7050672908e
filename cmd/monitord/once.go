package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/telhawk-receiver/internal/agent"
	"gopkg.in/yaml.v3"
)

var (
	onceSend   bool
	onceOutput string
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Collect a single sample and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closer, err := loadAgent()
		if err != nil {
			return err
		}
		defer closer.Close()

		sample, err := newCollector(cfg).Collect()
		if err != nil {
			return err
		}

		if err := printSample(cmd.OutOrStdout(), sample, onceOutput); err != nil {
			return err
		}

		if onceSend {
			sender := agent.NewSender(cfg.Agent.URL, cfg.Agent.Timeout)
			if err := sender.Send(commandContext(cmd), sample); err != nil {
				return err
			}
			logger.Info("Sample sent", "url", cfg.Agent.URL)
		}
		return nil
	},
}

func init() {
	onceCmd.Flags().BoolVar(&onceSend, "send", false, "also post the sample to the receiver")
	onceCmd.Flags().StringVarP(&onceOutput, "output", "o", "json", "output format: json, yaml")
}

func printSample(w io.Writer, sample agent.Sample, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sample)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(sample); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (supported: json, yaml)", format)
	}
}
