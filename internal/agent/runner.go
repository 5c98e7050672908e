package agent

import (
	"context"
	"time"

	"github.com/telhawk-systems/telhawk-receiver/internal/logging"
)

// SampleCollector produces host samples.
type SampleCollector interface {
	Collect() (Sample, error)
}

// SampleSender delivers host samples.
type SampleSender interface {
	Send(ctx context.Context, sample Sample) error
}

// Runner collects and sends a sample on every tick.
type Runner struct {
	collector SampleCollector
	sender    SampleSender
	interval  time.Duration
	metrics   *Metrics
	logger    *logging.Logger
}

// NewRunner creates a Runner. interval must be positive. A nil m records
// into a private registry nobody serves.
func NewRunner(collector SampleCollector, sender SampleSender, interval time.Duration, m *Metrics, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	if m == nil {
		m = NewMetrics()
	}
	return &Runner{
		collector: collector,
		sender:    sender,
		interval:  interval,
		metrics:   m,
		logger:    logger,
	}
}

// Run sends a sample immediately and then once per interval until ctx is
// done. Failures are logged and the loop carries on.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "Monitor started", "interval", r.interval.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		_ = r.Tick(ctx)

		select {
		case <-ctx.Done():
			r.logger.InfoContext(context.Background(), "Monitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick collects and sends a single sample.
func (r *Runner) Tick(ctx context.Context) error {
	sample, err := r.collector.Collect()
	if err != nil {
		r.metrics.SamplesSent.WithLabelValues(OutcomeError).Inc()
		r.logger.ErrorContext(ctx, "Failed to collect sample", logging.Error(err))
		return err
	}

	if err := r.sender.Send(ctx, sample); err != nil {
		r.metrics.SamplesSent.WithLabelValues(OutcomeError).Inc()
		r.logger.WarnContext(ctx, "Failed to send sample",
			logging.Host(sample.Hostname),
			logging.Error(err),
		)
		return err
	}

	r.metrics.SamplesSent.WithLabelValues(OutcomeOK).Inc()
	r.logger.DebugContext(ctx, "Sample sent", logging.Host(sample.Hostname))
	return nil
}
