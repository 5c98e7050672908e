package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/telhawk-systems/telhawk-receiver/internal/middleware"
)

// Config holds NATS relay configuration.
type Config struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Subject receives every accepted payload.
	Subject string

	// Name is the client name for connection identification.
	Name string

	// MaxReconnects is the maximum number of reconnection attempts.
	// Use -1 for infinite reconnects.
	MaxReconnects int

	// ReconnectWait is the time to wait between reconnection attempts.
	ReconnectWait time.Duration

	// Timeout is the connection timeout.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Subject:       "receiver.data",
		Name:          "telhawk-receiver",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// NATS publishes payloads on a core NATS subject.
type NATS struct {
	conn    *nats.Conn
	subject string
}

// NewNATS connects to the configured server.
func NewNATS(cfg Config, logger *slog.Logger) (*NATS, error) {
	if cfg.Subject == "" {
		return nil, fmt.Errorf("relay subject is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATS{conn: conn, subject: cfg.Subject}, nil
}

// Publish sends data to the relay subject with request ID and content type headers.
func (n *NATS) Publish(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := nats.NewMsg(n.subject)
	msg.Data = data
	msg.Header.Set("Content-Type", "application/json")
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		msg.Header.Set("Request-Id", reqID)
	}

	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to %s: %w", n.subject, err)
	}
	return nil
}

// Subject returns the subject payloads are published on.
func (n *NATS) Subject() string {
	return n.subject
}

// Healthy returns true if connected to NATS.
func (n *NATS) Healthy() bool {
	return n.conn.IsConnected()
}

// Close drains pending publishes and closes the connection.
func (n *NATS) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}
