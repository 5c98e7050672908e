// Package relay forwards accepted payloads to live subscribers.
//
// Delivery is fire-and-forget: nothing is stored and nothing is retried.
package relay

import "context"

// Publisher hands a payload to downstream subscribers.
type Publisher interface {
	// Publish sends the compact JSON payload. The request ID in ctx, if any,
	// travels with the message.
	Publish(ctx context.Context, data []byte) error

	// Healthy reports whether the publisher can currently deliver.
	Healthy() bool

	// Close releases any resources held by the publisher.
	Close() error
}

// NoOp drops every payload. It is used when the relay is disabled or the
// broker was unreachable at startup.
type NoOp struct{}

func (NoOp) Publish(context.Context, []byte) error { return nil }

func (NoOp) Healthy() bool { return true }

func (NoOp) Close() error { return nil }

// Unavailable stands in for a relay that is configured but could not be
// reached at startup. Payloads are dropped and Healthy reports false so
// readiness shows the relay as down.
type Unavailable struct{}

func (Unavailable) Publish(context.Context, []byte) error { return nil }

func (Unavailable) Healthy() bool { return false }

func (Unavailable) Close() error { return nil }
