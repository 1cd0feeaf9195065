// Package telemetry carries the product-analytics plumbing for the
// integration layer: a small capture client, the event vocabulary, and a
// recorder that tags degradation events with the user's identity.
package telemetry

import "context"

// Client captures product analytics events.
type Client interface {
	Capture(ctx context.Context, distinctID string, event string, properties map[string]any) error
	Close() error
}

type noopClient struct{}

// NewNoopClient returns a client that drops all events. Used when telemetry
// is disabled or no write key is configured.
func NewNoopClient() Client {
	return noopClient{}
}

func (noopClient) Capture(ctx context.Context, distinctID string, event string, properties map[string]any) error {
	return nil
}

func (noopClient) Close() error {
	return nil
}
