package telemetry

import (
	"context"

	"builderbridge/internal/logging"
)

// IdentitySource supplies the identifiers attached to every captured event.
type IdentitySource interface {
	DistinctID() string
	MachineID() string
	SessionID() string
}

// Recorder tags capture calls with the current identity and swallows
// delivery failures. Components report degradations through it without
// knowing about PostHog or identity state.
type Recorder struct {
	client Client
	ids    IdentitySource
	logger logging.Logger
}

// NewRecorder builds a Recorder. A nil client downgrades to the noop client;
// a nil identity source leaves events tagged with the unknown distinct id.
func NewRecorder(client Client, ids IdentitySource, logger logging.Logger) *Recorder {
	if client == nil {
		client = NewNoopClient()
	}
	return &Recorder{
		client: client,
		ids:    ids,
		logger: logging.OrNop(logger),
	}
}

// ReportError captures a degradation event fire-and-forget. It never blocks
// the calling operation on delivery and never returns an error.
func (r *Recorder) ReportError(ctx context.Context, event string, properties map[string]any) {
	if r == nil {
		return
	}

	distinctID := UnknownDistinctID
	props := make(map[string]any, len(properties)+2)
	for key, value := range properties {
		props[key] = value
	}
	if r.ids != nil {
		distinctID = r.ids.DistinctID()
		props[PropertyMachineID] = r.ids.MachineID()
		props[PropertySessionID] = r.ids.SessionID()
	}

	if err := r.client.Capture(ctx, distinctID, event, props); err != nil {
		r.logger.Debug("telemetry capture %s failed: %v", event, err)
	}
}

// Close flushes the underlying client.
func (r *Recorder) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
