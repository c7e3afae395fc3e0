// Package audit records version-store lifecycle events to an external
// append-only trail.
//
// The trail answers "who changed the corpus and when" after the
// pipeline host is gone; the DynamoDB sink is the durable
// implementation, the nop sink is the default when no trail is
// configured.
package audit

import (
	"context"
	"time"
)

// Actions recorded to the trail.
const (
	ActionSnapshot = "create_snapshot"
	ActionRollback = "rollback"
	ActionMerge    = "merge_to_training"
	ActionDelete   = "delete_version"
)

// Event is one version-store lifecycle event.
type Event struct {
	// Pipeline identifies the store; one trail can serve several.
	Pipeline string
	// Action is one of the Action constants.
	Action string
	// Version is the version id the action applied to.
	Version string
	// RecordCount is the record count involved, where meaningful.
	RecordCount int
	// Detail carries free-form context, e.g. a snapshot description.
	Detail string
	// HappenedAt defaults to now when zero.
	HappenedAt time.Time
}

// Sink accepts audit events. Implementations must tolerate being
// called from a single writer only, matching the pipeline's model.
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

// NopSink discards all events.
type NopSink struct{}

// Record implements Sink.
func (NopSink) Record(context.Context, Event) error { return nil }
