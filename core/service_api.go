package core

import (
	"context"

	"pkt.systems/montage/schema"
)

// Session is the single-writer dispatch surface for one editing session.
// Every state-affecting intent (timeline edits, transport control,
// recording coordination, selection) enters as a Command and is applied
// one at a time in arrival order, so an asynchronous collaborator event and
// a synchronous user action can never interleave into an inconsistent
// state.
type Session interface {
	// ID returns the session identifier stamped on emitted events.
	ID() schema.SessionID
	// Dispatch validates the command against the current machine state and
	// applies it. Rejected commands return an error and are never partially
	// applied; committed mutations snapshot history exactly once from the
	// post-commit model.
	Dispatch(ctx context.Context, cmd schema.Command) (schema.DispatchResult, error)
	// BeginGesture starts an interactive drag/trim/split gesture over a
	// clip. The returned gesture produces at most one command on End and
	// nothing on Cancel.
	BeginGesture(ctx context.Context, kind GestureKind, clip schema.ClipID, p PointerInput) (*Gesture, error)
	// Snapshot returns the current authoritative timeline state.
	Snapshot() schema.TimelineSnapshot
	// Transport returns the current clock state and frame.
	Transport() schema.TransportEvent
	// HistoryState reports undo/redo availability.
	HistoryState() schema.HistoryEvent
	// SaveProject persists the current state through the configured store.
	SaveProject(ctx context.Context) error
	// Close tears the session down; the clock stops and further dispatches
	// fail with ErrSessionClosed.
	Close() error
}
