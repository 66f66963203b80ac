// Package montage composes the timeline editing engine: the core session,
// the event bus consumers subscribe to, and optional media resolution and
// capture collaborators.
package montage

import (
	"context"
	"time"

	"pkt.systems/montage/core"
	"pkt.systems/montage/internal/eventbus"
	"pkt.systems/montage/schema"
	"pkt.systems/pslog"
)

// Deps captures the collaborators a session is built from. All fields are
// optional; a zero Deps yields an in-memory session without media probing
// or recording.
type Deps struct {
	Media    core.MediaResolver
	Recorder core.Recorder
	// Sink receives every engine event in addition to the bus subscribers.
	Sink   core.EventSink
	Logger pslog.Logger
	Now    func() time.Time
}

// Session is one editing session over one project. All state changes go
// through Dispatch or a Gesture; consumers observe them via Subscribe.
type Session struct {
	inner core.Session
	bus   *eventbus.Bus
}

// New constructs a session from the config and collaborators.
func New(cfg schema.SessionConfig, deps Deps) (*Session, error) {
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	bus := eventbus.New(logger)
	var sink core.EventSink = bus
	if deps.Sink != nil {
		sink = eventFanout{sinks: []core.EventSink{deps.Sink, bus}}
	}
	inner, err := core.NewSession(cfg, core.SessionDeps{
		Media:    deps.Media,
		Recorder: deps.Recorder,
		Sink:     sink,
		Logger:   logger,
		Now:      deps.Now,
	})
	if err != nil {
		return nil, err
	}
	return &Session{inner: inner, bus: bus}, nil
}

// ID returns the session identifier stamped on emitted events.
func (s *Session) ID() schema.SessionID { return s.inner.ID() }

// Dispatch applies one command; see core.Session.
func (s *Session) Dispatch(ctx context.Context, cmd schema.Command) (schema.DispatchResult, error) {
	return s.inner.Dispatch(ctx, cmd)
}

// BeginGesture starts an interactive drag/trim/split gesture.
func (s *Session) BeginGesture(ctx context.Context, kind core.GestureKind, clip schema.ClipID, p core.PointerInput) (*core.Gesture, error) {
	return s.inner.BeginGesture(ctx, kind, clip, p)
}

// Subscribe returns a channel of this session's events and a cancel func.
// Slow subscribers drop events rather than stalling the engine.
func (s *Session) Subscribe() (<-chan eventbus.Event, func()) {
	return s.bus.Subscribe(s.inner.ID())
}

// Snapshot returns the current authoritative timeline state.
func (s *Session) Snapshot() schema.TimelineSnapshot { return s.inner.Snapshot() }

// Transport returns the current clock state and frame.
func (s *Session) Transport() schema.TransportEvent { return s.inner.Transport() }

// HistoryState reports undo/redo availability.
func (s *Session) HistoryState() schema.HistoryEvent { return s.inner.HistoryState() }

// SaveProject persists the current state regardless of the autosave flag.
func (s *Session) SaveProject(ctx context.Context) error { return s.inner.SaveProject(ctx) }

// Close stops the clock and rejects further dispatches.
func (s *Session) Close() error { return s.inner.Close() }
