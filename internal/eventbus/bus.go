// Package eventbus fans engine events out to per-session subscribers.
package eventbus

import (
	"context"
	"sync"

	"pkt.systems/montage/schema"
	"pkt.systems/pslog"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventTimeline carries a committed timeline mutation.
	EventTimeline EventType = "timeline"
	// EventTransport carries a playhead advance or seek.
	EventTransport EventType = "transport"
	// EventHistory carries undo/redo availability updates.
	EventHistory EventType = "history"
	// EventSelection carries clip selection changes.
	EventSelection EventType = "selection"
	// EventRecording carries recorder lifecycle updates.
	EventRecording EventType = "recording"
)

// Event represents a consumer-facing event emitted by the editing session.
type Event struct {
	Type      EventType
	Timeline  schema.TimelineEvent
	Transport schema.TransportEvent
	History   schema.HistoryEvent
	Selection schema.SelectionEvent
	Recording schema.RecordingEvent
}

// Bus fanouts events to per-session subscribers.
type Bus struct {
	mu    sync.Mutex
	subs  map[schema.SessionID]map[chan Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[schema.SessionID]map[chan Event]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber for the session and returns a channel +
// cancel.
func (b *Bus) Subscribe(sessionID schema.SessionID) (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	sessionSubs := b.subs[sessionID]
	if sessionSubs == nil {
		sessionSubs = make(map[chan Event]struct{})
		b.subs[sessionID] = sessionSubs
	}
	sessionSubs[ch] = struct{}{}
	count := len(sessionSubs)
	b.mu.Unlock()
	if b.log != nil {
		b.log.With("session", sessionID).Debug("eventbus subscribe", "subs", count)
	}
	return ch, func() {
		b.mu.Lock()
		if subs := b.subs[sessionID]; subs != nil {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(b.subs, sessionID)
			}
		}
		b.mu.Unlock()
		close(ch)
		if b.log != nil {
			b.log.With("session", sessionID).Debug("eventbus unsubscribe")
		}
	}
}

// OnTimeline publishes a timeline event.
func (b *Bus) OnTimeline(event schema.TimelineEvent) {
	b.publish(event.SessionID, Event{Type: EventTimeline, Timeline: event})
}

// OnTransport publishes a transport event.
func (b *Bus) OnTransport(event schema.TransportEvent) {
	b.publish(event.SessionID, Event{Type: EventTransport, Transport: event})
}

// OnHistory publishes a history event.
func (b *Bus) OnHistory(event schema.HistoryEvent) {
	b.publish(event.SessionID, Event{Type: EventHistory, History: event})
}

// OnSelection publishes a selection event.
func (b *Bus) OnSelection(event schema.SelectionEvent) {
	b.publish(event.SessionID, Event{Type: EventSelection, Selection: event})
}

// OnRecording publishes a recording event.
func (b *Bus) OnRecording(event schema.RecordingEvent) {
	b.publish(event.SessionID, Event{Type: EventRecording, Recording: event})
}

func (b *Bus) publish(sessionID schema.SessionID, event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	sessionSubs := b.subs[sessionID]
	subs := make([]chan Event, 0, len(sessionSubs))
	for sub := range sessionSubs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()
	if len(subs) == 0 {
		return
	}
	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 && b.log != nil {
		b.log.With("session", sessionID).Trace("eventbus dropped", "count", dropped)
	}
}
