package core

import "pkt.systems/montage/schema"

// EventSink receives engine events. Implementations must not block; slow
// consumers buffer or drop on their side.
type EventSink interface {
	OnTimeline(schema.TimelineEvent)
	OnTransport(schema.TransportEvent)
	OnHistory(schema.HistoryEvent)
	OnSelection(schema.SelectionEvent)
	OnRecording(schema.RecordingEvent)
}
