package montage

import (
	"pkt.systems/montage/core"
	"pkt.systems/montage/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnTimeline(event schema.TimelineEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnTimeline(event)
	}
}

func (f eventFanout) OnTransport(event schema.TransportEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnTransport(event)
	}
}

func (f eventFanout) OnHistory(event schema.HistoryEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnHistory(event)
	}
}

func (f eventFanout) OnSelection(event schema.SelectionEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnSelection(event)
	}
}

func (f eventFanout) OnRecording(event schema.RecordingEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnRecording(event)
	}
}
