package schema

// TransportState enumerates the virtual transport clock states.
type TransportState string

const (
	// TransportIdle means no playback has happened yet.
	TransportIdle TransportState = "idle"
	// TransportPlaying means the clock is advancing the playhead.
	TransportPlaying TransportState = "playing"
	// TransportPaused means the clock is stopped at a frame.
	TransportPaused TransportState = "paused"
	// TransportSeeking is the transient state while a seek settles.
	TransportSeeking TransportState = "seeking"
)

// RecordingState enumerates recorder coordination states.
type RecordingState string

const (
	// RecordingIdle means no capture is in flight.
	RecordingIdle RecordingState = "idle"
	// RecordingActive means a capture is in flight.
	RecordingActive RecordingState = "active"
)

// TimelineEvent is emitted after every committed timeline mutation. The
// snapshot is the post-commit authoritative state.
type TimelineEvent struct {
	SessionID SessionID
	Reason    CommandType
	Snapshot  TimelineSnapshot
}

// TransportEvent is emitted on every frame advance and explicit seek.
type TransportEvent struct {
	SessionID SessionID
	State     TransportState
	Frame     Frame
	Total     Frame
}

// HistoryEvent reports undo/redo availability after history changes.
type HistoryEvent struct {
	SessionID SessionID
	Label     string
	Depth     int
	CanUndo   bool
	CanRedo   bool
}

// SelectionEvent reports the currently selected clip; empty when cleared.
type SelectionEvent struct {
	SessionID SessionID
	Clip      ClipID
}

// RecordingEvent reports recorder lifecycle transitions. Clip is set when a
// stopped recording produced a placed clip.
type RecordingEvent struct {
	SessionID SessionID
	State     RecordingState
	Mode      RecordingMode
	Clip      *Clip
}
