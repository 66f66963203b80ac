package schema

// CommandType tags the command union.
type CommandType string

const (
	// CommandAddClip places a new clip on a track.
	CommandAddClip CommandType = "clip.add"
	// CommandMoveClip moves a clip to a new track/start, preserving duration.
	CommandMoveClip CommandType = "clip.move"
	// CommandTrimStart adjusts a clip's leading edge.
	CommandTrimStart CommandType = "clip.trim_start"
	// CommandTrimEnd adjusts a clip's trailing edge.
	CommandTrimEnd CommandType = "clip.trim_end"
	// CommandSplitClip splits a clip into two contiguous clips.
	CommandSplitClip CommandType = "clip.split"
	// CommandRemoveClip removes a clip from the timeline.
	CommandRemoveClip CommandType = "clip.remove"
	// CommandSelectClip selects a clip (empty Clip clears the selection).
	CommandSelectClip CommandType = "clip.select"
	// CommandAddTrack appends a track at the next index.
	CommandAddTrack CommandType = "track.add"
	// CommandMuteTrack toggles a track's mute flag.
	CommandMuteTrack CommandType = "track.mute"
	// CommandUndo restores the previous history snapshot.
	CommandUndo CommandType = "history.undo"
	// CommandRedo reapplies the next history snapshot.
	CommandRedo CommandType = "history.redo"
	// CommandPlay starts the transport clock.
	CommandPlay CommandType = "playback.play"
	// CommandPause stops the transport clock at the exact current frame.
	CommandPause CommandType = "playback.pause"
	// CommandSeek moves the playhead, clamped into the timeline bounds.
	CommandSeek CommandType = "playback.seek"
	// CommandRecordStart begins a capture through the recorder collaborator.
	CommandRecordStart CommandType = "recording.start"
	// CommandRecordStop ends a capture and places the resulting clip.
	CommandRecordStop CommandType = "recording.stop"
)

// RecordingMode selects the capture source for recording.start.
type RecordingMode string

const (
	// RecordCamera captures from a camera device.
	RecordCamera RecordingMode = "camera"
	// RecordScreen captures the screen.
	RecordScreen RecordingMode = "screen"
	// RecordAudio captures audio only.
	RecordAudio RecordingMode = "audio"
)

// SnapContext carries the view state needed to resolve magnetic snapping.
// Zoom is pixels per second of timeline; TolerancePx is the snap window in
// pixels. A nil SnapContext on a command disables snapping for it.
type SnapContext struct {
	Zoom        float64
	TolerancePx float64
}

// Command is a tagged union of user and system intents. Commands are
// ephemeral: only the state they produce is persisted. Unused fields are
// ignored for a given Type.
type Command struct {
	Type     CommandType
	Clip     ClipID
	Media    MediaID
	Track    int
	Frame    Frame
	Source   SourceRange
	Kind     TrackKind
	Muted    bool
	Mode     RecordingMode
	Label    string
	Snap     *SnapContext
	Debounce bool
}

// DispatchResult reports the outcome of a successfully applied command.
type DispatchResult struct {
	Snapshot TimelineSnapshot
	// Clips lists the clips the command created or mutated, in timeline
	// order. Empty for transport and history commands.
	Clips []Clip
}
