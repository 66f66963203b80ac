package schema

import "errors"

var (
	// ErrInvalidCommand indicates a command that is not valid in the current
	// machine state.
	ErrInvalidCommand = errors.New("invalid command for current state")
	// ErrClipNotFound indicates a requested clip does not exist.
	ErrClipNotFound = errors.New("clip not found")
	// ErrTrackNotFound indicates a track index outside the timeline.
	ErrTrackNotFound = errors.New("track not found")
	// ErrClipOverlap indicates a placement that would overlap another clip.
	ErrClipOverlap = errors.New("clip placement overlaps existing clip")
	// ErrInvalidTrim indicates a trim that would invert or empty a clip.
	ErrInvalidTrim = errors.New("invalid trim bounds")
	// ErrInvalidSplit indicates a split point outside the clip interior.
	ErrInvalidSplit = errors.New("split point must be strictly inside the clip")
	// ErrSourceExhausted indicates a source range beyond the media's bounds.
	ErrSourceExhausted = errors.New("source range exceeds media bounds")
	// ErrInvalidMedia indicates a media reference that cannot be attached.
	ErrInvalidMedia = errors.New("invalid media reference")
	// ErrInvalidFrame indicates a negative or otherwise unusable frame value.
	ErrInvalidFrame = errors.New("invalid frame value")
	// ErrEmptyTimeline indicates an operation that needs at least one clip.
	ErrEmptyTimeline = errors.New("timeline has no clips")
	// ErrRecordingActive indicates a command rejected while recording.
	ErrRecordingActive = errors.New("recording is active")
	// ErrRecorderUnavailable indicates no recorder is configured.
	ErrRecorderUnavailable = errors.New("recorder not configured")
	// ErrSessionClosed indicates the session has been torn down.
	ErrSessionClosed = errors.New("session closed")
)
