package schema

// SessionID identifies an editing session.
type SessionID string

// ProjectID identifies a persisted project.
type ProjectID string

// ClipID identifies a clip placed on the timeline.
type ClipID string

// MediaID identifies a source media asset. The engine treats it as opaque;
// a MediaResolver maps it to metadata.
type MediaID string

// Frame is the atomic integer unit of timeline position at a fixed rate.
// Wall-clock time = frame / frame rate. Frames are never negative.
type Frame int64

// TrackKind distinguishes video and audio lanes.
type TrackKind string

const (
	// TrackVideo is a video lane.
	TrackVideo TrackKind = "video"
	// TrackAudio is an audio lane.
	TrackAudio TrackKind = "audio"
)

// SourceRange is the trimmed window into a source media asset, in frames.
// Out is exclusive and must exceed In.
type SourceRange struct {
	In  Frame `json:"in"`
	Out Frame `json:"out"`
}

// Duration returns the length of the range in frames.
func (r SourceRange) Duration() Frame { return r.Out - r.In }

// Clip is one placed, trimmed media segment on a track. After every
// committed operation End-Start equals Source.Out-Source.In.
type Clip struct {
	ID     ClipID      `json:"id"`
	Media  MediaID     `json:"media"`
	Track  int         `json:"track"`
	Start  Frame       `json:"start"`
	End    Frame       `json:"end"`
	Source SourceRange `json:"source"`
}

// Duration returns the placed length in frames.
func (c Clip) Duration() Frame { return c.End - c.Start }

// Overlaps reports whether the clip intersects [start, end).
func (c Clip) Overlaps(start, end Frame) bool {
	return c.Start < end && start < c.End
}

// Track is an ordered lane holding non-overlapping clips. Indices are
// contiguous from zero.
type Track struct {
	Index int       `json:"index"`
	Kind  TrackKind `json:"kind"`
	Muted bool      `json:"muted"`
}

// MediaInfo is the immutable metadata attached to a media asset once
// resolved. DurationFrames is expressed at the session frame rate.
type MediaInfo struct {
	ID             MediaID
	DurationFrames Frame
	Width          int
	Height         int
	HasAudio       bool
}
