package core

import (
	"sort"

	"pkt.systems/montage/schema"
)

// timeline is the clip/track model: pure data plus invariant-preserving
// mutators. All positions are integer frames. The model does no I/O and no
// locking; the session serializes access to it.
type timeline struct {
	tracks   []schema.Track
	clips    map[schema.ClipID]*schema.Clip
	selected schema.ClipID
}

func newTimeline() *timeline {
	return &timeline{
		tracks: []schema.Track{{Index: 0, Kind: schema.TrackVideo}},
		clips:  make(map[schema.ClipID]*schema.Clip),
	}
}

func newTimelineFromSnapshot(snap schema.TimelineSnapshot) *timeline {
	t := &timeline{
		tracks:   append([]schema.Track(nil), snap.Tracks...),
		clips:    make(map[schema.ClipID]*schema.Clip, len(snap.Clips)),
		selected: snap.Selected,
	}
	if len(t.tracks) == 0 {
		t.tracks = []schema.Track{{Index: 0, Kind: schema.TrackVideo}}
	}
	for _, clip := range snap.Clips {
		copied := clip
		t.clips[clip.ID] = &copied
	}
	if t.selected != "" {
		if _, ok := t.clips[t.selected]; !ok {
			t.selected = ""
		}
	}
	return t
}

// TotalFrames is derived: the maximum end frame over all clips.
func (t *timeline) TotalFrames() schema.Frame {
	var total schema.Frame
	for _, clip := range t.clips {
		if clip.End > total {
			total = clip.End
		}
	}
	return total
}

// Snapshot deep-copies the aggregate with clips sorted by track, then start.
func (t *timeline) Snapshot() schema.TimelineSnapshot {
	clips := make([]schema.Clip, 0, len(t.clips))
	for _, clip := range t.clips {
		clips = append(clips, *clip)
	}
	sort.Slice(clips, func(i, j int) bool {
		if clips[i].Track != clips[j].Track {
			return clips[i].Track < clips[j].Track
		}
		if clips[i].Start != clips[j].Start {
			return clips[i].Start < clips[j].Start
		}
		return clips[i].ID < clips[j].ID
	})
	return schema.TimelineSnapshot{
		Tracks:      append([]schema.Track(nil), t.tracks...),
		Clips:       clips,
		TotalFrames: t.TotalFrames(),
		Selected:    t.selected,
	}
}

// Clip returns a copy of the clip with the given id.
func (t *timeline) Clip(id schema.ClipID) (schema.Clip, bool) {
	clip, ok := t.clips[id]
	if !ok {
		return schema.Clip{}, false
	}
	return *clip, true
}

// collides reports whether [start, end) on the track intersects any clip
// other than ignore.
func (t *timeline) collides(track int, start, end schema.Frame, ignore schema.ClipID) bool {
	for _, clip := range t.clips {
		if clip.Track != track || clip.ID == ignore {
			continue
		}
		if clip.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// AddTrack appends a track at the next contiguous index.
func (t *timeline) AddTrack(kind schema.TrackKind) schema.Track {
	if kind != schema.TrackAudio {
		kind = schema.TrackVideo
	}
	track := schema.Track{Index: len(t.tracks), Kind: kind}
	t.tracks = append(t.tracks, track)
	return track
}

// removeLastTrack drops the highest-index track. Callers use it to roll
// back a speculatively appended track after a rejected add.
func (t *timeline) removeLastTrack() {
	if len(t.tracks) > 0 {
		t.tracks = t.tracks[:len(t.tracks)-1]
	}
}

// SetTrackMuted toggles a track's mute flag.
func (t *timeline) SetTrackMuted(index int, muted bool) error {
	if index < 0 || index >= len(t.tracks) {
		return schema.ErrTrackNotFound
	}
	t.tracks[index].Muted = muted
	return nil
}

// AddClip places a new clip. sourceLimit bounds the media's available
// frames; zero means unknown (the given range is trusted as-is).
func (t *timeline) AddClip(id schema.ClipID, media schema.MediaID, track int, start schema.Frame, src schema.SourceRange, sourceLimit schema.Frame) (schema.Clip, error) {
	if start < 0 {
		return schema.Clip{}, schema.ErrInvalidFrame
	}
	if src.In < 0 || src.Out <= src.In {
		return schema.Clip{}, schema.ErrInvalidMedia
	}
	if sourceLimit > 0 && src.Out > sourceLimit {
		return schema.Clip{}, schema.ErrSourceExhausted
	}
	if track < 0 || track >= len(t.tracks) {
		return schema.Clip{}, schema.ErrTrackNotFound
	}
	end := start + src.Duration()
	if t.collides(track, start, end, "") {
		return schema.Clip{}, schema.ErrClipOverlap
	}
	clip := schema.Clip{
		ID:     id,
		Media:  media,
		Track:  track,
		Start:  start,
		End:    end,
		Source: src,
	}
	t.clips[id] = &clip
	return clip, nil
}

// MoveClip relocates a clip preserving its duration. A destination of
// exactly one past the last track appends a new track of the same kind as
// the clip's current track (drag-to-create-track).
func (t *timeline) MoveClip(id schema.ClipID, newTrack int, newStart schema.Frame) (schema.Clip, error) {
	clip, ok := t.clips[id]
	if !ok {
		return schema.Clip{}, schema.ErrClipNotFound
	}
	if newStart < 0 {
		newStart = 0
	}
	if newTrack < 0 || newTrack > len(t.tracks) {
		return schema.Clip{}, schema.ErrTrackNotFound
	}
	duration := clip.Duration()
	newEnd := newStart + duration
	if newTrack < len(t.tracks) && t.collides(newTrack, newStart, newEnd, id) {
		return schema.Clip{}, schema.ErrClipOverlap
	}
	if newTrack == len(t.tracks) {
		kind := schema.TrackVideo
		if clip.Track >= 0 && clip.Track < len(t.tracks) {
			kind = t.tracks[clip.Track].Kind
		}
		t.AddTrack(kind)
	}
	clip.Track = newTrack
	clip.Start = newStart
	clip.End = newEnd
	return *clip, nil
}

// TrimStart moves a clip's leading edge, keeping the source window in step.
// Values at or past the clip end are rejected; otherwise the edge is
// clamped so the source never runs out and the neighbors stay untouched.
func (t *timeline) TrimStart(id schema.ClipID, newStart schema.Frame) (schema.Clip, error) {
	clip, ok := t.clips[id]
	if !ok {
		return schema.Clip{}, schema.ErrClipNotFound
	}
	if newStart >= clip.End {
		return schema.Clip{}, schema.ErrInvalidTrim
	}
	// Earliest the edge can go without exhausting source material.
	earliest := clip.Start - clip.Source.In
	if earliest < 0 {
		earliest = 0
	}
	if newStart < earliest {
		newStart = earliest
	}
	if t.collides(clip.Track, newStart, clip.End, id) {
		return schema.Clip{}, schema.ErrClipOverlap
	}
	delta := newStart - clip.Start
	clip.Start = newStart
	clip.Source.In += delta
	return *clip, nil
}

// TrimEnd moves a clip's trailing edge, keeping the source window in step.
// sourceLimit bounds extension; zero means the current source out-point is
// the limit. Values at or before the clip start are rejected.
func (t *timeline) TrimEnd(id schema.ClipID, newEnd schema.Frame, sourceLimit schema.Frame) (schema.Clip, error) {
	clip, ok := t.clips[id]
	if !ok {
		return schema.Clip{}, schema.ErrClipNotFound
	}
	if newEnd <= clip.Start {
		return schema.Clip{}, schema.ErrInvalidTrim
	}
	limit := sourceLimit
	if limit <= 0 {
		limit = clip.Source.Out
	}
	latest := clip.End + (limit - clip.Source.Out)
	if newEnd > latest {
		newEnd = latest
	}
	if newEnd <= clip.Start {
		return schema.Clip{}, schema.ErrInvalidTrim
	}
	if t.collides(clip.Track, clip.Start, newEnd, id) {
		return schema.Clip{}, schema.ErrClipOverlap
	}
	delta := newEnd - clip.End
	clip.End = newEnd
	clip.Source.Out += delta
	return *clip, nil
}

// SplitClip replaces one clip with two contiguous clips whose source ranges
// meet at the split point. The split frame must be strictly inside the
// clip; zero-length clips can never be created.
func (t *timeline) SplitClip(id schema.ClipID, at schema.Frame) (schema.Clip, schema.Clip, error) {
	clip, ok := t.clips[id]
	if !ok {
		return schema.Clip{}, schema.Clip{}, schema.ErrClipNotFound
	}
	if at <= clip.Start || at >= clip.End {
		return schema.Clip{}, schema.Clip{}, schema.ErrInvalidSplit
	}
	offset := at - clip.Start
	right := schema.Clip{
		ID:    schema.ClipID(newID()),
		Media: clip.Media,
		Track: clip.Track,
		Start: at,
		End:   clip.End,
		Source: schema.SourceRange{
			In:  clip.Source.In + offset,
			Out: clip.Source.Out,
		},
	}
	clip.End = at
	clip.Source.Out = clip.Source.In + offset
	t.clips[right.ID] = &right
	return *clip, right, nil
}

// RemoveClip deletes a clip, clearing the selection if it pointed at it.
func (t *timeline) RemoveClip(id schema.ClipID) error {
	if _, ok := t.clips[id]; !ok {
		return schema.ErrClipNotFound
	}
	delete(t.clips, id)
	if t.selected == id {
		t.selected = ""
	}
	return nil
}

// SelectClip marks a clip as selected; an empty id clears the selection.
func (t *timeline) SelectClip(id schema.ClipID) error {
	if id == "" {
		t.selected = ""
		return nil
	}
	if _, ok := t.clips[id]; !ok {
		return schema.ErrClipNotFound
	}
	t.selected = id
	return nil
}
