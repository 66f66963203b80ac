package core

import (
	"context"
	"fmt"
	"sync"

	"pkt.systems/montage/internal/frames"
	"pkt.systems/montage/schema"
)

// GestureKind selects the interactive edit a gesture performs.
type GestureKind string

const (
	// GestureDrag moves a clip across frames and tracks.
	GestureDrag GestureKind = "drag"
	// GestureTrimStart drags a clip's leading edge.
	GestureTrimStart GestureKind = "trim-start"
	// GestureTrimEnd drags a clip's trailing edge.
	GestureTrimEnd GestureKind = "trim-end"
	// GestureSplit scrubs a split point across a clip.
	GestureSplit GestureKind = "split"
)

// PointerInput is one pointer sample already mapped into timeline
// coordinates by the caller.
type PointerInput struct {
	Frame schema.Frame
	Track int
}

// Preview is the ghost state a UI renders while a gesture is in flight.
// Nothing in the model changes until End commits.
type Preview struct {
	Kind    GestureKind
	Clip    schema.ClipID
	Track   int
	Start   schema.Frame
	End     schema.Frame
	SplitAt schema.Frame
	// Valid is false when dropping here would be rejected (collision,
	// boundary split). The commit still goes through Dispatch, which is the
	// authority; Valid only drives ghost styling.
	Valid bool
	// GhostTrack is true when the drop targets one past the last track, so
	// committing appends a new track.
	GhostTrack bool
}

// Gesture accumulates pointer samples for one interactive edit and commits
// at most one command when it ends. The model is never touched mid-gesture:
// a cancelled gesture leaves no trace and no history entry, and a committed
// one produces exactly one history entry through the normal dispatch path.
type Gesture struct {
	s    *session
	kind GestureKind
	clip schema.Clip

	mu         sync.Mutex
	grabOffset schema.Frame
	preview    Preview
	done       bool
}

// BeginGesture starts a gesture over the given clip. The pointer sample
// anchors drags so the clip does not jump to the cursor.
func (s *session) BeginGesture(ctx context.Context, kind GestureKind, clipID schema.ClipID, p PointerInput) (*Gesture, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: missing context", schema.ErrInvalidCommand)
	}
	switch kind {
	case GestureDrag, GestureTrimStart, GestureTrimEnd, GestureSplit:
	default:
		return nil, fmt.Errorf("%w: gesture %q", schema.ErrInvalidCommand, kind)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, schema.ErrSessionClosed
	}
	if s.recording {
		s.mu.Unlock()
		return nil, schema.ErrRecordingActive
	}
	clip, ok := s.model.Clip(clipID)
	s.mu.Unlock()
	if !ok {
		return nil, schema.ErrClipNotFound
	}
	g := &Gesture{s: s, kind: kind, clip: clip}
	if kind == GestureDrag {
		g.grabOffset = p.Frame - clip.Start
	}
	g.preview = Preview{
		Kind:    kind,
		Clip:    clip.ID,
		Track:   clip.Track,
		Start:   clip.Start,
		End:     clip.End,
		SplitAt: clip.Start,
		Valid:   true,
	}
	g.Update(p, nil)
	return g, nil
}

// Update folds in a pointer sample and returns the refreshed preview.
// Samples after End or Cancel return the final preview unchanged.
func (g *Gesture) Update(p PointerInput, snap *schema.SnapContext) Preview {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return g.preview
	}
	g.s.mu.Lock()
	model := g.s.model
	playhead := g.s.clock.Position()
	tol := g.s.snapToleranceLocked(snap)
	switch g.kind {
	case GestureDrag:
		g.previewDrag(model, p, playhead, tol)
	case GestureTrimStart:
		g.previewTrimStart(model, p, playhead, tol)
	case GestureTrimEnd:
		g.previewTrimEnd(model, p, playhead, tol)
	case GestureSplit:
		g.previewSplit(model, p, playhead, tol)
	}
	g.s.mu.Unlock()
	return g.preview
}

func (g *Gesture) previewDrag(model *timeline, p PointerInput, playhead, tol schema.Frame) {
	duration := g.clip.Duration()
	candidate := p.Frame - g.grabOffset
	if candidate < 0 {
		candidate = 0
	}
	// Both edges are magnetic; whichever snapped edge moves the clip less
	// wins, so a drag can land either edge on a target.
	start := candidate
	if tol > 0 {
		byStart, okStart := resolveSnap(model, candidate, playhead, g.s.cfg.FrameRate, tol, g.clip.ID)
		trailing, okEnd := resolveSnap(model, candidate+duration, playhead, g.s.cfg.FrameRate, tol, g.clip.ID)
		byEnd := trailing - duration
		switch {
		case okStart && okEnd:
			start = byStart
			if delta(byEnd, candidate) < delta(byStart, candidate) {
				start = byEnd
			}
		case okStart:
			start = byStart
		case okEnd:
			start = byEnd
		}
	}
	if start < 0 {
		start = 0
	}
	track := p.Track
	if track < 0 {
		track = 0
	}
	if track > len(model.tracks) {
		track = len(model.tracks)
	}
	ghost := track == len(model.tracks)
	valid := ghost || !model.collides(track, start, start+duration, g.clip.ID)
	g.preview.Track = track
	g.preview.Start = start
	g.preview.End = start + duration
	g.preview.Valid = valid
	g.preview.GhostTrack = ghost
}

func (g *Gesture) previewTrimStart(model *timeline, p PointerInput, playhead, tol schema.Frame) {
	newStart, _ := resolveSnap(model, p.Frame, playhead, g.s.cfg.FrameRate, tol, g.clip.ID)
	earliest := g.clip.Start - g.clip.Source.In
	if earliest < 0 {
		earliest = 0
	}
	if newStart < earliest {
		newStart = earliest
	}
	if newStart >= g.clip.End {
		newStart = g.clip.End - 1
	}
	g.preview.Start = newStart
	g.preview.End = g.clip.End
	g.preview.Valid = !model.collides(g.clip.Track, newStart, g.clip.End, g.clip.ID)
}

func (g *Gesture) previewTrimEnd(model *timeline, p PointerInput, playhead, tol schema.Frame) {
	newEnd, _ := resolveSnap(model, p.Frame, playhead, g.s.cfg.FrameRate, tol, g.clip.ID)
	// Preview extension is bounded by the known source window; Dispatch
	// re-checks against the resolved media duration on commit.
	latest := g.clip.End
	if newEnd > latest {
		newEnd = latest
	}
	if newEnd <= g.clip.Start {
		newEnd = g.clip.Start + 1
	}
	g.preview.Start = g.clip.Start
	g.preview.End = newEnd
	g.preview.Valid = !model.collides(g.clip.Track, g.clip.Start, newEnd, g.clip.ID)
}

func (g *Gesture) previewSplit(model *timeline, p PointerInput, playhead, tol schema.Frame) {
	at, _ := resolveSnap(model, p.Frame, playhead, g.s.cfg.FrameRate, tol, g.clip.ID)
	g.preview.SplitAt = at
	g.preview.Valid = at > g.clip.Start && at < g.clip.End
}

// End commits the gesture through Dispatch. Exactly one command is issued
// regardless of how many samples were folded in; a rejected drop returns the
// dispatch error and the model stays as it was.
func (g *Gesture) End(ctx context.Context) (schema.DispatchResult, error) {
	g.mu.Lock()
	if g.done {
		g.mu.Unlock()
		return schema.DispatchResult{}, fmt.Errorf("%w: gesture already finished", schema.ErrInvalidCommand)
	}
	g.done = true
	preview := g.preview
	g.mu.Unlock()

	cmd := schema.Command{Clip: g.clip.ID}
	switch g.kind {
	case GestureDrag:
		cmd.Type = schema.CommandMoveClip
		cmd.Track = preview.Track
		cmd.Frame = preview.Start
	case GestureTrimStart:
		cmd.Type = schema.CommandTrimStart
		cmd.Frame = preview.Start
	case GestureTrimEnd:
		cmd.Type = schema.CommandTrimEnd
		cmd.Frame = preview.End
	case GestureSplit:
		cmd.Type = schema.CommandSplitClip
		cmd.Frame = preview.SplitAt
	}
	return g.s.Dispatch(ctx, cmd)
}

// Cancel abandons the gesture. No command is dispatched and no history
// entry is created.
func (g *Gesture) Cancel() {
	g.mu.Lock()
	g.done = true
	g.mu.Unlock()
}

// Preview returns the latest preview without folding in a sample.
func (g *Gesture) Preview() Preview {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.preview
}

// snapToleranceLocked converts a snap context into frames using the session
// defaults. Nil disables snapping.
func (s *session) snapToleranceLocked(snap *schema.SnapContext) schema.Frame {
	if snap == nil {
		return 0
	}
	tolPx := snap.TolerancePx
	if tolPx <= 0 {
		tolPx = s.cfg.SnapTolerancePx
	}
	return frames.ToleranceFrames(tolPx, s.cfg.FrameRate, snap.Zoom)
}

func delta(a, b schema.Frame) schema.Frame {
	if a > b {
		return a - b
	}
	return b - a
}
