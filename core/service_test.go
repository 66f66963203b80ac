package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pkt.systems/montage/schema"
)

// captureSink records every emitted event for assertions.
type captureSink struct {
	mu         sync.Mutex
	timeline   []schema.TimelineEvent
	transport  []schema.TransportEvent
	history    []schema.HistoryEvent
	selection  []schema.SelectionEvent
	recordings []schema.RecordingEvent
}

func (s *captureSink) OnTimeline(ev schema.TimelineEvent) {
	s.mu.Lock()
	s.timeline = append(s.timeline, ev)
	s.mu.Unlock()
}

func (s *captureSink) OnTransport(ev schema.TransportEvent) {
	s.mu.Lock()
	s.transport = append(s.transport, ev)
	s.mu.Unlock()
}

func (s *captureSink) OnHistory(ev schema.HistoryEvent) {
	s.mu.Lock()
	s.history = append(s.history, ev)
	s.mu.Unlock()
}

func (s *captureSink) OnSelection(ev schema.SelectionEvent) {
	s.mu.Lock()
	s.selection = append(s.selection, ev)
	s.mu.Unlock()
}

func (s *captureSink) OnRecording(ev schema.RecordingEvent) {
	s.mu.Lock()
	s.recordings = append(s.recordings, ev)
	s.mu.Unlock()
}

func (s *captureSink) lastHistory(t *testing.T) schema.HistoryEvent {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		t.Fatalf("no history events emitted")
	}
	return s.history[len(s.history)-1]
}

// fakeResolver serves media metadata from a map.
type fakeResolver struct {
	media map[schema.MediaID]schema.MediaInfo
}

func (r fakeResolver) Resolve(_ context.Context, id schema.MediaID) (schema.MediaInfo, error) {
	info, ok := r.media[id]
	if !ok {
		return schema.MediaInfo{}, schema.ErrInvalidMedia
	}
	return info, nil
}

func newTestSession(t *testing.T, cfg schema.SessionConfig, deps SessionDeps) Session {
	t.Helper()
	if deps.Now == nil {
		deps.Now = newFakeTime().Now
	}
	sess, err := NewSession(cfg, deps)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func addClip(t *testing.T, sess Session, media schema.MediaID, track int, start schema.Frame, src schema.SourceRange) schema.Clip {
	t.Helper()
	res, err := sess.Dispatch(context.Background(), schema.Command{
		Type:   schema.CommandAddClip,
		Media:  media,
		Track:  track,
		Frame:  start,
		Source: src,
	})
	if err != nil {
		t.Fatalf("add clip: %v", err)
	}
	if len(res.Clips) != 1 {
		t.Fatalf("expected one affected clip, got %d", len(res.Clips))
	}
	return res.Clips[0]
}

func TestDispatchAddAndOverlapRejected(t *testing.T) {
	sink := &captureSink{}
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{Sink: sink})

	addClip(t, sess, "intro.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})
	_, err := sess.Dispatch(context.Background(), schema.Command{
		Type:   schema.CommandAddClip,
		Media:  "intro.mp4",
		Track:  0,
		Frame:  45,
		Source: schema.SourceRange{In: 0, Out: 90},
	})
	if !errors.Is(err, schema.ErrClipOverlap) {
		t.Fatalf("expected ErrClipOverlap, got %v", err)
	}
	// The rejected command must not create a history entry.
	if got := sink.lastHistory(t).Depth; got != 1 {
		t.Fatalf("expected history depth 1 after rejection, got %d", got)
	}
	if snap := sess.Snapshot(); len(snap.Clips) != 1 {
		t.Fatalf("expected model unchanged, got %d clips", len(snap.Clips))
	}
}

func TestDispatchRejectedAddDoesNotStrandTrack(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})

	// Target one past the last track with an inverted source range: the add
	// is rejected and the would-be new track must not survive.
	if _, err := sess.Dispatch(context.Background(), schema.Command{
		Type:   schema.CommandAddClip,
		Media:  "intro.mp4",
		Track:  1,
		Frame:  0,
		Source: schema.SourceRange{In: 5, Out: 3},
	}); !errors.Is(err, schema.ErrInvalidMedia) {
		t.Fatalf("expected ErrInvalidMedia, got %v", err)
	}
	if snap := sess.Snapshot(); len(snap.Tracks) != 1 {
		t.Fatalf("expected rejected add to leave 1 track, got %d", len(snap.Tracks))
	}
	if state := sess.HistoryState(); state.Depth != 0 || state.CanUndo {
		t.Fatalf("expected untouched history after rejection, got %+v", state)
	}
}

func TestDispatchResolvesMediaForAdd(t *testing.T) {
	resolver := fakeResolver{media: map[schema.MediaID]schema.MediaInfo{
		"intro.mp4": {ID: "intro.mp4", DurationFrames: 120},
	}}
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{Media: resolver})

	// Empty source range defaults to the full resolved media.
	res, err := sess.Dispatch(context.Background(), schema.Command{
		Type:  schema.CommandAddClip,
		Media: "intro.mp4",
		Track: 0,
		Frame: 0,
	})
	if err != nil {
		t.Fatalf("add clip: %v", err)
	}
	if res.Clips[0].Duration() != 120 {
		t.Fatalf("expected full media duration 120, got %d", res.Clips[0].Duration())
	}

	if _, err := sess.Dispatch(context.Background(), schema.Command{
		Type:  schema.CommandAddClip,
		Media: "missing.mp4",
		Track: 0,
		Frame: 300,
	}); !errors.Is(err, schema.ErrInvalidMedia) {
		t.Fatalf("expected ErrInvalidMedia for unknown media, got %v", err)
	}
}

func TestDispatchTrimEndExtendsToResolvedSource(t *testing.T) {
	resolver := fakeResolver{media: map[schema.MediaID]schema.MediaInfo{
		"intro.mp4": {ID: "intro.mp4", DurationFrames: 120},
	}}
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{Media: resolver})
	clip := addClip(t, sess, "intro.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})

	res, err := sess.Dispatch(context.Background(), schema.Command{
		Type:  schema.CommandTrimEnd,
		Clip:  clip.ID,
		Frame: 500,
	})
	if err != nil {
		t.Fatalf("trim end: %v", err)
	}
	got := res.Clips[0]
	if got.End != 120 || got.Source.Out != 120 {
		t.Fatalf("expected clamp to resolved source (end 120), got end %d source.out %d", got.End, got.Source.Out)
	}
}

func TestDispatchSplitAndRemove(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	clip := addClip(t, sess, "intro.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})

	res, err := sess.Dispatch(context.Background(), schema.Command{
		Type:  schema.CommandSplitClip,
		Clip:  clip.ID,
		Frame: 30,
	})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(res.Clips) != 2 {
		t.Fatalf("expected two clips from split, got %d", len(res.Clips))
	}
	if res.Clips[0].Source.Out != res.Clips[1].Source.In {
		t.Fatalf("split source ranges not contiguous")
	}

	if _, err := sess.Dispatch(context.Background(), schema.Command{
		Type: schema.CommandRemoveClip,
		Clip: res.Clips[1].ID,
	}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if snap := sess.Snapshot(); len(snap.Clips) != 1 || snap.TotalFrames != 30 {
		t.Fatalf("expected one clip total 30, got %d clips total %d", len(snap.Clips), snap.TotalFrames)
	}
}

func TestDispatchUndoRedo(t *testing.T) {
	sink := &captureSink{}
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{Sink: sink})
	addClip(t, sess, "a.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})
	addClip(t, sess, "b.mp4", 0, 90, schema.SourceRange{In: 0, Out: 60})

	res, err := sess.Dispatch(context.Background(), schema.Command{Type: schema.CommandUndo})
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if len(res.Snapshot.Clips) != 1 {
		t.Fatalf("expected one clip after undo, got %d", len(res.Snapshot.Clips))
	}
	hist := sink.lastHistory(t)
	if !hist.CanRedo || hist.Depth != 1 {
		t.Fatalf("expected redo available at depth 1, got %+v", hist)
	}

	res, err = sess.Dispatch(context.Background(), schema.Command{Type: schema.CommandRedo})
	if err != nil {
		t.Fatalf("redo: %v", err)
	}
	if len(res.Snapshot.Clips) != 2 {
		t.Fatalf("expected two clips after redo, got %d", len(res.Snapshot.Clips))
	}
}

func TestDispatchUndoAtFloorIsNoop(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	res, err := sess.Dispatch(context.Background(), schema.Command{Type: schema.CommandUndo})
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if len(res.Snapshot.Clips) != 0 {
		t.Fatalf("expected empty snapshot, got %d clips", len(res.Snapshot.Clips))
	}
	if state := sess.HistoryState(); state.CanUndo || state.CanRedo {
		t.Fatalf("expected empty history state, got %+v", state)
	}
}

func TestDispatchUndoKeepsLiveSelection(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	a := addClip(t, sess, "a.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})
	addClip(t, sess, "b.mp4", 0, 90, schema.SourceRange{In: 0, Out: 60})
	if _, err := sess.Dispatch(context.Background(), schema.Command{
		Type: schema.CommandSelectClip,
		Clip: a.ID,
	}); err != nil {
		t.Fatalf("select: %v", err)
	}

	// The restored state predates the selection; the live selection stays.
	res, err := sess.Dispatch(context.Background(), schema.Command{Type: schema.CommandUndo})
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if res.Snapshot.Selected != a.ID {
		t.Fatalf("expected selection %s to survive undo, got %q", a.ID, res.Snapshot.Selected)
	}
}

func TestDispatchUndoDropsDanglingSelection(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	addClip(t, sess, "a.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})
	b := addClip(t, sess, "b.mp4", 0, 90, schema.SourceRange{In: 0, Out: 60})
	if _, err := sess.Dispatch(context.Background(), schema.Command{
		Type: schema.CommandSelectClip,
		Clip: b.ID,
	}); err != nil {
		t.Fatalf("select: %v", err)
	}

	// Undo removes the selected clip from the model.
	res, err := sess.Dispatch(context.Background(), schema.Command{Type: schema.CommandUndo})
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if res.Snapshot.Selected != "" {
		t.Fatalf("expected dangling selection dropped, got %q", res.Snapshot.Selected)
	}
}

func TestDispatchEditClearsRedo(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	addClip(t, sess, "a.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})
	if _, err := sess.Dispatch(context.Background(), schema.Command{Type: schema.CommandUndo}); err != nil {
		t.Fatalf("undo: %v", err)
	}
	addClip(t, sess, "b.mp4", 0, 0, schema.SourceRange{In: 0, Out: 60})
	if state := sess.HistoryState(); state.CanRedo {
		t.Fatalf("expected redo cleared by new edit")
	}
}

func TestDispatchSelectDoesNotTouchHistory(t *testing.T) {
	sink := &captureSink{}
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{Sink: sink})
	clip := addClip(t, sess, "a.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})
	before := sess.HistoryState().Depth

	res, err := sess.Dispatch(context.Background(), schema.Command{
		Type: schema.CommandSelectClip,
		Clip: clip.ID,
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if res.Snapshot.Selected != clip.ID {
		t.Fatalf("expected selection %s, got %s", clip.ID, res.Snapshot.Selected)
	}
	if sess.HistoryState().Depth != before {
		t.Fatalf("selection must not create history entries")
	}
	sink.mu.Lock()
	n := len(sink.selection)
	sink.mu.Unlock()
	if n != 1 {
		t.Fatalf("expected one selection event, got %d", n)
	}
}

func TestDispatchTrackCommands(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	if _, err := sess.Dispatch(context.Background(), schema.Command{
		Type: schema.CommandAddTrack,
		Kind: schema.TrackAudio,
	}); err != nil {
		t.Fatalf("add track: %v", err)
	}
	if _, err := sess.Dispatch(context.Background(), schema.Command{
		Type:  schema.CommandMuteTrack,
		Track: 1,
		Muted: true,
	}); err != nil {
		t.Fatalf("mute track: %v", err)
	}
	snap := sess.Snapshot()
	if len(snap.Tracks) != 2 || !snap.Tracks[1].Muted || snap.Tracks[1].Kind != schema.TrackAudio {
		t.Fatalf("unexpected tracks: %+v", snap.Tracks)
	}
	if _, err := sess.Dispatch(context.Background(), schema.Command{
		Type:  schema.CommandMuteTrack,
		Track: 7,
		Muted: true,
	}); !errors.Is(err, schema.ErrTrackNotFound) {
		t.Fatalf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	if _, err := sess.Dispatch(context.Background(), schema.Command{Type: "bogus"}); !errors.Is(err, schema.ErrInvalidCommand) {
		t.Fatalf("expected ErrInvalidCommand, got %v", err)
	}
}

func TestDispatchPlayEmptyTimelineNoop(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	if _, err := sess.Dispatch(context.Background(), schema.Command{Type: schema.CommandPlay}); err != nil {
		t.Fatalf("play: %v", err)
	}
	if got := sess.Transport().State; got != schema.TransportIdle {
		t.Fatalf("expected idle transport, got %s", got)
	}
}

func TestDispatchMoveWithSnapContext(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	addClip(t, sess, "a.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})
	clip := addClip(t, sess, "b.mp4", 0, 200, schema.SourceRange{In: 0, Out: 60})

	// 93 is close to clip a's end at 90; with snapping on it lands flush.
	res, err := sess.Dispatch(context.Background(), schema.Command{
		Type:  schema.CommandMoveClip,
		Clip:  clip.ID,
		Track: 0,
		Frame: 93,
		Snap:  &schema.SnapContext{Zoom: 10, TolerancePx: 8},
	})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Clips[0].Start != 90 {
		t.Fatalf("expected snapped start 90, got %d", res.Clips[0].Start)
	}
}

func TestDispatchClosedSession(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	if err := sess.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := sess.Dispatch(context.Background(), schema.Command{
		Type:   schema.CommandAddClip,
		Media:  "a.mp4",
		Source: schema.SourceRange{In: 0, Out: 30},
	}); !errors.Is(err, schema.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestAutosaveRoundTrip(t *testing.T) {
	stateDir := t.TempDir()
	cfg := schema.SessionConfig{ProjectID: "demo", FrameRate: 30, StateDir: stateDir, Autosave: true}
	sess := newTestSession(t, cfg, SessionDeps{})
	clip := addClip(t, sess, "intro.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})
	if err := sess.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := newTestSession(t, cfg, SessionDeps{})
	snap := reopened.Snapshot()
	if len(snap.Clips) != 1 || snap.Clips[0].ID != clip.ID {
		t.Fatalf("expected persisted clip %s, got %+v", clip.ID, snap.Clips)
	}
	if snap.TotalFrames != 90 {
		t.Fatalf("expected total 90 after reload, got %d", snap.TotalFrames)
	}
	// Reloaded history starts fresh: the loaded state is the floor.
	if state := reopened.HistoryState(); state.CanUndo {
		t.Fatalf("expected no undo past the loaded state")
	}
}

func TestSaveProjectWithoutStateDir(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	if err := sess.SaveProject(context.Background()); err == nil {
		t.Fatalf("expected error without state directory")
	}
}
