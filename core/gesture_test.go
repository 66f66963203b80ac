package core

import (
	"context"
	"errors"
	"testing"

	"pkt.systems/montage/schema"
)

func TestGestureDragCommitsExactlyOnce(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	clip := addClip(t, sess, "a.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})
	before := sess.HistoryState().Depth

	g, err := sess.BeginGesture(context.Background(), GestureDrag, clip.ID, PointerInput{Frame: 10, Track: 0})
	if err != nil {
		t.Fatalf("begin gesture: %v", err)
	}
	// Many samples, one commit.
	for f := schema.Frame(20); f <= 200; f += 20 {
		g.Update(PointerInput{Frame: f, Track: 0}, nil)
	}
	res, err := g.End(context.Background())
	if err != nil {
		t.Fatalf("end gesture: %v", err)
	}
	if res.Clips[0].Start != 190 {
		t.Fatalf("expected start 190 (grab offset 10), got %d", res.Clips[0].Start)
	}
	if got := sess.HistoryState().Depth; got != before+1 {
		t.Fatalf("expected exactly one new history entry, got %d", got-before)
	}
	if _, err := g.End(context.Background()); !errors.Is(err, schema.ErrInvalidCommand) {
		t.Fatalf("expected second End rejected, got %v", err)
	}
}

func TestGestureCancelLeavesNoTrace(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	clip := addClip(t, sess, "a.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})
	before := sess.HistoryState().Depth

	g, err := sess.BeginGesture(context.Background(), GestureDrag, clip.ID, PointerInput{Frame: 0, Track: 0})
	if err != nil {
		t.Fatalf("begin gesture: %v", err)
	}
	g.Update(PointerInput{Frame: 300, Track: 0}, nil)
	g.Cancel()

	snap := sess.Snapshot()
	if snap.Clips[0].Start != 0 {
		t.Fatalf("cancelled gesture mutated the model: start %d", snap.Clips[0].Start)
	}
	if got := sess.HistoryState().Depth; got != before {
		t.Fatalf("cancelled gesture created history entries")
	}
}

func TestGestureInvalidDropRejectedWithoutMutation(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	addClip(t, sess, "a.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})
	clip := addClip(t, sess, "b.mp4", 0, 200, schema.SourceRange{In: 0, Out: 60})
	before := sess.HistoryState().Depth

	g, err := sess.BeginGesture(context.Background(), GestureDrag, clip.ID, PointerInput{Frame: 200, Track: 0})
	if err != nil {
		t.Fatalf("begin gesture: %v", err)
	}
	preview := g.Update(PointerInput{Frame: 45, Track: 0}, nil)
	if preview.Valid {
		t.Fatalf("expected invalid preview over occupied frames")
	}
	if _, err := g.End(context.Background()); !errors.Is(err, schema.ErrClipOverlap) {
		t.Fatalf("expected ErrClipOverlap on drop, got %v", err)
	}
	snap := sess.Snapshot()
	if got, _ := snap.Clip(clip.ID); got.Start != 200 {
		t.Fatalf("rejected drop mutated the model: start %d", got.Start)
	}
	if sess.HistoryState().Depth != before {
		t.Fatalf("rejected drop created a history entry")
	}
}

func TestGestureDragToGhostTrackCreatesTrack(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	clip := addClip(t, sess, "a.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})

	g, err := sess.BeginGesture(context.Background(), GestureDrag, clip.ID, PointerInput{Frame: 0, Track: 0})
	if err != nil {
		t.Fatalf("begin gesture: %v", err)
	}
	preview := g.Update(PointerInput{Frame: 0, Track: 1}, nil)
	if !preview.GhostTrack || !preview.Valid {
		t.Fatalf("expected valid ghost-track preview, got %+v", preview)
	}
	res, err := g.End(context.Background())
	if err != nil {
		t.Fatalf("end gesture: %v", err)
	}
	if res.Clips[0].Track != 1 || len(res.Snapshot.Tracks) != 2 {
		t.Fatalf("expected drop onto new track 1, got track %d with %d tracks", res.Clips[0].Track, len(res.Snapshot.Tracks))
	}
}

func TestGestureDragSnapsTrailingEdge(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	addClip(t, sess, "a.mp4", 0, 200, schema.SourceRange{In: 0, Out: 60})
	clip := addClip(t, sess, "b.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})

	g, err := sess.BeginGesture(context.Background(), GestureDrag, clip.ID, PointerInput{Frame: 0, Track: 0})
	if err != nil {
		t.Fatalf("begin gesture: %v", err)
	}
	// Dragging so the trailing edge lands near 200 snaps end-to-start.
	snap := &schema.SnapContext{Zoom: 30, TolerancePx: 8}
	preview := g.Update(PointerInput{Frame: 107, Track: 0}, snap)
	if preview.End != 200 || preview.Start != 110 {
		t.Fatalf("expected trailing edge snapped to 200, got [%d,%d)", preview.Start, preview.End)
	}
}

func TestGestureTrimStartPreviewClamps(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	clip := addClip(t, sess, "a.mp4", 0, 60, schema.SourceRange{In: 10, Out: 100})

	g, err := sess.BeginGesture(context.Background(), GestureTrimStart, clip.ID, PointerInput{Frame: 60, Track: 0})
	if err != nil {
		t.Fatalf("begin gesture: %v", err)
	}
	// Only 10 source frames exist before the in-point.
	preview := g.Update(PointerInput{Frame: 0, Track: 0}, nil)
	if preview.Start != 50 {
		t.Fatalf("expected preview clamped to 50, got %d", preview.Start)
	}
	res, err := g.End(context.Background())
	if err != nil {
		t.Fatalf("end gesture: %v", err)
	}
	if res.Clips[0].Start != 50 || res.Clips[0].Source.In != 0 {
		t.Fatalf("expected committed start 50 source.in 0, got %d/%d", res.Clips[0].Start, res.Clips[0].Source.In)
	}
}

func TestGestureSplitCommit(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	clip := addClip(t, sess, "a.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})

	g, err := sess.BeginGesture(context.Background(), GestureSplit, clip.ID, PointerInput{Frame: 45, Track: 0})
	if err != nil {
		t.Fatalf("begin gesture: %v", err)
	}
	res, err := g.End(context.Background())
	if err != nil {
		t.Fatalf("end gesture: %v", err)
	}
	if len(res.Clips) != 2 {
		t.Fatalf("expected split into two clips, got %d", len(res.Clips))
	}
	if res.Clips[0].End != 45 || res.Clips[1].Start != 45 {
		t.Fatalf("expected split at 45, got %d/%d", res.Clips[0].End, res.Clips[1].Start)
	}
}

func TestGestureSplitAtBoundaryInvalid(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	clip := addClip(t, sess, "a.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})

	g, err := sess.BeginGesture(context.Background(), GestureSplit, clip.ID, PointerInput{Frame: 0, Track: 0})
	if err != nil {
		t.Fatalf("begin gesture: %v", err)
	}
	if preview := g.Preview(); preview.Valid {
		t.Fatalf("expected boundary split preview invalid")
	}
	if _, err := g.End(context.Background()); !errors.Is(err, schema.ErrInvalidSplit) {
		t.Fatalf("expected ErrInvalidSplit, got %v", err)
	}
}

func TestBeginGestureValidation(t *testing.T) {
	sess := newTestSession(t, schema.SessionConfig{FrameRate: 30}, SessionDeps{})
	if _, err := sess.BeginGesture(context.Background(), GestureDrag, "missing", PointerInput{}); !errors.Is(err, schema.ErrClipNotFound) {
		t.Fatalf("expected ErrClipNotFound, got %v", err)
	}
	clip := addClip(t, sess, "a.mp4", 0, 0, schema.SourceRange{In: 0, Out: 90})
	if _, err := sess.BeginGesture(context.Background(), "wiggle", clip.ID, PointerInput{}); !errors.Is(err, schema.ErrInvalidCommand) {
		t.Fatalf("expected ErrInvalidCommand for unknown kind, got %v", err)
	}
}
