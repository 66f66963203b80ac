package core

import (
	"fmt"
	"testing"
	"time"

	"pkt.systems/montage/schema"
)

func snapWithTotal(total schema.Frame) schema.TimelineSnapshot {
	return schema.TimelineSnapshot{TotalFrames: total}
}

func TestHistoryInitialState(t *testing.T) {
	h := newHistoryLog(10, nil)
	h.Initialize(snapWithTotal(0))
	if h.CanUndo() || h.CanRedo() {
		t.Fatalf("fresh history should have nothing to undo or redo")
	}
	if h.Depth() != 0 {
		t.Fatalf("expected depth 0, got %d", h.Depth())
	}
	if _, ok := h.Undo(); ok {
		t.Fatalf("undo on initial state must be a no-op")
	}
}

func TestHistoryUndoRedoRoundTrip(t *testing.T) {
	h := newHistoryLog(10, nil)
	h.Initialize(snapWithTotal(0))
	h.SaveState(snapWithTotal(30), "Add clip")
	h.SaveState(snapWithTotal(60), "Add clip")

	entry, ok := h.Undo()
	if !ok || entry.Snapshot.TotalFrames != 30 {
		t.Fatalf("undo: ok=%v total=%d", ok, entry.Snapshot.TotalFrames)
	}
	if !h.CanRedo() {
		t.Fatalf("expected redo available after undo")
	}
	entry, ok = h.Redo()
	if !ok || entry.Snapshot.TotalFrames != 60 {
		t.Fatalf("redo: ok=%v total=%d", ok, entry.Snapshot.TotalFrames)
	}
	if h.CanRedo() {
		t.Fatalf("redo stack should be exhausted")
	}
}

func TestHistorySaveClearsRedo(t *testing.T) {
	h := newHistoryLog(10, nil)
	h.Initialize(snapWithTotal(0))
	h.SaveState(snapWithTotal(30), "Add clip")
	if _, ok := h.Undo(); !ok {
		t.Fatalf("undo failed")
	}
	h.SaveState(snapWithTotal(90), "Add clip")
	if h.CanRedo() {
		t.Fatalf("save must clear the redo stack")
	}
	if _, ok := h.Redo(); ok {
		t.Fatalf("redo after save must be a no-op")
	}
}

func TestHistoryDepthCap(t *testing.T) {
	h := newHistoryLog(3, nil)
	h.Initialize(snapWithTotal(0))
	for i := 1; i <= 5; i++ {
		h.SaveState(snapWithTotal(schema.Frame(i*30)), fmt.Sprintf("edit %d", i))
	}
	// Cap of 3 keeps the newest three entries; older ones are unreachable.
	if h.Depth() != 2 {
		t.Fatalf("expected depth 2 at cap, got %d", h.Depth())
	}
	h.Undo()
	h.Undo()
	if h.CanUndo() {
		t.Fatalf("expected undo exhausted at cap floor")
	}
	if entry, _ := h.Current(); entry.Snapshot.TotalFrames != 90 {
		t.Fatalf("expected oldest retained entry total 90, got %d", entry.Snapshot.TotalFrames)
	}
}

func TestHistoryEntriesAreDetached(t *testing.T) {
	h := newHistoryLog(10, nil)
	h.Initialize(snapWithTotal(0))
	snap := schema.TimelineSnapshot{
		Clips: []schema.Clip{{ID: "a", Start: 0, End: 30, Source: schema.SourceRange{In: 0, Out: 30}}},
	}
	h.SaveState(snap, "Add clip")
	snap.Clips[0].Start = 999
	entry, _ := h.Current()
	if entry.Snapshot.Clips[0].Start != 0 {
		t.Fatalf("history entry shares memory with caller snapshot")
	}
}

func TestHistoryTimestamps(t *testing.T) {
	at := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	h := newHistoryLog(10, func() time.Time { return at })
	h.Initialize(snapWithTotal(0))
	h.SaveState(snapWithTotal(30), "Add clip")
	entry, _ := h.Current()
	if !entry.At.Equal(at) {
		t.Fatalf("expected injected timestamp, got %v", entry.At)
	}
}
