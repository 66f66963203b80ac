package core

import (
	"time"

	"pkt.systems/montage/schema"
)

const initialStateLabel = "Initial state"

// historyLog keeps the linear undo/redo stacks of immutable snapshots. The
// invariant is that the top of the undo stack always equals the committed
// model; saves therefore happen only from post-commit state, exactly once
// per user-visible mutation.
type historyLog struct {
	undo []schema.HistoryEntry
	redo []schema.HistoryEntry
	max  int
	now  func() time.Time
}

func newHistoryLog(max int, now func() time.Time) *historyLog {
	if max <= 0 {
		max = schema.DefaultHistoryMax
	}
	if now == nil {
		now = time.Now
	}
	return &historyLog{max: max, now: now}
}

// Initialize resets both stacks and records the first entry. Called once
// per session.
func (h *historyLog) Initialize(snap schema.TimelineSnapshot) {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
	h.undo = append(h.undo, schema.HistoryEntry{
		Snapshot: snap.Clone(),
		Label:    initialStateLabel,
		At:       h.now(),
	})
}

// SaveState pushes a new entry and clears the redo stack (linear history).
// Oldest entries beyond the depth limit are dropped.
func (h *historyLog) SaveState(snap schema.TimelineSnapshot, label string) {
	h.undo = append(h.undo, schema.HistoryEntry{
		Snapshot: snap.Clone(),
		Label:    label,
		At:       h.now(),
	})
	h.redo = h.redo[:0]
	if len(h.undo) > h.max {
		h.undo = append(h.undo[:0], h.undo[len(h.undo)-h.max:]...)
	}
}

// Undo pops the current top onto the redo stack and returns the entry that
// is now current. No-op while only the initial entry remains.
func (h *historyLog) Undo() (schema.HistoryEntry, bool) {
	if len(h.undo) <= 1 {
		return schema.HistoryEntry{}, false
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, top)
	return h.undo[len(h.undo)-1], true
}

// Redo pops from the redo stack back onto undo and returns that entry.
// No-op when the redo stack is empty.
func (h *historyLog) Redo() (schema.HistoryEntry, bool) {
	if len(h.redo) == 0 {
		return schema.HistoryEntry{}, false
	}
	entry := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, entry)
	return entry, true
}

// Current returns the entry mirroring the live model.
func (h *historyLog) Current() (schema.HistoryEntry, bool) {
	if len(h.undo) == 0 {
		return schema.HistoryEntry{}, false
	}
	return h.undo[len(h.undo)-1], true
}

func (h *historyLog) CanUndo() bool { return len(h.undo) > 1 }

func (h *historyLog) CanRedo() bool { return len(h.redo) > 0 }

// Depth counts user-visible mutations currently undoable.
func (h *historyLog) Depth() int {
	if len(h.undo) == 0 {
		return 0
	}
	return len(h.undo) - 1
}
