package core

import (
	"pkt.systems/montage/schema"
)

// Snap target priority: playhead beats clip edges, clip edges beat whole
// seconds. Lower value wins distance ties.
type snapPriority int

const (
	snapPlayhead snapPriority = iota
	snapClipEdge
	snapSecond
	snapNone
)

// resolveSnap returns the magnetically snapped frame for candidate and
// whether a target was within reach. Targets are the playhead, the edges of
// every other clip on any track, and whole-second boundaries; the nearest
// target within tol wins. ignore excludes the edges of the clip being
// edited so it does not snap to itself.
func resolveSnap(t *timeline, candidate, playhead schema.Frame, rate int, tol schema.Frame, ignore schema.ClipID) (schema.Frame, bool) {
	if tol <= 0 {
		return candidate, false
	}
	best := candidate
	bestPriority := snapNone
	bestDist := tol + 1

	consider := func(target schema.Frame, priority snapPriority) {
		if target < 0 {
			return
		}
		dist := target - candidate
		if dist < 0 {
			dist = -dist
		}
		if dist > tol {
			return
		}
		if dist < bestDist || (dist == bestDist && priority < bestPriority) {
			best = target
			bestPriority = priority
			bestDist = dist
		}
	}

	consider(playhead, snapPlayhead)
	for _, clip := range t.clips {
		if clip.ID == ignore {
			continue
		}
		consider(clip.Start, snapClipEdge)
		consider(clip.End, snapClipEdge)
	}
	if rate > 0 {
		r := schema.Frame(rate)
		lower := candidate / r * r
		consider(lower, snapSecond)
		consider(lower+r, snapSecond)
	}
	return best, bestPriority != snapNone
}
