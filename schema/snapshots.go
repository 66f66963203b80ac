package schema

import "time"

// TimelineSnapshot is a deep copy of the timeline aggregate, safe to hand
// across goroutines. Clips are sorted by track, then start frame.
type TimelineSnapshot struct {
	Tracks      []Track `json:"tracks"`
	Clips       []Clip  `json:"clips"`
	TotalFrames Frame   `json:"total_frames"`
	Selected    ClipID  `json:"selected,omitempty"`
}

// Clone returns an independent copy of the snapshot.
func (s TimelineSnapshot) Clone() TimelineSnapshot {
	out := TimelineSnapshot{
		TotalFrames: s.TotalFrames,
		Selected:    s.Selected,
	}
	if len(s.Tracks) > 0 {
		out.Tracks = append([]Track(nil), s.Tracks...)
	}
	if len(s.Clips) > 0 {
		out.Clips = append([]Clip(nil), s.Clips...)
	}
	return out
}

// Clip returns the clip with the given id, if present.
func (s TimelineSnapshot) Clip(id ClipID) (Clip, bool) {
	for _, clip := range s.Clips {
		if clip.ID == id {
			return clip, true
		}
	}
	return Clip{}, false
}

// HistoryEntry is an immutable snapshot recorded per committed mutation.
type HistoryEntry struct {
	Snapshot TimelineSnapshot `json:"snapshot"`
	Label    string           `json:"label"`
	At       time.Time        `json:"at"`
}
