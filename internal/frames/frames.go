// Package frames converts between frame counts, wall-clock time, and pixel
// offsets at a fixed integer frame rate. Frame arithmetic stays in integers;
// floats appear only at the pixel edge where the UI lives.
package frames

import (
	"math"
	"time"

	"pkt.systems/montage/schema"
)

// ToDuration returns the wall-clock offset of frame f at the given rate.
func ToDuration(f schema.Frame, rate int) time.Duration {
	if f < 0 || rate <= 0 {
		return 0
	}
	return time.Duration(int64(f) * int64(time.Second) / int64(rate))
}

// FromDuration returns the frame containing the wall-clock offset d,
// truncating toward zero. Negative offsets map to frame 0.
func FromDuration(d time.Duration, rate int) schema.Frame {
	if d <= 0 || rate <= 0 {
		return 0
	}
	return schema.Frame(int64(d) * int64(rate) / int64(time.Second))
}

// ToPixels returns the horizontal offset of frame f at zoom pixels/second.
func ToPixels(f schema.Frame, rate int, zoom float64) float64 {
	if rate <= 0 {
		return 0
	}
	return float64(f) / float64(rate) * zoom
}

// FromPixels returns the frame nearest to pixel offset px at zoom
// pixels/second. Offsets left of the origin map to frame 0.
func FromPixels(px float64, rate int, zoom float64) schema.Frame {
	if px <= 0 || zoom <= 0 || rate <= 0 {
		return 0
	}
	return schema.Frame(math.Round(px / zoom * float64(rate)))
}

// ToleranceFrames converts a pixel tolerance into frames at the given zoom.
// The result is never below one frame so snapping stays reachable when
// zoomed far out.
func ToleranceFrames(px float64, rate int, zoom float64) schema.Frame {
	if px <= 0 || zoom <= 0 || rate <= 0 {
		return 0
	}
	f := schema.Frame(math.Round(px / zoom * float64(rate)))
	if f < 1 {
		return 1
	}
	return f
}

// NearestSecond returns the whole-second boundary closest to f. Ties round
// down.
func NearestSecond(f schema.Frame, rate int) schema.Frame {
	if f < 0 || rate <= 0 {
		return 0
	}
	r := schema.Frame(rate)
	lower := f / r * r
	upper := lower + r
	if f-lower <= upper-f {
		return lower
	}
	return upper
}
