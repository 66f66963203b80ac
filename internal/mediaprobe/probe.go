// Package mediaprobe resolves media identifiers to timeline metadata by
// probing files under a media root with ffprobe.
package mediaprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"pkt.systems/montage/schema"
	"pkt.systems/pslog"
)

// Resolver probes media files for duration and stream layout. Media ids are
// paths relative to the configured root; durations are converted to frames
// at the configured rate.
type Resolver struct {
	root string
	rate int
	log  pslog.Logger
}

// New constructs a resolver rooted at dir, reporting durations in frames at
// the given rate.
func New(dir string, rate int, logger pslog.Logger) (*Resolver, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("media root is required")
	}
	if rate < 1 || rate > schema.MaxFrameRate {
		return nil, fmt.Errorf("frame rate %d out of range", rate)
	}
	if logger != nil {
		logger = logger.With("media_root", dir)
	}
	return &Resolver{root: dir, rate: rate, log: logger}, nil
}

// Resolve probes the media file behind id.
func (r *Resolver) Resolve(ctx context.Context, id schema.MediaID) (schema.MediaInfo, error) {
	if err := ctx.Err(); err != nil {
		return schema.MediaInfo{}, err
	}
	path, err := r.pathFor(id)
	if err != nil {
		return schema.MediaInfo{}, err
	}
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		if r.log != nil {
			r.log.Warn("media probe failed", "media", id, "err", err)
		}
		return schema.MediaInfo{}, fmt.Errorf("%w: probe %s: %v", schema.ErrInvalidMedia, id, err)
	}
	info, err := ParseProbe(raw, r.rate)
	if err != nil {
		if r.log != nil {
			r.log.Warn("media probe unparsable", "media", id, "err", err)
		}
		return schema.MediaInfo{}, err
	}
	info.ID = id
	if r.log != nil {
		r.log.Debug("media probe ok", "media", id, "frames", info.DurationFrames, "width", info.Width, "height", info.Height)
	}
	return info, nil
}

// pathFor joins the media id onto the root, rejecting ids that escape it.
func (r *Resolver) pathFor(id schema.MediaID) (string, error) {
	cleaned := filepath.Clean(string(id))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: media id %q escapes the media root", schema.ErrInvalidMedia, id)
	}
	return filepath.Join(r.root, cleaned), nil
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

// ParseProbe converts raw ffprobe JSON into MediaInfo at the given rate.
func ParseProbe(raw string, rate int) (schema.MediaInfo, error) {
	var out probeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return schema.MediaInfo{}, fmt.Errorf("%w: %v", schema.ErrInvalidMedia, err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64)
	if err != nil || seconds <= 0 {
		return schema.MediaInfo{}, fmt.Errorf("%w: missing duration", schema.ErrInvalidMedia)
	}
	info := schema.MediaInfo{
		DurationFrames: schema.Frame(seconds * float64(rate)),
	}
	for _, stream := range out.Streams {
		switch stream.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width = stream.Width
				info.Height = stream.Height
			}
		case "audio":
			info.HasAudio = true
		}
	}
	if info.DurationFrames < 1 {
		return schema.MediaInfo{}, fmt.Errorf("%w: media shorter than one frame", schema.ErrInvalidMedia)
	}
	return info, nil
}
