package core

import (
	"context"

	"pkt.systems/montage/schema"
)

// RecordRequest starts a capture.
type RecordRequest struct {
	Mode schema.RecordingMode
}

// RecordResult is what a finished capture hands back. The session only
// consumes the resulting metadata, never the capture mechanics.
type RecordResult struct {
	Media          schema.MediaID
	DurationFrames schema.Frame
	URL            string
}

// Recorder owns the capture resource (stream, device) exclusively. The
// session coordinates start/stop ordering but does not touch the resource.
type Recorder interface {
	Start(ctx context.Context, req RecordRequest) error
	Stop(ctx context.Context) (RecordResult, error)
}
